package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/studykit/aptrack/internal/platform/persist"
)

// Envelope is the export/import format for notes and topic statuses.
type Envelope struct {
	Version       int           `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Notes         []Note        `json:"notes"`
	TopicStatuses []TopicStatus `json:"topicStatuses,omitempty"`
}

// envelopeSchema validates an import payload before any merge happens.
const envelopeSchema = `{
	"type": "object",
	"required": ["version", "notes"],
	"properties": {
		"version": {"type": "integer"},
		"timestamp": {"type": "string"},
		"notes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"courseId": {"type": "string"},
					"unitId": {"type": "string"},
					"topicId": {"type": "string"},
					"title": {"type": "string"},
					"bodyMarkdown": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"topicStatuses": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["courseId", "unitId", "topicId", "status"],
				"properties": {
					"courseId": {"type": "string"},
					"unitId": {"type": "string"},
					"topicId": {"type": "string"},
					"status": {"type": "string"}
				}
			}
		}
	}
}`

// Export serializes the current notes and topic statuses.
func (s *Store) Export() ([]byte, error) {
	env := Envelope{
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Notes:         s.Notes(),
		TopicStatuses: s.TopicStatuses(),
	}
	blob, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding notes export: %w", err)
	}
	return blob, nil
}

// Import merges an exported envelope additively: notes whose id already
// exists locally are silently dropped, as are statuses whose triple is
// already tracked. Malformed payloads fail into Err with nothing applied.
func (s *Store) Import(ctx context.Context, blob []byte) {
	env, err := decodeEnvelope(blob)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	existingIDs := make(map[string]bool, len(s.state.Notes))
	for _, n := range s.state.Notes {
		existingIDs[n.ID] = true
	}
	existingTriples := make(map[string]bool, len(s.state.TopicStatuses))
	for _, ts := range s.state.TopicStatuses {
		existingTriples[tripleKey(ts.CourseID, ts.UnitID, ts.TopicID)] = true
	}

	merged := s.state
	merged.Notes = append([]Note(nil), s.state.Notes...)
	merged.TopicStatuses = append([]TopicStatus(nil), s.state.TopicStatuses...)

	for _, n := range env.Notes {
		if !existingIDs[n.ID] {
			merged.Notes = append(merged.Notes, n)
		}
	}
	for _, ts := range env.TopicStatuses {
		if !existingTriples[tripleKey(ts.CourseID, ts.UnitID, ts.TopicID)] {
			merged.TopicStatuses = append(merged.TopicStatuses, ts)
		}
	}

	s.state = merged
	s.err = nil
	snapshot := s.state
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

func decodeEnvelope(blob []byte) (Envelope, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(envelopeSchema),
		gojsonschema.NewBytesLoader(blob),
	)
	if err != nil {
		return Envelope{}, fmt.Errorf("invalid notes data format: %w", err)
	}
	if !result.Valid() {
		return Envelope{}, fmt.Errorf("invalid notes data format: %s", result.Errors()[0])
	}

	var env Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid notes data format: %w", err)
	}
	return env, nil
}

func tripleKey(courseID, unitID, topicID string) string {
	return courseID + "\x00" + unitID + "\x00" + topicID
}

// NewPersist builds the persistence store for notes state at key "notes",
// schema version 1.
func NewPersist(backend persist.Backend) *persist.Store[State] {
	return persist.New(backend, persist.Config[State]{Key: "notes", Version: 1})
}
