package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/studykit/aptrack/internal/platform/persist"
)

// Envelope is the portable export format for attempt history.
type Envelope struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Attempts  []Attempt `json:"attempts"`
}

// envelopeSchema validates imported envelopes before any merge happens.
const envelopeSchema = `{
  "type": "object",
  "required": ["version", "attempts"],
  "properties": {
    "version": {"type": "integer"},
    "timestamp": {"type": "string"},
    "attempts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string"},
          "courseId": {"type": "string"},
          "unitId": {"type": "string"},
          "type": {"type": "string", "enum": ["frq", "mcq"]},
          "date": {"type": "string"},
          "correctCount": {"type": "integer"},
          "totalCount": {"type": "integer"},
          "durationMinutes": {"type": "number"}
        }
      }
    }
  }
}`

// Export serializes the current attempt history.
func (s *Store) Export() ([]byte, error) {
	env := Envelope{
		Version:   1,
		Timestamp: time.Now().UTC(),
		Attempts:  s.Attempts(),
	}
	blob, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding attempts export: %w", err)
	}
	return blob, nil
}

// Import merges an exported envelope additively: attempts whose id already
// exists locally are silently dropped. Malformed payloads fail into Err with
// nothing applied.
func (s *Store) Import(ctx context.Context, blob []byte) {
	env, err := decodeEnvelope(blob)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	existing := make(map[string]bool, len(s.attempts))
	for _, a := range s.attempts {
		existing[a.ID] = true
	}

	merged := append([]Attempt(nil), s.attempts...)
	for _, a := range env.Attempts {
		if !existing[a.ID] {
			merged = append(merged, a)
		}
	}

	s.attempts = merged
	s.err = nil
	snapshot := s.attempts
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

func decodeEnvelope(blob []byte) (Envelope, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(envelopeSchema),
		gojsonschema.NewBytesLoader(blob),
	)
	if err != nil {
		return Envelope{}, fmt.Errorf("invalid attempts data format: %w", err)
	}
	if !result.Valid() {
		return Envelope{}, fmt.Errorf("invalid attempts data format: %s", result.Errors()[0])
	}

	var env Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid attempts data format: %w", err)
	}
	return env, nil
}

// NewPersist builds the persistence store for attempt history at key
// "practice_attempts", schema version 1.
func NewPersist(backend persist.Backend) *persist.Store[[]Attempt] {
	return persist.New(backend, persist.Config[[]Attempt]{Key: "practice_attempts", Version: 1})
}
