// Package backup bundles every user-authored collection into one portable
// envelope and restores it through the per-store additive imports.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/studykit/aptrack/internal/notes"
	"github.com/studykit/aptrack/internal/practice"
)

// Envelope is the combined export format. Notes, topic statuses and
// practice attempts travel together; catalog data is derivable and never
// exported.
type Envelope struct {
	Version       int                 `json:"version"`
	Timestamp     time.Time           `json:"timestamp"`
	Notes         []notes.Note        `json:"notes"`
	TopicStatuses []notes.TopicStatus `json:"topicStatuses"`
	Attempts      []practice.Attempt  `json:"attempts"`
}

const envelopeSchema = `{
  "type": "object",
  "required": ["version"],
  "properties": {
    "version": {"type": "integer"},
    "timestamp": {"type": "string"},
    "notes": {
      "type": "array",
      "items": {"type": "object", "required": ["id"]}
    },
    "topicStatuses": {
      "type": "array",
      "items": {"type": "object", "required": ["courseId", "unitId", "topicId", "status"]}
    },
    "attempts": {
      "type": "array",
      "items": {"type": "object", "required": ["id"]}
    }
  }
}`

// Export serializes the full user data set from both stores.
func Export(notesStore *notes.Store, practiceStore *practice.Store) ([]byte, error) {
	env := Envelope{
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Notes:         notesStore.Notes(),
		TopicStatuses: notesStore.TopicStatuses(),
		Attempts:      practiceStore.Attempts(),
	}
	blob, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return blob, nil
}

// Import validates a combined envelope and merges each collection through
// its store's additive import. Validation failures return before anything
// is applied.
func Import(ctx context.Context, blob []byte, notesStore *notes.Store, practiceStore *practice.Store) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(envelopeSchema),
		gojsonschema.NewBytesLoader(blob),
	)
	if err != nil {
		return fmt.Errorf("invalid backup format: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("invalid backup format: %s", result.Errors()[0])
	}

	var env Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return fmt.Errorf("invalid backup format: %w", err)
	}

	if len(env.Notes) > 0 || len(env.TopicStatuses) > 0 {
		sub := notes.Envelope{
			Version:       env.Version,
			Timestamp:     env.Timestamp,
			Notes:         env.Notes,
			TopicStatuses: env.TopicStatuses,
		}
		if sub.Notes == nil {
			sub.Notes = []notes.Note{}
		}
		blob, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("encoding notes merge: %w", err)
		}
		notesStore.Import(ctx, blob)
		if err := notesStore.Err(); err != nil {
			return fmt.Errorf("merging notes: %w", err)
		}
	}

	if len(env.Attempts) > 0 {
		sub := practice.Envelope{
			Version:   env.Version,
			Timestamp: env.Timestamp,
			Attempts:  env.Attempts,
		}
		blob, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("encoding attempts merge: %w", err)
		}
		practiceStore.Import(ctx, blob)
		if err := practiceStore.Err(); err != nil {
			return fmt.Errorf("merging attempts: %w", err)
		}
	}

	return nil
}
