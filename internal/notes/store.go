// Package notes manages per-unit study notes and topic progress statuses.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/studykit/aptrack/internal/platform/persist"
	"github.com/studykit/aptrack/internal/textmatch"
)

// Note is one markdown note attached to a course/unit/topic. Title and
// Tags are always derived from BodyMarkdown; they are recomputed on every
// body update and cannot drift from it.
type Note struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	UnitID       string    `json:"unitId"`
	TopicID      string    `json:"topicId"`
	Title        string    `json:"title"`
	BodyMarkdown string    `json:"bodyMarkdown"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StatusValue is a topic's progress state. A topic with no stored record
// is implicitly StatusNotStarted.
type StatusValue string

const (
	StatusNotStarted       StatusValue = "not-started"
	StatusReviewingInClass StatusValue = "reviewing-in-class"
	StatusLessonTaught     StatusValue = "lesson-taught"
	StatusReviewing        StatusValue = "reviewing"
	StatusDone             StatusValue = "done"
)

// ValidStatusValue reports whether v is a known topic status.
func ValidStatusValue(v StatusValue) bool {
	switch v {
	case StatusNotStarted, StatusReviewingInClass, StatusLessonTaught, StatusReviewing, StatusDone:
		return true
	}
	return false
}

// TopicStatus records explicit progress for one (course, unit, topic)
// triple. At most one record exists per triple.
type TopicStatus struct {
	CourseID    string      `json:"courseId"`
	UnitID      string      `json:"unitId"`
	TopicID     string      `json:"topicId"`
	Status      StatusValue `json:"status"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// State is the persisted payload: notes plus topic statuses, saved
// together under one record.
type State struct {
	Notes         []Note        `json:"notes"`
	TopicStatuses []TopicStatus `json:"topicStatuses"`
}

// Validation errors surfaced through Err.
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrBadStatus    = errors.New("unknown topic status")
)

const defaultBody = "# Untitled Note\n\nStart writing your notes here..."

// Store owns the notes collection and topic statuses.
type Store struct {
	mu    sync.RWMutex
	state State
	err   error

	persist *persist.Store[State]
	now     func() time.Time
}

// NewStore creates a notes store persisting through p.
func NewStore(p *persist.Store[State]) *Store {
	return &Store{persist: p, now: time.Now}
}

// Load restores the persisted state.
func (s *Store) Load(ctx context.Context) {
	s.persist.Load(ctx)
	if state, ok := s.persist.Get(); ok {
		s.mu.Lock()
		s.state = state
		s.mu.Unlock()
	}
}

// Err returns the validation error from the most recent failed operation.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Create adds a new note. An empty body gets a starter heading, and an
// empty title is derived from the body's first heading.
func (s *Store) Create(ctx context.Context, courseID, unitID, topicID, title, body string) Note {
	if body == "" {
		body = defaultBody
	}
	if title == "" {
		title = Title(body)
	}

	now := s.now()
	note := Note{
		ID:           gonanoid.Must(),
		CourseID:     courseID,
		UnitID:       unitID,
		TopicID:      topicID,
		Title:        title,
		BodyMarkdown: body,
		Tags:         Tags(body),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.state.Notes = append(append([]Note(nil), s.state.Notes...), note)
	s.err = nil
	snapshot := s.state
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
	return note
}

// Update replaces a note's body and rederives its title and tags.
func (s *Store) Update(ctx context.Context, id, body string) {
	s.mu.Lock()
	idx := -1
	for i, n := range s.state.Notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.err = fmt.Errorf("%w: %s", ErrNoteNotFound, id)
		s.mu.Unlock()
		return
	}

	updated := make([]Note, len(s.state.Notes))
	copy(updated, s.state.Notes)
	updated[idx].BodyMarkdown = body
	updated[idx].Title = Title(body)
	updated[idx].Tags = Tags(body)
	updated[idx].UpdatedAt = s.now()

	s.state.Notes = updated
	s.err = nil
	snapshot := s.state
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

// Delete removes a note by id. Deleting a missing note is a no-op.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	s.err = nil
	kept := s.state.Notes[:0:0]
	for _, n := range s.state.Notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.state.Notes = kept
	snapshot := s.state
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

// ByID looks up a note.
func (s *Store) ByID(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.state.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// ByCourse returns the notes for a course.
func (s *Store) ByCourse(courseID string) []Note {
	return s.filterNotes(func(n Note) bool { return n.CourseID == courseID })
}

// ByUnit returns the notes for a unit.
func (s *Store) ByUnit(courseID, unitID string) []Note {
	return s.filterNotes(func(n Note) bool {
		return n.CourseID == courseID && n.UnitID == unitID
	})
}

// ByTopic returns the notes for a topic.
func (s *Store) ByTopic(courseID, unitID, topicID string) []Note {
	return s.filterNotes(func(n Note) bool {
		return n.CourseID == courseID && n.UnitID == unitID && n.TopicID == topicID
	})
}

// Search returns notes whose title, body or any tag contains query,
// case-insensitively. Non-empty courseID/unitID/topicID narrow the
// candidate set before the text match.
func (s *Store) Search(query, courseID, unitID, topicID string) []Note {
	return s.filterNotes(func(n Note) bool {
		if courseID != "" && n.CourseID != courseID {
			return false
		}
		if unitID != "" && n.UnitID != unitID {
			return false
		}
		if topicID != "" && n.TopicID != topicID {
			return false
		}
		return textmatch.Contains(n.Title, query) ||
			textmatch.Contains(n.BodyMarkdown, query) ||
			textmatch.ContainsAny(n.Tags, query)
	})
}

// TagsByCourse returns the distinct tags across a course's notes, sorted.
func (s *Store) TagsByCourse(courseID string) []string {
	return collectTags(s.ByCourse(courseID))
}

// TagsByUnit returns the distinct tags across a unit's notes, sorted.
func (s *Store) TagsByUnit(courseID, unitID string) []string {
	return collectTags(s.ByUnit(courseID, unitID))
}

// SetTopicStatus upserts the status record for a topic triple.
func (s *Store) SetTopicStatus(ctx context.Context, courseID, unitID, topicID string, status StatusValue) {
	if !ValidStatusValue(status) {
		s.mu.Lock()
		s.err = fmt.Errorf("%w: %q", ErrBadStatus, status)
		s.mu.Unlock()
		return
	}

	record := TopicStatus{
		CourseID:    courseID,
		UnitID:      unitID,
		TopicID:     topicID,
		Status:      status,
		LastUpdated: s.now(),
	}

	s.mu.Lock()
	updated := make([]TopicStatus, len(s.state.TopicStatuses))
	copy(updated, s.state.TopicStatuses)

	replaced := false
	for i, ts := range updated {
		if ts.CourseID == courseID && ts.UnitID == unitID && ts.TopicID == topicID {
			updated[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, record)
	}

	s.state.TopicStatuses = updated
	s.err = nil
	snapshot := s.state
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

// TopicStatusFor returns the explicit status for a triple, or
// StatusNotStarted when no record exists: absence is a valid, meaningful
// state.
func (s *Store) TopicStatusFor(courseID, unitID, topicID string) StatusValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ts := range s.state.TopicStatuses {
		if ts.CourseID == courseID && ts.UnitID == unitID && ts.TopicID == topicID {
			return ts.Status
		}
	}
	return StatusNotStarted
}

// TopicStatusesByCourse returns the explicit status records for a course.
func (s *Store) TopicStatusesByCourse(courseID string) []TopicStatus {
	return s.filterStatuses(func(ts TopicStatus) bool { return ts.CourseID == courseID })
}

// TopicStatusesByUnit returns the explicit status records for a unit.
func (s *Store) TopicStatusesByUnit(courseID, unitID string) []TopicStatus {
	return s.filterStatuses(func(ts TopicStatus) bool {
		return ts.CourseID == courseID && ts.UnitID == unitID
	})
}

// Notes returns the full notes collection.
func (s *Store) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Note, len(s.state.Notes))
	copy(out, s.state.Notes)
	return out
}

// TopicStatuses returns every explicit status record.
func (s *Store) TopicStatuses() []TopicStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TopicStatus, len(s.state.TopicStatuses))
	copy(out, s.state.TopicStatuses)
	return out
}

// Clear removes every note and topic status along with the persisted
// record.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.state = State{}
	s.err = nil
	s.mu.Unlock()

	s.persist.Clear(ctx)
}

func (s *Store) filterNotes(pred func(Note) bool) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Note
	for _, n := range s.state.Notes {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) filterStatuses(pred func(TopicStatus) bool) []TopicStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []TopicStatus
	for _, ts := range s.state.TopicStatuses {
		if pred(ts) {
			out = append(out, ts)
		}
	}
	return out
}

func collectTags(notes []Note) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, n := range notes {
		for _, tag := range n.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
