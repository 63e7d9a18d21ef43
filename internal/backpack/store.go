// Package backpack manages the user's personal working set of catalog
// courses.
package backpack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/studykit/aptrack/internal/platform/persist"
)

// Status is the user's progress state for a backpack course.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Course is one entry in the backpack. CourseID is a weak reference into
// the catalog; Order is kept dense (0..N-1) across removals and reorders.
type Course struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	Status       Status    `json:"status"`
	Difficulty   int       `json:"difficulty"`
	AddedAt      time.Time `json:"addedAt"`
	LastActivity time.Time `json:"lastActivity"`
	Order        int       `json:"order"`
}

// Validation errors surfaced through Err.
var (
	ErrDuplicateCourse = errors.New("course already in backpack")
	ErrNotFound        = errors.New("backpack course not found")
	ErrBadIndex        = errors.New("reorder index out of range")
	ErrBadStatus       = errors.New("unknown course status")
	ErrBadDifficulty   = errors.New("difficulty must be between 1 and 5")
)

// Store owns the backpack collection. Mutations never raise to the caller;
// validation failures land in the store's error field, cleared by the next
// successful operation.
type Store struct {
	mu      sync.RWMutex
	courses []Course
	err     error

	persist *persist.Store[[]Course]
	now     func() time.Time
}

// NewStore creates a backpack store persisting through p.
func NewStore(p *persist.Store[[]Course]) *Store {
	return &Store{persist: p, now: time.Now}
}

// NewPersist builds the persistence store for the backpack collection at
// key "backpack", schema version 1.
func NewPersist(backend persist.Backend) *persist.Store[[]Course] {
	return persist.New(backend, persist.Config[[]Course]{Key: "backpack", Version: 1})
}

// Load restores the persisted collection.
func (s *Store) Load(ctx context.Context) {
	s.persist.Load(ctx)
	if courses, ok := s.persist.Get(); ok {
		s.mu.Lock()
		s.courses = courses
		s.mu.Unlock()
	}
}

// Err returns the validation error from the most recent failed operation,
// or nil.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Add appends a course to the backpack with planned status, difficulty 3
// and the next order slot. Adding a course already present fails into Err.
func (s *Store) Add(ctx context.Context, courseID string) (Course, bool) {
	s.mu.Lock()
	for _, c := range s.courses {
		if c.CourseID == courseID {
			s.err = fmt.Errorf("%w: %s", ErrDuplicateCourse, courseID)
			s.mu.Unlock()
			return Course{}, false
		}
	}

	now := s.now()
	course := Course{
		ID:           gonanoid.Must(),
		CourseID:     courseID,
		Status:       StatusPlanned,
		Difficulty:   3,
		AddedAt:      now,
		LastActivity: now,
		Order:        len(s.courses),
	}
	s.courses = append(s.courses, course)
	s.err = nil
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
	return course, true
}

// Remove deletes the entry with the given synthetic id and renumbers the
// survivors densely.
func (s *Store) Remove(ctx context.Context, id string) {
	s.RemoveMany(ctx, []string{id})
}

// RemoveMany deletes every entry whose id is listed, then renumbers.
func (s *Store) RemoveMany(ctx context.Context, ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.courses[:0:0]
	for _, c := range s.courses {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	s.courses = renumber(kept)
	s.err = nil
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

// Reorder moves the entry at from to position to, shifting the rest.
// Out-of-range indices fail into Err with no change.
func (s *Store) Reorder(ctx context.Context, from, to int) {
	s.mu.Lock()
	n := len(s.courses)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.err = fmt.Errorf("%w: from=%d to=%d len=%d", ErrBadIndex, from, to, n)
		s.mu.Unlock()
		return
	}

	reordered := make([]Course, 0, n)
	reordered = append(reordered, s.courses[:from]...)
	reordered = append(reordered, s.courses[from+1:]...)
	reordered = append(reordered[:to:to], append([]Course{s.courses[from]}, reordered[to:]...)...)

	s.courses = renumber(reordered)
	s.err = nil
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

// SetStatus updates an entry's status and touches its last activity.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) {
	if !ValidStatus(status) {
		s.fail(fmt.Errorf("%w: %q", ErrBadStatus, status))
		return
	}
	s.update(ctx, id, func(c *Course) {
		c.Status = status
		c.LastActivity = s.now()
	})
}

// SetDifficulty updates the user's own 1-5 difficulty estimate. Unlike a
// status change, this does not touch last activity.
func (s *Store) SetDifficulty(ctx context.Context, id string, difficulty int) {
	if difficulty < 1 || difficulty > 5 {
		s.fail(fmt.Errorf("%w: %d", ErrBadDifficulty, difficulty))
		return
	}
	s.update(ctx, id, func(c *Course) {
		c.Difficulty = difficulty
	})
}

// TouchActivity stamps an entry's last activity with the current time.
func (s *Store) TouchActivity(ctx context.Context, id string) {
	s.update(ctx, id, func(c *Course) {
		c.LastActivity = s.now()
	})
}

// Clear empties the backpack and its persisted record.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.courses = nil
	s.err = nil
	s.mu.Unlock()

	s.persist.Clear(ctx)
}

// Courses returns the collection in display order.
func (s *Store) Courses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Get looks up an entry by its synthetic id.
func (s *Store) Get(id string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// ByCourseID looks up the entry referencing a catalog course.
func (s *Store) ByCourseID(courseID string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.CourseID == courseID {
			return c, true
		}
	}
	return Course{}, false
}

// Contains reports whether a catalog course is in the backpack.
func (s *Store) Contains(courseID string) bool {
	_, ok := s.ByCourseID(courseID)
	return ok
}

// CourseIDs returns the referenced catalog course ids in display order.
func (s *Store) CourseIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.courses))
	for i, c := range s.courses {
		out[i] = c.CourseID
	}
	return out
}

func (s *Store) update(ctx context.Context, id string, mutate func(*Course)) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.courses {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.err = fmt.Errorf("%w: %s", ErrNotFound, id)
		s.mu.Unlock()
		return
	}

	updated := make([]Course, len(s.courses))
	copy(updated, s.courses)
	mutate(&updated[idx])

	s.courses = updated
	s.err = nil
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// snapshot copies the collection; callers hold s.mu.
func (s *Store) snapshot() []Course {
	out := make([]Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// renumber assigns dense 0..N-1 order values in slice order.
func renumber(courses []Course) []Course {
	for i := range courses {
		courses[i].Order = i
	}
	return courses
}
