// Package practice tracks practice-exam attempts and the lifecycle of the
// single active practice session.
package practice

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/studykit/aptrack/internal/platform/persist"
)

// AttemptType distinguishes free-response from multiple-choice practice.
type AttemptType string

const (
	TypeFRQ AttemptType = "frq"
	TypeMCQ AttemptType = "mcq"
)

// Attempt is the immutable record of one ended practice session. Attempts
// are only ever appended, bulk-cleared, or imported; never edited.
type Attempt struct {
	ID              string      `json:"id"`
	CourseID        string      `json:"courseId"`
	UnitID          string      `json:"unitId"`
	Type            AttemptType `json:"type"`
	Date            time.Time   `json:"date"`
	CorrectCount    int         `json:"correctCount"`
	TotalCount      int         `json:"totalCount"`
	DurationMinutes float64     `json:"durationMinutes"`
}

// Accuracy aggregates correct/total counts over a set of attempts.
type Accuracy struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ErrNoActiveSession reports an EndSession call whose id does not match the
// current session.
var ErrNoActiveSession = errors.New("active session not found")

// Store owns the attempt history and the at-most-one active session.
type Store struct {
	mu       sync.RWMutex
	attempts []Attempt
	active   *Session
	err      error

	persist *persist.Store[[]Attempt]
	now     func() time.Time
}

// NewStore creates a practice store persisting attempts through p.
func NewStore(p *persist.Store[[]Attempt]) *Store {
	return &Store{persist: p, now: time.Now}
}

// Load restores the persisted attempt history.
func (s *Store) Load(ctx context.Context) {
	s.persist.Load(ctx)
	if attempts, ok := s.persist.Get(); ok {
		s.mu.Lock()
		s.attempts = attempts
		s.mu.Unlock()
	}
}

// Err returns the validation error from the most recent failed operation.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Attempts returns the full attempt history.
func (s *Store) Attempts() []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

// ByCourse returns the attempts for a course.
func (s *Store) ByCourse(courseID string) []Attempt {
	return s.filter(func(a Attempt) bool { return a.CourseID == courseID })
}

// ByUnit returns the attempts for a unit.
func (s *Store) ByUnit(courseID, unitID string) []Attempt {
	return s.filter(func(a Attempt) bool {
		return a.CourseID == courseID && a.UnitID == unitID
	})
}

// ByType returns the attempts of one question type.
func (s *Store) ByType(typ AttemptType) []Attempt {
	return s.filter(func(a Attempt) bool { return a.Type == typ })
}

// AccuracyByUnit sums correct and total counts across a unit's attempts.
// A zero total yields a 0 percentage rather than a division by zero.
func (s *Store) AccuracyByUnit(courseID, unitID string) Accuracy {
	return accuracyOf(s.ByUnit(courseID, unitID))
}

// AccuracyByCourse sums correct and total counts across a course's attempts.
func (s *Store) AccuracyByCourse(courseID string) Accuracy {
	return accuracyOf(s.ByCourse(courseID))
}

// StreakByUnit counts consecutive attempts at or above 70% correctness,
// walking from the most recent attempt backward. An attempt with a zero
// total count is non-passing and breaks the streak.
func (s *Store) StreakByUnit(courseID, unitID string) int {
	attempts := s.ByUnit(courseID, unitID)
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].Date.After(attempts[j].Date)
	})

	streak := 0
	for _, a := range attempts {
		if a.TotalCount == 0 {
			break
		}
		if float64(a.CorrectCount)/float64(a.TotalCount) < 0.7 {
			break
		}
		streak++
	}
	return streak
}

// Clear removes every attempt along with the persisted record. The active
// session, if any, is left untouched.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.attempts = nil
	s.err = nil
	s.mu.Unlock()

	s.persist.Clear(ctx)
}

func (s *Store) filter(pred func(Attempt) bool) []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Attempt
	for _, a := range s.attempts {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

func accuracyOf(attempts []Attempt) Accuracy {
	var acc Accuracy
	for _, a := range attempts {
		acc.Correct += a.CorrectCount
		acc.Total += a.TotalCount
	}
	if acc.Total > 0 {
		acc.Percentage = int(math.Round(float64(acc.Correct) / float64(acc.Total) * 100))
	}
	return acc
}
