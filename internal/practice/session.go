package practice

import (
	"context"
	"fmt"
	"math"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Session is the ephemeral state between StartSession and EndSession. At
// most one session is active at a time; it is never persisted on its own.
type Session struct {
	ID        string      `json:"id"`
	CourseID  string      `json:"courseId"`
	UnitID    string      `json:"unitId"`
	Type      AttemptType `json:"type"`
	StartTime time.Time   `json:"startTime"`
	Questions []Question  `json:"questions"`
}

// Question is a placeholder slot in an active session. Question ids follow
// {type}-{courseId}-{unitId}-{n} with n starting at 1; repeats of the same
// unit reuse the same ids, which is fine for ephemeral state.
type Question struct {
	ID               string `json:"id"`
	QuestionID       string `json:"questionId"`
	UserAnswer       string `json:"userAnswer,omitempty"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// Answer is one graded response supplied to EndSession.
type Answer struct {
	QuestionID       string `json:"questionId"`
	IsCorrect        bool   `json:"isCorrect"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// StartSession opens a new practice session with questionCount placeholder
// questions, replacing any session already active.
func (s *Store) StartSession(courseID, unitID string, typ AttemptType, questionCount int) Session {
	questions := make([]Question, questionCount)
	for i := range questions {
		questions[i] = Question{
			ID:         gonanoid.Must(),
			QuestionID: fmt.Sprintf("%s-%s-%s-%d", typ, courseID, unitID, i+1),
		}
	}

	session := Session{
		ID:        gonanoid.Must(),
		CourseID:  courseID,
		UnitID:    unitID,
		Type:      typ,
		StartTime: s.now(),
		Questions: questions,
	}

	s.mu.Lock()
	s.active = &session
	s.mu.Unlock()
	return session
}

// ActiveSession returns the current session, if one is open.
func (s *Store) ActiveSession() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Session{}, false
	}
	return *s.active, true
}

// RecordAnswer stores a user's in-progress answer on the matching question.
// A stale session or unknown question id is a silent no-op.
func (s *Store) RecordAnswer(sessionID, questionID, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != sessionID {
		return
	}
	for i, q := range s.active.Questions {
		if q.QuestionID == questionID {
			s.active.Questions[i].UserAnswer = answer
			return
		}
	}
}

// EndSession converts the active session into exactly one immutable attempt.
// Correct and total counts come from the supplied answer list alone, and the
// duration is wall-clock minutes rounded to two decimal places. A session id
// that does not match the active session fails into Err with no side
// effects.
func (s *Store) EndSession(ctx context.Context, sessionID string, answers []Answer) (Attempt, bool) {
	s.mu.Lock()
	if s.active == nil || s.active.ID != sessionID {
		s.err = ErrNoActiveSession
		s.mu.Unlock()
		return Attempt{}, false
	}

	end := s.now()
	minutes := end.Sub(s.active.StartTime).Minutes()

	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	attempt := Attempt{
		ID:              gonanoid.Must(),
		CourseID:        s.active.CourseID,
		UnitID:          s.active.UnitID,
		Type:            s.active.Type,
		Date:            end.UTC(),
		CorrectCount:    correct,
		TotalCount:      len(answers),
		DurationMinutes: math.Round(minutes*100) / 100,
	}

	s.attempts = append(append([]Attempt(nil), s.attempts...), attempt)
	s.active = nil
	s.err = nil
	snapshot := s.attempts
	s.mu.Unlock()

	s.persist.Save(ctx, snapshot)
	return attempt, true
}
