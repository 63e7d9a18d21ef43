package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/studykit/aptrack/internal/platform/persist"
)

// Store holds the in-memory catalog and the current filter state. Courses
// are set once at startup; only the filter criteria are persisted, keyed
// "courses".
type Store struct {
	mu       sync.RWMutex
	courses  []Course
	filter   Filter
	filtered []Course

	persist *persist.Store[Filter]
}

// NewStore creates a catalog store persisting its filter state through p.
func NewStore(p *persist.Store[Filter]) *Store {
	return &Store{persist: p}
}

// NewPersist builds the persistence store for filter state at key
// "courses", schema version 1.
func NewPersist(backend persist.Backend) *persist.Store[Filter] {
	return persist.New(backend, persist.Config[Filter]{Key: "courses", Version: 1})
}

// Load restores persisted filter criteria and applies them.
func (s *Store) Load(ctx context.Context) {
	s.persist.Load(ctx)
	if f, ok := s.persist.Get(); ok {
		s.mu.Lock()
		s.filter = f
		s.filtered = Apply(s.courses, s.filter)
		s.mu.Unlock()
	}
}

// SetCourses replaces the catalog contents and reapplies the current
// filter.
func (s *Store) SetCourses(courses []Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = courses
	s.filtered = Apply(s.courses, s.filter)
}

// Courses returns the full catalog.
func (s *Store) Courses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// Filtered returns the courses matching the current filter.
func (s *Store) Filtered() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Course, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// Filter returns the current filter criteria.
func (s *Store) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// CourseByID looks up a course by its catalog key.
func (s *Store) CourseByID(id string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// SetQuery updates the text search criterion and refilters.
func (s *Store) SetQuery(ctx context.Context, query string) {
	s.updateFilter(ctx, func(f *Filter) { f.Query = query })
}

// SetSubject updates the subject criterion and refilters.
func (s *Store) SetSubject(ctx context.Context, subject string) {
	s.updateFilter(ctx, func(f *Filter) { f.Subject = subject })
}

// SetDifficulty updates the difficulty bucket and refilters.
func (s *Store) SetDifficulty(ctx context.Context, bucket string) {
	s.updateFilter(ctx, func(f *Filter) { f.Difficulty = bucket })
}

// ClearFilters resets all criteria.
func (s *Store) ClearFilters(ctx context.Context) {
	s.updateFilter(ctx, func(f *Filter) { *f = Filter{} })
}

func (s *Store) updateFilter(ctx context.Context, mutate func(*Filter)) {
	s.mu.Lock()
	mutate(&s.filter)
	s.filtered = Apply(s.courses, s.filter)
	f := s.filter
	s.mu.Unlock()

	s.persist.Save(ctx, f)
}

// Subjects returns the distinct subjects in the catalog, sorted.
func (s *Store) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var subjects []string
	for _, c := range s.courses {
		if c.Subject != "" && !seen[c.Subject] {
			seen[c.Subject] = true
			subjects = append(subjects, c.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// Tags returns the distinct tags across the catalog, sorted.
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var tags []string
	for _, c := range s.courses {
		for _, tag := range c.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
