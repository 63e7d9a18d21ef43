package structure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrNoSource reports a course id with no registered PDF URL. It is the
	// one error this pipeline surfaces to callers: "does not apply" is
	// distinguishable from "tried and failed".
	ErrNoSource = errors.New("no pdf source registered for course")

	// ErrAlreadyLoading reports a concurrent request for a course whose
	// extraction is already in flight. Callers fail fast instead of queuing.
	ErrAlreadyLoading = errors.New("course structure is already being loaded")
)

// Service coordinates outline extraction: source registry, per-course
// result cache, per-course in-flight flags and a non-fatal error side
// channel. Fetch or parse failures never surface as errors; the caller
// always receives a populated outline.
type Service struct {
	fetcher  Fetcher
	registry *Registry
	log      *slog.Logger

	mu      sync.Mutex
	cache   map[string]Structure
	loading map[string]bool
	errs    map[string]error
}

// NewService creates a structure service over the given fetcher and source
// registry.
func NewService(fetcher Fetcher, registry *Registry, log *slog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		registry: registry,
		log:      log,
		cache:    make(map[string]Structure),
		loading:  make(map[string]bool),
		errs:     make(map[string]error),
	}
}

// Structure returns the outline for a course, extracting it on first use.
// Extraction failures fall back to a canned outline and are recorded on the
// Err side channel; only an unregistered course id or a concurrent in-flight
// load produce errors.
func (s *Service) Structure(ctx context.Context, courseID string) (Structure, error) {
	s.mu.Lock()
	if cached, ok := s.cache[courseID]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	if s.loading[courseID] {
		s.mu.Unlock()
		return Structure{}, ErrAlreadyLoading
	}
	url, ok := s.registry.URL(courseID)
	if !ok {
		s.mu.Unlock()
		return Structure{}, fmt.Errorf("%w: %s", ErrNoSource, courseID)
	}
	s.loading[courseID] = true
	delete(s.errs, courseID)
	s.mu.Unlock()

	result := s.extract(ctx, courseID, url)

	s.mu.Lock()
	s.cache[courseID] = result
	delete(s.loading, courseID)
	s.mu.Unlock()
	return result, nil
}

// extract runs the fetch-and-parse pipeline, falling back on any failure.
func (s *Service) extract(ctx context.Context, courseID, url string) Structure {
	text, err := s.fetcher.FetchText(ctx, url)
	if err != nil {
		s.log.Warn("structure extraction failed, using fallback",
			"course_id", courseID, "url", url, "error", err)
		s.mu.Lock()
		s.errs[courseID] = err
		s.mu.Unlock()
		return Fallback(courseID)
	}

	parsed := Parse(text, courseID)
	s.log.Info("extracted course structure",
		"course_id", courseID, "units", len(parsed.Units))
	return parsed
}

// Available reports whether a course has a registered source.
func (s *Service) Available(courseID string) bool {
	return s.registry.Contains(courseID)
}

// Loading reports whether a course's extraction is currently in flight.
func (s *Service) Loading(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[courseID]
}

// Cached returns the cached outline for a course, if extraction has run.
func (s *Service) Cached(courseID string) (Structure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.cache[courseID]
	return cached, ok
}

// Err returns the recorded extraction failure for a course, if its most
// recent load fell back. It is advisory: the cached outline is still valid.
func (s *Service) Err(courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[courseID]
}

// CourseIDs returns every course id with a registered source, sorted.
func (s *Service) CourseIDs() []string {
	return s.registry.CourseIDs()
}

// AddSource registers or replaces a course's PDF URL and drops any cached
// outline so the next request re-extracts.
func (s *Service) AddSource(courseID, url string) {
	s.registry.Add(courseID, url)
	s.mu.Lock()
	delete(s.cache, courseID)
	delete(s.errs, courseID)
	s.mu.Unlock()
}

// RemoveSource drops a course's PDF URL along with its cached outline and
// any recorded state.
func (s *Service) RemoveSource(courseID string) {
	s.registry.Remove(courseID)
	s.mu.Lock()
	delete(s.cache, courseID)
	delete(s.errs, courseID)
	delete(s.loading, courseID)
	s.mu.Unlock()
}

// ClearCache drops every cached outline.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]Structure)
}

// Preload warms the cache for the given courses. Ids without a registered
// source are skipped and individual failures are logged, never returned.
func (s *Service) Preload(ctx context.Context, courseIDs []string) {
	for _, id := range courseIDs {
		if !s.Available(id) {
			continue
		}
		if _, err := s.Structure(ctx, id); err != nil {
			s.log.Warn("preloading course structure failed", "course_id", id, "error", err)
		}
	}
}
