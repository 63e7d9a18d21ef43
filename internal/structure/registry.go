package structure

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry maps course ids to course-overview PDF URLs.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]string)}
}

// sourcesFile is the YAML shape of a source registry file.
type sourcesFile struct {
	Sources map[string]string `yaml:"sources"`
}

// LoadFile merges the course → URL mappings from a YAML sources file.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading structure sources: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing structure sources %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for courseID, url := range file.Sources {
		r.sources[courseID] = url
	}
	return nil
}

// URL returns the PDF URL registered for a course.
func (r *Registry) URL(courseID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.sources[courseID]
	return url, ok
}

// Contains reports whether a course has a registered source.
func (r *Registry) Contains(courseID string) bool {
	_, ok := r.URL(courseID)
	return ok
}

// Add registers or replaces the source URL for a course.
func (r *Registry) Add(courseID, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[courseID] = url
}

// Remove drops the source URL for a course.
func (r *Registry) Remove(courseID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, courseID)
}

// CourseIDs returns the registered course ids, sorted.
func (r *Registry) CourseIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
