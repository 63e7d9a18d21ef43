// Package server exposes the local HTTP surface the UI talks to: catalog
// browsing and filters, backpack management, notes, practice sessions,
// course structures, backup, and a websocket change feed.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/studykit/aptrack/internal/backpack"
	"github.com/studykit/aptrack/internal/catalog"
	"github.com/studykit/aptrack/internal/notes"
	"github.com/studykit/aptrack/internal/practice"
	"github.com/studykit/aptrack/internal/structure"
)

// Server bundles the domain stores behind an HTTP mux.
type Server struct {
	catalog    *catalog.Store
	backpack   *backpack.Store
	notes      *notes.Store
	practice   *practice.Store
	structures *structure.Service
	hub        *Hub
	log        *slog.Logger
}

// New creates a server over the given stores.
func New(
	catalogStore *catalog.Store,
	backpackStore *backpack.Store,
	notesStore *notes.Store,
	practiceStore *practice.Store,
	structures *structure.Service,
	hub *Hub,
	log *slog.Logger,
) *Server {
	return &Server{
		catalog:    catalogStore,
		backpack:   backpackStore,
		notes:      notesStore,
		practice:   practiceStore,
		structures: structures,
		hub:        hub,
		log:        log,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/v1/courses", s.handleListCourses)
	mux.HandleFunc("GET /api/v1/courses/{id}", s.handleGetCourse)
	mux.HandleFunc("GET /api/v1/subjects", s.handleListSubjects)
	mux.HandleFunc("GET /api/v1/tags", s.handleListTags)
	mux.HandleFunc("GET /api/v1/filters", s.handleGetFilters)
	mux.HandleFunc("PUT /api/v1/filters", s.handleSetFilters)
	mux.HandleFunc("DELETE /api/v1/filters", s.handleClearFilters)

	mux.HandleFunc("GET /api/v1/backpack", s.handleListBackpack)
	mux.HandleFunc("POST /api/v1/backpack", s.handleAddToBackpack)
	mux.HandleFunc("DELETE /api/v1/backpack/{id}", s.handleRemoveFromBackpack)
	mux.HandleFunc("PATCH /api/v1/backpack/{id}", s.handleUpdateBackpackCourse)
	mux.HandleFunc("POST /api/v1/backpack/reorder", s.handleReorderBackpack)

	mux.HandleFunc("GET /api/v1/notes", s.handleSearchNotes)
	mux.HandleFunc("POST /api/v1/notes", s.handleCreateNote)
	mux.HandleFunc("GET /api/v1/notes/{id}", s.handleGetNote)
	mux.HandleFunc("PATCH /api/v1/notes/{id}", s.handleUpdateNote)
	mux.HandleFunc("DELETE /api/v1/notes/{id}", s.handleDeleteNote)
	mux.HandleFunc("GET /api/v1/topics/status", s.handleGetTopicStatus)
	mux.HandleFunc("PUT /api/v1/topics/status", s.handleSetTopicStatus)

	mux.HandleFunc("POST /api/v1/practice/sessions", s.handleStartSession)
	mux.HandleFunc("POST /api/v1/practice/sessions/{id}/answers", s.handleRecordAnswer)
	mux.HandleFunc("POST /api/v1/practice/sessions/{id}/end", s.handleEndSession)
	mux.HandleFunc("GET /api/v1/practice/attempts", s.handleListAttempts)
	mux.HandleFunc("GET /api/v1/practice/stats", s.handlePracticeStats)

	mux.HandleFunc("GET /api/v1/structure/{courseId}", s.handleGetStructure)
	mux.HandleFunc("POST /api/v1/structure/preload", s.handlePreloadStructures)
	mux.HandleFunc("PUT /api/v1/structure/sources/{courseId}", s.handleAddStructureSource)
	mux.HandleFunc("DELETE /api/v1/structure/sources/{courseId}", s.handleRemoveStructureSource)

	mux.HandleFunc("GET /api/v1/backup", s.handleExportBackup)
	mux.HandleFunc("POST /api/v1/backup", s.handleImportBackup)

	mux.HandleFunc("GET /api/v1/events", s.hub.HandleEvents)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// respond writes v as JSON.
func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, map[string]string{"error": err.Error()})
}

// readBody drains the request body, capped at 8 MiB.
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, 8<<20))
}

// decode reads the request body as JSON into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// errStatus maps store validation errors to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, backpack.ErrNotFound),
		errors.Is(err, notes.ErrNoteNotFound),
		errors.Is(err, structure.ErrNoSource):
		return http.StatusNotFound
	case errors.Is(err, backpack.ErrDuplicateCourse),
		errors.Is(err, practice.ErrNoActiveSession),
		errors.Is(err, structure.ErrAlreadyLoading):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
