package server

import (
	"net/http"
	"strings"

	"github.com/studykit/aptrack/internal/backpack"
	"github.com/studykit/aptrack/internal/backup"
	"github.com/studykit/aptrack/internal/catalog"
	"github.com/studykit/aptrack/internal/notes"
	"github.com/studykit/aptrack/internal/practice"
)

// --- catalog ---

func (s *Server) handleListCourses(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.catalog.Filtered())
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, ok := s.catalog.CourseByID(r.PathValue("id"))
	if !ok {
		s.respond(w, http.StatusNotFound, map[string]string{"error": "course not found"})
		return
	}
	s.respond(w, http.StatusOK, course)
}

func (s *Server) handleListSubjects(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.catalog.Subjects())
}

func (s *Server) handleListTags(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.catalog.Tags())
}

func (s *Server) handleGetFilters(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.catalog.Filter())
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req catalog.Filter
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	s.catalog.SetQuery(ctx, req.Query)
	s.catalog.SetSubject(ctx, req.Subject)
	s.catalog.SetDifficulty(ctx, req.Difficulty)
	s.respond(w, http.StatusOK, s.catalog.Filtered())
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.catalog.ClearFilters(r.Context())
	s.respond(w, http.StatusOK, s.catalog.Filtered())
}

// --- backpack ---

func (s *Server) handleListBackpack(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.backpack.Courses())
}

func (s *Server) handleAddToBackpack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID string `json:"courseId"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	course, ok := s.backpack.Add(r.Context(), req.CourseID)
	if !ok {
		s.respondError(w, errStatus(s.backpack.Err()), s.backpack.Err())
		return
	}
	s.respond(w, http.StatusCreated, course)
}

func (s *Server) handleRemoveFromBackpack(w http.ResponseWriter, r *http.Request) {
	s.backpack.Remove(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, s.backpack.Courses())
}

func (s *Server) handleUpdateBackpackCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status     *string `json:"status"`
		Difficulty *int    `json:"difficulty"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	if req.Status != nil {
		s.backpack.SetStatus(ctx, id, backpack.Status(*req.Status))
		if err := s.backpack.Err(); err != nil {
			s.respondError(w, errStatus(err), err)
			return
		}
	}
	if req.Difficulty != nil {
		s.backpack.SetDifficulty(ctx, id, *req.Difficulty)
		if err := s.backpack.Err(); err != nil {
			s.respondError(w, errStatus(err), err)
			return
		}
	}

	course, ok := s.backpack.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, backpack.ErrNotFound)
		return
	}
	s.respond(w, http.StatusOK, course)
}

func (s *Server) handleReorderBackpack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	s.backpack.Reorder(r.Context(), req.From, req.To)
	if err := s.backpack.Err(); err != nil {
		s.respondError(w, errStatus(err), err)
		return
	}
	s.respond(w, http.StatusOK, s.backpack.Courses())
}

// --- notes ---

func (s *Server) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	matched := s.notes.Search(q.Get("q"), q.Get("courseId"), q.Get("unitId"), q.Get("topicId"))

	type result struct {
		notes.Note
		Snippet string `json:"snippet"`
	}
	results := make([]result, 0, len(matched))
	for _, n := range matched {
		results = append(results, result{Note: n, Snippet: snippet(n.BodyMarkdown)})
	}
	s.respond(w, http.StatusOK, results)
}

const snippetLen = 160

// snippet flattens markdown to plain text and truncates it for list views.
// Truncation counts runes so a multi-byte character is never split.
func snippet(body string) string {
	plain := notes.Strip(body)
	if runes := []rune(plain); len(runes) > snippetLen {
		plain = strings.TrimSpace(string(runes[:snippetLen]))
	}
	return plain
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID string `json:"courseId"`
		UnitID   string `json:"unitId"`
		TopicID  string `json:"topicId"`
		Title    string `json:"title"`
		Body     string `json:"body"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	note := s.notes.Create(r.Context(), req.CourseID, req.UnitID, req.TopicID, req.Title, req.Body)
	s.respond(w, http.StatusCreated, note)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := s.notes.ByID(r.PathValue("id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, notes.ErrNoteNotFound)
		return
	}
	s.respond(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	s.notes.Update(r.Context(), id, req.Body)
	if err := s.notes.Err(); err != nil {
		s.respondError(w, errStatus(err), err)
		return
	}
	note, _ := s.notes.ByID(id)
	s.respond(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	s.notes.Delete(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetTopicStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := s.notes.TopicStatusFor(q.Get("courseId"), q.Get("unitId"), q.Get("topicId"))
	s.respond(w, http.StatusOK, map[string]notes.StatusValue{"status": status})
}

func (s *Server) handleSetTopicStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID string `json:"courseId"`
		UnitID   string `json:"unitId"`
		TopicID  string `json:"topicId"`
		Status   string `json:"status"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	s.notes.SetTopicStatus(r.Context(), req.CourseID, req.UnitID, req.TopicID, notes.StatusValue(req.Status))
	if err := s.notes.Err(); err != nil {
		s.respondError(w, errStatus(err), err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": req.Status})
}

// --- practice ---

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID      string `json:"courseId"`
		UnitID        string `json:"unitId"`
		Type          string `json:"type"`
		QuestionCount int    `json:"questionCount"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	session := s.practice.StartSession(req.CourseID, req.UnitID, practice.AttemptType(req.Type), req.QuestionCount)
	s.respond(w, http.StatusCreated, session)
}

func (s *Server) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string `json:"questionId"`
		Answer     string `json:"answer"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	s.practice.RecordAnswer(r.PathValue("id"), req.QuestionID, req.Answer)
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []practice.Answer `json:"answers"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	attempt, ok := s.practice.EndSession(r.Context(), r.PathValue("id"), req.Answers)
	if !ok {
		err := s.practice.Err()
		s.respondError(w, errStatus(err), err)
		return
	}
	s.respond(w, http.StatusCreated, attempt)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courseID, unitID, typ := q.Get("courseId"), q.Get("unitId"), q.Get("type")

	var attempts []practice.Attempt
	switch {
	case courseID != "" && unitID != "":
		attempts = s.practice.ByUnit(courseID, unitID)
	case courseID != "":
		attempts = s.practice.ByCourse(courseID)
	case typ != "":
		attempts = s.practice.ByType(practice.AttemptType(typ))
	default:
		attempts = s.practice.Attempts()
	}
	s.respond(w, http.StatusOK, attempts)
}

func (s *Server) handlePracticeStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courseID, unitID := q.Get("courseId"), q.Get("unitId")

	type stats struct {
		Accuracy practice.Accuracy `json:"accuracy"`
		Streak   *int              `json:"streak,omitempty"`
	}

	if unitID != "" {
		streak := s.practice.StreakByUnit(courseID, unitID)
		s.respond(w, http.StatusOK, stats{
			Accuracy: s.practice.AccuracyByUnit(courseID, unitID),
			Streak:   &streak,
		})
		return
	}
	s.respond(w, http.StatusOK, stats{Accuracy: s.practice.AccuracyByCourse(courseID)})
}

// --- structure ---

func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	outline, err := s.structures.Structure(r.Context(), r.PathValue("courseId"))
	if err != nil {
		s.respondError(w, errStatus(err), err)
		return
	}
	s.respond(w, http.StatusOK, outline)
}

func (s *Server) handlePreloadStructures(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseIDs []string `json:"courseIds"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	s.structures.Preload(r.Context(), req.CourseIDs)
	s.respond(w, http.StatusAccepted, nil)
}

func (s *Server) handleAddStructureSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	s.structures.AddSource(r.PathValue("courseId"), req.URL)
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveStructureSource(w http.ResponseWriter, r *http.Request) {
	s.structures.RemoveSource(r.PathValue("courseId"))
	s.respond(w, http.StatusNoContent, nil)
}

// --- backup ---

func (s *Server) handleExportBackup(w http.ResponseWriter, _ *http.Request) {
	blob, err := backup.Export(s.notes, s.practice)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	blob, err := readBody(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := backup.Import(r.Context(), blob, s.notes, s.practice); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "imported"})
}
