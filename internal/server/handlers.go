package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/storage"
	"github.com/claude/freeplan/internal/workout"
	"github.com/go-chi/chi/v5"
)

// result is the response to a command: the id or key it created, if any,
// and the caller's view after the command.
type result struct {
	Created string      `json:"created,omitempty"`
	View    editor.View `json:"view"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "import logs not available"})
		return
	}
	if !editor.AccessFromContext(r.Context()).CanEditProgram {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": editor.ErrNotAuthorized.Error()})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.imports.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	var status models.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := models.ParseStatus(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		status = st
	}
	list, err := s.programs.List(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var d editor.Details
	if !decodeJSON(w, r, &d) {
		return
	}
	sess, err := s.programs.Create(r.Context(), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, r, sess, http.StatusCreated, sess.ID())
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Program(r.Context()))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v, err := sess.View(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	var d editor.Details
	if !decodeJSON(w, r, &d) {
		return
	}
	sess, err := s.programs.Put(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, r, sess, http.StatusOK, "")
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	if err := s.programs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session opens the program named by the {id} URL parameter.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sess, err := s.programs.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

// command runs fn on the program named by the URL and answers with the
// caller's view of the result.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(sess *editor.Session) (string, error)) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	created, err := fn(sess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created != "" {
		status = http.StatusCreated
	}
	s.writeResult(w, r, sess, status, created)
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, sess *editor.Session, status int, created string) {
	v, err := sess.View(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, result{Created: created, View: v})
}

// writeError maps editor and storage errors to HTTP responses. Rejected
// commands are reported as notices with 409 Conflict.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case editor.IsNotice(err):
		writeJSON(w, http.StatusConflict, map[string]string{"notice": err.Error()})
	case errors.Is(err, editor.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, editor.ErrProgramHidden),
		errors.Is(err, editor.ErrBranchHidden),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, workout.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, editor.ErrInvalidLink),
		errors.Is(err, models.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
