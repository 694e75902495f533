package server

import (
	"net/http"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var pos models.Position
	if !decodeJSON(w, r, &pos) {
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.Switch(r.Context(), pos)
	})
}

func (s *Server) handleAddWeek(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return sess.AddWeek(r.Context())
	})
}

func (s *Server) handleRemoveWeek(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.RemoveWeek(r.Context(), chi.URLParam(r, "week"))
	})
}

func (s *Server) handleClearWeek(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.ClearWeek(r.Context(), chi.URLParam(r, "week"))
	})
}

func (s *Server) handleClearDay(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.ClearDay(r.Context(), chi.URLParam(r, "week"), chi.URLParam(r, "day"))
	})
}

func (s *Server) handleAddDay(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return sess.AddDay(r.Context())
	})
}

func (s *Server) handleRemoveDay(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.RemoveDay(r.Context(), chi.URLParam(r, "day"))
	})
}

func (s *Server) handleRenameDay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.RenameDay(r.Context(), chi.URLParam(r, "day"), body.Label)
	})
}

func (s *Server) handleCloneBranch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source string `json:"source"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Source == "" {
		body.Source = models.OriginalBranchID
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return sess.CloneBranch(r.Context(), body.Source)
	})
}

func (s *Server) handleRenameBranch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.RenameBranch(r.Context(), chi.URLParam(r, "branch"), body.Name, body.Description)
	})
}

func (s *Server) handleRemoveBranch(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.RemoveBranch(r.Context(), chi.URLParam(r, "branch"))
	})
}

func (s *Server) handleReadDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pos := models.Position{
		BranchID: chi.URLParam(r, "branch"),
		WeekKey:  chi.URLParam(r, "week"),
		DayKey:   chi.URLParam(r, "day"),
	}
	list, err := sess.ReadDay(r.Context(), pos)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var ex models.Exercise
	if !decodeJSON(w, r, &ex) {
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return sess.AddExercise(r.Context(), ex)
	})
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	var ex models.Exercise
	if !decodeJSON(w, r, &ex) {
		return
	}
	ex.ID = chi.URLParam(r, "exercise")
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.UpdateExercise(r.Context(), ex)
	})
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.RemoveExercise(r.Context(), chi.URLParam(r, "exercise"))
	})
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.MoveExercise(r.Context(), chi.URLParam(r, "exercise"), body.Index)
	})
}

func (s *Server) handleDuplicateExercise(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return sess.DuplicateExercise(r.Context(), chi.URLParam(r, "exercise"))
	})
}

// handleLinkSuperset makes the exercise in the URL follow the leader in the body.
func (s *Server) handleLinkSuperset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Leader string `json:"leader"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.LinkSuperset(r.Context(), body.Leader, chi.URLParam(r, "exercise"))
	})
}

func (s *Server) handleUnlinkSuperset(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.UnlinkSuperset(r.Context(), chi.URLParam(r, "exercise"))
	})
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scope string `json:"scope"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	scope, err := clipboard.ParseScope(body.Scope)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.Copy(r.Context(), scope)
	})
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(sess *editor.Session) (string, error) {
		return "", sess.Paste(r.Context())
	})
}
