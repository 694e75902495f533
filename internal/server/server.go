package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/freeplan/internal/config"
	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/tailscale/apitype"
)

// WhoIser resolves the tailnet identity behind a remote address.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// ImportLogs lists recent importer runs.
type ImportLogs interface {
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

var (
	_ ImportLogs = (*storage.DB)(nil)
	_ ImportLogs = (*storage.SQLite)(nil)
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	programs *editor.Manager
	imports  ImportLogs
	auth     config.AuthConfig
	whois    WhoIser
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(programs *editor.Manager, auth config.AuthConfig, log *slog.Logger) *Server {
	s := &Server{
		programs: programs,
		auth:     auth,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables identification of tailnet users.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// SetImportLogs enables GET /api/v1/imports.
func (s *Server) SetImportLogs(logs ImportLogs) {
	s.imports = logs
}

// Mount serves h under pattern behind the identity middleware.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, s.Identity(h))
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.Identity)
		r.Get("/me", s.handleMe)
		r.Get("/imports", s.handleImportLogs)

		r.Get("/programs", s.handleListPrograms)
		r.Post("/programs", s.handleCreateProgram)
		r.Route("/programs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetProgram)
			r.Put("/", s.handleUpdateDetails)
			r.Delete("/", s.handleDeleteProgram)
			r.Get("/view", s.handleView)
			r.Post("/switch", s.handleSwitch)

			r.Post("/weeks", s.handleAddWeek)
			r.Delete("/weeks/{week}", s.handleRemoveWeek)
			r.Post("/weeks/{week}/clear", s.handleClearWeek)
			r.Post("/weeks/{week}/days/{day}/clear", s.handleClearDay)

			r.Post("/days", s.handleAddDay)
			r.Delete("/days/{day}", s.handleRemoveDay)
			r.Put("/days/{day}/name", s.handleRenameDay)

			r.Post("/branches", s.handleCloneBranch)
			r.Put("/branches/{branch}", s.handleRenameBranch)
			r.Delete("/branches/{branch}", s.handleRemoveBranch)
			r.Get("/branches/{branch}/weeks/{week}/days/{day}", s.handleReadDay)

			r.Post("/exercises", s.handleAddExercise)
			r.Put("/exercises/{exercise}", s.handleUpdateExercise)
			r.Delete("/exercises/{exercise}", s.handleRemoveExercise)
			r.Post("/exercises/{exercise}/move", s.handleMoveExercise)
			r.Post("/exercises/{exercise}/duplicate", s.handleDuplicateExercise)
			r.Post("/exercises/{exercise}/link", s.handleLinkSuperset)
			r.Post("/exercises/{exercise}/unlink", s.handleUnlinkSuperset)

			r.Post("/copy", s.handleCopy)
			r.Post("/paste", s.handlePaste)
		})
	})
}
