package mcp

import (
	"context"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/models"
)

// Result is the outcome of a command: the id or key it created, if any, and
// the caller's view afterwards.
type Result struct {
	Created string      `json:"created,omitempty"`
	View    editor.View `json:"view"`
}

// DataSource abstracts the program editor for MCP tools. Both Local
// (in-process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	// ListPrograms lists the visible programs; a non-empty status filters them.
	ListPrograms(ctx context.Context, status models.Status) ([]models.ProgramSummary, error)
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	GetDay(ctx context.Context, id string, pos models.Position) ([]models.Exercise, error)
	Switch(ctx context.Context, id string, pos models.Position) (Result, error)
	AddWeek(ctx context.Context, id string) (Result, error)
	RemoveWeek(ctx context.Context, id, week string) (Result, error)
	AddDay(ctx context.Context, id string) (Result, error)
	RemoveDay(ctx context.Context, id, day string) (Result, error)
	CloneBranch(ctx context.Context, id, source string) (Result, error)
	AddExercise(ctx context.Context, id string, ex models.Exercise) (Result, error)
	LinkSuperset(ctx context.Context, id, leader, follower string) (Result, error)
	Copy(ctx context.Context, id string, scope clipboard.Scope) (Result, error)
	Paste(ctx context.Context, id string) (Result, error)
}

// Compile-time checks: both sources satisfy DataSource.
var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*HTTPClient)(nil)
)

// Local implements DataSource on an in-process editor. Access is taken from
// the context of each call.
type Local struct {
	programs *editor.Manager
}

// NewLocal returns a Local serving the programs of m.
func NewLocal(m *editor.Manager) *Local {
	return &Local{programs: m}
}

func (l *Local) run(ctx context.Context, id string, fn func(s *editor.Session) (string, error)) (Result, error) {
	s, err := l.programs.Open(ctx, id)
	if err != nil {
		return Result{}, err
	}
	created, err := fn(s)
	if err != nil {
		return Result{}, err
	}
	v, err := s.View(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Created: created, View: v}, nil
}

func (l *Local) ListPrograms(ctx context.Context, status models.Status) ([]models.ProgramSummary, error) {
	return l.programs.List(ctx, status)
}

func (l *Local) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	s, err := l.programs.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Program(ctx), nil
}

func (l *Local) GetDay(ctx context.Context, id string, pos models.Position) ([]models.Exercise, error) {
	s, err := l.programs.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ReadDay(ctx, pos)
}

func (l *Local) Switch(ctx context.Context, id string, pos models.Position) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return "", s.Switch(ctx, pos)
	})
}

func (l *Local) AddWeek(ctx context.Context, id string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return s.AddWeek(ctx)
	})
}

func (l *Local) RemoveWeek(ctx context.Context, id, week string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return "", s.RemoveWeek(ctx, week)
	})
}

func (l *Local) AddDay(ctx context.Context, id string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return s.AddDay(ctx)
	})
}

func (l *Local) RemoveDay(ctx context.Context, id, day string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return "", s.RemoveDay(ctx, day)
	})
}

func (l *Local) CloneBranch(ctx context.Context, id, source string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return s.CloneBranch(ctx, source)
	})
}

func (l *Local) AddExercise(ctx context.Context, id string, ex models.Exercise) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return s.AddExercise(ctx, ex)
	})
}

func (l *Local) LinkSuperset(ctx context.Context, id, leader, follower string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return "", s.LinkSuperset(ctx, leader, follower)
	})
}

func (l *Local) Copy(ctx context.Context, id string, scope clipboard.Scope) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return "", s.Copy(ctx, scope)
	})
}

func (l *Local) Paste(ctx context.Context, id string) (Result, error) {
	return l.run(ctx, id, func(s *editor.Session) (string, error) {
		return "", s.Paste(ctx)
	})
}
