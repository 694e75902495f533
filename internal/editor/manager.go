package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/freeplan/internal/clone"
	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/storage"
	"github.com/claude/freeplan/internal/workout"
)

// Store loads, saves and deletes whole programs.
type Store interface {
	// GetProgram returns storage.ErrNotFound when no program has the id.
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	PutProgram(ctx context.Context, p *models.Program) error
	ListPrograms(ctx context.Context) ([]models.ProgramSummary, error)
	DeleteProgram(ctx context.Context, id string) error
}

// Compile-time checks that every store implements Store.
var (
	_ Store = (*storage.DB)(nil)
	_ Store = (*storage.SQLite)(nil)
	_ Store = (*storage.Memory)(nil)
)

// Manager keeps one Session per open program.
type Manager struct {
	store Store
	eng   *clone.Engine
	log   *slog.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager returns a Manager persisting to store and minting ids from gen.
func NewManager(store Store, gen ids.Generator, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		eng:      clone.New(gen),
		log:      logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for a stored program, loading it on first use.
// A missing program is reported as storage.ErrNotFound.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if !AccessFromContext(ctx).CanOpen(id) {
		return nil, fmt.Errorf("opening program %s: %w", id, ErrProgramHidden)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("editor closed")
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	p, err := m.store.GetProgram(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening program %s: %w", id, err)
	}
	s := newSession(p, m.eng, newSaver(m.store, m.log), m.log, m.now)
	m.sessions[id] = s
	return s, nil
}

// Create starts a new program with a generated id.
func (m *Manager) Create(ctx context.Context, d Details) (*Session, error) {
	if d.Title == "" {
		d.Title = "Untitled program"
	}
	return m.Put(ctx, m.eng.NextID(), d)
}

// Put sets the details of the program with the given id, creating the
// program when it does not exist yet.
func (m *Manager) Put(ctx context.Context, id string, d Details) (*Session, error) {
	if !AccessFromContext(ctx).CanEditProgram {
		return nil, fmt.Errorf("putting program %s: %w", id, ErrNotAuthorized)
	}
	if d.Status != "" {
		if _, err := models.ParseStatus(d.Status); err != nil {
			return nil, fmt.Errorf("putting program %s: %w", id, err)
		}
	}
	s, err := m.Open(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		s, err = m.create(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.UpdateDetails(ctx, d); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) create(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("editor closed")
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := newSession(workout.NewProgram(id, "Untitled program", m.now()), m.eng, newSaver(m.store, m.log), m.log, m.now)
	m.log.Info("program created", "program", id)
	s.mu.Lock()
	s.save()
	s.mu.Unlock()
	m.sessions[id] = s
	return s, nil
}

// Delete removes a program after flushing and dropping its session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	a := AccessFromContext(ctx)
	if !a.CanOpen(id) {
		return fmt.Errorf("deleting program %s: %w", id, ErrProgramHidden)
	}
	if !a.CanEditProgram {
		return fmt.Errorf("deleting program %s: %w", id, ErrNotAuthorized)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("editor closed")
	}
	if s, ok := m.sessions[id]; ok {
		s.close()
		delete(m.sessions, id)
	}
	if err := m.store.DeleteProgram(ctx, id); err != nil {
		return fmt.Errorf("deleting program %s: %w", id, err)
	}
	m.log.Info("program deleted", "program", id)
	return nil
}

// List returns summaries of the stored programs the caller may open. A
// non-empty status keeps only programs in that status.
func (m *Manager) List(ctx context.Context, status models.Status) ([]models.ProgramSummary, error) {
	list, err := m.store.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	a := AccessFromContext(ctx)
	out := list[:0]
	for _, p := range list {
		if a.CanOpen(p.ID) && (status == "" || p.Status == status) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Close flushes pending saves of every session. The manager cannot be used
// afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, s := range m.sessions {
		s.close()
		delete(m.sessions, id)
	}
}
