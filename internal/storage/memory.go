package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/claude/freeplan/internal/models"
)

// Memory is an in-process program store. Programs are copied on the way in
// and out, so callers never share state with the store.
type Memory struct {
	mu       sync.Mutex
	programs map[string]*models.Program
	puts     int
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{programs: make(map[string]*models.Program)}
}

// GetProgram returns a copy of the stored program.
func (m *Memory) GetProgram(_ context.Context, id string) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok {
		return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	return p.Copy(), nil
}

// PutProgram stores a copy of p.
func (m *Memory) PutProgram(_ context.Context, p *models.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs[p.ID] = p.Copy()
	m.puts++
	return nil
}

// ListPrograms returns a summary of every program, most recently updated first.
func (m *Memory) ListPrograms(_ context.Context) ([]models.ProgramSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ProgramSummary, 0, len(m.programs))
	for _, p := range m.programs {
		out = append(out, p.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteProgram removes a program. Deleting a missing program returns ErrNotFound.
func (m *Memory) DeleteProgram(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.programs[id]; !ok {
		return fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	delete(m.programs, id)
	return nil
}

// Puts returns how many times PutProgram succeeded.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
