package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/freeplan/internal/models"
)

const saveTimeout = 5 * time.Second

// saver persists program snapshots in the background. It holds at most one
// pending snapshot: a newer Save replaces one that has not been written yet.
type saver struct {
	store Store
	log   *slog.Logger

	mu      sync.Mutex
	pending *models.Program
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newSaver(store Store, log *slog.Logger) *saver {
	s := &saver{
		store: store,
		log:   log,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Save queues p for writing. p must not be modified afterwards.
func (s *saver) Save(p *models.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Warn("save after close dropped", "program", p.ID)
		return
	}
	s.pending = p
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *saver) run() {
	defer close(s.done)
	for range s.wake {
		s.flush()
	}
}

func (s *saver) flush() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.store.PutProgram(ctx, p); err != nil {
		s.log.Error("saving program", "program", p.ID, "error", err)
		return
	}
	s.log.Debug("program saved", "program", p.ID, "updated_at", p.UpdatedAt)
}

// Close writes any pending snapshot and stops the background goroutine.
func (s *saver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.wake)
	s.mu.Unlock()
	<-s.done
}
