// Package editor is the single entry point for changing a program.
//
// A Session owns one program. It keeps the active position, a working copy
// of the exercise list shown at that position, and the clipboard. Every
// command checks the caller's access before touching anything, runs against
// a copy of the program that replaces the live one only on success, and ends
// by queueing an asynchronous save.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/clone"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/superset"
	"github.com/claude/freeplan/internal/workout"
)

// Session edits one program. Commands are serialized by the session mutex.
type Session struct {
	mu      sync.Mutex
	program *models.Program
	working []models.Exercise
	clip    clipboard.Payload

	eng   *clone.Engine
	saver *saver
	log   *slog.Logger
	now   func() time.Time
}

func newSession(p *models.Program, eng *clone.Engine, sv *saver, log *slog.Logger, now func() time.Time) *Session {
	workout.Repair(p)
	s := &Session{
		program: p,
		eng:     eng,
		saver:   sv,
		log:     log.With("program", p.ID),
		now:     now,
	}
	s.load()
	return s
}

// ID returns the program id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program.ID
}

// load replaces the working copy with the list stored at the active
// position, or an empty list when there is none.
func (s *Session) load() {
	list, _ := s.program.Day(s.program.ActiveBranchID, s.program.ActiveWeekKey, s.program.ActiveDayKey)
	s.working = models.CopyExercises(list)
	if s.working == nil {
		s.working = []models.Exercise{}
	}
}

// commit writes the working copy into p at p's active position. A position
// that no longer exists is skipped.
func (s *Session) commit(p *models.Program) {
	b := p.Branch(p.ActiveBranchID)
	if b == nil {
		return
	}
	days, ok := b.Weeks[p.ActiveWeekKey]
	if !ok {
		return
	}
	if _, ok := days[p.ActiveDayKey]; !ok {
		return
	}
	days[p.ActiveDayKey] = superset.Normalize(s.working)
}

func (s *Session) authorize(ctx context.Context, op string, branchIDs ...string) error {
	a := AccessFromContext(ctx)
	if !a.CanEditProgram {
		return fmt.Errorf("%s: %w", op, ErrNotAuthorized)
	}
	for _, id := range branchIDs {
		if !a.CanSee(id) {
			return fmt.Errorf("%s: branch %s: %w", op, id, ErrBranchHidden)
		}
	}
	return nil
}

// mutate runs fn against a copy of the program holding the committed working
// copy. On success the copy becomes the program, the working copy is
// reloaded from the (possibly new) active position and a save is queued.
func (s *Session) mutate(ctx context.Context, op string, fn func(p *models.Program) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorize(ctx, op, s.program.ActiveBranchID); err != nil {
		return err
	}
	next := s.program.Copy()
	s.commit(next)
	if err := fn(next); err != nil {
		if IsNotice(err) {
			s.log.Debug("command rejected", "op", op, "error", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	workout.FixPosition(next)
	next.UpdatedAt = s.now()
	s.program = next
	s.load()
	s.save()
	return nil
}

// edit runs fn against a copy of the working copy. On success the normalized
// result becomes the working copy and a save is queued.
func (s *Session) edit(ctx context.Context, op string, fn func(list []models.Exercise) ([]models.Exercise, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorize(ctx, op, s.program.ActiveBranchID); err != nil {
		return err
	}
	out, err := fn(models.CopyExercises(s.working))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.working = superset.Normalize(out)
	s.program.UpdatedAt = s.now()
	s.save()
	return nil
}

// save commits the working copy and queues a snapshot of the program.
func (s *Session) save() {
	s.commit(s.program)
	s.saver.Save(s.program.Copy())
}

func (s *Session) activeBranch(p *models.Program) (*models.Branch, error) {
	b := p.Branch(p.ActiveBranchID)
	if b == nil {
		return nil, fmt.Errorf("active branch %s: %w", p.ActiveBranchID, workout.ErrNotFound)
	}
	return b, nil
}

// Switch moves the active position. Empty fields of pos keep the current
// value. The outgoing working copy is committed before the new position is
// loaded.
func (s *Session) Switch(ctx context.Context, pos models.Position) error {
	if pos.BranchID != "" {
		if err := s.authorize(ctx, "switching position", pos.BranchID); err != nil {
			return err
		}
	}
	return s.mutate(ctx, "switching position", func(p *models.Program) error {
		target := p.Active()
		if pos.BranchID != "" {
			target.BranchID = pos.BranchID
		}
		if pos.WeekKey != "" {
			target.WeekKey = pos.WeekKey
		}
		if pos.DayKey != "" {
			target.DayKey = pos.DayKey
		}
		b := p.Branch(target.BranchID)
		if b == nil {
			return fmt.Errorf("branch %s: %w", target.BranchID, workout.ErrNotFound)
		}
		// A branch switch keeps week and day when the branch has them.
		if pos.WeekKey != "" {
			if _, ok := b.Weeks[target.WeekKey]; !ok {
				return fmt.Errorf("week %s: %w", target.WeekKey, workout.ErrNotFound)
			}
		}
		if pos.DayKey != "" && !workout.HasDay(b, target.DayKey) {
			return fmt.Errorf("day %s: %w", target.DayKey, workout.ErrNotFound)
		}
		p.SetActive(target)
		return nil
	})
}

// SwitchBranch makes branchID the active branch.
func (s *Session) SwitchBranch(ctx context.Context, branchID string) error {
	return s.Switch(ctx, models.Position{BranchID: branchID})
}

// SwitchWeek makes key the active week.
func (s *Session) SwitchWeek(ctx context.Context, key string) error {
	return s.Switch(ctx, models.Position{WeekKey: key})
}

// SwitchDay makes key the active day.
func (s *Session) SwitchDay(ctx context.Context, key string) error {
	return s.Switch(ctx, models.Position{DayKey: key})
}

// AddWeek adds a week to the active branch and makes it active.
func (s *Session) AddWeek(ctx context.Context) (string, error) {
	var key string
	err := s.mutate(ctx, "adding week", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		if key, err = workout.AddWeek(b); err != nil {
			return err
		}
		p.ActiveWeekKey = key
		return nil
	})
	return key, err
}

// RemoveWeek removes a week of the active branch.
func (s *Session) RemoveWeek(ctx context.Context, key string) error {
	return s.mutate(ctx, "removing week", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		return workout.RemoveWeek(b, key)
	})
}

// ClearWeek empties every day of a week of the active branch.
func (s *Session) ClearWeek(ctx context.Context, key string) error {
	return s.mutate(ctx, "clearing week", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		return workout.ClearWeek(b, key)
	})
}

// AddDay adds a day to every week of the active branch and makes it active.
func (s *Session) AddDay(ctx context.Context) (string, error) {
	var key string
	err := s.mutate(ctx, "adding day", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		if key, err = workout.AddDay(b); err != nil {
			return err
		}
		p.ActiveDayKey = key
		return nil
	})
	return key, err
}

// RemoveDay removes a day from the active branch. When it was the active
// day, the lowest remaining day becomes active.
func (s *Session) RemoveDay(ctx context.Context, key string) error {
	return s.mutate(ctx, "removing day", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		return workout.RemoveDay(b, key)
	})
}

// ClearDay empties one day of the active branch.
func (s *Session) ClearDay(ctx context.Context, weekKey, dayKey string) error {
	return s.mutate(ctx, "clearing day", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		return workout.ClearDay(b, weekKey, dayKey)
	})
}

// RenameDay sets the label of a day of the active branch.
func (s *Session) RenameDay(ctx context.Context, key, label string) error {
	return s.mutate(ctx, "renaming day", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		return workout.RenameDay(b, key, label)
	})
}

// CloneBranch creates a new variant from sourceID and makes it active.
func (s *Session) CloneBranch(ctx context.Context, sourceID string) (string, error) {
	if err := s.authorize(ctx, "cloning branch", sourceID); err != nil {
		return "", err
	}
	var id string
	err := s.mutate(ctx, "cloning branch", func(p *models.Program) error {
		var err error
		if id, err = workout.AddBranch(p, s.eng, sourceID); err != nil {
			return err
		}
		p.ActiveBranchID = id
		return nil
	})
	return id, err
}

// RemoveBranch deletes a variant. When it was active, the previous variant,
// else the next one, else the original becomes active.
func (s *Session) RemoveBranch(ctx context.Context, branchID string) error {
	if err := s.authorize(ctx, "removing branch", branchID); err != nil {
		return err
	}
	return s.mutate(ctx, "removing branch", func(p *models.Program) error {
		fallback, err := workout.RemoveBranch(p, branchID)
		if err != nil {
			return err
		}
		if p.ActiveBranchID == branchID {
			p.ActiveBranchID = fallback
		}
		return nil
	})
}

// RenameBranch sets the name and description of a branch.
func (s *Session) RenameBranch(ctx context.Context, branchID, name, description string) error {
	if err := s.authorize(ctx, "renaming branch", branchID); err != nil {
		return err
	}
	return s.mutate(ctx, "renaming branch", func(p *models.Program) error {
		return workout.RenameBranch(p, branchID, name, description)
	})
}

// Details are the descriptive fields of a program. An empty Status keeps
// the current one.
type Details struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status,omitempty"`
}

// UpdateDetails replaces the program's title, description and tags, and its
// status when d names one.
func (s *Session) UpdateDetails(ctx context.Context, d Details) error {
	return s.mutate(ctx, "updating details", func(p *models.Program) error {
		if d.Status != "" {
			st, err := models.ParseStatus(d.Status)
			if err != nil {
				return err
			}
			p.Status = st
		}
		p.Title = d.Title
		p.Description = d.Description
		p.Tags = slices.Clone(d.Tags)
		return nil
	})
}

// AddExercise appends ex to the active day and returns its id. A missing id
// is generated.
func (s *Session) AddExercise(ctx context.Context, ex models.Exercise) (string, error) {
	ex = ex.Copy()
	if ex.ID == "" {
		ex.ID = s.eng.NextID()
	}
	if ex.Superset.IsLeader() {
		ex.Superset = models.Leader(ex.ID)
	}
	err := s.edit(ctx, "adding exercise", func(list []models.Exercise) ([]models.Exercise, error) {
		if indexOf(list, ex.ID) >= 0 {
			return nil, fmt.Errorf("exercise %s already exists", ex.ID)
		}
		return append(list, ex), nil
	})
	if err != nil {
		return "", err
	}
	return ex.ID, nil
}

// UpdateExercise replaces the fields of the exercise with ex.ID. Its id and
// superset role are kept; use LinkSuperset and UnlinkSuperset for those.
func (s *Session) UpdateExercise(ctx context.Context, ex models.Exercise) error {
	return s.edit(ctx, "updating exercise", func(list []models.Exercise) ([]models.Exercise, error) {
		i := indexOf(list, ex.ID)
		if i < 0 {
			return nil, fmt.Errorf("exercise %s: %w", ex.ID, workout.ErrNotFound)
		}
		ex = ex.Copy()
		ex.Superset = list[i].Superset
		list[i] = ex
		return list, nil
	})
}

// RemoveExercise deletes an exercise from the active day. Followers of a
// removed leader become plain exercises.
func (s *Session) RemoveExercise(ctx context.Context, id string) error {
	return s.edit(ctx, "removing exercise", func(list []models.Exercise) ([]models.Exercise, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("exercise %s: %w", id, workout.ErrNotFound)
		}
		return slices.Delete(list, i, i+1), nil
	})
}

// MoveExercise moves an exercise, together with its followers when it is a
// leader, so that it starts at index in the resulting list. index is clamped.
func (s *Session) MoveExercise(ctx context.Context, id string, index int) error {
	return s.edit(ctx, "moving exercise", func(list []models.Exercise) ([]models.Exercise, error) {
		start, end, ok := superset.BlockSpan(list, id)
		if !ok {
			return nil, fmt.Errorf("exercise %s: %w", id, workout.ErrNotFound)
		}
		block := slices.Clone(list[start:end])
		rest := slices.Delete(list, start, end)
		index = max(0, min(index, len(rest)))
		return slices.Insert(rest, index, block...), nil
	})
}

// DuplicateExercise inserts a copy of an exercise, or of a whole superset
// when it is a leader, right after the original. It returns the new id of
// the first copied exercise.
func (s *Session) DuplicateExercise(ctx context.Context, id string) (string, error) {
	var newID string
	err := s.edit(ctx, "duplicating exercise", func(list []models.Exercise) ([]models.Exercise, error) {
		block, ok := s.eng.Block(list, id)
		if !ok {
			return nil, fmt.Errorf("exercise %s: %w", id, workout.ErrNotFound)
		}
		_, end, _ := superset.BlockSpan(list, id)
		newID = block[0].ID
		return slices.Insert(list, end, block...), nil
	})
	return newID, err
}

// LinkSuperset makes followerID a follower of leaderID, promoting leaderID to
// leader when needed. A follower that was itself a leader releases its own
// followers.
func (s *Session) LinkSuperset(ctx context.Context, leaderID, followerID string) error {
	return s.edit(ctx, "linking superset", func(list []models.Exercise) ([]models.Exercise, error) {
		if leaderID == followerID {
			return nil, fmt.Errorf("exercise %s cannot follow itself: %w", leaderID, ErrInvalidLink)
		}
		li, fi := indexOf(list, leaderID), indexOf(list, followerID)
		if li < 0 || fi < 0 {
			return nil, fmt.Errorf("linking %s to %s: %w", followerID, leaderID, workout.ErrNotFound)
		}
		if list[li].Superset.IsFollower() {
			return nil, fmt.Errorf("exercise %s already follows %s: %w", leaderID, list[li].Superset.GroupID(), ErrInvalidLink)
		}
		list[li].Superset = models.Leader(leaderID)
		list[fi].Superset = models.Follower(leaderID)
		return list, nil
	})
}

// UnlinkSuperset removes an exercise from its superset. Unlinking a leader
// dissolves the whole superset.
func (s *Session) UnlinkSuperset(ctx context.Context, id string) error {
	return s.edit(ctx, "unlinking superset", func(list []models.Exercise) ([]models.Exercise, error) {
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("exercise %s: %w", id, workout.ErrNotFound)
		}
		list[i].Superset = models.NoRole()
		return list, nil
	})
}

// Copy puts the day, week or branch at the active position on the clipboard.
func (s *Session) Copy(ctx context.Context, scope clipboard.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.authorize(ctx, "copying", s.program.ActiveBranchID); err != nil {
		return err
	}
	snapshot := s.program.Copy()
	s.commit(snapshot)
	payload, err := clipboard.Copy(scope, snapshot, snapshot.Active())
	if err != nil {
		return err
	}
	s.clip = payload
	s.log.Debug("copied to clipboard", "scope", scope, "from", payload.Provenance)
	return nil
}

// Clipboard returns the scope and source of the clipboard content, if any.
func (s *Session) Clipboard() (clipboard.Scope, models.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip.Scope, s.clip.Provenance, !s.clip.IsEmpty()
}

// Paste applies the clipboard at the active position. A paste onto the
// clipboard's own source is rejected with clipboard.ErrSelfPaste.
func (s *Session) Paste(ctx context.Context) error {
	return s.mutate(ctx, "pasting", func(p *models.Program) error {
		b, err := s.activeBranch(p)
		if err != nil {
			return err
		}
		out, blocked, err := clipboard.Paste(s.eng, s.clip, *b, p.Active())
		if blocked || err != nil {
			return err
		}
		*b = out
		return nil
	})
}

func (s *Session) close() {
	s.saver.Close()
}

func indexOf(list []models.Exercise, id string) int {
	return slices.IndexFunc(list, func(e models.Exercise) bool { return e.ID == id })
}
