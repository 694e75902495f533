package editor

import (
	"context"
	"fmt"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/workout"
)

// BranchInfo describes a branch without its content.
type BranchInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Number      int    `json:"number"`
	Weeks       int    `json:"weeks"`
}

// DayInfo is a day key with its display label.
type DayInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// View is what a caller sees of a program at a position.
type View struct {
	ProgramID   string             `json:"program_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Status      models.Status      `json:"status"`
	Position    models.Position    `json:"position"`
	Branches    []BranchInfo       `json:"branches"`
	Weeks       []string           `json:"weeks"`
	Days        []DayInfo          `json:"days"`
	Exercises   []models.Exercise  `json:"exercises"`
	CanEdit     bool               `json:"can_edit"`
	Clipboard   *clipboard.Payload `json:"clipboard,omitempty"`
}

func branchInfo(b *models.Branch) BranchInfo {
	return BranchInfo{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Number:      b.Number,
		Weeks:       len(b.Weeks),
	}
}

// VisibleBranches lists the branches the caller may see, original first.
func (s *Session) VisibleBranches(ctx context.Context) []BranchInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleBranches(AccessFromContext(ctx))
}

func (s *Session) visibleBranches(a Access) []BranchInfo {
	var out []BranchInfo
	for _, b := range s.program.Branches() {
		if a.CanSee(b.ID) {
			out = append(out, branchInfo(b))
		}
	}
	return out
}

// visiblePosition returns the active position, or the first week and day of
// the first visible branch when the active branch is hidden from a.
func (s *Session) visiblePosition(a Access) (models.Position, error) {
	pos := s.program.Active()
	if a.CanSee(pos.BranchID) {
		return pos, nil
	}
	visible := s.visibleBranches(a)
	if len(visible) == 0 {
		return models.Position{}, fmt.Errorf("viewing program %s: %w", s.program.ID, ErrBranchHidden)
	}
	b := s.program.Branch(visible[0].ID)
	return models.Position{BranchID: b.ID, WeekKey: workout.WeekKeys(b)[0], DayKey: workout.DayKeys(b)[0]}, nil
}

// View returns the active position as the caller sees it. When the active
// branch is hidden from the caller, the first visible branch is shown at its
// first week and day instead.
func (s *Session) View(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := AccessFromContext(ctx)

	pos, err := s.visiblePosition(a)
	if err != nil {
		return View{}, err
	}
	b := s.program.Branch(pos.BranchID)

	v := View{
		ProgramID:   s.program.ID,
		Title:       s.program.Title,
		Description: s.program.Description,
		Tags:        s.program.Tags,
		Status:      s.program.Status.OrDraft(),
		Position:    pos,
		Branches:    s.visibleBranches(a),
		Weeks:       workout.WeekKeys(b),
		CanEdit:     a.CanEditProgram,
		Exercises:   s.readDay(pos),
	}
	for _, dk := range workout.DayKeys(b) {
		v.Days = append(v.Days, DayInfo{Key: dk, Label: workout.DayLabel(b, dk)})
	}
	if a.CanEditProgram && !s.clip.IsEmpty() {
		clip := s.clip
		v.Clipboard = &clip
	}
	return v, nil
}

// ReadDay returns a copy of the exercise list at pos. Missing weeks and days
// read as empty; the branch must exist and be visible to the caller.
func (s *Session) ReadDay(ctx context.Context, pos models.Position) ([]models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !AccessFromContext(ctx).CanSee(pos.BranchID) {
		return nil, fmt.Errorf("reading day: branch %s: %w", pos.BranchID, ErrBranchHidden)
	}
	if s.program.Branch(pos.BranchID) == nil {
		return nil, fmt.Errorf("reading day: branch %s: %w", pos.BranchID, workout.ErrNotFound)
	}
	return s.readDay(pos), nil
}

func (s *Session) readDay(pos models.Position) []models.Exercise {
	if pos == s.program.Active() {
		return models.CopyExercises(s.working)
	}
	list, _ := s.program.Day(pos.BranchID, pos.WeekKey, pos.DayKey)
	out := models.CopyExercises(list)
	if out == nil {
		out = []models.Exercise{}
	}
	return out
}

// Program returns a snapshot of the program holding the working copy,
// restricted to the branches the caller may see. A hidden original keeps
// its id but loses its content. When the active branch is hidden, the
// snapshot is positioned like View.
func (s *Session) Program(ctx context.Context) *models.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := AccessFromContext(ctx)

	p := s.program.Copy()
	s.commit(p)
	if pos, err := s.visiblePosition(a); err == nil {
		p.SetActive(pos)
	} else {
		p.SetActive(models.Position{BranchID: models.OriginalBranchID, WeekKey: models.FirstWeekKey, DayKey: models.FirstDayKey})
	}
	if !a.CanSee(models.OriginalBranchID) {
		p.Original = workout.NewBranch(models.OriginalBranchID, p.Original.Name)
	}
	variants := p.Variants[:0]
	for _, v := range p.Variants {
		if a.CanSee(v.ID) {
			variants = append(variants, v)
		}
	}
	p.Variants = variants
	return p
}
