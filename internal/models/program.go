package models

import "time"

// OriginalBranchID identifies the original branch of every program.
const OriginalBranchID = "original"

// Structural limits per branch.
const (
	MaxWeeks = 12
	MaxDays  = 10
)

// Program is a coach's workout document: the original branch plus its
// cloned variants, and the position the editor currently has open.
type Program struct {
	ID             string    `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tags           []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Status         Status    `json:"status,omitempty" yaml:"status,omitempty"`
	Original       Branch    `json:"original" yaml:"original"`
	Variants       []Branch  `json:"variants,omitempty" yaml:"variants,omitempty"`
	ActiveBranchID string    `json:"active_branch_id" yaml:"active_branch_id"`
	ActiveWeekKey  string    `json:"active_week" yaml:"active_week"`
	ActiveDayKey   string    `json:"active_day" yaml:"active_day"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

// Branch is one independent version of a program's content.
// Number is 0 for the original and the sequential variant number otherwise.
type Branch struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Number      int               `json:"number,omitempty" yaml:"number,omitempty"`
	Weeks       map[string]DayMap `json:"weeks" yaml:"weeks"`
	DayNames    map[string]string `json:"day_names,omitempty" yaml:"day_names,omitempty"`
}

// DayMap maps a day key ("G1".."G10") to its ordered exercise list.
type DayMap map[string][]Exercise

// Exercise is a single entry of a day's list.
type Exercise struct {
	ID               string       `json:"id" yaml:"id"`
	Name             string       `json:"name" yaml:"name"`
	Notes            string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	Sets             string       `json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps             string       `json:"reps,omitempty" yaml:"reps,omitempty"`
	Intensity        string       `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	TimeUnderTension string       `json:"tut,omitempty" yaml:"tut,omitempty"`
	Recovery         string       `json:"recovery,omitempty" yaml:"recovery,omitempty"`
	MediaURL         string       `json:"media_url,omitempty" yaml:"media_url,omitempty"`
	Cues             []string     `json:"cues,omitempty" yaml:"cues,omitempty"`
	Superset         SupersetRole `json:"superset" yaml:"superset,omitempty"`
}

// IsOriginal reports whether b is the program's original branch.
func (b *Branch) IsOriginal() bool {
	return b.ID == OriginalBranchID
}

// Branch returns the branch with the given id, or nil.
func (p *Program) Branch(id string) *Branch {
	if id == OriginalBranchID {
		return &p.Original
	}
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// Branches returns the original followed by every variant, in order.
// The returned pointers alias the program.
func (p *Program) Branches() []*Branch {
	out := make([]*Branch, 0, len(p.Variants)+1)
	out = append(out, &p.Original)
	for i := range p.Variants {
		out = append(out, &p.Variants[i])
	}
	return out
}

// Day returns the exercise list stored at (branch, week, day) and whether it exists.
func (p *Program) Day(branchID, weekKey, dayKey string) ([]Exercise, bool) {
	b := p.Branch(branchID)
	if b == nil {
		return nil, false
	}
	days, ok := b.Weeks[weekKey]
	if !ok {
		return nil, false
	}
	list, ok := days[dayKey]
	return list, ok
}

// Position addresses a day list inside a program.
type Position struct {
	BranchID string `json:"branch"`
	WeekKey  string `json:"week"`
	DayKey   string `json:"day"`
}

// Active returns the program's current editing position.
func (p *Program) Active() Position {
	return Position{BranchID: p.ActiveBranchID, WeekKey: p.ActiveWeekKey, DayKey: p.ActiveDayKey}
}

// SetActive moves the program's current editing position.
func (p *Program) SetActive(pos Position) {
	p.ActiveBranchID = pos.BranchID
	p.ActiveWeekKey = pos.WeekKey
	p.ActiveDayKey = pos.DayKey
}
