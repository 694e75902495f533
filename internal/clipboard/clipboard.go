// Package clipboard copies and pastes days, weeks and whole branches.
//
// A payload is a deep snapshot taken at copy time, so later edits to the
// source never reach it. Pasting always routes the payload through the clone
// engine: every paste mints fresh exercise ids and never shares state with
// the payload or with earlier pastes of it.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/claude/freeplan/internal/clone"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/workout"
)

var (
	// ErrEmptyClipboard reports a paste with nothing copied.
	ErrEmptyClipboard = errors.New("clipboard is empty")
	// ErrSelfPaste reports a paste onto the position the payload was copied from.
	ErrSelfPaste = fmt.Errorf("paste onto its own source: %w", workout.ErrProtectedKey)
)

// Scope is the level of the hierarchy a payload covers.
type Scope string

const (
	ScopeDay    Scope = "day"
	ScopeWeek   Scope = "week"
	ScopeBranch Scope = "branch"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeDay, ScopeWeek, ScopeBranch:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown clipboard scope %q", s)
}

// Payload is a copied subtree together with where it was copied from.
type Payload struct {
	Scope      Scope             `json:"scope"`
	Provenance models.Position   `json:"provenance"`
	Day        []models.Exercise `json:"day,omitempty"`
	Week       models.DayMap     `json:"week,omitempty"`
	Branch     *models.Branch    `json:"branch,omitempty"`
}

// IsEmpty reports whether nothing has been copied.
func (p Payload) IsEmpty() bool {
	return p.Scope == ""
}

// Copy snapshots the subtree of program at pos covered by scope. Exercise ids
// are preserved; they are replaced when the payload is pasted.
func Copy(scope Scope, program *models.Program, pos models.Position) (Payload, error) {
	b := program.Branch(pos.BranchID)
	if b == nil {
		return Payload{}, fmt.Errorf("copying %s: branch %s: %w", scope, pos.BranchID, workout.ErrNotFound)
	}
	out := Payload{Scope: scope}
	switch scope {
	case ScopeBranch:
		cp := b.Copy()
		out.Branch = &cp
		out.Provenance = models.Position{BranchID: pos.BranchID}
	case ScopeWeek:
		days, ok := b.Weeks[pos.WeekKey]
		if !ok {
			return Payload{}, fmt.Errorf("copying week %s: %w", pos.WeekKey, workout.ErrNotFound)
		}
		out.Week = days.Copy()
		out.Provenance = models.Position{BranchID: pos.BranchID, WeekKey: pos.WeekKey}
	case ScopeDay:
		list, ok := program.Day(pos.BranchID, pos.WeekKey, pos.DayKey)
		if !ok {
			return Payload{}, fmt.Errorf("copying day %s/%s: %w", pos.WeekKey, pos.DayKey, workout.ErrNotFound)
		}
		out.Day = models.CopyExercises(list)
		if out.Day == nil {
			out.Day = []models.Exercise{}
		}
		out.Provenance = pos
	default:
		return Payload{}, fmt.Errorf("copying: unknown scope %q", scope)
	}
	return out, nil
}

// SameSource reports whether pos addresses the payload's provenance at the
// payload's scope. Only positions are compared, never content.
func (p Payload) SameSource(pos models.Position) bool {
	prov := p.Provenance
	switch p.Scope {
	case ScopeBranch:
		return pos.BranchID == prov.BranchID
	case ScopeWeek:
		return pos.BranchID == prov.BranchID && pos.WeekKey == prov.WeekKey
	case ScopeDay:
		return pos == prov
	}
	return false
}

// Paste applies payload to a copy of dst at pos and returns the updated
// branch. dst is never modified.
//
// blocked is true when pos is the payload's own source; the returned branch
// is then dst itself and err wraps ErrSelfPaste.
//
// A day payload replaces the day at pos. A week payload replaces the week at
// pos.WeekKey, creating it when absent. A branch payload replaces every week
// it carries, keeps weeks only the destination has and merges day labels.
// Week and day key sets are unioned, so every week of the result holds every
// day key of the branch.
func Paste(eng *clone.Engine, payload Payload, dst models.Branch, pos models.Position) (out models.Branch, blocked bool, err error) {
	if payload.IsEmpty() {
		return dst, false, ErrEmptyClipboard
	}
	pos.BranchID = dst.ID
	if payload.SameSource(pos) {
		return dst, true, fmt.Errorf("pasting %s: %w", payload.Scope, ErrSelfPaste)
	}

	out = dst.Copy()
	switch payload.Scope {
	case ScopeDay:
		days, ok := out.Weeks[pos.WeekKey]
		if !ok {
			return dst, false, fmt.Errorf("pasting day: week %s: %w", pos.WeekKey, workout.ErrNotFound)
		}
		if _, ok := days[pos.DayKey]; !ok {
			return dst, false, fmt.Errorf("pasting day: day %s: %w", pos.DayKey, workout.ErrNotFound)
		}
		days[pos.DayKey] = eng.Day(payload.Day)
	case ScopeWeek:
		if _, ok := models.WeekNumber(pos.WeekKey); !ok {
			return dst, false, fmt.Errorf("pasting week: invalid week key %q: %w", pos.WeekKey, workout.ErrNotFound)
		}
		if _, ok := out.Weeks[pos.WeekKey]; !ok && len(out.Weeks) >= models.MaxWeeks {
			return dst, false, fmt.Errorf("pasting week %s: %w", pos.WeekKey, workout.ErrLimitExceeded)
		}
		dayKeys := union(workout.DayKeys(&out), models.SortedKeys(payload.Week), models.DayNumber, models.MaxDays)
		out.Weeks[pos.WeekKey] = pick(eng.Week(payload.Week), dayKeys)
	case ScopeBranch:
		if payload.Branch == nil {
			return dst, false, ErrEmptyClipboard
		}
		src := payload.Branch
		weekKeys := union(workout.WeekKeys(&out), workout.WeekKeys(src), models.WeekNumber, models.MaxWeeks)
		dayKeys := union(workout.DayKeys(&out), workout.DayKeys(src), models.DayNumber, models.MaxDays)
		kept := make(map[string]bool, len(weekKeys))
		for _, wk := range weekKeys {
			kept[wk] = true
		}
		for wk := range out.Weeks {
			if !kept[wk] {
				delete(out.Weeks, wk)
			}
		}
		for wk, days := range src.Weeks {
			if kept[wk] {
				out.Weeks[wk] = pick(eng.Week(days), dayKeys)
			}
		}
		for dk, label := range src.DayNames {
			if out.DayNames == nil {
				out.DayNames = make(map[string]string)
			}
			out.DayNames[dk] = label
		}
	default:
		return dst, false, fmt.Errorf("pasting: unknown scope %q", payload.Scope)
	}
	workout.EnsureShape(&out)
	trimDays(&out)
	return out, false, nil
}

// union returns the sorted union of a and b restricted to valid keys, keeping
// at most limit of the lowest.
func union(a, b []string, valid func(string) (int, bool), limit int) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, keys := range [][]string{a, b} {
		for _, k := range keys {
			if _, ok := valid(k); ok {
				set[k] = struct{}{}
			}
		}
	}
	keys := models.SortedKeys(set)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// pick keeps only the listed day keys of days.
func pick(days models.DayMap, keys []string) models.DayMap {
	out := make(models.DayMap, len(keys))
	for _, k := range keys {
		if list, ok := days[k]; ok {
			out[k] = list
		}
	}
	return out
}

// trimDays drops day keys beyond the cap from every week.
func trimDays(b *models.Branch) {
	keys := workout.DayKeys(b)
	if len(keys) <= models.MaxDays {
		return
	}
	for _, dk := range keys[models.MaxDays:] {
		for _, days := range b.Weeks {
			delete(days, dk)
		}
		delete(b.DayNames, dk)
	}
}
