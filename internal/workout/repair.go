package workout

import (
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/superset"
)

// FixPosition moves the active selection onto content that exists: the
// original branch when the active branch is gone, the lowest week when the
// active week is gone, and the lowest day of the week when the active day is
// gone. It reports whether the position changed.
func FixPosition(p *models.Program) bool {
	before := p.Active()
	b := p.Branch(p.ActiveBranchID)
	if b == nil {
		b = &p.Original
		p.ActiveBranchID = b.ID
	}
	days, ok := b.Weeks[p.ActiveWeekKey]
	if !ok {
		p.ActiveWeekKey = models.FirstWeekKey
		if keys := WeekKeys(b); len(keys) > 0 {
			p.ActiveWeekKey = keys[0]
		}
		days = b.Weeks[p.ActiveWeekKey]
	}
	if _, ok := days[p.ActiveDayKey]; !ok {
		p.ActiveDayKey = models.FirstDayKey
		if keys := models.SortedKeys(days); len(keys) > 0 {
			p.ActiveDayKey = keys[0]
		}
	}
	return p.Active() != before
}

// DropInvalidKeys deletes weeks and days whose keys are malformed or beyond
// the caps, and labels of such days. It returns how many weeks and day lists
// were removed.
func DropInvalidKeys(b *models.Branch) int {
	n := 0
	for wk, days := range b.Weeks {
		if _, ok := models.WeekNumber(wk); !ok {
			delete(b.Weeks, wk)
			n++
			continue
		}
		for dk := range days {
			if _, ok := models.DayNumber(dk); !ok {
				delete(days, dk)
				n++
			}
		}
	}
	for dk := range b.DayNames {
		if _, ok := models.DayNumber(dk); !ok {
			delete(b.DayNames, dk)
		}
	}
	return n
}

// Repair restores every structural invariant of a loaded program: a known
// status, valid keys, branch shapes, normalized day lists, the original
// branch id and a valid active position.
func Repair(p *models.Program) {
	if _, err := models.ParseStatus(string(p.Status)); err != nil {
		p.Status = models.StatusDraft
	}
	p.Original.ID = models.OriginalBranchID
	if p.Original.Name == "" {
		p.Original.Name = "Original"
	}
	for _, b := range p.Branches() {
		DropInvalidKeys(b)
		EnsureShape(b)
		for _, days := range b.Weeks {
			for dk, list := range days {
				if !superset.IsNormalized(list) {
					days[dk] = superset.Normalize(list)
				}
			}
		}
	}
	FixPosition(p)
}
