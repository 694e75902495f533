package models

import (
	"maps"
	"slices"
)

// The Copy helpers duplicate documents keeping every id as is. Fresh
// identities are minted by the clone package, not here.

// Copy returns a deep copy of the exercise.
func (e Exercise) Copy() Exercise {
	e.Cues = slices.Clone(e.Cues)
	return e
}

// CopyExercises returns a deep copy of the list. A nil list stays nil.
func CopyExercises(list []Exercise) []Exercise {
	if list == nil {
		return nil
	}
	out := make([]Exercise, len(list))
	for i, e := range list {
		out[i] = e.Copy()
	}
	return out
}

// Copy returns a deep copy of the day map.
func (d DayMap) Copy() DayMap {
	if d == nil {
		return nil
	}
	out := make(DayMap, len(d))
	for k, list := range d {
		out[k] = CopyExercises(list)
	}
	return out
}

// Copy returns a deep copy of the branch.
func (b Branch) Copy() Branch {
	weeks := make(map[string]DayMap, len(b.Weeks))
	for k, days := range b.Weeks {
		weeks[k] = days.Copy()
	}
	b.Weeks = weeks
	b.DayNames = maps.Clone(b.DayNames)
	return b
}

// Copy returns a deep copy of the program.
func (p *Program) Copy() *Program {
	out := *p
	out.Tags = slices.Clone(p.Tags)
	out.Original = p.Original.Copy()
	if p.Variants != nil {
		out.Variants = make([]Branch, len(p.Variants))
		for i, v := range p.Variants {
			out.Variants[i] = v.Copy()
		}
	}
	return &out
}
