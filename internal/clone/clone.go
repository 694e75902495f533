// Package clone deep-copies program content with fresh identities.
//
// Every cloned exercise gets a new id from the generator. Superset links are
// rewritten through the old→new id map so a cloned leader leads its cloned
// followers. The clone shares no slices or maps with its source.
package clone

import (
	"maps"

	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/superset"
)

// Engine clones exercise lists, days, weeks and branches.
type Engine struct {
	ids ids.Generator
}

// New returns an Engine minting ids from gen.
func New(gen ids.Generator) *Engine {
	return &Engine{ids: gen}
}

// NextID exposes the engine's generator for callers creating new content.
func (e *Engine) NextID() string {
	return e.ids.NextID()
}

// Exercises clones list and returns the copy together with the map from old
// to new exercise ids.
//
// A follower whose leader is not part of list keeps its old group id; the
// normalizer demotes it unless the list it lands in holds that leader. The
// result is not normalized.
func (e *Engine) Exercises(list []models.Exercise) ([]models.Exercise, map[string]string) {
	idMap := make(map[string]string, len(list))
	out := make([]models.Exercise, len(list))
	for i, ex := range list {
		out[i] = ex.Copy()
		out[i].ID = e.ids.NextID()
		idMap[ex.ID] = out[i].ID
	}
	for i := range out {
		role := out[i].Superset
		switch {
		case role.IsLeader():
			out[i].Superset = models.Leader(out[i].ID)
		case role.IsFollower():
			if newID, ok := idMap[role.GroupID()]; ok {
				out[i].Superset = models.Follower(newID)
			}
		}
	}
	return out, idMap
}

// Day clones a whole day list and normalizes the result.
func (e *Engine) Day(list []models.Exercise) []models.Exercise {
	if list == nil {
		return []models.Exercise{}
	}
	out, _ := e.Exercises(list)
	return superset.Normalize(out)
}

// Week clones every day of a week.
func (e *Engine) Week(days models.DayMap) models.DayMap {
	out := make(models.DayMap, len(days))
	for key, list := range days {
		out[key] = e.Day(list)
	}
	return out
}

// Branch clones the content of b under a new branch id. Name, description
// and number are copied; callers set them for the new branch.
func (e *Engine) Branch(b models.Branch) models.Branch {
	out := models.Branch{
		ID:          e.ids.NextID(),
		Name:        b.Name,
		Description: b.Description,
		Number:      b.Number,
		Weeks:       make(map[string]models.DayMap, len(b.Weeks)),
		DayNames:    maps.Clone(b.DayNames),
	}
	for key, days := range b.Weeks {
		out.Weeks[key] = e.Week(days)
	}
	return out
}

// Block clones the exercise with the given id from a normalized list. When
// it is a superset leader, its followers are cloned with it and stay linked.
// ok is false when no exercise has that id.
func (e *Engine) Block(list []models.Exercise, id string) (block []models.Exercise, ok bool) {
	start, end, ok := superset.BlockSpan(list, id)
	if !ok {
		return nil, false
	}
	block, _ = e.Exercises(list[start:end])
	return block, true
}
