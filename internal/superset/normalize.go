// Package superset keeps superset groupings of a day's exercise list valid.
//
// A superset is a leader exercise plus its followers. Followers reference the
// leader by id (the leader's group id is its own id) and are always stored
// contiguously right after the leader. Normalize restores those rules after
// any structural edit: add, remove, reorder or paste.
package superset

import "github.com/claude/freeplan/internal/models"

// Normalize returns a normalized copy of list. The input is not modified.
//
// It runs three passes:
//  1. followers whose group names no leader in the list are demoted to none;
//  2. leaders left without followers are demoted to none;
//  3. every leader's followers are moved, in their current relative order,
//     to the positions right after the leader.
//
// Normalize is idempotent.
func Normalize(list []models.Exercise) []models.Exercise {
	if len(list) == 0 {
		return models.CopyExercises(list)
	}
	out := models.CopyExercises(list)

	// A leader's group is always its own id. When two leaders share an id
	// only the first one keeps the role.
	leaders := make(map[string]bool)
	for i := range out {
		if !out[i].Superset.IsLeader() {
			continue
		}
		if leaders[out[i].ID] {
			out[i].Superset = models.NoRole()
			continue
		}
		out[i].Superset = models.Leader(out[i].ID)
		leaders[out[i].ID] = true
	}

	// Pass 1: demote orphans.
	followers := make(map[string]int)
	for i := range out {
		role := out[i].Superset
		if !role.IsFollower() {
			continue
		}
		if !leaders[role.GroupID()] {
			out[i].Superset = models.NoRole()
			continue
		}
		followers[role.GroupID()]++
	}

	// Pass 2: prune empty leaders.
	for i := range out {
		if out[i].Superset.IsLeader() && followers[out[i].ID] == 0 {
			out[i].Superset = models.NoRole()
		}
	}

	// Pass 3: reflow.
	groups := make(map[string][]models.Exercise, len(followers))
	rest := make([]models.Exercise, 0, len(out))
	for _, e := range out {
		if e.Superset.IsFollower() {
			g := e.Superset.GroupID()
			groups[g] = append(groups[g], e)
			continue
		}
		rest = append(rest, e)
	}
	result := make([]models.Exercise, 0, len(out))
	for _, e := range rest {
		result = append(result, e)
		if e.Superset.IsLeader() {
			result = append(result, groups[e.ID]...)
		}
	}
	return result
}

// IsNormalized reports whether Normalize would leave list unchanged.
func IsNormalized(list []models.Exercise) bool {
	norm := Normalize(list)
	if len(norm) != len(list) {
		return false
	}
	for i := range list {
		if list[i].ID != norm[i].ID || !list[i].Superset.Equal(norm[i].Superset) {
			return false
		}
	}
	return true
}

// BlockSpan returns the half-open range [start, end) covering the exercise
// with the given id and, when it is a leader, its followers. The list is
// assumed normalized. ok is false when no exercise has that id.
func BlockSpan(list []models.Exercise, id string) (start, end int, ok bool) {
	for i := range list {
		if list[i].ID != id {
			continue
		}
		end = i + 1
		if list[i].Superset.IsLeader() {
			for end < len(list) && list[end].Superset.IsFollower() && list[end].Superset.GroupID() == id {
				end++
			}
		}
		return i, end, true
	}
	return 0, 0, false
}
