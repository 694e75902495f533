// Package workout implements the structural operations on a program's
// branches, weeks and days. Every function validates its limits before it
// changes anything, so a call that returns an error leaves its target as it
// was.
package workout

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/freeplan/internal/models"
)

var (
	// ErrLimitExceeded reports that a week, day or branch cap was reached.
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrProtectedKey reports an attempt to delete W1, G1 or the original branch.
	ErrProtectedKey = errors.New("protected key")
	// ErrLastWeek reports an attempt to delete the only remaining week.
	ErrLastWeek = errors.New("cannot remove the last week")
	// ErrNotFound reports an unknown branch, week, day or exercise.
	ErrNotFound = errors.New("not found")
)

// NewBranch returns an empty branch holding W1 with G1.
func NewBranch(id, name string) models.Branch {
	return models.Branch{
		ID:    id,
		Name:  name,
		Weeks: map[string]models.DayMap{models.FirstWeekKey: {models.FirstDayKey: {}}},
	}
}

// NewProgram returns a program with an empty original branch, positioned on
// original/W1/G1.
func NewProgram(id, title string, now time.Time) *models.Program {
	return &models.Program{
		ID:             id,
		Title:          title,
		Status:         models.StatusDraft,
		Original:       NewBranch(models.OriginalBranchID, "Original"),
		ActiveBranchID: models.OriginalBranchID,
		ActiveWeekKey:  models.FirstWeekKey,
		ActiveDayKey:   models.FirstDayKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WeekKeys returns the branch's week keys in numeric order.
func WeekKeys(b *models.Branch) []string {
	return models.SortedKeys(b.Weeks)
}

// DayKeys returns every day key used in any week of the branch, in numeric order.
func DayKeys(b *models.Branch) []string {
	set := make(map[string]struct{})
	for _, days := range b.Weeks {
		for k := range days {
			set[k] = struct{}{}
		}
	}
	return models.SortedKeys(set)
}

// HasDay reports whether any week of the branch holds the day key.
func HasDay(b *models.Branch, key string) bool {
	for _, days := range b.Weeks {
		if _, ok := days[key]; ok {
			return true
		}
	}
	return false
}

// EnsureShape restores the structural invariants of a branch in place: W1
// and G1 exist, and every week holds every day key of the branch.
func EnsureShape(b *models.Branch) {
	if b.Weeks == nil {
		b.Weeks = make(map[string]models.DayMap)
	}
	if _, ok := b.Weeks[models.FirstWeekKey]; !ok {
		b.Weeks[models.FirstWeekKey] = models.DayMap{}
	}
	dayKeys := DayKeys(b)
	if len(dayKeys) == 0 || dayKeys[0] != models.FirstDayKey {
		dayKeys = append([]string{models.FirstDayKey}, dayKeys...)
	}
	for wk, days := range b.Weeks {
		if days == nil {
			days = models.DayMap{}
			b.Weeks[wk] = days
		}
		for _, dk := range dayKeys {
			if days[dk] == nil {
				days[dk] = []models.Exercise{}
			}
		}
	}
}

// lowestFree returns the lowest n in [from, limit] for which used(key(n)) is false.
func lowestFree(from, limit int, key func(int) string, used func(string) bool) (string, bool) {
	for n := from; n <= limit; n++ {
		k := key(n)
		if !used(k) {
			return k, true
		}
	}
	return "", false
}

// AddWeek adds the lowest unused week in W2..W12, holding every day key of
// the branch with empty lists, and returns its key.
func AddWeek(b *models.Branch) (string, error) {
	if len(b.Weeks) >= models.MaxWeeks {
		return "", fmt.Errorf("adding week: at most %d weeks: %w", models.MaxWeeks, ErrLimitExceeded)
	}
	key, ok := lowestFree(2, models.MaxWeeks, models.WeekKey, func(k string) bool {
		_, used := b.Weeks[k]
		return used
	})
	if !ok {
		return "", fmt.Errorf("adding week: no free week key: %w", ErrLimitExceeded)
	}
	days := models.DayMap{}
	for _, dk := range DayKeys(b) {
		days[dk] = []models.Exercise{}
	}
	if len(days) == 0 {
		days[models.FirstDayKey] = []models.Exercise{}
	}
	b.Weeks[key] = days
	return key, nil
}

// RemoveWeek deletes a week and all of its day content.
func RemoveWeek(b *models.Branch, key string) error {
	if key == models.FirstWeekKey {
		return fmt.Errorf("removing week %s: %w", key, ErrProtectedKey)
	}
	if _, ok := b.Weeks[key]; !ok {
		return fmt.Errorf("removing week %s: %w", key, ErrNotFound)
	}
	if len(b.Weeks) <= 1 {
		return fmt.Errorf("removing week %s: %w", key, ErrLastWeek)
	}
	delete(b.Weeks, key)
	return nil
}

// ClearWeek empties every day list of a week, keeping the day keys.
func ClearWeek(b *models.Branch, key string) error {
	days, ok := b.Weeks[key]
	if !ok {
		return fmt.Errorf("clearing week %s: %w", key, ErrNotFound)
	}
	for dk := range days {
		days[dk] = []models.Exercise{}
	}
	return nil
}

// ClearDay empties one day list, keeping its key.
func ClearDay(b *models.Branch, weekKey, dayKey string) error {
	days, ok := b.Weeks[weekKey]
	if !ok {
		return fmt.Errorf("clearing day %s/%s: week: %w", weekKey, dayKey, ErrNotFound)
	}
	if _, ok := days[dayKey]; !ok {
		return fmt.Errorf("clearing day %s/%s: %w", weekKey, dayKey, ErrNotFound)
	}
	days[dayKey] = []models.Exercise{}
	return nil
}

// AddDay adds the lowest unused day in G2..G10 to every week of the branch
// and returns its key.
func AddDay(b *models.Branch) (string, error) {
	existing := DayKeys(b)
	if len(existing) >= models.MaxDays {
		return "", fmt.Errorf("adding day: at most %d days: %w", models.MaxDays, ErrLimitExceeded)
	}
	used := make(map[string]bool, len(existing))
	for _, k := range existing {
		used[k] = true
	}
	key, ok := lowestFree(2, models.MaxDays, models.DayKey, func(k string) bool { return used[k] })
	if !ok {
		return "", fmt.Errorf("adding day: no free day key: %w", ErrLimitExceeded)
	}
	for _, days := range b.Weeks {
		days[key] = []models.Exercise{}
	}
	return key, nil
}

// RemoveDay deletes a day from every week of the branch, together with its
// custom label.
func RemoveDay(b *models.Branch, key string) error {
	if key == models.FirstDayKey {
		return fmt.Errorf("removing day %s: %w", key, ErrProtectedKey)
	}
	if !HasDay(b, key) {
		return fmt.Errorf("removing day %s: %w", key, ErrNotFound)
	}
	for _, days := range b.Weeks {
		delete(days, key)
	}
	delete(b.DayNames, key)
	return nil
}

// RenameDay sets the custom label of a day. An empty label restores the default.
func RenameDay(b *models.Branch, key, label string) error {
	if !HasDay(b, key) {
		return fmt.Errorf("renaming day %s: %w", key, ErrNotFound)
	}
	if label == "" {
		delete(b.DayNames, key)
		return nil
	}
	if b.DayNames == nil {
		b.DayNames = make(map[string]string)
	}
	b.DayNames[key] = label
	return nil
}

// DayLabel returns the custom label of a day, or its key.
func DayLabel(b *models.Branch, key string) string {
	if name := b.DayNames[key]; name != "" {
		return name
	}
	return key
}
