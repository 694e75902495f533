package models

import (
	"sort"
	"strconv"
	"strings"
)

// Protected keys present in every branch.
const (
	FirstWeekKey = "W1"
	FirstDayKey  = "G1"
)

const (
	weekPrefix = "W"
	dayPrefix  = "G"
)

// WeekKey returns the key of week n ("W3").
func WeekKey(n int) string { return weekPrefix + strconv.Itoa(n) }

// DayKey returns the key of day n ("G3").
func DayKey(n int) string { return dayPrefix + strconv.Itoa(n) }

// WeekNumber parses a week key. ok is false for anything outside W1..W12.
func WeekNumber(key string) (n int, ok bool) {
	return keyNumber(key, weekPrefix, MaxWeeks)
}

// DayNumber parses a day key. ok is false for anything outside G1..G10.
func DayNumber(key string) (n int, ok bool) {
	return keyNumber(key, dayPrefix, MaxDays)
}

func keyNumber(key, prefix string, limit int) (int, bool) {
	rest, found := strings.CutPrefix(key, prefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > limit || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// SortKeys orders week or day keys by their number, so W2 sorts before W10.
// Keys that do not parse sort last, lexically.
func SortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ni, oki := anyKeyNumber(keys[i])
		nj, okj := anyKeyNumber(keys[j])
		switch {
		case oki && okj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return keys[i] < keys[j]
		}
	})
}

func anyKeyNumber(key string) (int, bool) {
	if n, ok := WeekNumber(key); ok {
		return n, true
	}
	return DayNumber(key)
}

// SortedKeys returns the keys of m in numeric key order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}
