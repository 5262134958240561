/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package scoring

import "sort"

// TotalRounds is the number of scored rounds in a game.
const TotalRounds = 5

// Table maps a round number or a place to a value, with a fallback for keys
// it does not list.
type Table struct {
	values   map[int]int
	fallback int
}

// TableEntry is one row of a Table, as shown on the rules tab.
type TableEntry struct {
	Key   int `json:"key" yaml:"key"`
	Value int `json:"value" yaml:"value"`
}

// NewTable copies values into a Table that answers fallback for missing keys.
func NewTable(values map[int]int, fallback int) Table {
	m := make(map[int]int, len(values))
	for k, v := range values {
		m[k] = v
	}

	return Table{values: m, fallback: fallback}
}

var (
	// RoundCoefficients multiplies every award in a round.
	RoundCoefficients = NewTable(map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3}, 1)

	// PlacePoints is the base award for finishing at a given place.
	PlacePoints = NewTable(map[int]int{1: 100, 2: 75, 3: 50}, 0)
)

// Lookup returns the value for key, or the fallback.
func (t Table) Lookup(key int) int {
	if v, ok := t.values[key]; ok {
		return v
	}

	return t.fallback
}

// Fallback returns the value used for unlisted keys.
func (t Table) Fallback() int {
	return t.fallback
}

// Entries returns the listed rows in ascending key order.
func (t Table) Entries() []TableEntry {
	entries := make([]TableEntry, 0, len(t.values))
	for k, v := range t.values {
		entries = append(entries, TableEntry{Key: k, Value: v})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	return entries
}
