/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package scoring ranks the teams of a Bank Heist of Hypotheses round and
// keeps the running scoreboard.
//
// Points for a round are
//
//	correctness × round coefficient × place points
//
// where correctness is 1 or 0, and places are assigned by ascending time
// among the teams that submitted a parseable time.
package scoring

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// NoTime marks an entry without a valid time. Such entries are not ranked.
var NoTime = math.Inf(1)

// RoundResult is one team's outcome for one round.
type RoundResult struct {
	RoundNumber int     `json:"round_number" yaml:"round"`
	Time        float64 `json:"time" yaml:"time"`
	IsCorrect   bool    `json:"is_correct" yaml:"correct"`
	Place       int     `json:"place" yaml:"place"`
	Points      int     `json:"points" yaml:"points"`
}

// Entry is what the round-entry form submits for a single team.
type Entry struct {
	Time      string `json:"time"`
	IsCorrect bool   `json:"is_correct"`
}

// Placing ties a RoundResult to the roster index of the team that earned it.
type Placing struct {
	Team int `json:"team"`
	RoundResult
}

// ParseTime returns the submitted time in seconds, or NoTime and false when
// the string is not a finite decimal number. Hex floats such as "0x1p3" are
// rejected.
func ParseTime(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xX") {
		return NoTime, false
	}

	t, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		return NoTime, false
	}

	return t, true
}

// Points applies the scoring formula for a single placed team.
func Points(round, place int, correct bool) int {
	if !correct {
		return 0
	}

	return RoundCoefficients.Lookup(round) * PlacePoints.Lookup(place)
}

// Calculate ranks the entries of one round. Entries with no valid time are
// left out; the rest are returned in input order. Equal times keep input
// order when placed.
func Calculate(round int, entries []Entry) []Placing {
	type timed struct {
		team    int
		time    float64
		correct bool
	}

	valid := make([]timed, 0, len(entries))
	for i, e := range entries {
		t, ok := ParseTime(e.Time)
		if !ok {
			continue
		}

		valid = append(valid, timed{team: i, time: t, correct: e.IsCorrect})
	}

	ranked := make([]timed, len(valid))
	copy(ranked, valid)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].time < ranked[j].time
	})

	places := make(map[int]int, len(ranked))
	for i, r := range ranked {
		places[r.team] = i + 1
	}

	placings := make([]Placing, 0, len(valid))
	for _, v := range valid {
		place := places[v.team]

		placings = append(placings, Placing{
			Team: v.team,
			RoundResult: RoundResult{
				RoundNumber: round,
				Time:        v.time,
				IsCorrect:   v.correct,
				Place:       place,
				Points:      Points(round, place, v.correct),
			},
		})
	}

	return placings
}
