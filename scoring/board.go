/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package scoring

import "sort"

// Team is one row of the scoreboard.
type Team struct {
	Name       string        `json:"name" yaml:"name"`
	TotalScore int           `json:"total_score" yaml:"total"`
	Rounds     []RoundResult `json:"rounds" yaml:"rounds"`
}

// Standing is a team's position on the leaderboard.
type Standing struct {
	Rank  int `json:"rank"`
	Index int `json:"index"`
	Team
}

// Snapshot is a copy of the whole board at one point in time.
type Snapshot struct {
	Round       int        `json:"round"`
	Finished    bool       `json:"finished"`
	Teams       []Team     `json:"teams"`
	Leaderboard []Standing `json:"leaderboard"`
}

// Roster is the fixed set of team names every board starts with.
var Roster = []string{"Team Alpha", "Team Beta", "Team Gamma"}

// Board holds the teams and the round counter of one game. It is not safe
// for concurrent use.
type Board struct {
	teams []Team
	round int
}

// NewBoard returns a board holding the starting roster at round 1.
func NewBoard() *Board {
	b := &Board{}
	b.Reset()

	return b
}

func initialTeams() []Team {
	teams := make([]Team, len(Roster))
	for i, name := range Roster {
		teams[i] = Team{Name: name, Rounds: []RoundResult{}}
	}

	return teams
}

// Reset restores the starting roster and moves back to round 1.
func (b *Board) Reset() {
	b.teams = initialTeams()
	b.round = 1
}

// Round is the round the next submission will be scored as.
func (b *Board) Round() int {
	return b.round
}

// Finished reports whether every scored round has been played.
func (b *Board) Finished() bool {
	return b.round > TotalRounds
}

// Teams returns a copy of the teams in roster order.
func (b *Board) Teams() []Team {
	teams := make([]Team, len(b.teams))
	for i, t := range b.teams {
		teams[i] = t.clone()
	}

	return teams
}

// EditTeamName renames the team at index. It does nothing and returns false
// when index is out of range.
func (b *Board) EditTeamName(index int, name string) bool {
	if index < 0 || index >= len(b.teams) {
		return false
	}

	teams := make([]Team, len(b.teams))
	copy(teams, b.teams)

	renamed := teams[index].clone()
	renamed.Name = name
	teams[index] = renamed

	b.teams = teams

	return true
}

// CalculateRoundResults scores entries as the current round, records the
// results for every team with a valid time, and advances the round counter.
// Entries are matched to teams by position; extra entries are ignored.
func (b *Board) CalculateRoundResults(entries []Entry) []Placing {
	if len(entries) > len(b.teams) {
		entries = entries[:len(b.teams)]
	}

	placings := Calculate(b.round, entries)

	teams := make([]Team, len(b.teams))
	copy(teams, b.teams)

	for _, p := range placings {
		t := teams[p.Team].clone()
		t.Rounds = append(t.Rounds, p.RoundResult)
		t.TotalScore += p.Points
		teams[p.Team] = t
	}

	b.teams = teams
	b.round++

	return placings
}

// Leaderboard orders the teams by total score, highest first. Teams with
// equal scores keep roster order.
func (b *Board) Leaderboard() []Standing {
	standings := make([]Standing, len(b.teams))
	for i, t := range b.teams {
		standings[i] = Standing{Index: i, Team: t.clone()}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalScore > standings[j].TotalScore
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings
}

// Snapshot returns a copy of the whole board for rendering or export.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{
		Round:       b.round,
		Finished:    b.Finished(),
		Teams:       b.Teams(),
		Leaderboard: b.Leaderboard(),
	}
}

func (t Team) clone() Team {
	rounds := make([]RoundResult, len(t.Rounds), len(t.Rounds)+1)
	copy(rounds, t.Rounds)
	t.Rounds = rounds

	return t
}
