package scoring

import "testing"

func sumPoints(team Team) int {
	total := 0
	for _, r := range team.Rounds {
		total += r.Points
	}
	return total
}

func TestNewBoard_InitialState(t *testing.T) {
	b := NewBoard()

	if b.Round() != 1 {
		t.Errorf("Round = %d, want 1", b.Round())
	}
	if b.Finished() {
		t.Error("new board should not be finished")
	}

	teams := b.Teams()
	if len(teams) != len(Roster) {
		t.Fatalf("teams = %d, want %d", len(teams), len(Roster))
	}
	for i, team := range teams {
		if team.Name != Roster[i] {
			t.Errorf("teams[%d].Name = %q, want %q", i, team.Name, Roster[i])
		}
		if team.TotalScore != 0 || len(team.Rounds) != 0 {
			t.Errorf("teams[%d] = %+v, want empty", i, team)
		}
	}
}

func TestBoard_EditTeamName(t *testing.T) {
	b := NewBoard()
	before := b.Teams()

	if !b.EditTeamName(1, "Vault Crackers") {
		t.Fatal("EditTeamName(1) = false, want true")
	}
	if got := b.Teams()[1].Name; got != "Vault Crackers" {
		t.Errorf("Name = %q, want %q", got, "Vault Crackers")
	}
	if before[1].Name != Roster[1] {
		t.Errorf("earlier copy changed to %q", before[1].Name)
	}
}

func TestBoard_EditTeamName_OutOfRange(t *testing.T) {
	b := NewBoard()

	for _, idx := range []int{-1, 3, 100} {
		if b.EditTeamName(idx, "Nobody") {
			t.Errorf("EditTeamName(%d) = true, want false", idx)
		}
	}

	for i, team := range b.Teams() {
		if team.Name != Roster[i] {
			t.Errorf("teams[%d].Name = %q, want %q", i, team.Name, Roster[i])
		}
	}
}

func TestBoard_CalculateRoundResults(t *testing.T) {
	b := NewBoard()

	b.CalculateRoundResults([]Entry{
		{Time: "10.0", IsCorrect: true},
		{Time: "12.0", IsCorrect: true},
		{Time: "8.0", IsCorrect: true},
	})

	if b.Round() != 2 {
		t.Errorf("Round = %d, want 2", b.Round())
	}

	want := []int{75, 50, 100}
	for i, team := range b.Teams() {
		if team.TotalScore != want[i] {
			t.Errorf("teams[%d].TotalScore = %d, want %d", i, team.TotalScore, want[i])
		}
		if len(team.Rounds) != 1 {
			t.Fatalf("teams[%d].Rounds = %d, want 1", i, len(team.Rounds))
		}
	}
}

func TestBoard_CalculateRoundResults_SkipsMissingTime(t *testing.T) {
	b := NewBoard()

	b.CalculateRoundResults([]Entry{
		{Time: "", IsCorrect: true},
		{Time: "5", IsCorrect: true},
	})

	teams := b.Teams()
	if len(teams[0].Rounds) != 0 || teams[0].TotalScore != 0 {
		t.Errorf("team 0 = %+v, want untouched", teams[0])
	}
	if len(teams[2].Rounds) != 0 {
		t.Errorf("team 2 has %d rounds, want 0", len(teams[2].Rounds))
	}
	if teams[1].TotalScore != 100 {
		t.Errorf("team 1 TotalScore = %d, want 100", teams[1].TotalScore)
	}
	if b.Round() != 2 {
		t.Errorf("Round = %d, want 2", b.Round())
	}
}

func TestBoard_RoundAdvancesWithoutSubmissions(t *testing.T) {
	b := NewBoard()

	placings := b.CalculateRoundResults(nil)
	if len(placings) != 0 {
		t.Errorf("placings = %d, want 0", len(placings))
	}
	if b.Round() != 2 {
		t.Errorf("Round = %d, want 2", b.Round())
	}
}

func TestBoard_ExtraEntriesIgnored(t *testing.T) {
	b := NewBoard()

	placings := b.CalculateRoundResults([]Entry{
		{Time: "4", IsCorrect: true},
		{Time: "3", IsCorrect: true},
		{Time: "2", IsCorrect: true},
		{Time: "1", IsCorrect: true},
	})

	if len(placings) != 3 {
		t.Fatalf("placings = %d, want 3", len(placings))
	}
	if got := b.Teams()[2].TotalScore; got != 100 {
		t.Errorf("team 2 TotalScore = %d, want 100", got)
	}
}

func TestBoard_FullGameKeepsTotals(t *testing.T) {
	b := NewBoard()

	rounds := [][]Entry{
		{{"10", true}, {"12", true}, {"8", true}},
		{{"7", false}, {"", true}, {"9", true}},
		{{"5", true}, {"6", true}, {"bad", true}},
		{{"3", true}, {"3", true}, {"3", false}},
		{{"11", true}, {"10", true}, {"12", true}},
	}

	for _, entries := range rounds {
		b.CalculateRoundResults(entries)
	}

	if !b.Finished() {
		t.Error("board should be finished after five rounds")
	}

	for i, team := range b.Teams() {
		if team.TotalScore != sumPoints(team) {
			t.Errorf("teams[%d].TotalScore = %d, sum of rounds = %d", i, team.TotalScore, sumPoints(team))
		}
		last := 0
		for _, r := range team.Rounds {
			if r.RoundNumber <= last {
				t.Errorf("teams[%d] round %d recorded after %d", i, r.RoundNumber, last)
			}
			last = r.RoundNumber
		}
	}

	// round 5 gives Beta 1st at x3
	if got := b.Teams()[1].Rounds[len(b.Teams()[1].Rounds)-1].Points; got != 300 {
		t.Errorf("Beta round 5 points = %d, want 300", got)
	}
}

func TestBoard_Leaderboard(t *testing.T) {
	b := NewBoard()
	b.CalculateRoundResults([]Entry{{"10", true}, {"12", true}, {"8", true}})

	standings := b.Leaderboard()

	wantOrder := []int{2, 0, 1}
	for i, s := range standings {
		if s.Index != wantOrder[i] {
			t.Errorf("standings[%d].Index = %d, want %d", i, s.Index, wantOrder[i])
		}
		if s.Rank != i+1 {
			t.Errorf("standings[%d].Rank = %d, want %d", i, s.Rank, i+1)
		}
	}
}

func TestBoard_LeaderboardTiesKeepRosterOrder(t *testing.T) {
	b := NewBoard()

	for i, s := range b.Leaderboard() {
		if s.Index != i {
			t.Errorf("standings[%d].Index = %d, want %d", i, s.Index, i)
		}
	}
}

func TestBoard_Reset(t *testing.T) {
	b := NewBoard()
	b.EditTeamName(0, "Renamed")
	b.CalculateRoundResults([]Entry{{"1", true}, {"2", true}, {"3", true}})
	b.CalculateRoundResults([]Entry{{"1", true}, {"2", true}, {"3", true}})

	b.Reset()

	if b.Round() != 1 {
		t.Errorf("Round = %d, want 1", b.Round())
	}
	teams := b.Teams()
	if len(teams) != 3 {
		t.Fatalf("teams = %d, want 3", len(teams))
	}
	for i, team := range teams {
		if team.Name != Roster[i] || team.TotalScore != 0 || len(team.Rounds) != 0 {
			t.Errorf("teams[%d] = %+v, want fresh %q", i, team, Roster[i])
		}
	}
}

func TestBoard_TeamsAreCopies(t *testing.T) {
	b := NewBoard()
	b.CalculateRoundResults([]Entry{{"1", true}})

	teams := b.Teams()
	teams[0].Rounds[0].Points = 9999
	teams[0].Name = "Mutated"

	fresh := b.Teams()
	if fresh[0].Rounds[0].Points != 100 {
		t.Errorf("Points = %d, want 100", fresh[0].Rounds[0].Points)
	}
	if fresh[0].Name != Roster[0] {
		t.Errorf("Name = %q, want %q", fresh[0].Name, Roster[0])
	}
}

func TestBoard_Snapshot(t *testing.T) {
	b := NewBoard()
	for i := 0; i < TotalRounds; i++ {
		b.CalculateRoundResults(nil)
	}

	s := b.Snapshot()
	if s.Round != 6 || !s.Finished {
		t.Errorf("Snapshot = round %d finished %v, want 6 true", s.Round, s.Finished)
	}
	if len(s.Teams) != 3 || len(s.Leaderboard) != 3 {
		t.Errorf("Snapshot has %d teams, %d standings, want 3 and 3", len(s.Teams), len(s.Leaderboard))
	}
}
