package board

// Mutation is a partial set of top-level document fields. Fields left at
// their zero value (nil pointers, nil slices) are carried over verbatim from
// the base document during Apply; the merge is shallow and only at the top
// level. Mutations carry no state of their own. The shaping helpers below
// build them from a snapshot and the helpers' inputs.
type Mutation struct {
	PlayersA       []Player
	PlayersB       []Player
	Timer          *Countdown
	IsPaused       *bool
	PointsToWin    *int
	PlayersPerTeam *int
}

// Apply merges the mutation over base and returns the full merged document.
// This is the only place partial updates become whole-document writes.
func (m Mutation) Apply(base Document) Document {
	next := base
	if m.PlayersA != nil {
		next.PlayersA = m.PlayersA
	}
	if m.PlayersB != nil {
		next.PlayersB = m.PlayersB
	}
	if m.Timer != nil {
		next.Timer = *m.Timer
	}
	if m.IsPaused != nil {
		next.IsPaused = *m.IsPaused
	}
	if m.PointsToWin != nil {
		next.PointsToWin = *m.PointsToWin
	}
	if m.PlayersPerTeam != nil {
		next.PlayersPerTeam = *m.PlayersPerTeam
	}
	return next
}

// RenamePlayer builds a mutation that replaces one player's name. Indexes
// outside the roster yield an empty mutation.
func RenamePlayer(doc Document, team TeamID, index int, name string) Mutation {
	roster := doc.Roster(team)
	if index < 0 || index >= len(roster) {
		return Mutation{}
	}
	next := cloneRoster(roster)
	next[index].Name = name
	return rosterMutation(team, next)
}

// AdjustScore builds a mutation that adds delta to one player's score,
// clamping the result at zero. Decrementing from zero stays at zero.
func AdjustScore(doc Document, team TeamID, index int, delta int) Mutation {
	roster := doc.Roster(team)
	if index < 0 || index >= len(roster) {
		return Mutation{}
	}
	next := cloneRoster(roster)
	score := next[index].Score + delta
	if score < 0 {
		score = 0
	}
	next[index].Score = score
	return rosterMutation(team, next)
}

// SetRosterSize builds a mutation switching the active team size. Switching
// upward pads both rosters with placeholders as needed; switching downward
// only narrows which prefix counts; surplus players keep their data.
func SetRosterSize(doc Document, size int) Mutation {
	if size < 2 || size > MinRosterSize {
		return Mutation{}
	}
	m := Mutation{PlayersPerTeam: &size}
	if len(doc.PlayersA) < size {
		m.PlayersA = padRoster(doc.PlayersA)
	}
	if len(doc.PlayersB) < size {
		m.PlayersB = padRoster(doc.PlayersB)
	}
	return m
}

// SetPointsToWin builds a mutation for the informational win threshold.
func SetPointsToWin(points int) Mutation {
	return Mutation{PointsToWin: &points}
}

func rosterMutation(team TeamID, roster []Player) Mutation {
	if team == TeamA {
		return Mutation{PlayersA: roster}
	}
	return Mutation{PlayersB: roster}
}

func cloneRoster(roster []Player) []Player {
	next := make([]Player, len(roster))
	copy(next, roster)
	return next
}
