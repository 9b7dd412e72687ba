package board

import "fmt"

// TeamID identifies one of the two sides of the match.
type TeamID string

const (
	TeamA TeamID = "A"
	TeamB TeamID = "B"
)

const (
	// MinRosterSize is the number of player slots every roster carries at
	// rest. Shorter rosters are padded on read, never truncated.
	MinRosterSize = 3

	// DefaultDurationSeconds is the full countdown duration shown while no
	// end timestamp is stored.
	DefaultDurationSeconds = 450

	// DefaultPointsToWin is informational only; nothing enforces it.
	DefaultPointsToWin = 25

	// DefaultRosterSize is the active team size of a freshly created match.
	DefaultRosterSize = 3
)

// Player is a single roster entry.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Countdown holds the authoritative end of the running countdown as epoch
// milliseconds in the store's time domain. A nil EndTime means the timer has
// never started and the full default duration remains.
type Countdown struct {
	EndTime *int64 `json:"endTime"`
}

// Document is the single replicated match state. It is always read and
// written as one unit; concurrent writers race at document granularity and
// the store's last committed write wins in full.
type Document struct {
	PlayersA       []Player  `json:"playersA"`
	PlayersB       []Player  `json:"playersB"`
	Timer          Countdown `json:"timer"`
	IsPaused       bool      `json:"isPaused"`
	PointsToWin    int       `json:"pointsToWin"`
	PlayersPerTeam int       `json:"numPlayersPerTeam"`
}

// DefaultDocument returns the state written on bootstrap when the store key
// is observed empty: placeholder rosters, timer never started, paused.
func DefaultDocument() Document {
	return Document{
		PlayersA:       placeholderRoster(),
		PlayersB:       placeholderRoster(),
		Timer:          Countdown{},
		IsPaused:       true,
		PointsToWin:    DefaultPointsToWin,
		PlayersPerTeam: DefaultRosterSize,
	}
}

// Roster returns the roster for the given team. Unknown team IDs map to
// team B's roster only to keep callers total; the gateway validates IDs.
func (d Document) Roster(team TeamID) []Player {
	if team == TeamA {
		return d.PlayersA
	}
	return d.PlayersB
}

// TeamScore sums the scores of the active prefix of a roster. Players beyond
// PlayersPerTeam stay in storage but do not count toward the total.
func (d Document) TeamScore(team TeamID) int {
	roster := d.Roster(team)
	n := d.PlayersPerTeam
	if n > len(roster) {
		n = len(roster)
	}
	total := 0
	for _, p := range roster[:n] {
		total += p.Score
	}
	return total
}

// Normalize applies the repair pass to a document read from the store:
// rosters shorter than MinRosterSize are padded at the tail with placeholder
// players, and legacy documents with missing or out-of-range scalar fields
// get defaults. Existing entries are never removed, reordered or rewritten,
// so normalizing an already valid document is a no-op.
func Normalize(d Document) Document {
	d.PlayersA = padRoster(d.PlayersA)
	d.PlayersB = padRoster(d.PlayersB)
	if d.PlayersPerTeam < 2 || d.PlayersPerTeam > MinRosterSize {
		d.PlayersPerTeam = DefaultRosterSize
	}
	if d.PointsToWin <= 0 {
		d.PointsToWin = DefaultPointsToWin
	}
	return d
}

// padRoster appends placeholder players until the roster reaches
// MinRosterSize. The original slice is left untouched.
func padRoster(roster []Player) []Player {
	if len(roster) >= MinRosterSize {
		return roster
	}
	padded := make([]Player, len(roster), MinRosterSize)
	copy(padded, roster)
	for i := len(roster); i < MinRosterSize; i++ {
		padded = append(padded, placeholderPlayer(i))
	}
	return padded
}

func placeholderRoster() []Player {
	roster := make([]Player, 0, MinRosterSize)
	for i := 0; i < MinRosterSize; i++ {
		roster = append(roster, placeholderPlayer(i))
	}
	return roster
}

// placeholderPlayer names the slot at index i, counting from 1.
func placeholderPlayer(i int) Player {
	return Player{Name: fmt.Sprintf("Player %d Name", i+1), Score: 0}
}
