package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyCarriesOverUnsetFields(t *testing.T) {
	base := DefaultDocument()
	base.PlayersA[0].Score = 4
	paused := false

	merged := Mutation{IsPaused: &paused}.Apply(base)

	assert.False(t, merged.IsPaused)
	assert.Equal(t, base.PlayersA, merged.PlayersA)
	assert.Equal(t, base.PlayersB, merged.PlayersB)
	assert.Equal(t, base.Timer, merged.Timer)
	assert.Equal(t, base.PointsToWin, merged.PointsToWin)
	assert.Equal(t, base.PlayersPerTeam, merged.PlayersPerTeam)
}

func TestApplyEmptyMutationIsIdentity(t *testing.T) {
	base := DefaultDocument()
	assert.Equal(t, base, Mutation{}.Apply(base))
}

func TestAdjustScoreClampsAtZero(t *testing.T) {
	doc := DefaultDocument()

	m := AdjustScore(doc, TeamA, 0, -1)
	doc = m.Apply(doc)
	assert.Equal(t, 0, doc.PlayersA[0].Score)

	// Repeated decrements stay at zero.
	doc = AdjustScore(doc, TeamA, 0, -1).Apply(doc)
	assert.Equal(t, 0, doc.PlayersA[0].Score)

	doc = AdjustScore(doc, TeamA, 0, 1).Apply(doc)
	assert.Equal(t, 1, doc.PlayersA[0].Score)
}

func TestAdjustScoreLeavesBaseRosterAlone(t *testing.T) {
	doc := DefaultDocument()
	AdjustScore(doc, TeamB, 1, 3)

	assert.Equal(t, 0, doc.PlayersB[1].Score)
}

func TestAdjustScoreOutOfRangeIsEmpty(t *testing.T) {
	doc := DefaultDocument()
	assert.Equal(t, Mutation{}, AdjustScore(doc, TeamA, 5, 1))
	assert.Equal(t, Mutation{}, AdjustScore(doc, TeamA, -1, 1))
}

func TestRenamePlayer(t *testing.T) {
	doc := DefaultDocument()
	doc = RenamePlayer(doc, TeamB, 2, "Dana").Apply(doc)

	assert.Equal(t, "Dana", doc.PlayersB[2].Name)
	assert.Equal(t, "Player 1 Name", doc.PlayersB[0].Name)
}

func TestSetRosterSizeUpwardPadsMissingPlayers(t *testing.T) {
	doc := Document{
		PlayersA:       []Player{{Name: "Alice", Score: 5}, {Name: "Bea", Score: 3}},
		PlayersB:       []Player{{Name: "Cleo", Score: 1}, {Name: "Dana", Score: 2}},
		PlayersPerTeam: 2,
	}

	doc = SetRosterSize(doc, 3).Apply(doc)

	assert.Equal(t, 3, doc.PlayersPerTeam)
	assert.Len(t, doc.PlayersA, 3)
	// Existing players keep their names and scores.
	assert.Equal(t, Player{Name: "Alice", Score: 5}, doc.PlayersA[0])
	assert.Equal(t, Player{Name: "Bea", Score: 3}, doc.PlayersA[1])
	assert.Equal(t, Player{Name: "Player 3 Name", Score: 0}, doc.PlayersA[2])
}

func TestSetRosterSizeDownwardKeepsThirdPlayerInStorage(t *testing.T) {
	doc := DefaultDocument()
	doc.PlayersA = []Player{{Name: "a", Score: 1}, {Name: "b", Score: 2}, {Name: "c", Score: 7}}

	doc = SetRosterSize(doc, 2).Apply(doc)

	assert.Equal(t, 2, doc.PlayersPerTeam)
	// Third player's data survives; only the counted prefix shrinks.
	assert.Len(t, doc.PlayersA, 3)
	assert.Equal(t, Player{Name: "c", Score: 7}, doc.PlayersA[2])
	assert.Equal(t, 3, doc.TeamScore(TeamA))
}

func TestSetRosterSizeRejectsInvalidSizes(t *testing.T) {
	doc := DefaultDocument()
	assert.Equal(t, Mutation{}, SetRosterSize(doc, 1))
	assert.Equal(t, Mutation{}, SetRosterSize(doc, 4))
}
