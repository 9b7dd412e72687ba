package gateway

import (
	"time"

	"github.com/courtboard/courtboard/internal/board"
)

// Event is the envelope for every message pushed to a client.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EventType represents the type of scoreboard event.
type EventType string

const (
	EventTypeState     EventType = "State"
	EventTypeTimerTick EventType = "TimerTick"
)

// StatePayload carries a full repaired snapshot plus the derived values the
// display needs: per-team totals over the active roster prefix and the
// current remaining seconds.
type StatePayload struct {
	Document     board.Document `json:"document"`
	TeamScoreA   int            `json:"teamScoreA"`
	TeamScoreB   int            `json:"teamScoreB"`
	RemainingSec int            `json:"remainingSec"`
}

// TickPayload carries the periodic countdown re-evaluation.
type TickPayload struct {
	RemainingSec int       `json:"remainingSec"`
	IsPaused     bool      `json:"isPaused"`
	TickedAt     time.Time `json:"tickedAt"`
}

// IntentType represents a user action forwarded by the presentation layer.
type IntentType string

const (
	IntentAdjustScore    IntentType = "adjust_score"
	IntentRenamePlayer   IntentType = "rename_player"
	IntentSetRosterSize  IntentType = "set_roster_size"
	IntentSetPointsToWin IntentType = "set_points_to_win"
	IntentPause          IntentType = "pause"
	IntentResume         IntentType = "resume"
	IntentReset          IntentType = "reset"
)

// Intent is the inbound message shape. Fields beyond Type are read per
// intent type and ignored otherwise.
type Intent struct {
	Type   IntentType   `json:"type"`
	Team   board.TeamID `json:"team,omitempty"`
	Index  int          `json:"index,omitempty"`
	Delta  int          `json:"delta,omitempty"`
	Name   string       `json:"name,omitempty"`
	Size   int          `json:"size,omitempty"`
	Points int          `json:"points,omitempty"`
}
