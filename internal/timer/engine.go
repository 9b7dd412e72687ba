// Package timer derives the displayed countdown from the single stored
// end-timestamp and the corrected clock, and builds the pause/resume/reset
// transitions.
//
// The remaining-time formula is identical in every state:
//
//	remaining = endTime present ? max(0, floor((endTime-now)/1000)) : default
//
// isPaused never gates the formula; it only gates whether a transition may
// advance endTime. Pausing writes isPaused alone and deliberately leaves the
// stale endTime behind. What freezes the display is the clock input: when a
// paused document is observed, the engine latches the corrected time and
// keeps evaluating the formula against that instant, so wall-clock time
// spent paused is never charged against the match. Resume reads the frozen
// remaining value back through the same formula and re-anchors it as a new
// absolute end-timestamp.
package timer

import (
	"sync"
	"time"

	"github.com/courtboard/courtboard/internal/board"
)

// TimeSource supplies the corrected current time. In production this is the
// clocksync tracker; tests plug in fake clocks.
type TimeSource interface {
	Now() time.Time
}

// RemainingAt evaluates the remaining-time formula at an explicit instant.
// Floor and clamp-to-zero are mandatory: the result is never negative and
// never fractional.
func RemainingAt(doc board.Document, now time.Time) int {
	if doc.Timer.EndTime == nil {
		return board.DefaultDurationSeconds
	}
	ms := *doc.Timer.EndTime - now.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return int(ms / 1000)
}

// Engine reconciles the countdown for one client. Its only state is the
// pause latch; everything else derives from the shared document.
type Engine struct {
	source TimeSource

	mu       sync.Mutex
	frozenAt *time.Time // corrected instant latched while paused
}

// NewEngine returns an engine reading corrected time from source.
func NewEngine(source TimeSource) *Engine {
	return &Engine{source: source}
}

// Remaining returns the displayed remaining seconds for the given snapshot.
// It must be called on every tick, paused or not: observing a paused
// document latches the clock input, observing a running one releases it.
func (e *Engine) Remaining(doc board.Document) int {
	return RemainingAt(doc, e.observe(doc))
}

// observe maintains the pause latch and returns the formula's time input.
func (e *Engine) observe(doc board.Document) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !doc.IsPaused {
		e.frozenAt = nil
		return e.source.Now()
	}
	if e.frozenAt == nil {
		now := e.source.Now()
		e.frozenAt = &now
	}
	return *e.frozenAt
}

// Resume builds the Paused→Running transition: the currently displayed
// remaining time R is re-anchored as endTime = correctedNow + R. The new
// timestamp is absolute, so it encodes exactly R seconds from this moment
// regardless of any later offset recalculation.
func (e *Engine) Resume(doc board.Document) board.Mutation {
	remaining := e.Remaining(doc)
	now := e.source.Now()

	end := now.UnixMilli() + int64(remaining)*1000
	running := false
	return board.Mutation{
		Timer:    &board.Countdown{EndTime: &end},
		IsPaused: &running,
	}
}

// Pause builds the Running→Paused transition. Only isPaused is written;
// endTime stays behind as the frozen reference the next Resume reads.
func (e *Engine) Pause() board.Mutation {
	paused := true
	return board.Mutation{IsPaused: &paused}
}

// Reset returns the match to "never started": no end-timestamp, paused,
// full default duration remaining.
func (e *Engine) Reset() board.Mutation {
	paused := true
	return board.Mutation{
		Timer:    &board.Countdown{},
		IsPaused: &paused,
	}
}
