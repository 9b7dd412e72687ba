package timer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the display re-evaluation cadence.
const TickInterval = time.Second

// Ticker re-evaluates the countdown once per second, independent of store
// traffic. The callback must not block; it typically reads the current
// mirror, asks the engine for remaining seconds and hands the result to the
// presentation layer.
type Ticker struct {
	clock    clockwork.Clock
	interval time.Duration
}

// NewTicker returns a ticker on the given clock at the standard cadence.
func NewTicker(clock clockwork.Clock) *Ticker {
	return &Ticker{clock: clock, interval: TickInterval}
}

// Run invokes tick every interval until ctx is cancelled. It never fails;
// cancellation is the only way out.
func (t *Ticker) Run(ctx context.Context, tick func()) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			tick()
		}
	}
}
