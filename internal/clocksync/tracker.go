// Package clocksync corrects the local wall clock toward the store's server
// clock. The correction is a best-effort aid for the shared countdown, not a
// hard requirement: with no samples the tracker degrades silently to the
// local clock.
package clocksync

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Tracker maintains the signed delta between the local clock and the store's
// server clock. It is process-local and never persisted.
type Tracker struct {
	clock clockwork.Clock

	mu     sync.RWMutex
	offset time.Duration
}

// NewTracker returns a tracker with offset zero.
func NewTracker(clock clockwork.Clock) *Tracker {
	return &Tracker{clock: clock}
}

// Run consumes offset samples until the feed closes or ctx is cancelled.
// Feed unavailability is not an error; the offset simply stays where it is.
func (t *Tracker) Run(ctx context.Context, samples <-chan time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case offset, ok := <-samples:
			if !ok {
				return
			}
			t.mu.Lock()
			t.offset = offset
			t.mu.Unlock()
			log.Debug().Dur("offset", offset).Msg("clock offset updated")
		}
	}
}

// Now returns the corrected current time: local clock plus the last sample.
func (t *Tracker) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clock.Now().Add(t.offset)
}

// Offset returns the last received sample, zero if none arrived yet.
func (t *Tracker) Offset() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.offset
}
