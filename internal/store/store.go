// Package store defines the key-value boundary the scoreboard coordinates
// through. The store persists opaque document bytes under fixed keys and
// pushes every committed change to all watchers; it is the only channel
// between clients. There is no compare-and-swap anywhere; the last write
// committed by the store wins in full.
package store

import (
	"context"
	"time"
)

// Snapshot is one delivery on a watch channel. Exists is false when the key
// is absent (never written, or deleted out-of-band).
type Snapshot struct {
	Value  []byte
	Exists bool
}

// Store is the coordination boundary. Implementations must deliver the
// current value (or an absent marker) immediately on Watch, then every
// subsequent commit in the store's own commit order, and must stop all
// deliveries once the watch context is cancelled.
type Store interface {
	// Watch subscribes to a key. The returned channel closes after the
	// context is cancelled; no deliveries follow the close.
	Watch(ctx context.Context, key string) (<-chan Snapshot, error)

	// Put unconditionally overwrites the value at key.
	Put(ctx context.Context, key string, value []byte) error

	// ServerOffsets emits best-effort samples of (server wall clock − local
	// wall clock). Implementations without a usable time source may return
	// a channel that never delivers; consumers treat silence as offset 0.
	ServerOffsets(ctx context.Context) (<-chan time.Duration, error)

	// Close releases the underlying connection.
	Close() error
}
