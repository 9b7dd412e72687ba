package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and the single-process demo
// mode. Every Put fans out to all watchers of the key under one mutex, so
// delivery order equals commit order for every watcher, the same guarantee
// the JetStream bucket gives across processes.
type Memory struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers map[string][]*memWatcher

	offset     time.Duration
	hasOffset  bool
	offsetSubs []chan time.Duration
}

type memWatcher struct {
	ch chan Snapshot
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		watchers: make(map[string][]*memWatcher),
	}
}

// Watch delivers the current value (or absent) immediately, then every
// subsequent Put in commit order, until ctx is cancelled.
func (m *Memory) Watch(ctx context.Context, key string) (<-chan Snapshot, error) {
	w := &memWatcher{ch: make(chan Snapshot, 64)}

	m.mu.Lock()
	if value, ok := m.values[key]; ok {
		w.ch <- Snapshot{Value: cloneBytes(value), Exists: true}
	} else {
		w.ch <- Snapshot{Exists: false}
	}
	m.watchers[key] = append(m.watchers[key], w)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		watchers := m.watchers[key]
		for i, other := range watchers {
			if other == w {
				m.watchers[key] = append(watchers[:i], watchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}()

	return w.ch, nil
}

// Put overwrites the value and fans it out to all watchers of the key.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = cloneBytes(value)
	for _, w := range m.watchers[key] {
		select {
		case w.ch <- Snapshot{Value: cloneBytes(value), Exists: true}:
		default:
			// Watcher stopped draining; it keeps its stale view, which is
			// the same degradation a disconnected client sees.
		}
	}
	return nil
}

// ServerOffsets returns a feed fed by PushServerOffset. A subscriber joining
// after a push receives the latest sample immediately.
func (m *Memory) ServerOffsets(ctx context.Context) (<-chan time.Duration, error) {
	ch := make(chan time.Duration, 8)

	m.mu.Lock()
	if m.hasOffset {
		ch <- m.offset
	}
	m.offsetSubs = append(m.offsetSubs, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.offsetSubs {
			if sub == ch {
				m.offsetSubs = append(m.offsetSubs[:i], m.offsetSubs[i+1:]...)
				close(ch)
				return
			}
		}
	}()

	return ch, nil
}

// PushServerOffset publishes a clock-offset sample to all subscribers.
func (m *Memory) PushServerOffset(offset time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.offset = offset
	m.hasOffset = true
	for _, sub := range m.offsetSubs {
		select {
		case sub <- offset:
		default:
		}
	}
}

// Close is a no-op; watchers are released by their contexts.
func (m *Memory) Close() error { return nil }

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
