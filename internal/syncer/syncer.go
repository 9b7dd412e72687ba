// Package syncer keeps a local mirror of the shared match document in step
// with the remote store. Consistency is last-write-wins at document
// granularity: Mutate merges a partial update over the latest locally-known
// mirror and overwrites the whole document, so two clients writing from
// stale mirrors race and the store's last commit wins in full. That race is
// the accepted model, confined to the single Put call.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/courtboard/courtboard/internal/board"
	"github.com/courtboard/courtboard/internal/store"
)

// DefaultKey is the fixed store key the match document lives under.
const DefaultKey = "match"

// Syncer owns the canonical in-memory mirror of the shared document. The
// mirror is updated exclusively by the subscription callback; a local
// mutation reaches the mirror only as its own echo from the store.
type Syncer struct {
	store store.Store
	key   string

	mu        sync.RWMutex
	mirror    board.Document
	hasMirror bool
}

// New returns a synchronizer for the document at key.
func New(st store.Store, key string) *Syncer {
	if key == "" {
		key = DefaultKey
	}
	return &Syncer{store: st, key: key}
}

// Subscribe produces a live, push-driven sequence of repaired full-document
// snapshots. It is infinite and not restartable: cancelling ctx closes the
// channel, and a new call re-registers with the store from current state
// rather than replaying history.
//
// If the first observation finds the key absent, the default document is
// written and emitted as the initial snapshot. The bootstrap is idempotent;
// two clients racing on it overwrite each other with the same value.
func (s *Syncer) Subscribe(ctx context.Context) (<-chan board.Document, error) {
	updates, err := s.store.Watch(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("watch %q: %w", s.key, err)
	}

	out := make(chan board.Document, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				doc, ok := s.observe(ctx, snap)
				if !ok {
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// observe turns one store delivery into a repaired mirror update. Returns
// false when the delivery carries nothing to expose (unparseable bytes, or
// an absent key after the mirror already exists).
func (s *Syncer) observe(ctx context.Context, snap store.Snapshot) (board.Document, bool) {
	if !snap.Exists {
		s.mu.RLock()
		bootstrapped := s.hasMirror
		s.mu.RUnlock()
		if bootstrapped {
			// The core never deletes the key; keep the stale mirror.
			log.Warn().Str("key", s.key).Msg("key absent after bootstrap, keeping mirror")
			return board.Document{}, false
		}
		return s.bootstrap(ctx)
	}

	var doc board.Document
	if err := json.Unmarshal(snap.Value, &doc); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("discarding unparseable document")
		return board.Document{}, false
	}

	repaired := board.Normalize(doc)
	s.setMirror(repaired)
	return repaired, true
}

// bootstrap writes the default document and treats it as the initial
// snapshot. The repair is not written back on ordinary reads; this is the
// one write the synchronizer issues on its own.
func (s *Syncer) bootstrap(ctx context.Context) (board.Document, bool) {
	doc := board.DefaultDocument()
	if err := s.put(ctx, doc); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("bootstrap write failed")
		// Expose the default anyway; the store echo will reconcile later.
	} else {
		log.Info().Str("key", s.key).Msg("bootstrapped default match document")
	}
	s.setMirror(doc)
	return doc, true
}

// Mutate shallow-merges the partial update over the last known mirror and
// writes the entire merged document back. Every field absent from the
// mutation is carried over verbatim. The mirror is left untouched here; it
// advances when the store echoes the write back.
func (s *Syncer) Mutate(ctx context.Context, m board.Mutation) error {
	s.mu.RLock()
	base := s.mirror
	hasMirror := s.hasMirror
	s.mu.RUnlock()

	if !hasMirror {
		base = board.DefaultDocument()
	}

	merged := m.Apply(base)
	if err := s.put(ctx, merged); err != nil {
		return fmt.Errorf("mutate %q: %w", s.key, err)
	}
	return nil
}

// Snapshot returns the current mirror. The second return is false until the
// first store observation lands.
func (s *Syncer) Snapshot() (board.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror, s.hasMirror
}

func (s *Syncer) setMirror(doc board.Document) {
	s.mu.Lock()
	s.mirror = doc
	s.hasMirror = true
	s.mu.Unlock()
}

func (s *Syncer) put(ctx context.Context, doc board.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.store.Put(ctx, s.key, payload)
}
