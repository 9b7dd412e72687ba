package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds connection settings for the JetStream-backed store.
type NATSConfig struct {
	URL            string
	Bucket         string
	MaxReconnects  int
	ReconnectWait  time.Duration
	SampleInterval time.Duration // cadence of server clock-offset samples
}

// DefaultNATSConfig returns the default JetStream store configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		Bucket:         "COURTBOARD",
		MaxReconnects:  -1, // Infinite
		ReconnectWait:  2 * time.Second,
		SampleInterval: 30 * time.Second,
	}
}

// NATS implements Store on a JetStream key-value bucket. The bucket watcher
// is the push channel: JetStream delivers the current entry (or an absent
// marker) on watch and then every commit in bucket commit order, which is
// exactly the fan-out contract the synchronizer relies on.
type NATS struct {
	nc       *nats.Conn
	kv       jetstream.KeyValue
	config   NATSConfig
	clock    clockwork.Clock
	clockKey string
}

// NewNATS connects to NATS and binds (or creates) the key-value bucket.
func NewNATS(ctx context.Context, config NATSConfig, clock clockwork.Clock) (*NATS, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := ensureBucket(ctx, js, config.Bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATS{
		nc:       nc,
		kv:       kv,
		config:   config,
		clock:    clock,
		clockKey: "clock." + uuid.New().String()[:8],
	}, nil
}

// ensureBucket binds the bucket, creating it on first use. Two clients
// racing on creation is harmless: the loser rebinds the winner's bucket.
func ensureBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("bind bucket: %w", err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "shared scoreboard state",
		History:     1,
	})
	if err == nil {
		log.Info().Str("bucket", bucket).Msg("created key-value bucket")
		return kv, nil
	}
	if errors.Is(err, jetstream.ErrBucketExists) {
		return js.KeyValue(ctx, bucket)
	}
	return nil, fmt.Errorf("create bucket: %w", err)
}

// Watch subscribes to a key and adapts the JetStream watcher to the Store
// contract: one Snapshot immediately (absent when the key has never been
// written), then one per commit.
func (s *NATS) Watch(ctx context.Context, key string) (<-chan Snapshot, error) {
	watcher, err := s.kv.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("watch key %q: %w", key, err)
	}

	out := make(chan Snapshot, 16)
	go func() {
		defer close(out)
		defer watcher.Stop()

		// JetStream replays current values first and marks the end of the
		// replay with a nil entry. An empty replay means the key is absent.
		initial := true
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil {
					if initial {
						initial = false
						if !deliver(ctx, out, Snapshot{Exists: false}) {
							return
						}
					}
					continue
				}
				initial = false

				snap := Snapshot{Value: entry.Value(), Exists: true}
				if op := entry.Operation(); op == jetstream.KeyValueDelete || op == jetstream.KeyValuePurge {
					snap = Snapshot{Exists: false}
				}
				if !deliver(ctx, out, snap) {
					return
				}
			}
		}
	}()
	return out, nil
}

func deliver(ctx context.Context, out chan<- Snapshot, snap Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

// Put unconditionally overwrites the value at key.
func (s *NATS) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("put key %q: %w", key, err)
	}
	return nil
}

// ServerOffsets emits NTP-style clock-offset samples: write a heartbeat to a
// private key, read back the entry's server-assigned creation timestamp, and
// compare it against the midpoint of the local send/receive window. Sampling
// errors skip the sample; the feed stays silent rather than failing.
func (s *NATS) ServerOffsets(ctx context.Context) (<-chan time.Duration, error) {
	out := make(chan time.Duration, 1)
	go func() {
		defer close(out)

		ticker := s.clock.NewTicker(s.config.SampleInterval)
		defer ticker.Stop()

		for {
			if offset, err := s.sampleOffset(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Debug().Err(err).Msg("clock offset sample failed")
			} else {
				select {
				case out <- offset:
				default:
					// Receiver lagging; the next sample supersedes this one.
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
			}
		}
	}()
	return out, nil
}

func (s *NATS) sampleOffset(ctx context.Context) (time.Duration, error) {
	t0 := s.clock.Now()
	rev, err := s.kv.Put(ctx, s.clockKey, []byte(t0.UTC().Format(time.RFC3339Nano)))
	if err != nil {
		return 0, fmt.Errorf("write heartbeat: %w", err)
	}
	entry, err := s.kv.GetRevision(ctx, s.clockKey, rev)
	if err != nil {
		return 0, fmt.Errorf("read heartbeat: %w", err)
	}
	t1 := s.clock.Now()

	midpoint := t0.Add(t1.Sub(t0) / 2)
	return entry.Created().Sub(midpoint), nil
}

// Close releases the NATS connection.
func (s *NATS) Close() error {
	s.nc.Close()
	return nil
}
