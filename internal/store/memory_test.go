package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "watch channel closed unexpectedly")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestWatchDeliversAbsentForEmptyKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	ch, err := m.Watch(ctx, "match")
	require.NoError(t, err)

	assert.False(t, recvSnapshot(t, ch).Exists)
}

func TestWatchDeliversCurrentValueImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	require.NoError(t, m.Put(ctx, "match", []byte(`one`)))

	ch, err := m.Watch(ctx, "match")
	require.NoError(t, err)

	snap := recvSnapshot(t, ch)
	assert.True(t, snap.Exists)
	assert.Equal(t, []byte(`one`), snap.Value)
}

func TestAllWatchersSeeCommitOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	first, err := m.Watch(ctx, "match")
	require.NoError(t, err)
	second, err := m.Watch(ctx, "match")
	require.NoError(t, err)

	// Drain the initial absent marker.
	recvSnapshot(t, first)
	recvSnapshot(t, second)

	require.NoError(t, m.Put(ctx, "match", []byte(`a`)))
	require.NoError(t, m.Put(ctx, "match", []byte(`b`)))

	for _, ch := range []<-chan Snapshot{first, second} {
		assert.Equal(t, []byte(`a`), recvSnapshot(t, ch).Value)
		assert.Equal(t, []byte(`b`), recvSnapshot(t, ch).Value)
	}
}

func TestWriterSeesOwnEcho(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	ch, err := m.Watch(ctx, "match")
	require.NoError(t, err)
	recvSnapshot(t, ch)

	require.NoError(t, m.Put(ctx, "match", []byte(`mine`)))
	assert.Equal(t, []byte(`mine`), recvSnapshot(t, ch).Value)
}

func TestCancelledWatchStopsDeliveries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	m := NewMemory()
	ch, err := m.Watch(ctx, "match")
	require.NoError(t, err)
	recvSnapshot(t, ch)

	cancel()

	// The channel closes and later writes are not delivered.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				require.NoError(t, m.Put(context.Background(), "match", []byte(`late`)))
				return
			}
		case <-deadline:
			t.Fatal("watch channel did not close after cancellation")
		}
	}
}

func TestServerOffsetsFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	feed, err := m.ServerOffsets(ctx)
	require.NoError(t, err)

	m.PushServerOffset(250 * time.Millisecond)

	select {
	case offset := <-feed:
		assert.Equal(t, 250*time.Millisecond, offset)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for offset sample")
	}

	// Late subscribers get the latest sample immediately.
	late, err := m.ServerOffsets(ctx)
	require.NoError(t, err)
	select {
	case offset := <-late:
		assert.Equal(t, 250*time.Millisecond, offset)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for replayed offset sample")
	}
}
