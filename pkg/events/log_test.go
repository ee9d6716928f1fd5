package events

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type splitPayload struct {
	DistanceCm int
	TimeMs     int
}

func newTestLog(t *testing.T) *Log {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewLog(db)
}

func TestAppendAndReplayInOrder(t *testing.T) {
	l := newTestLog(t)

	for v := 1; v <= 5; v++ {
		require.NoError(t, l.Append("lane-1", "split", v, splitPayload{DistanceCm: v * 1000, TimeMs: v * 900}))
	}

	var versions []int
	err := l.ReadFrom("lane-1", 1, func(e Event) error {
		assert.Equal(t, "lane-1", e.ActorID)
		assert.Equal(t, "split", e.Type)
		versions = append(versions, e.Version)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, versions)
}

func TestReadFromSkipsEarlierVersions(t *testing.T) {
	l := newTestLog(t)
	for v := 1; v <= 5; v++ {
		require.NoError(t, l.Append("lane-1", "split", v, splitPayload{DistanceCm: v}))
	}

	var versions []int
	require.NoError(t, l.ReadFrom("lane-1", 4, func(e Event) error {
		versions = append(versions, e.Version)
		return nil
	}))
	assert.Equal(t, []int{4, 5}, versions)
}

func TestJournalsAreIsolatedPerActor(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Append("lane-1", "split", 1, splitPayload{DistanceCm: 1}))
	require.NoError(t, l.Append("lane-2", "split", 1, splitPayload{DistanceCm: 2}))

	var count int
	require.NoError(t, l.ReadFrom("lane-1", 1, func(Event) error {
		count++
		return nil
	}))
	assert.Equal(t, 1, count)
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := newTestLog(t)

	_, ok, err := l.LatestSnapshot("lane-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.SaveSnapshot("lane-1", 3, splitPayload{DistanceCm: 3000, TimeMs: 2700}))

	snap, ok, err := l.LatestSnapshot("lane-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, snap.Version)

	var payload splitPayload
	require.NoError(t, msgpack.Unmarshal(snap.Payload, &payload))
	assert.Equal(t, splitPayload{DistanceCm: 3000, TimeMs: 2700}, payload)

	// a later snapshot replaces the earlier one
	require.NoError(t, l.SaveSnapshot("lane-1", 7, splitPayload{DistanceCm: 7000}))
	snap, ok, err = l.LatestSnapshot("lane-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, snap.Version)
}

func TestEventPayloadDecodes(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Append("lane-1", "split", 1, splitPayload{DistanceCm: 1000, TimeMs: 900}))

	require.NoError(t, l.ReadFrom("lane-1", 1, func(e Event) error {
		var payload splitPayload
		require.NoError(t, msgpack.Unmarshal(e.Payload, &payload))
		assert.Equal(t, splitPayload{DistanceCm: 1000, TimeMs: 900}, payload)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.At.IsZero())
		return nil
	}))
}
