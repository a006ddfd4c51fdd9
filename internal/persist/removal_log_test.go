package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRemovalEntry(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := NewRemovalEntry(event.ObjectRemoved{
		MapID:    4,
		GUID:     99,
		Kind:     component.KindPet,
		Entry:    45000,
		Name:     "wolf",
		Position: component.Pos(1, 2, 3),
		Deferred: true,
		At:       at,
	})

	assert.Equal(t, int32(4), e.MapID)
	assert.Equal(t, uint64(99), e.GUID)
	assert.Equal(t, "pet", e.Kind)
	assert.Equal(t, float32(2), e.Y)
	assert.True(t, e.Deferred)
	assert.Equal(t, ulid.Timestamp(at), e.ID.Time())
}

func TestRemovalEntryOrder(t *testing.T) {
	t0 := time.Now()
	a := NewRemovalEntry(event.ObjectRemoved{GUID: 1, At: t0})
	b := NewRemovalEntry(event.ObjectRemoved{GUID: 2, At: t0.Add(time.Second)})
	assert.Negative(t, a.ID.Compare(b.ID))
}

func TestRemovalLogFlush(t *testing.T) {
	r := NewRemovalLog(nil, zap.NewNop())
	var batches [][]RemovalEntry
	r.write = func(_ context.Context, entries []RemovalEntry) error {
		batches = append(batches, append([]RemovalEntry(nil), entries...))
		return nil
	}

	require.NoError(t, r.Flush(context.Background()))
	assert.Empty(t, batches, "empty flush must not open a transaction")

	r.Add(event.ObjectRemoved{GUID: 1})
	r.Add(event.ObjectRemoved{GUID: 2, Deferred: true})
	r.NoteFailure(event.RelocationFailed{GUID: 2, Action: event.ActionRemoved})
	r.NoteFailure(event.RelocationFailed{GUID: 3, Action: event.ActionStranded})
	assert.Equal(t, 2, r.Pending())

	require.NoError(t, r.Flush(context.Background()))
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Empty(t, batches[0][0].Reason)
	assert.Equal(t, event.ActionRemoved, batches[0][1].Reason)
	assert.Zero(t, r.Pending())
	assert.Empty(t, r.reasons, "stranded objects leave no reason behind")
}

func TestStrandedThenExpiredHasNoReason(t *testing.T) {
	r := NewRemovalLog(nil, zap.NewNop())
	var got []RemovalEntry
	r.write = func(_ context.Context, entries []RemovalEntry) error {
		got = append(got, entries...)
		return nil
	}

	// stranded by a failed move, then expired before the next flush
	r.NoteFailure(event.RelocationFailed{GUID: 7, Action: event.ActionStranded})
	r.Add(event.ObjectRemoved{GUID: 7})
	r.NoteFailure(event.RelocationFailed{GUID: 8, Action: event.ActionDespawned})
	r.Add(event.ObjectRemoved{GUID: 8})

	require.NoError(t, r.Flush(context.Background()))
	require.Len(t, got, 2)
	assert.Empty(t, got[0].Reason)
	assert.Equal(t, event.ActionDespawned, got[1].Reason)
}

func TestRemovalLogFlushRetry(t *testing.T) {
	r := NewRemovalLog(nil, zap.NewNop())
	fail := true
	r.write = func(context.Context, []RemovalEntry) error {
		if fail {
			return errors.New("connection reset")
		}
		return nil
	}

	r.Add(event.ObjectRemoved{GUID: 1})
	require.Error(t, r.Flush(context.Background()))
	assert.Equal(t, 1, r.Pending())

	fail = false
	r.Add(event.ObjectRemoved{GUID: 2})
	require.NoError(t, r.Flush(context.Background()))
	assert.Zero(t, r.Pending())
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		data, err := migrations.ReadFile("migrations/" + e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", e.Name())
	}
}
