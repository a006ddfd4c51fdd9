package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// RemovalEntry is one row of the removal audit log.
type RemovalEntry struct {
	ID        ulid.ULID
	MapID     int32
	GUID      uint64
	Kind      string
	Entry     int32
	Name      string
	X, Y, Z   float32
	Deferred  bool
	Reason    string // relocation failure action, empty for plain removals
	RemovedAt time.Time
}

// NewRemovalEntry builds an audit row from a removal event. The ULID is
// derived from the event time so rows sort by removal order.
func NewRemovalEntry(ev event.ObjectRemoved) RemovalEntry {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return RemovalEntry{
		ID:        ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()),
		MapID:     ev.MapID,
		GUID:      ev.GUID,
		Kind:      ev.Kind.String(),
		Entry:     ev.Entry,
		Name:      ev.Name,
		X:         ev.Position.X,
		Y:         ev.Position.Y,
		Z:         ev.Position.Z,
		Deferred:  ev.Deferred,
		RemovedAt: at,
	}
}

// RemovalLog buffers removal entries during ticks and writes them in one
// transaction per flush.
type RemovalLog struct {
	db      *DB
	pending []RemovalEntry
	reasons map[uint64]string // guid → failure action, applied at flush
	write   func(ctx context.Context, entries []RemovalEntry) error
	log     *zap.Logger
}

func NewRemovalLog(db *DB, log *zap.Logger) *RemovalLog {
	r := &RemovalLog{
		db:      db,
		reasons: make(map[uint64]string),
		log:     log,
	}
	r.write = r.insert
	return r
}

// NoteFailure remembers why an object is about to be removed. The failure
// and the removal are delivered in the same dispatch, in either order.
// Stranded objects stay in the world, so a later removal of the same object
// has its own cause and is not tagged.
func (r *RemovalLog) NoteFailure(ev event.RelocationFailed) {
	switch ev.Action {
	case event.ActionRemoved, event.ActionDespawned:
		r.reasons[ev.GUID] = ev.Action
	}
}

// Add queues one removal.
func (r *RemovalLog) Add(ev event.ObjectRemoved) {
	r.pending = append(r.pending, NewRemovalEntry(ev))
}

// Pending returns the number of buffered entries.
func (r *RemovalLog) Pending() int { return len(r.pending) }

// Flush writes all buffered entries. On failure the entries stay buffered
// and are retried by the next flush.
func (r *RemovalLog) Flush(ctx context.Context) error {
	for i := range r.pending {
		if reason, ok := r.reasons[r.pending[i].GUID]; ok && r.pending[i].Reason == "" {
			r.pending[i].Reason = reason
		}
	}
	clear(r.reasons)
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.write(ctx, r.pending); err != nil {
		return err
	}
	r.log.Debug("removal log flushed", zap.Int("entries", len(r.pending)))
	r.pending = r.pending[:0]
	return nil
}

// insert atomically writes a batch of entries in a single transaction.
func (r *RemovalLog) insert(ctx context.Context, entries []RemovalEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("removal log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO removal_log (id, map_id, guid, kind, entry, name, x, y, z, deferred, reason, removed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (id) DO NOTHING`,
			e.ID.String(), e.MapID, int64(e.GUID), e.Kind, e.Entry, e.Name,
			e.X, e.Y, e.Z, e.Deferred, e.Reason, e.RemovedAt,
		); err != nil {
			return fmt.Errorf("removal log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
