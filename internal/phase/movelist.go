package phase

import "github.com/l1jgo/phasesim/internal/component"

// MoveList queues objects for end-of-tick cell relocation. It holds
// references only; the move state stored on each object decides what an
// entry means at drain time, so duplicates are harmless.
type MoveList[T Relocatable] struct {
	live     []T
	spare    []T
	draining bool
}

// Push appends obj to the live queue.
func (l *MoveList[T]) Push(obj T) {
	l.live = append(l.live, obj)
}

// Len returns the number of queued entries, including stale ones.
func (l *MoveList[T]) Len() int {
	return len(l.live)
}

// Draining reports whether Drain is running.
func (l *MoveList[T]) Draining() bool {
	return l.draining
}

// maxDrainPasses bounds how often one Drain re-reads its queue. Only an
// object that re-queues itself on every relocation can reach it.
const maxDrainPasses = 16

// Drain detaches the queued entries and calls fn on each. Entries pushed
// while Drain runs (a vehicle moving its passengers) are drained by a further
// pass, so the list is empty on return. Returns false if entries were still
// being pushed after maxDrainPasses passes; those stay queued.
func (l *MoveList[T]) Drain(fn func(T)) bool {
	l.draining = true
	defer func() { l.draining = false }()

	for pass := 0; len(l.live) > 0; pass++ {
		if pass == maxDrainPasses {
			return false
		}
		l.drainOnce(fn)
	}
	return true
}

// drainOnce swaps the live queue for the spare one and walks the detached
// batch.
func (l *MoveList[T]) drainOnce(fn func(T)) {
	batch := l.live
	l.live = l.spare[:0]
	defer func() {
		clear(batch)
		l.spare = batch[:0]
	}()

	for _, obj := range batch {
		fn(obj)
	}
}

// requestMove records pos as obj's destination and queues obj unless it is
// already queued.
func requestMove[T Relocatable](l *MoveList[T], obj T, pos component.Position) {
	if obj.MoveState() == component.MoveNone {
		l.Push(obj)
	}
	obj.SetMoveState(component.MoveActive)
	obj.SetPendingPosition(pos)
}

// cancelMove turns a queued request into a stale entry.
func cancelMove(obj Relocatable) {
	if obj.MoveState() == component.MoveActive {
		obj.SetMoveState(component.MoveInactive)
	}
}
