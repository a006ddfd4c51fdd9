package ecs

// World owns the entity pool, the store registry, and a deferred destruction
// queue. Queued entities stay alive until FlushDestroyQueue, which the owner
// runs once the tick no longer iterates over them.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
	queued       map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 32),
		queued:       make(map[EntityID]struct{}, 32),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues id once. Repeated marks within the same flush
// window and stale ids are ignored; the return value reports whether id was
// newly queued.
func (w *World) MarkForDestruction(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	if _, dup := w.queued[id]; dup {
		return false
	}
	w.queued[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
	return true
}

// IsMarked reports whether id is waiting in the destroy queue.
func (w *World) IsMarked(id EntityID) bool {
	_, ok := w.queued[id]
	return ok
}

// PendingDestruction returns the queued ids in mark order. The slice is only
// valid until the next flush.
func (w *World) PendingDestruction() []EntityID {
	return w.destroyQueue
}

// FlushDestroyQueue destroys every queued entity and returns how many it destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for i := 0; i < len(w.destroyQueue); i++ {
		id := w.destroyQueue[i]
		if !w.pool.Alive(id) {
			continue // destroyed directly after it was marked
		}
		w.registry.RemoveAll(id)
		if w.pool.Destroy(id) {
			n++
		}
	}
	clear(w.queued)
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// DestroyEntity destroys id immediately, running the same hooks as a flush.
// A pending mark for id becomes a no-op.
func (w *World) DestroyEntity(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	w.registry.RemoveAll(id)
	return w.pool.Destroy(id)
}
