package ecs

// Slots is a stable slot-indexed collection addressed by generational
// handles. Removing a value during Each vacates its slot instead of erasing
// it: the walk skips vacated slots, and their indices are only recycled once
// the outermost walk finishes, so a handle can never alias a different value
// mid-iteration.
type Slots[T any] struct {
	pool      *EntityPool
	slots     []slot[T]
	live      int
	iterating int
	deferred  []EntityID
	seq       uint64
}

type slot[T any] struct {
	id    EntityID
	value T
	used  bool
	born  uint64
}

func NewSlots[T any]() *Slots[T] {
	return &Slots[T]{pool: NewEntityPool()}
}

// Insert stores v and returns its handle.
func (s *Slots[T]) Insert(v T) EntityID {
	id := s.pool.Create()
	idx := int(id.Index())
	for len(s.slots) <= idx {
		s.slots = append(s.slots, slot[T]{})
	}
	s.seq++
	s.slots[idx] = slot[T]{id: id, value: v, used: true, born: s.seq}
	s.live++
	return id
}

// Get resolves a handle. Stale or vacated handles report false.
func (s *Slots[T]) Get(id EntityID) (T, bool) {
	idx := int(id.Index())
	if idx >= len(s.slots) || !s.slots[idx].used || s.slots[idx].id != id {
		var zero T
		return zero, false
	}
	return s.slots[idx].value, true
}

// Remove vacates the slot behind id. It is safe to call from inside Each,
// including for the value currently being visited.
func (s *Slots[T]) Remove(id EntityID) bool {
	idx := int(id.Index())
	if idx >= len(s.slots) || !s.slots[idx].used || s.slots[idx].id != id {
		return false
	}
	var zero T
	s.slots[idx].value = zero
	s.slots[idx].used = false
	s.live--
	if s.iterating > 0 {
		s.deferred = append(s.deferred, id)
		return true
	}
	s.pool.Destroy(id)
	return true
}

// Len returns the number of occupied slots.
func (s *Slots[T]) Len() int {
	return s.live
}

// Each visits occupied slots in index order. Values inserted during the walk
// are not visited by it; values removed during the walk are not visited after
// their removal. Each may be nested.
func (s *Slots[T]) Each(fn func(EntityID, T)) {
	s.iterating++
	defer s.endIteration()

	n, seq := len(s.slots), s.seq
	for i := 0; i < n; i++ {
		sl := s.slots[i]
		if !sl.used || sl.born > seq {
			continue
		}
		fn(sl.id, sl.value)
	}
}

func (s *Slots[T]) endIteration() {
	s.iterating--
	if s.iterating > 0 {
		return
	}
	for _, id := range s.deferred {
		s.pool.Destroy(id)
	}
	s.deferred = s.deferred[:0]
}
