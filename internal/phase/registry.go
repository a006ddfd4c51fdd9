package phase

import "github.com/l1jgo/phasesim/internal/core/ecs"

// ObjectSet is a stable registry of object references. Membership is keyed
// by GUID. Adding or removing members while Each is running is safe: removed
// members are not visited after removal, added members wait for the next walk.
type ObjectSet[T Object] struct {
	slots *ecs.Slots[T]
	index map[uint64]ecs.EntityID
}

func NewObjectSet[T Object]() *ObjectSet[T] {
	return &ObjectSet[T]{
		slots: ecs.NewSlots[T](),
		index: make(map[uint64]ecs.EntityID),
	}
}

// Add inserts obj. Returns false if an object with the same GUID is present.
func (s *ObjectSet[T]) Add(obj T) bool {
	guid := obj.GUID()
	if _, ok := s.index[guid]; ok {
		return false
	}
	s.index[guid] = s.slots.Insert(obj)
	return true
}

func (s *ObjectSet[T]) Remove(obj T) bool {
	guid := obj.GUID()
	h, ok := s.index[guid]
	if !ok {
		return false
	}
	delete(s.index, guid)
	return s.slots.Remove(h)
}

func (s *ObjectSet[T]) Contains(obj T) bool {
	_, ok := s.index[obj.GUID()]
	return ok
}

func (s *ObjectSet[T]) Len() int {
	return s.slots.Len()
}

func (s *ObjectSet[T]) Each(fn func(T)) {
	s.slots.Each(func(_ ecs.EntityID, obj T) {
		fn(obj)
	})
}
