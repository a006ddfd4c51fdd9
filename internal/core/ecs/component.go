package ecs

// Removable is implemented by every store so the Registry can drop an
// entity's data from all of them at once.
type Removable interface {
	Remove(id EntityID)
}

// Store is a sparse set of *T keyed by EntityID. Lookups check the full id,
// generation included, so a recycled index never returns the previous owner.
type Store[T any] struct {
	sparse map[uint32]int // index -> position in dense
	ids    []EntityID
	dense  []*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		sparse: make(map[uint32]int, 64),
		ids:    make([]EntityID, 0, 64),
		dense:  make([]*T, 0, 64),
	}
}

func (s *Store[T]) Set(id EntityID, c *T) {
	if pos, ok := s.sparse[id.Index()]; ok {
		s.ids[pos] = id
		s.dense[pos] = c
		return
	}
	s.sparse[id.Index()] = len(s.dense)
	s.ids = append(s.ids, id)
	s.dense = append(s.dense, c)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	pos, ok := s.sparse[id.Index()]
	if !ok || s.ids[pos] != id {
		return nil, false
	}
	return s.dense[pos], true
}

// Remove swap-deletes id. Order of the remaining entries is not preserved.
func (s *Store[T]) Remove(id EntityID) {
	pos, ok := s.sparse[id.Index()]
	if !ok || s.ids[pos] != id {
		return
	}
	last := len(s.dense) - 1
	if pos != last {
		s.ids[pos] = s.ids[last]
		s.dense[pos] = s.dense[last]
		s.sparse[s.ids[pos].Index()] = pos
	}
	s.ids[last] = 0
	s.dense[last] = nil
	s.ids = s.ids[:last]
	s.dense = s.dense[:last]
	delete(s.sparse, id.Index())
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.Get(id)
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.dense)
}

// Each visits every entry. fn must not add or remove entries.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i, c := range s.dense {
		fn(s.ids[i], c)
	}
}
