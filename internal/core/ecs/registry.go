package ecs

// Registry tracks component stores plus destroy hooks, so destroying an
// entity clears every store it was placed in.
type Registry struct {
	stores []Removable
	hooks  []func(EntityID)
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 8),
	}
}

// Register adds a store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// OnRemove adds a hook run before the stores are cleared.
func (r *Registry) OnRemove(fn func(EntityID)) {
	r.hooks = append(r.hooks, fn)
}

// RemoveAll runs the hooks for id, then clears it from every store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, fn := range r.hooks {
		fn(id)
	}
	for _, s := range r.stores {
		s.Remove(id)
	}
}
