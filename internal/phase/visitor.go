package phase

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
)

// StorageKind identifies the container shape of a cell bucket.
type StorageKind int

const (
	// StorageGrid holds objects bound to grid loading (creatures, game
	// objects, dynamic objects).
	StorageGrid StorageKind = iota
	// StorageWorld holds objects that live on the map regardless of grids
	// (players, pets, player-bound objects).
	StorageWorld
)

func (k StorageKind) String() string {
	if k == StorageWorld {
		return "world"
	}
	return "grid"
}

// Bucket is one storage container of a cell.
type Bucket interface {
	Storage() StorageKind
	Each(fn func(Object))
}

// Visitor is applied by the map to the buckets of each visited cell.
type Visitor interface {
	Visit(b Bucket)
}

// ObjectUpdater advances every object it is handed by one tick. Players are
// skipped because they are ticked by the phase itself; so are objects outside
// the world or belonging to another phase. An object belongs to exactly the
// phase whose mask equals its own, so each phase of a map advances it at most
// once per tick.
type ObjectUpdater struct {
	diff    time.Duration
	mask    uint32
	updated int
}

func NewObjectUpdater(diff time.Duration, phaseMask uint32) *ObjectUpdater {
	return &ObjectUpdater{diff: diff, mask: phaseMask}
}

func (u *ObjectUpdater) Update(obj Object) {
	if obj == nil || obj.Kind() == component.KindPlayer || !obj.IsInWorld() {
		return
	}
	if obj.PhaseMask() != u.mask {
		return
	}
	if o, ok := obj.(Updatable); ok {
		o.Update(u.diff)
		u.updated++
	}
}

// Updated returns how many objects were advanced.
func (u *ObjectUpdater) Updated() int {
	return u.updated
}

// ContainerVisitor applies an ObjectUpdater to buckets of one storage kind
// and ignores the others.
type ContainerVisitor struct {
	storage StorageKind
	updater *ObjectUpdater
}

func NewContainerVisitor(storage StorageKind, u *ObjectUpdater) ContainerVisitor {
	return ContainerVisitor{storage: storage, updater: u}
}

func (v ContainerVisitor) Visit(b Bucket) {
	if b == nil || b.Storage() != v.storage {
		return
	}
	b.Each(v.updater.Update)
}
