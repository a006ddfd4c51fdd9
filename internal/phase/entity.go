// Package phase advances one phase of a map by one tick: session pumps,
// nearby-cell visits around active objects and players, transports, and the
// end-of-tick drain of deferred cell relocations.
//
// A Phase never owns the objects it touches. The map aggregate does; every
// reference held here is re-validated (in world, same map) before use.
package phase

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
)

// Object is the capability set shared by every world object.
type Object interface {
	GUID() uint64
	Kind() component.ObjectKind
	IsInWorld() bool
	// FindMap returns the map the object currently belongs to, or nil.
	FindMap() Aggregate
	Position() component.Position
	PhaseMask() uint32
}

// Updatable objects have per-tick logic.
type Updatable interface {
	Object
	Update(diff time.Duration)
}

// Relocatable objects can be queued for end-of-tick cell relocation.
type Relocatable interface {
	Object
	MoveState() component.MoveState
	SetMoveState(component.MoveState)
	PendingPosition() component.Position
	SetPendingPosition(component.Position)
	// Relocate commits pos as the current position.
	Relocate(pos component.Position)
	// UpdatePositionData refreshes position-derived cached attributes.
	UpdatePositionData()
	// UpdateObjectVisibility recomputes which observers can see the object.
	UpdateObjectVisibility(forced bool)
}

type Creature interface {
	Relocatable
	IsVehicle() bool
	RelocatePassengers()
}

// Pet is a creature that belongs to a player. It leaves the world through
// its own removal path instead of the map's remove list.
type Pet interface {
	Creature
	RemoveNotInSlot()
}

type GameObject interface {
	Relocatable
	UpdateModelPosition()
}

type DynamicObject interface {
	Relocatable
}

type Transport interface {
	Updatable
}

// SessionUpdater pumps a client session. The filter decides which of the
// buffered packets may run on the calling goroutine.
type SessionUpdater interface {
	State() packet.SessionState
	Update(diff time.Duration, filter net.PacketFilter) bool
}

type Player interface {
	Updatable
	// Session returns nil for players without a connection (bots, tests).
	Session() SessionUpdater
	// Viewpoint is the object the player currently sees through, or nil.
	Viewpoint() Object
	IsInCombat() bool
	GridActivationRange() float32
	// ForEachHostile walks the player's hostile references in list order and
	// yields the owner of each one.
	ForEachHostile(fn func(owner Object))
}

// SpatialTree is the time-driven collision structure of one phase.
type SpatialTree interface {
	Update(diff time.Duration)
}

// Aggregate is the map that owns a phase and its objects.
type Aggregate interface {
	ID() int32

	CreatureCellRelocation(c Creature, cell component.Cell) bool
	// CreatureRespawnRelocation moves c to its respawn point and refreshes it.
	CreatureRespawnRelocation(c Creature) bool
	GameObjectCellRelocation(g GameObject, cell component.Cell) bool
	GameObjectRespawnRelocation(g GameObject) bool
	DynamicObjectCellRelocation(d DynamicObject, cell component.Cell) bool

	// AddObjectToRemoveList defers obj's removal until after the map tick.
	AddObjectToRemoveList(obj Object)

	// VisitNearbyCellsOf applies both visitors to every cell within
	// activation range of obj.
	VisitNearbyCellsOf(obj Object, grid, world Visitor)
}
