package world

import (
	"sync/atomic"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/ecs"
	"github.com/l1jgo/phasesim/internal/phase"
)

// guidCounter generates unique object GUIDs across all maps.
var guidCounter atomic.Uint64

// NextGUID returns a unique object GUID.
func NextGUID() uint64 {
	return guidCounter.Add(1)
}

// Object is the state every world object carries. It is embedded by value in
// the concrete kinds; the owning Map is the only writer of cell membership
// and in-world state. Accessed only from the goroutine ticking its map.
type Object struct {
	guid  uint64
	kind  component.ObjectKind
	name  string
	entry int32 // template id, 0 for players

	pos       component.Position
	pending   component.Position
	moveState component.MoveState

	phaseMask uint32
	inWorld   bool
	m         *Map
	entity    ecs.EntityID
	cell      component.Cell
	storage   phase.StorageKind
	filed     bool // present in a cell bucket

	// cached by UpdatePositionData
	grid    component.Grid
	zone    int32
	posSync uint64 // map tick of the last refresh

	observers map[uint64]*Player // players that currently see this object
}

func newObject(kind component.ObjectKind, name string, entry int32, pos component.Position, phaseMask uint32) Object {
	if phaseMask == 0 {
		phaseMask = 1
	}
	return Object{
		guid:      NextGUID(),
		kind:      kind,
		name:      name,
		entry:     entry,
		pos:       pos,
		phaseMask: phaseMask,
		observers: make(map[uint64]*Player),
	}
}

func (o *Object) base() *Object { return o }

func (o *Object) GUID() uint64               { return o.guid }
func (o *Object) Kind() component.ObjectKind { return o.kind }
func (o *Object) Name() string               { return o.name }
func (o *Object) Entry() int32               { return o.entry }
func (o *Object) IsInWorld() bool            { return o.inWorld }
func (o *Object) PhaseMask() uint32          { return o.phaseMask }

// FindMap returns the current map as a phase aggregate. A nil map yields a
// nil interface, never a typed nil.
func (o *Object) FindMap() phase.Aggregate {
	if o.m == nil {
		return nil
	}
	return o.m
}

// Map returns the current map, or nil.
func (o *Object) Map() *Map { return o.m }

func (o *Object) Position() component.Position { return o.pos }

// Cell returns the cell the map has the object filed under.
func (o *Object) Cell() component.Cell { return o.cell }

func (o *Object) MoveState() component.MoveState          { return o.moveState }
func (o *Object) SetMoveState(s component.MoveState)      { o.moveState = s }
func (o *Object) PendingPosition() component.Position     { return o.pending }
func (o *Object) SetPendingPosition(p component.Position) { o.pending = p }

// Relocate sets the current position without touching cell membership.
func (o *Object) Relocate(p component.Position) {
	o.pos = p
}

// UpdatePositionData refreshes attributes derived from the position.
func (o *Object) UpdatePositionData() {
	o.grid = component.CellOf(o.pos).Grid()
	if o.m != nil {
		o.zone = o.m.ZoneAt(o.pos)
		o.posSync = o.m.tick
	}
}

// Zone returns the zone id cached by the last UpdatePositionData.
func (o *Object) Zone() int32 { return o.zone }

// UpdateObjectVisibility tells nearby players about the object's position.
func (o *Object) UpdateObjectVisibility(forced bool) {
	if o.m == nil || !o.inWorld {
		return
	}
	o.m.updateVisibility(o, forced)
}

// ObserverCount returns how many players currently see the object.
func (o *Object) ObserverCount() int { return len(o.observers) }

// worldObject is implemented by every concrete kind through the embedded
// Object.
type worldObject interface {
	phase.Object
	base() *Object
}
