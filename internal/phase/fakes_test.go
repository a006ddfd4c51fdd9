package phase

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
)

// trace records the order in which collaborators are called.
type trace []string

func (t *trace) add(s string) {
	if t != nil {
		*t = append(*t, s)
	}
}

type fakeMap struct {
	id       int32
	unloaded map[component.Cell]bool
	objects  []Object // contents of every visited cell

	placed       []uint64
	respawnCalls []uint64
	removeList   []Object
	visited      []uint64

	onCellRelocation func(obj Relocatable)
	onVisit          func(obj Object)
	trace            *trace
}

func newFakeMap(id int32) *fakeMap {
	return &fakeMap{id: id, unloaded: make(map[component.Cell]bool)}
}

func (m *fakeMap) ID() int32 { return m.id }

func (m *fakeMap) unload(pos component.Position) {
	m.unloaded[component.CellOf(pos)] = true
}

func (m *fakeMap) cellRelocation(obj Relocatable, cell component.Cell) bool {
	m.placed = append(m.placed, obj.GUID())
	m.trace.add("relocate")
	if m.onCellRelocation != nil {
		m.onCellRelocation(obj)
	}
	return !m.unloaded[cell]
}

func (m *fakeMap) respawnRelocation(obj Relocatable) bool {
	m.respawnCalls = append(m.respawnCalls, obj.GUID())
	f := obj.(interface{ base() *fakeObject }).base()
	if m.unloaded[component.CellOf(f.respawn)] {
		return false
	}
	f.Relocate(f.respawn)
	f.UpdatePositionData()
	f.UpdateObjectVisibility(false)
	return true
}

func (m *fakeMap) CreatureCellRelocation(c Creature, cell component.Cell) bool {
	return m.cellRelocation(c, cell)
}

func (m *fakeMap) CreatureRespawnRelocation(c Creature) bool {
	return m.respawnRelocation(c)
}

func (m *fakeMap) GameObjectCellRelocation(g GameObject, cell component.Cell) bool {
	return m.cellRelocation(g, cell)
}

func (m *fakeMap) GameObjectRespawnRelocation(g GameObject) bool {
	return m.respawnRelocation(g)
}

func (m *fakeMap) DynamicObjectCellRelocation(d DynamicObject, cell component.Cell) bool {
	return m.cellRelocation(d, cell)
}

func (m *fakeMap) AddObjectToRemoveList(obj Object) {
	m.removeList = append(m.removeList, obj)
}

func (m *fakeMap) VisitNearbyCellsOf(obj Object, grid, world Visitor) {
	m.visited = append(m.visited, obj.GUID())
	m.trace.add("visit")
	if m.onVisit != nil {
		m.onVisit(obj)
	}
	grid.Visit(fakeBucket{storage: StorageGrid, objects: m.objects})
	world.Visit(fakeBucket{storage: StorageWorld, objects: m.objects})
}

func (m *fakeMap) visitsOf(guid uint64) int {
	n := 0
	for _, g := range m.visited {
		if g == guid {
			n++
		}
	}
	return n
}

type fakeBucket struct {
	storage StorageKind
	objects []Object
}

func (b fakeBucket) Storage() StorageKind { return b.storage }

func (b fakeBucket) Each(fn func(Object)) {
	for _, obj := range b.objects {
		// grid bucket holds non-players, world bucket players and pets
		world := obj.Kind() == component.KindPlayer || obj.Kind() == component.KindPet
		if world == (b.storage == StorageWorld) {
			fn(obj)
		}
	}
}

type fakeObject struct {
	guid    uint64
	kind    component.ObjectKind
	inWorld bool
	m       Aggregate
	mask    uint32

	pos, pending, respawn component.Position
	state                 component.MoveState

	vehicle bool

	updates       int
	posData       int
	visibility    int
	modelUpdates  int
	passengerMove int

	onUpdate func()
	trace    *trace
}

func newFakeObject(guid uint64, kind component.ObjectKind, m Aggregate) *fakeObject {
	return &fakeObject{guid: guid, kind: kind, inWorld: true, m: m, mask: 1}
}

func (f *fakeObject) base() *fakeObject { return f }

func (f *fakeObject) GUID() uint64                       { return f.guid }
func (f *fakeObject) Kind() component.ObjectKind         { return f.kind }
func (f *fakeObject) IsInWorld() bool                    { return f.inWorld }
func (f *fakeObject) FindMap() Aggregate                 { return f.m }
func (f *fakeObject) Position() component.Position       { return f.pos }
func (f *fakeObject) PhaseMask() uint32                  { return f.mask }
func (f *fakeObject) MoveState() component.MoveState     { return f.state }
func (f *fakeObject) SetMoveState(s component.MoveState) { f.state = s }
func (f *fakeObject) PendingPosition() component.Position {
	return f.pending
}
func (f *fakeObject) SetPendingPosition(p component.Position) { f.pending = p }
func (f *fakeObject) Relocate(p component.Position)           { f.pos = p }
func (f *fakeObject) UpdatePositionData()                     { f.posData++ }
func (f *fakeObject) UpdateObjectVisibility(bool)             { f.visibility++ }
func (f *fakeObject) UpdateModelPosition()                    { f.modelUpdates++ }
func (f *fakeObject) IsVehicle() bool                         { return f.vehicle }
func (f *fakeObject) RelocatePassengers()                     { f.passengerMove++ }

func (f *fakeObject) Update(time.Duration) {
	f.updates++
	f.trace.add("update:" + f.kind.String())
	if f.onUpdate != nil {
		f.onUpdate()
	}
}

type fakePet struct {
	*fakeObject
	removed int
}

func (p *fakePet) RemoveNotInSlot() {
	p.removed++
	p.inWorld = false
}

type fakeSession struct {
	state   packet.SessionState
	updates int
	filters []net.PacketFilter
	trace   *trace
}

func (s *fakeSession) State() packet.SessionState { return s.state }

func (s *fakeSession) Update(_ time.Duration, filter net.PacketFilter) bool {
	s.updates++
	s.filters = append(s.filters, filter)
	s.trace.add("session")
	return true
}

type fakePlayer struct {
	*fakeObject
	session   *fakeSession
	viewpoint Object
	combat    bool
	hostiles  []Object
	actRange  float32
}

func newFakePlayer(guid uint64, m Aggregate) *fakePlayer {
	return &fakePlayer{
		fakeObject: newFakeObject(guid, component.KindPlayer, m),
		session:    &fakeSession{state: packet.StateInWorld},
		actRange:   10,
	}
}

func (p *fakePlayer) Session() SessionUpdater {
	if p.session == nil {
		return nil
	}
	return p.session
}

func (p *fakePlayer) Viewpoint() Object            { return p.viewpoint }
func (p *fakePlayer) IsInCombat() bool             { return p.combat }
func (p *fakePlayer) GridActivationRange() float32 { return p.actRange }

func (p *fakePlayer) ForEachHostile(fn func(Object)) {
	for _, h := range p.hostiles {
		fn(h)
	}
}

type fakeTree struct {
	updates []time.Duration
	trace   *trace
}

func (t *fakeTree) Update(diff time.Duration) {
	t.updates = append(t.updates, diff)
	t.trace.add("tree")
}
