package phase

import (
	"testing"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tick = 100 * time.Millisecond

func newTestPhase(m *fakeMap) *Phase {
	return New(m, 1, nil, nil, zap.NewNop())
}

func assertListsDrained(t *testing.T, p *Phase) {
	t.Helper()
	c, g, d := p.MoveListLen()
	assert.Zero(t, c)
	assert.Zero(t, g)
	assert.Zero(t, d)
	assert.False(t, p.Draining())
}

func TestRelocationToLoadedCell(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)
	target := component.Pos(100, 200, 50)

	p.AddCreatureToMoveList(c, target)
	assert.Equal(t, component.MoveActive, c.state)

	p.Update(tick, tick)

	assert.Equal(t, target, c.pos)
	assert.Equal(t, component.MoveNone, c.state)
	assert.Equal(t, []uint64{1}, m.placed)
	assert.Equal(t, 1, c.posData)
	assert.Equal(t, 1, c.visibility)
	assert.Zero(t, c.passengerMove)
	assert.Equal(t, 1, p.LastReport().Relocated)
	assertListsDrained(t, p)
}

func TestRelocationFallsBackToRespawn(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)
	c.respawn = component.Pos(10, 10, 0)
	target := component.Pos(900, 900, 0)
	m.unload(target)

	p.AddCreatureToMoveList(c, target)
	p.Update(tick, tick)

	assert.Equal(t, c.respawn, c.pos)
	assert.Equal(t, component.MoveNone, c.state)
	assert.Empty(t, m.removeList)
	assert.Equal(t, 1, p.LastReport().Respawned)
}

func TestPetDespawnsWhenNothingLoaded(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	pet := &fakePet{fakeObject: newFakeObject(1, component.KindPet, m)}
	pet.respawn = component.Pos(500, 500, 0)
	target := component.Pos(900, 900, 0)
	m.unload(target)
	m.unload(pet.respawn)

	p.AddCreatureToMoveList(pet, target)
	p.Update(tick, tick)

	assert.Equal(t, 1, pet.removed)
	assert.Empty(t, m.removeList)
	assert.Equal(t, 1, p.LastReport().Despawned)
}

func TestCreatureQueuedForRemovalWhenNothingLoaded(t *testing.T) {
	bus := event.NewBus()
	m := newFakeMap(1)
	p := New(m, 1, nil, bus, zap.NewNop())
	c := newFakeObject(1, component.KindCreature, m)
	c.pos = component.Pos(1, 2, 3)
	c.respawn = component.Pos(500, 500, 0)
	target := component.Pos(900, 900, 0)
	m.unload(target)
	m.unload(c.respawn)

	p.AddCreatureToMoveList(c, target)
	p.Update(tick, tick)

	require.Len(t, m.removeList, 1)
	assert.Same(t, c, m.removeList[0])
	assert.Equal(t, component.Pos(1, 2, 3), c.pos)
	assert.Equal(t, 1, p.LastReport().Removed)

	var failed []event.RelocationFailed
	event.Subscribe(bus, func(e event.RelocationFailed) { failed = append(failed, e) })
	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, failed, 1)
	assert.Equal(t, event.ActionRemoved, failed[0].Action)
	assert.Equal(t, target, failed[0].Target)
	assert.Equal(t, uint64(1), failed[0].GUID)
}

func TestCancelledRequestIsNeverPlaced(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)

	p.AddCreatureToMoveList(c, component.Pos(50, 50, 0))
	p.RemoveCreatureFromMoveList(c)
	assert.Equal(t, component.MoveInactive, c.state)

	p.Update(tick, tick)

	assert.Empty(t, m.placed)
	assert.Equal(t, component.Position{}, c.pos)
	assert.Equal(t, component.MoveNone, c.state)
	assert.Equal(t, 1, p.LastReport().Stale)
}

func TestRequeueAfterCancelUsesLatestPosition(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)

	p.AddCreatureToMoveList(c, component.Pos(50, 50, 0))
	p.RemoveCreatureFromMoveList(c)
	p.AddCreatureToMoveList(c, component.Pos(60, 60, 0))

	n, _, _ := p.MoveListLen()
	assert.Equal(t, 1, n)

	p.Update(tick, tick)
	assert.Equal(t, component.Pos(60, 60, 0), c.pos)
	assert.Len(t, m.placed, 1)
}

func TestDuplicateEntriesRelocateOnce(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)

	p.AddCreatureToMoveList(c, component.Pos(50, 50, 0))
	p.creatures.Push(c)

	p.Update(tick, tick)

	assert.Equal(t, []uint64{1}, m.placed)
	assert.Equal(t, 1, p.LastReport().Relocated)
	assert.Equal(t, 1, p.LastReport().Stale)
}

// An object that moved to another map between request and drain is skipped
// and keeps its move state; the map it left is responsible for resetting it.
func TestObjectOnOtherMapIsSkippedWithStateKept(t *testing.T) {
	m := newFakeMap(1)
	other := newFakeMap(2)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)

	p.AddCreatureToMoveList(c, component.Pos(50, 50, 0))
	c.m = other

	p.Update(tick, tick)

	assert.Empty(t, m.placed)
	assert.Equal(t, component.Position{}, c.pos)
	assert.Equal(t, component.MoveActive, c.state)
	assert.Equal(t, 1, p.LastReport().Foreign)
	assertListsDrained(t, p)
}

func TestObjectOutOfWorldIsNotPlaced(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)

	p.AddCreatureToMoveList(c, component.Pos(50, 50, 0))
	c.inWorld = false
	p.Update(tick, tick)

	assert.Empty(t, m.placed)
	assert.Equal(t, component.MoveNone, c.state)
}

func TestVehicleMovesPassengers(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)
	c.vehicle = true

	p.AddCreatureToMoveList(c, component.Pos(50, 50, 0))
	p.Update(tick, tick)
	assert.Equal(t, 1, c.passengerMove)
}

func TestGameObjectRelocation(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	g := newFakeObject(1, component.KindGameObject, m)
	lost := newFakeObject(2, component.KindGameObject, m)
	lost.respawn = component.Pos(-500, -500, 0)
	m.unload(lost.respawn)
	m.unload(component.Pos(700, 700, 0))

	p.AddGameObjectToMoveList(g, component.Pos(40, 40, 0))
	p.AddGameObjectToMoveList(lost, component.Pos(700, 700, 0))
	p.Update(tick, tick)

	assert.Equal(t, component.Pos(40, 40, 0), g.pos)
	assert.Equal(t, 1, g.modelUpdates)
	require.Len(t, m.removeList, 1)
	assert.Same(t, lost, m.removeList[0])
	assertListsDrained(t, p)
}

func TestDynamicObjectStrandedWithoutRespawn(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	d := newFakeObject(1, component.KindDynamicObject, m)
	d.pos = component.Pos(5, 5, 0)
	m.unload(component.Pos(700, 700, 0))

	p.AddDynamicObjectToMoveList(d, component.Pos(700, 700, 0))
	p.Update(tick, tick)

	assert.Equal(t, component.Pos(5, 5, 0), d.pos)
	assert.Empty(t, m.respawnCalls)
	assert.Empty(t, m.removeList)
	assert.Equal(t, 1, p.LastReport().Stranded)

	p.AddDynamicObjectToMoveList(d, component.Pos(6, 6, 0))
	p.Update(tick, tick)
	assert.Equal(t, component.Pos(6, 6, 0), d.pos)
}

func TestListsDrainInKindOrder(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	d := newFakeObject(3, component.KindDynamicObject, m)
	g := newFakeObject(2, component.KindGameObject, m)
	c := newFakeObject(1, component.KindCreature, m)

	p.AddDynamicObjectToMoveList(d, component.Pos(1, 1, 0))
	p.AddGameObjectToMoveList(g, component.Pos(1, 1, 0))
	p.AddCreatureToMoveList(c, component.Pos(1, 1, 0))
	p.Update(tick, tick)

	assert.Equal(t, []uint64{1, 2, 3}, m.placed)
}

func TestRequestDuringDrainLandsSameTick(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	vehicle := newFakeObject(1, component.KindCreature, m)
	rider := newFakeObject(2, component.KindCreature, m)

	var drainingSeen bool
	m.onCellRelocation = func(obj Relocatable) {
		if obj.GUID() == vehicle.guid {
			drainingSeen = p.Draining()
			p.AddCreatureToMoveList(rider, component.Pos(30, 30, 0))
		}
	}

	p.AddCreatureToMoveList(vehicle, component.Pos(20, 20, 0))
	p.Update(tick, tick)

	assert.True(t, drainingSeen)
	assert.Equal(t, component.Pos(20, 20, 0), vehicle.pos)
	assert.Equal(t, component.Pos(30, 30, 0), rider.pos)
	assert.Equal(t, component.MoveNone, rider.state)
	assert.Equal(t, 2, p.LastReport().Relocated)
	assertListsDrained(t, p)
}

func TestCrossListRequestLandsSameTick(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	g := newFakeObject(1, component.KindGameObject, m)
	c := newFakeObject(2, component.KindCreature, m)

	// the creature list is already drained when the game object asks
	m.onCellRelocation = func(obj Relocatable) {
		if obj.GUID() == g.guid {
			p.AddCreatureToMoveList(c, component.Pos(40, 40, 0))
		}
	}

	p.AddGameObjectToMoveList(g, component.Pos(10, 10, 0))
	p.Update(tick, tick)

	assert.Equal(t, component.Pos(40, 40, 0), c.pos)
	assertListsDrained(t, p)
}

func TestSelfRequeueIsBounded(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	c := newFakeObject(1, component.KindCreature, m)

	m.onCellRelocation = func(obj Relocatable) {
		p.AddCreatureToMoveList(c, component.Pos(1, 1, 0))
	}
	p.AddCreatureToMoveList(c, component.Pos(1, 1, 0))
	p.Update(tick, tick)

	assert.False(t, p.Draining())
	n, _, _ := p.MoveListLen()
	assert.Equal(t, 1, n)
}

func TestUpdateOrder(t *testing.T) {
	var tr trace
	m := newFakeMap(1)
	m.trace = &tr
	tree := &fakeTree{trace: &tr}
	p := New(m, 1, tree, nil, zap.NewNop())

	pl := newFakePlayer(1, m)
	pl.trace = &tr
	pl.session.trace = &tr
	tr2 := newFakeObject(2, component.KindTransport, m)
	tr2.trace = &tr
	active := newFakeObject(3, component.KindCreature, m)
	mover := newFakeObject(4, component.KindCreature, m)

	require.True(t, p.AddPlayer(pl))
	require.True(t, p.AddTransport(tr2))
	require.True(t, p.AddActive(active))
	p.AddCreatureToMoveList(mover, component.Pos(1, 1, 0))

	p.Update(tick, tick)

	assert.Equal(t, trace{
		"tree",
		"session",
		"visit", // active object
		"update:player",
		"visit", // player
		"update:transport",
		"relocate",
	}, tr)
}

func TestZeroTickSkipsTree(t *testing.T) {
	m := newFakeMap(1)
	tree := &fakeTree{}
	p := New(m, 1, tree, nil, zap.NewNop())

	p.Update(0, tick)
	assert.Empty(t, tree.updates)
	p.Update(tick, tick)
	assert.Equal(t, []time.Duration{tick}, tree.updates)
}

func TestSessionPumpUsesMapFilter(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	pl := newFakePlayer(1, m)
	gone := newFakePlayer(2, m)
	gone.inWorld = false
	bot := newFakePlayer(3, m)
	bot.session = nil
	p.AddPlayer(pl)
	p.AddPlayer(gone)
	p.AddPlayer(bot)

	p.Update(tick, tick)

	require.Len(t, pl.session.filters, 1)
	f := pl.session.filters[0]
	assert.True(t, f.Process(packet.ProcessThreadSafe))
	assert.True(t, f.Process(packet.ProcessInPlace))
	assert.False(t, f.Process(packet.ProcessThreadUnsafe))

	assert.Zero(t, gone.session.updates)
	assert.Zero(t, gone.updates)
	assert.Equal(t, 1, bot.updates)
}

func TestPlayerViewpointIsVisited(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	pl := newFakePlayer(1, m)
	eye := newFakeObject(9, component.KindDynamicObject, m)
	pl.viewpoint = eye
	p.AddPlayer(pl)

	p.Update(tick, tick)
	assert.Equal(t, []uint64{1, 9}, m.visited)
}

func TestDistantCombatantsAreVisited(t *testing.T) {
	m := newFakeMap(1)
	other := newFakeMap(2)
	p := newTestPhase(m)
	pl := newFakePlayer(1, m)
	pl.combat = true
	pl.actRange = 10

	far := newFakeObject(2, component.KindCreature, m)
	far.pos = component.Pos(20, 0, 0)
	edge := newFakeObject(3, component.KindCreature, m)
	edge.pos = component.Pos(9, 0, 0) // exactly activation range - 1
	near := newFakeObject(4, component.KindCreature, m)
	near.pos = component.Pos(3, 4, 0)
	elsewhere := newFakeObject(5, component.KindCreature, other)
	elsewhere.pos = component.Pos(50, 0, 0)
	farPet := &fakePet{fakeObject: newFakeObject(6, component.KindPet, m)}
	farPet.pos = component.Pos(0, 30, 0)
	farPlayer := newFakePlayer(7, m)
	farPlayer.pos = component.Pos(0, 40, 0)
	pl.hostiles = []Object{far, edge, near, elsewhere, farPet, farPlayer}
	p.AddPlayer(pl)

	p.Update(tick, tick)

	assert.Equal(t, 1, m.visitsOf(far.guid))
	assert.Equal(t, 1, m.visitsOf(farPet.guid))
	assert.Zero(t, m.visitsOf(edge.guid))
	assert.Zero(t, m.visitsOf(near.guid))
	assert.Zero(t, m.visitsOf(elsewhere.guid))
	assert.Zero(t, m.visitsOf(farPlayer.guid))

	pl.combat = false
	m.visited = nil
	p.Update(tick, tick)
	assert.Equal(t, []uint64{1}, m.visited)
}

func TestActiveObjectMayRemoveItselfDuringVisit(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	objs := []*fakeObject{
		newFakeObject(1, component.KindCreature, m),
		newFakeObject(2, component.KindCreature, m),
		newFakeObject(3, component.KindCreature, m),
	}
	for _, o := range objs {
		p.AddActive(o)
	}
	late := newFakeObject(4, component.KindCreature, m)
	m.onVisit = func(obj Object) {
		if obj.GUID() == 2 {
			p.RemoveActive(obj)
			p.AddActive(late)
		}
	}
	objs[2].inWorld = false

	p.Update(tick, tick)

	assert.Equal(t, []uint64{1, 2}, m.visited)
	assert.False(t, p.IsActive(objs[1]))
	assert.True(t, p.IsActive(late))

	m.visited = nil
	m.onVisit = nil
	p.Update(tick, tick)
	assert.ElementsMatch(t, []uint64{1, 4}, m.visited)
}

func TestPlayerMayLeaveDuringItsOwnUpdate(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	a := newFakePlayer(1, m)
	b := newFakePlayer(2, m)
	c := newFakePlayer(3, m)
	p.AddPlayer(a)
	p.AddPlayer(b)
	p.AddPlayer(c)
	b.onUpdate = func() {
		p.RemovePlayer(b)
		p.RemovePlayer(c)
	}

	p.Update(tick, tick)

	assert.Equal(t, 1, a.updates)
	assert.Equal(t, 1, b.updates)
	assert.Zero(t, c.updates)
	assert.Equal(t, 1, p.PlayerCount())
}

func TestVisitorsAdvanceNearbyObjects(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	pl := newFakePlayer(1, m)
	mob := newFakeObject(2, component.KindCreature, m)
	pet := &fakePet{fakeObject: newFakeObject(3, component.KindPet, m)}
	hidden := newFakeObject(4, component.KindCreature, m)
	hidden.mask = 2
	m.objects = []Object{pl, mob, pet, hidden}
	p.AddPlayer(pl)

	p.Update(tick, tick)

	assert.Equal(t, 1, mob.updates)
	assert.Equal(t, 1, pet.updates)
	assert.Zero(t, hidden.updates)
	assert.Equal(t, 1, pl.updates) // ticked once by the phase, never by visitors
}

func TestTransportsOutOfWorldAreSkipped(t *testing.T) {
	m := newFakeMap(1)
	p := newTestPhase(m)
	a := newFakeObject(1, component.KindTransport, m)
	b := newFakeObject(2, component.KindTransport, m)
	b.inWorld = false
	p.AddTransport(a)
	p.AddTransport(b)
	assert.False(t, p.AddTransport(a))

	p.Update(tick, tick)
	assert.Equal(t, 1, a.updates)
	assert.Zero(t, b.updates)

	p.RemoveTransport(a)
	p.Update(tick, tick)
	assert.Equal(t, 1, a.updates)
}

func TestTickReportIsEmitted(t *testing.T) {
	bus := event.NewBus()
	m := newFakeMap(7)
	p := New(m, 4, nil, bus, zap.NewNop())
	p.AddPlayer(newFakePlayer(1, m))
	p.AddActive(newFakeObject(2, component.KindCreature, m))

	p.Update(tick, tick)
	p.Update(tick, tick)

	assert.Equal(t, 2, event.Pending[TickReport](bus))
	r := p.LastReport()
	assert.Equal(t, int32(7), r.MapID)
	assert.Equal(t, uint32(4), r.PhaseMask)
	assert.Equal(t, uint64(2), r.Tick)
	assert.Equal(t, 1, r.Players)
	assert.Equal(t, 1, r.Active)
	assert.Equal(t, 2, r.Visits)
}
