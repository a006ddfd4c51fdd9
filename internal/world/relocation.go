package world

import (
	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/phase"
	"go.uber.org/zap"
)

// respawnable is implemented by kinds that remember a spawn point.
type respawnable interface {
	RespawnPosition() component.Position
}

// cellRelocation refiles obj under cell. Entering an unloaded grid is
// allowed only for active objects, which load it on the way in.
func (m *Map) cellRelocation(obj worldObject, cell component.Cell) bool {
	b := obj.base()
	if b.m != m {
		return false
	}
	if b.cell == cell {
		return true
	}
	if !m.grid.IsCellLoaded(cell) {
		if !m.isActiveObject(obj) {
			return false
		}
		m.LoadGrid(cell.Grid())
	}
	if b.filed {
		m.grid.Move(obj, b.cell, cell, b.storage)
	}
	b.cell = cell
	return true
}

func (m *Map) CreatureCellRelocation(c phase.Creature, cell component.Cell) bool {
	wo, ok := c.(worldObject)
	return ok && m.cellRelocation(wo, cell)
}

func (m *Map) GameObjectCellRelocation(g phase.GameObject, cell component.Cell) bool {
	wo, ok := g.(worldObject)
	return ok && m.cellRelocation(wo, cell)
}

func (m *Map) DynamicObjectCellRelocation(d phase.DynamicObject, cell component.Cell) bool {
	wo, ok := d.(worldObject)
	return ok && m.cellRelocation(wo, cell)
}

// respawnPoint returns where obj goes back to, as decided by the respawn
// resolver when one is installed.
func (m *Map) respawnPoint(obj phase.Object) (component.Position, bool) {
	r, ok := obj.(respawnable)
	if !ok {
		return component.Position{}, false
	}
	home := r.RespawnPosition()
	if m.respawn != nil {
		home = m.respawn.RespawnPosition(m, obj, home)
	}
	return home, true
}

// CreatureRespawnRelocation sends c back to its respawn point. Fails when
// that cell cannot be entered either.
func (m *Map) CreatureRespawnRelocation(c phase.Creature) bool {
	wo, ok := c.(worldObject)
	if !ok {
		return false
	}
	home, ok := m.respawnPoint(c)
	if !ok || !m.cellRelocation(wo, component.CellOf(home)) {
		return false
	}
	// sent home: drop threat and any pending move
	if cr := creatureOf(c); cr != nil {
		cr.threat.Clear()
	}
	c.SetMoveState(component.MoveNone)
	c.Relocate(home)
	c.UpdatePositionData()
	c.UpdateObjectVisibility(false)
	m.log.Debug("creature respawned", zap.Uint64("guid", c.GUID()))
	return true
}

func (m *Map) GameObjectRespawnRelocation(g phase.GameObject) bool {
	wo, ok := g.(worldObject)
	if !ok {
		return false
	}
	home, ok := m.respawnPoint(g)
	if !ok || !m.cellRelocation(wo, component.CellOf(home)) {
		return false
	}
	g.SetMoveState(component.MoveNone)
	g.Relocate(home)
	g.UpdateModelPosition()
	g.UpdatePositionData()
	g.UpdateObjectVisibility(false)
	return true
}

func creatureOf(c phase.Creature) *Creature {
	switch o := c.(type) {
	case *Creature:
		return o
	case *Pet:
		return &o.Creature
	}
	return nil
}

func (m *Map) phaseOf(obj phase.Object) *phase.Phase {
	if ps, ok := m.phases[obj.PhaseMask()]; ok {
		return ps.phase
	}
	return nil
}

// CreatureRelocation moves c to pos. A move within the same cell happens
// now; a move across cells is queued for the end of the phase tick.
func (m *Map) CreatureRelocation(c phase.Creature, pos component.Position) {
	wo, ok := c.(worldObject)
	if !ok || wo.base().m != m || !c.IsInWorld() {
		return
	}
	ph := m.phaseOf(c)
	if component.CellOf(pos) != wo.base().cell {
		ph.AddCreatureToMoveList(c, pos)
		return
	}
	c.Relocate(pos)
	if c.IsVehicle() {
		c.RelocatePassengers()
	}
	c.UpdateObjectVisibility(false)
	c.UpdatePositionData()
	ph.RemoveCreatureFromMoveList(c)
}

func (m *Map) GameObjectRelocation(g *GameObject, pos component.Position) {
	if g.m != m || !g.inWorld {
		return
	}
	ph := m.phaseOf(g)
	if component.CellOf(pos) != g.cell {
		ph.AddGameObjectToMoveList(g, pos)
		return
	}
	g.Relocate(pos)
	g.UpdateModelPosition()
	g.UpdatePositionData()
	g.UpdateObjectVisibility(false)
	ph.RemoveGameObjectFromMoveList(g)
}

func (m *Map) DynamicObjectRelocation(d *DynamicObject, pos component.Position) {
	if d.m != m || !d.inWorld {
		return
	}
	ph := m.phaseOf(d)
	if component.CellOf(pos) != d.cell {
		ph.AddDynamicObjectToMoveList(d, pos)
		return
	}
	d.Relocate(pos)
	d.UpdatePositionData()
	d.UpdateObjectVisibility(false)
	ph.RemoveDynamicObjectFromMoveList(d)
}

// PlayerRelocation moves p immediately, loading the destination grid.
func (m *Map) PlayerRelocation(p *Player, pos component.Position) {
	if p.m != m || !p.inWorld {
		return
	}
	m.cellRelocation(p, component.CellOf(pos))
	p.Relocate(pos)
	p.UpdatePositionData()
	p.UpdateObjectVisibility(false)
}

// TransportRelocation moves t and carries its passengers along.
func (m *Map) TransportRelocation(t *Transport, pos component.Position) {
	if t.m != m || !t.inWorld {
		return
	}
	t.Relocate(pos)
	t.UpdatePositionData()
	for _, tp := range t.passengers {
		m.relocatePassenger(tp.obj, pos.Offset(tp.offset))
	}
	t.UpdateObjectVisibility(false)
}

func (m *Map) relocatePassenger(obj worldObject, pos component.Position) {
	if obj.base().m != m {
		return
	}
	switch o := obj.(type) {
	case *Player:
		m.PlayerRelocation(o, pos)
	case *Pet:
		m.CreatureRelocation(o, pos)
	case *Creature:
		m.CreatureRelocation(o.self, pos)
	case *GameObject:
		m.GameObjectRelocation(o, pos)
	case *DynamicObject:
		m.DynamicObjectRelocation(o, pos)
	}
}
