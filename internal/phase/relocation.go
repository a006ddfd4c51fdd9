package phase

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"go.uber.org/zap"
)

// AddCreatureToMoveList queues c for relocation to pos at the end of the tick.
func (p *Phase) AddCreatureToMoveList(c Creature, pos component.Position) {
	requestMove(&p.creatures, c, pos)
}

// RemoveCreatureFromMoveList cancels a queued relocation of c.
func (p *Phase) RemoveCreatureFromMoveList(c Creature) {
	cancelMove(c)
}

func (p *Phase) AddGameObjectToMoveList(g GameObject, pos component.Position) {
	requestMove(&p.gameObjects, g, pos)
}

func (p *Phase) RemoveGameObjectFromMoveList(g GameObject) {
	cancelMove(g)
}

func (p *Phase) AddDynamicObjectToMoveList(d DynamicObject, pos component.Position) {
	requestMove(&p.dynObjects, d, pos)
}

func (p *Phase) RemoveDynamicObjectFromMoveList(d DynamicObject) {
	cancelMove(d)
}

// MoveListLen returns the queued entries per list: creatures, game objects,
// dynamic objects.
func (p *Phase) MoveListLen() (int, int, int) {
	return p.creatures.Len(), p.gameObjects.Len(), p.dynObjects.Len()
}

// Draining reports whether any move list is being drained.
func (p *Phase) Draining() bool {
	return p.creatures.Draining() || p.gameObjects.Draining() || p.dynObjects.Draining()
}

func (p *Phase) MoveAllCreaturesInMoveList() {
	done := p.creatures.Drain(func(c Creature) {
		if !p.claim(c) {
			return
		}
		target := c.PendingPosition()
		if p.owner.CreatureCellRelocation(c, component.CellOf(target)) {
			c.Relocate(target)
			if c.IsVehicle() {
				c.RelocatePassengers()
			}
			c.UpdatePositionData()
			c.UpdateObjectVisibility(false)
			p.report.Relocated++
			return
		}
		if p.owner.CreatureRespawnRelocation(c) {
			p.report.Respawned++
			return
		}
		if pet, ok := c.(Pet); ok {
			pet.RemoveNotInSlot()
			p.relocationFailed(c, target, event.ActionDespawned)
			return
		}
		p.owner.AddObjectToRemoveList(c)
		p.relocationFailed(c, target, event.ActionRemoved)
	})
	if !done {
		p.drainOverrun("creature")
	}
}

func (p *Phase) MoveAllGameObjectsInMoveList() {
	done := p.gameObjects.Drain(func(g GameObject) {
		if !p.claim(g) {
			return
		}
		target := g.PendingPosition()
		if p.owner.GameObjectCellRelocation(g, component.CellOf(target)) {
			g.Relocate(target)
			g.UpdateModelPosition()
			g.UpdatePositionData()
			g.UpdateObjectVisibility(false)
			p.report.Relocated++
			return
		}
		if p.owner.GameObjectRespawnRelocation(g) {
			p.report.Respawned++
			return
		}
		p.owner.AddObjectToRemoveList(g)
		p.relocationFailed(g, target, event.ActionRemoved)
	})
	if !done {
		p.drainOverrun("game object")
	}
}

// MoveAllDynamicObjectsInMoveList has no respawn fallback: a dynamic object
// that cannot enter its cell stays where it is.
func (p *Phase) MoveAllDynamicObjectsInMoveList() {
	done := p.dynObjects.Drain(func(d DynamicObject) {
		if !p.claim(d) {
			return
		}
		target := d.PendingPosition()
		if p.owner.DynamicObjectCellRelocation(d, component.CellOf(target)) {
			d.Relocate(target)
			d.UpdatePositionData()
			d.UpdateObjectVisibility(false)
			p.report.Relocated++
			return
		}
		p.relocationFailed(d, target, event.ActionStranded)
	})
	if !done {
		p.drainOverrun("dynamic object")
	}
}

func (p *Phase) drainOverrun(list string) {
	p.log.Warn("move list still refilling after drain",
		zap.String("list", list),
		zap.Uint32("phase", p.mask),
		zap.Int("passes", maxDrainPasses),
	)
}

// drainMoveLists empties the three lists in kind order. A relocation
// requested by a later list for an earlier one (a game object carrying a
// creature) sends the loop around again.
func (p *Phase) drainMoveLists() {
	for pass := 0; pass < maxDrainPasses; pass++ {
		p.MoveAllCreaturesInMoveList()
		p.MoveAllGameObjectsInMoveList()
		p.MoveAllDynamicObjectsInMoveList()
		if c, g, d := p.MoveListLen(); c+g+d == 0 {
			return
		}
	}
}

// claim validates a drained entry and consumes its move request. An object
// that has moved to another map keeps its move state; the map it left resets
// it on removal.
func (p *Phase) claim(obj Relocatable) bool {
	if obj.FindMap() != p.owner {
		p.report.Foreign++
		return false
	}
	if obj.MoveState() != component.MoveActive {
		obj.SetMoveState(component.MoveNone)
		p.report.Stale++
		return false
	}
	obj.SetMoveState(component.MoveNone)
	if !obj.IsInWorld() {
		p.report.Stale++
		return false
	}
	return true
}

func (p *Phase) relocationFailed(obj Relocatable, target component.Position, action string) {
	switch action {
	case event.ActionDespawned:
		p.report.Despawned++
	case event.ActionRemoved:
		p.report.Removed++
	default:
		p.report.Stranded++
	}
	p.log.Debug("relocation target not loaded",
		zap.Uint64("guid", obj.GUID()),
		zap.Stringer("kind", obj.Kind()),
		zap.String("action", action),
		zap.Float32("x", target.X),
		zap.Float32("y", target.Y),
	)
	event.Emit(p.bus, event.RelocationFailed{
		MapID:     p.owner.ID(),
		PhaseMask: p.mask,
		GUID:      obj.GUID(),
		Kind:      obj.Kind(),
		Action:    action,
		Position:  obj.Position(),
		Target:    target,
		At:        time.Now(),
	})
}
