package world

import (
	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/phase"
)

// updateVisibility refreshes who sees o. Observers that left the range or
// the phase forget it, those still in range get its new position, and
// players that came into range learn about it. A moving player also
// refreshes its own view.
func (m *Map) updateVisibility(o *Object, forced bool) {
	obj := m.lookup(o.guid)
	if obj == nil {
		return
	}
	r := m.settings.VisibilityRange
	r2 := r * r

	for _, pl := range o.observers {
		if pl.m != m || !pl.inWorld || pl.phaseMask != o.phaseMask || pl.pos.ExactDist2dSq(o.pos) > r2 {
			m.unsee(pl, o)
			continue
		}
		if forced {
			pl.Send(putObjectPacket(o))
		} else {
			pl.Send(moveObjectPacket(o))
		}
	}

	if ph := m.phaseOf(obj); ph != nil {
		ph.EachPlayer(func(p phase.Player) {
			pl, ok := p.(*Player)
			if !ok || pl.guid == o.guid || !pl.inWorld {
				return
			}
			if _, seen := o.observers[pl.guid]; seen {
				return
			}
			if pl.pos.ExactDist2dSq(o.pos) <= r2 {
				m.see(pl, o)
			}
		})
	}

	if pl, ok := obj.(*Player); ok {
		m.updatePlayerView(pl)
	}
}

// updatePlayerView drops the objects pl no longer sees and adds the ones
// that came into range.
func (m *Map) updatePlayerView(pl *Player) {
	r := m.settings.VisibilityRange
	r2 := r * r
	for _, o := range pl.known {
		if o.m != m || !o.inWorld || o.phaseMask != pl.phaseMask || o.pos.ExactDist2dSq(pl.pos) > r2 {
			m.unsee(pl, o)
		}
	}
	look := func(b *bucket) {
		for _, wo := range b.objects {
			o := wo.base()
			if o == &pl.Object || o.phaseMask != pl.phaseMask {
				continue
			}
			if _, ok := pl.known[o.guid]; ok {
				continue
			}
			if o.pos.ExactDist2dSq(pl.pos) <= r2 {
				m.see(pl, o)
			}
		}
	}
	m.grid.EachInArea(pl.pos, r, func(_ component.Cell, cd *cellData) {
		look(&cd.grid)
		look(&cd.world)
	})
}

func (m *Map) see(pl *Player, o *Object) {
	pl.known[o.guid] = o
	o.observers[pl.guid] = pl
	pl.Send(putObjectPacket(o))
}

func (m *Map) unsee(pl *Player, o *Object) {
	delete(pl.known, o.guid)
	delete(o.observers, pl.guid)
	pl.Send(removeObjectPacket(o.guid))
}

// hideFromObservers removes o from every client that sees it.
func (m *Map) hideFromObservers(o *Object) {
	for _, pl := range o.observers {
		m.unsee(pl, o)
	}
}

// forgetView drops everything pl knows without notifying its client.
func (m *Map) forgetView(pl *Player) {
	for guid, o := range pl.known {
		delete(o.observers, pl.guid)
		delete(pl.known, guid)
	}
}

func putObjectPacket(o *Object) []byte {
	w := packet.NewWriter(packet.S_PUT_OBJECT)
	w.WriteQ(o.guid)
	w.WriteC(byte(o.kind))
	writePosition(w, o)
	w.WriteS(o.name)
	return w.Bytes()
}

func moveObjectPacket(o *Object) []byte {
	w := packet.NewWriter(packet.S_MOVE_OBJECT)
	w.WriteQ(o.guid)
	writePosition(w, o)
	return w.Bytes()
}

func removeObjectPacket(guid uint64) []byte {
	w := packet.NewWriter(packet.S_REMOVE_OBJECT)
	w.WriteQ(guid)
	return w.Bytes()
}

func writePosition(w *packet.Writer, o *Object) {
	w.WriteF(o.pos.X)
	w.WriteF(o.pos.Y)
	w.WriteF(o.pos.Z)
	w.WriteF(o.pos.O)
}
