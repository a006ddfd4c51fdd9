package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
)

const petFollowDistance = 3

// Pet is a creature owned by a player. It lives in the world bucket of its
// cell and follows its owner across cells.
type Pet struct {
	Creature
	owner   *Player
	inSlot  bool
	removed bool
}

func NewPet(owner *Player, info CreatureInfo) *Pet {
	p := &Pet{owner: owner, inSlot: true}
	p.init(component.KindPet, info)
	p.self = p
	if owner != nil {
		owner.pet = p
	}
	return p
}

func (p *Pet) Owner() *Player { return p.owner }

// InSlot reports whether the pet is still stored in its owner's pet slot.
func (p *Pet) InSlot() bool { return p.inSlot }

// Removed reports whether the pet has been despawned.
func (p *Pet) Removed() bool { return p.removed }

func (p *Pet) Update(diff time.Duration) {
	if p.threat.Victim() != nil {
		p.Creature.Update(diff)
		return
	}
	p.updates++
	if p.m == nil {
		return
	}
	o := p.owner
	if o == nil || !o.IsInWorld() || o.m != p.m {
		return
	}
	next, moved := stepToward(p.pos, o.pos, p.speed*float32(diff.Seconds()), petFollowDistance)
	if moved {
		p.m.CreatureRelocation(p, next)
	}
}

// RemoveNotInSlot despawns the pet without keeping it in the owner's slot.
func (p *Pet) RemoveNotInSlot() {
	if p.removed {
		return
	}
	p.removed = true
	p.inSlot = false
	if p.owner != nil && p.owner.pet == p {
		p.owner.pet = nil
	}
	if p.m != nil {
		p.m.RemoveFromMap(p)
	}
}
