package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/phase"
)

const (
	// DefaultActivationRange keeps a 3x3 cell neighbourhood active.
	DefaultActivationRange float32 = 32
	combatLinger                   = 5 * time.Second
)

// Player is a connected user's in-world object.
// Accessed only from the goroutine that owns its current map.
type Player struct {
	Object
	session         *net.Session
	viewpoint       phase.Object
	activationRange float32

	hostiles    []*Creature // creatures that have this player on their threat list
	combatTimer time.Duration

	known map[uint64]*Object // objects this player currently sees
	pet   *Pet

	updates int
}

func NewPlayer(name string, sess *net.Session, pos component.Position, phaseMask uint32) *Player {
	p := &Player{
		Object:          newObject(component.KindPlayer, name, 0, pos, phaseMask),
		session:         sess,
		activationRange: DefaultActivationRange,
		known:           make(map[uint64]*Object),
	}
	if sess != nil {
		sess.Bind(p)
	}
	return p
}

// Session returns the session pump, or nil for players without a connection.
func (p *Player) Session() phase.SessionUpdater {
	if p.session == nil {
		return nil
	}
	return p.session
}

// NetSession returns the underlying connection, or nil.
func (p *Player) NetSession() *net.Session { return p.session }

func (p *Player) Viewpoint() phase.Object       { return p.viewpoint }
func (p *Player) SetViewpoint(obj phase.Object) { p.viewpoint = obj }

func (p *Player) GridActivationRange() float32 { return p.activationRange }

func (p *Player) SetGridActivationRange(r float32) {
	if r > 0 {
		p.activationRange = r
	}
}

func (p *Player) Pet() *Pet { return p.pet }

// IsInCombat reports whether any creature threatens the player or the player
// fought recently.
func (p *Player) IsInCombat() bool {
	return len(p.hostiles) > 0 || p.combatTimer > 0
}

// EnterCombat restarts the combat linger timer.
func (p *Player) EnterCombat() {
	p.combatTimer = combatLinger
}

// ForEachHostile yields every creature with the player on its threat list,
// in the order they engaged.
func (p *Player) ForEachHostile(fn func(owner phase.Object)) {
	for _, c := range p.hostiles {
		fn(c.self)
	}
}

func (p *Player) HostileCount() int { return len(p.hostiles) }

func (p *Player) addHostile(c *Creature) {
	for _, h := range p.hostiles {
		if h == c {
			return
		}
	}
	p.hostiles = append(p.hostiles, c)
}

func (p *Player) removeHostile(c *Creature) {
	for i, h := range p.hostiles {
		if h == c {
			p.hostiles = append(p.hostiles[:i], p.hostiles[i+1:]...)
			return
		}
	}
}

// dropHostiles removes the player from every threat list.
func (p *Player) dropHostiles() {
	for len(p.hostiles) > 0 {
		c := p.hostiles[0]
		c.threat.Remove(p)
		p.removeHostile(c)
	}
}

func (p *Player) Update(diff time.Duration) {
	p.updates++
	if p.combatTimer > 0 {
		p.combatTimer -= diff
	}
}

func (p *Player) Updates() int { return p.updates }

// Send queues a packet for the player's connection.
func (p *Player) Send(data []byte) {
	if p.session != nil {
		p.session.Send(data)
	}
}

// Knows reports whether the player currently sees guid.
func (p *Player) Knows(guid uint64) bool {
	_, ok := p.known[guid]
	return ok
}

func (p *Player) KnownCount() int { return len(p.known) }
