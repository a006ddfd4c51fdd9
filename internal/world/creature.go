package world

import (
	"math"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/phase"
)

const (
	defaultMoveInterval = 2 * time.Second
	defaultSpeed        = 4 // units per second
	meleeRange          = 2
	defaultLeashRange   = 120
	arrivalEpsilon      = 0.01
)

// Mover decides where an idle creature walks next.
type Mover interface {
	NextMove(c *Creature) (component.Position, bool)
}

// CreatureInfo is the spawn data of a creature.
type CreatureInfo struct {
	Entry        int32
	Name         string
	Home         component.Position
	PhaseMask    uint32
	Active       bool    // keep ticking without players nearby
	WanderRadius float32 // 0 = stand still
	Speed        float32 // units per second
	MoveInterval time.Duration
	LeashRange   float32
	// Seats makes the creature a vehicle with one seat per passenger offset.
	Seats []component.Position
}

// Creature is a map-owned NPC. Accessed only from its map's goroutine.
type Creature struct {
	Object
	self phase.Creature // outermost kind (the Pet wrapping this creature, if any)

	home         component.Position
	wanderRadius float32
	speed        float32
	leashRange   float32
	active       bool

	mover        Mover
	moveInterval time.Duration
	moveTimer    time.Duration

	threat  ThreatList
	vehicle *Vehicle

	updates int
}

func NewCreature(info CreatureInfo) *Creature {
	c := &Creature{}
	c.init(component.KindCreature, info)
	return c
}

func (c *Creature) init(kind component.ObjectKind, info CreatureInfo) {
	c.Object = newObject(kind, info.Name, info.Entry, info.Home, info.PhaseMask)
	c.self = c
	c.home = info.Home
	c.wanderRadius = info.WanderRadius
	c.speed = info.Speed
	if c.speed <= 0 {
		c.speed = defaultSpeed
	}
	c.leashRange = info.LeashRange
	if c.leashRange <= 0 {
		c.leashRange = defaultLeashRange
	}
	c.active = info.Active
	c.moveInterval = info.MoveInterval
	if c.moveInterval <= 0 {
		c.moveInterval = defaultMoveInterval
	}
	c.moveTimer = c.moveInterval
	c.threat.owner = c
	if len(info.Seats) > 0 {
		c.InstallVehicle(info.Seats...)
	}
}

// SetMover installs the idle movement generator.
func (c *Creature) SetMover(m Mover) { c.mover = m }

func (c *Creature) Home() component.Position     { return c.home }
func (c *Creature) WanderRadius() float32        { return c.wanderRadius }
func (c *Creature) IsActive() bool               { return c.active }
func (c *Creature) Threat() *ThreatList          { return &c.threat }
func (c *Creature) Updates() int                 { return c.updates }
func (c *Creature) SetHome(p component.Position) { c.home = p }

// Update runs the creature's AI for one tick: chase the top threat, or
// wander when idle.
func (c *Creature) Update(diff time.Duration) {
	c.updates++
	if c.m == nil {
		return
	}

	if victim := c.threat.Victim(); victim != nil {
		if !victim.IsInWorld() || victim.m != c.m {
			c.threat.Remove(victim)
			return
		}
		c.chase(victim, diff)
		return
	}

	if c.mover == nil {
		return
	}
	c.moveTimer -= diff
	if c.moveTimer > 0 {
		return
	}
	c.moveTimer = c.moveInterval
	if pos, ok := c.mover.NextMove(c); ok {
		c.m.CreatureRelocation(c.self, pos)
	}
}

// chase steps toward victim, or gives up and walks home when dragged past
// the leash range.
func (c *Creature) chase(victim *Player, diff time.Duration) {
	if c.pos.ExactDist2dSq(c.home) > c.leashRange*c.leashRange {
		c.threat.Clear()
		c.m.CreatureRelocation(c.self, c.home)
		return
	}
	next, moved := stepToward(c.pos, victim.pos, c.speed*float32(diff.Seconds()), meleeRange)
	if moved {
		c.m.CreatureRelocation(c.self, next)
	}
}

// AddThreat puts p on the creature's threat list and the player into combat.
func (c *Creature) AddThreat(p *Player, amount float32) {
	c.threat.Add(p, amount)
	p.EnterCombat()
}

// RespawnPosition is where the map puts the creature when its destination
// cannot be loaded.
func (c *Creature) RespawnPosition() component.Position { return c.home }

func (c *Creature) IsVehicle() bool { return c.vehicle != nil }

// Vehicle returns the seats of a vehicle creature, or nil.
func (c *Creature) Vehicle() *Vehicle { return c.vehicle }

// InstallVehicle turns the creature into a vehicle with one seat per offset.
func (c *Creature) InstallVehicle(offsets ...component.Position) *Vehicle {
	c.vehicle = &Vehicle{owner: c, seats: make([]seat, len(offsets))}
	for i, off := range offsets {
		c.vehicle.seats[i].offset = off
	}
	return c.vehicle
}

// RelocatePassengers moves every seated passenger along with the vehicle.
func (c *Creature) RelocatePassengers() {
	if c.vehicle == nil || c.m == nil {
		return
	}
	for _, s := range c.vehicle.seats {
		if s.passenger == nil {
			continue
		}
		c.m.relocatePassenger(s.passenger, c.pos.Offset(s.offset))
	}
}

type seat struct {
	offset    component.Position
	passenger worldObject
}

// Vehicle holds the passengers of a vehicle creature.
type Vehicle struct {
	owner *Creature
	seats []seat
}

// Board seats obj. Returns false when the seat is taken or out of range.
func (v *Vehicle) Board(obj phase.Object, idx int) bool {
	wo, ok := obj.(worldObject)
	if !ok || idx < 0 || idx >= len(v.seats) || v.seats[idx].passenger != nil {
		return false
	}
	v.seats[idx].passenger = wo
	return true
}

// Unboard frees whichever seat obj occupies.
func (v *Vehicle) Unboard(obj phase.Object) {
	for i := range v.seats {
		if v.seats[i].passenger != nil && v.seats[i].passenger.GUID() == obj.GUID() {
			v.seats[i].passenger = nil
		}
	}
}

// Passengers returns the number of occupied seats.
func (v *Vehicle) Passengers() int {
	n := 0
	for _, s := range v.seats {
		if s.passenger != nil {
			n++
		}
	}
	return n
}

// stepToward moves from toward to by at most step, stopping stop units short.
func stepToward(from, to component.Position, step, stop float32) (component.Position, bool) {
	dist := from.ExactDist2d(to)
	if dist <= stop+arrivalEpsilon || step <= 0 {
		return from, false
	}
	travel := dist - stop
	if step < travel {
		travel = step
	}
	dx, dy := (to.X-from.X)/dist, (to.Y-from.Y)/dist
	next := component.Position{
		X: from.X + dx*travel,
		Y: from.Y + dy*travel,
		Z: to.Z,
		O: float32(math.Atan2(float64(dy), float64(dx))),
	}
	return next, true
}
