package phase

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/net"
	"go.uber.org/zap"
)

// TickReport holds the counters of the last completed tick.
type TickReport = event.PhaseTicked

// Phase is one independently ticking partition of a map. All methods must
// be called from the goroutine that runs the owning map's tick.
type Phase struct {
	mask  uint32
	owner Aggregate
	tree  SpatialTree

	active     *ObjectSet[Object]
	transports *ObjectSet[Transport]
	players    *ObjectSet[Player]

	creatures   MoveList[Creature]
	gameObjects MoveList[GameObject]
	dynObjects  MoveList[DynamicObject]

	hostiles []Object // scratch for far combatants
	tick     uint64
	report   TickReport
	last     TickReport

	bus *event.Bus
	log *zap.Logger
}

// New creates the phase identified by mask on owner. tree and bus may be nil.
func New(owner Aggregate, mask uint32, tree SpatialTree, bus *event.Bus, log *zap.Logger) *Phase {
	return &Phase{
		mask:       mask,
		owner:      owner,
		tree:       tree,
		active:     NewObjectSet[Object](),
		transports: NewObjectSet[Transport](),
		players:    NewObjectSet[Player](),
		hostiles:   make([]Object, 0, 10),
		bus:        bus,
		log:        log.With(zap.Int32("map", owner.ID()), zap.Uint32("phase", mask)),
	}
}

func (p *Phase) Mask() uint32           { return p.mask }
func (p *Phase) Owner() Aggregate       { return p.owner }
func (p *Phase) LastReport() TickReport { return p.last }

// Update runs one tick of the phase. tickDiff advances world objects and
// transports, updateDiff advances players and their sessions.
func (p *Phase) Update(tickDiff, updateDiff time.Duration) {
	start := time.Now()
	p.tick++
	p.report = TickReport{MapID: p.owner.ID(), PhaseMask: p.mask, Tick: p.tick}

	if tickDiff > 0 && p.tree != nil {
		p.tree.Update(tickDiff)
	}

	p.players.Each(func(pl Player) {
		if !pl.IsInWorld() {
			return
		}
		if sess := pl.Session(); sess != nil {
			sess.Update(updateDiff, net.NewMapSessionFilter(sess))
		}
	})

	updater := NewObjectUpdater(tickDiff, p.mask)
	gridVisitor := NewContainerVisitor(StorageGrid, updater)
	worldVisitor := NewContainerVisitor(StorageWorld, updater)

	p.active.Each(func(obj Object) {
		if obj == nil || !obj.IsInWorld() {
			return
		}
		p.visit(obj, gridVisitor, worldVisitor)
	})

	p.players.Each(func(pl Player) {
		if !pl.IsInWorld() {
			return
		}
		pl.Update(updateDiff)
		p.visit(pl, gridVisitor, worldVisitor)

		if vp := pl.Viewpoint(); vp != nil {
			p.visit(vp, gridVisitor, worldVisitor)
		}

		// creatures chasing the player from outside its activation range
		if pl.IsInCombat() {
			p.hostiles = p.hostiles[:0]
			r := pl.GridActivationRange() - 1
			rangeSq := r * r
			pl.ForEachHostile(func(owner Object) {
				if owner == nil {
					return
				}
				if k := owner.Kind(); k != component.KindCreature && k != component.KindPet {
					return
				}
				if owner.FindMap() == pl.FindMap() && owner.Position().ExactDist2dSq(pl.Position()) > rangeSq {
					p.hostiles = append(p.hostiles, owner)
				}
			})
			for _, c := range p.hostiles {
				p.visit(c, gridVisitor, worldVisitor)
			}
			clear(p.hostiles)
		}
	})

	// transports go last so the cells their passengers stand in are loaded
	p.transports.Each(func(t Transport) {
		if !t.IsInWorld() {
			return
		}
		t.Update(tickDiff)
	})

	p.drainMoveLists()

	p.report.Players = p.players.Len()
	p.report.Active = p.active.Len()
	p.report.Transport = p.transports.Len()
	p.report.Duration = time.Since(start)
	p.last = p.report
	event.Emit(p.bus, p.last)
}

func (p *Phase) visit(obj Object, grid, world Visitor) {
	p.owner.VisitNearbyCellsOf(obj, grid, world)
	p.report.Visits++
}

// AddActive keeps obj ticking even when no player is near it.
func (p *Phase) AddActive(obj Object) bool    { return p.active.Add(obj) }
func (p *Phase) RemoveActive(obj Object) bool { return p.active.Remove(obj) }
func (p *Phase) IsActive(obj Object) bool     { return p.active.Contains(obj) }

func (p *Phase) AddTransport(t Transport) bool    { return p.transports.Add(t) }
func (p *Phase) RemoveTransport(t Transport) bool { return p.transports.Remove(t) }

func (p *Phase) AddPlayer(pl Player) bool    { return p.players.Add(pl) }
func (p *Phase) RemovePlayer(pl Player) bool { return p.players.Remove(pl) }
func (p *Phase) PlayerCount() int            { return p.players.Len() }

// EachPlayer walks the registered players. Removal during the walk is safe.
func (p *Phase) EachPlayer(fn func(Player)) {
	p.players.Each(fn)
}
