package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/ecs"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/phase"
	"go.uber.org/zap"
)

var (
	ErrGridNotLoaded = errors.New("grid not loaded")
	ErrAlreadyOnMap  = errors.New("object already on a map")
	ErrUnknownPhase  = errors.New("unknown phase")
)

// Zone is a named rectangle of a map.
type Zone struct {
	ID   int32
	MinX float32
	MinY float32
	MaxX float32
	MaxY float32
}

// Settings tunes a Map.
type Settings struct {
	// ActivationRange is the visit radius around active objects. Players
	// take it over when they enter the map.
	ActivationRange float32
	// VisibilityRange is how far players see objects.
	VisibilityRange float32
	TreeRebalance   time.Duration
	// GridUnloadDelay unloads grids nobody visited for this long; 0 keeps
	// every grid loaded.
	GridUnloadDelay time.Duration
	Zones           []Zone
}

func (s *Settings) withDefaults() {
	if s.ActivationRange <= 0 {
		s.ActivationRange = DefaultActivationRange
	}
	if s.VisibilityRange <= 0 {
		s.VisibilityRange = 2 * component.CellSize
	}
	if s.TreeRebalance <= 0 {
		s.TreeRebalance = DefaultTreeRebalance
	}
}

// RespawnResolver can override where a creature or game object respawns.
type RespawnResolver interface {
	RespawnPosition(m *Map, obj phase.Object, home component.Position) component.Position
}

// GridLoader populates a grid when it gets loaded.
type GridLoader interface {
	LoadGrid(m *Map, g component.Grid)
}

type mapPhase struct {
	phase *phase.Phase
	tree  *DynamicTree
}

type mapEntry struct {
	obj worldObject
}

// Map owns every object placed on it, the cell grid, and one phase per
// phase mask. All methods must run on the goroutine ticking the map, except
// where noted.
type Map struct {
	id       int32
	name     string
	settings Settings

	ecs     *ecs.World
	objects *ecs.Store[mapEntry]
	byGUID  map[uint64]ecs.EntityID

	grid   *GridMap
	phases map[uint32]*mapPhase
	order  []uint32

	respawn RespawnResolver
	loader  GridLoader

	tick        uint64
	lastRemoved int
	lastUpdate  time.Time
	now         func() time.Time

	bus *event.Bus
	log *zap.Logger
}

func NewMap(id int32, name string, settings Settings, bus *event.Bus, log *zap.Logger) *Map {
	settings.withDefaults()
	m := &Map{
		id:       id,
		name:     name,
		settings: settings,
		ecs:      ecs.NewWorld(),
		objects:  ecs.NewStore[mapEntry](),
		byGUID:   make(map[uint64]ecs.EntityID),
		grid:     NewGridMap(),
		phases:   make(map[uint32]*mapPhase),
		now:      time.Now,
		bus:      bus,
		log:      log.With(zap.Int32("map", id)),
	}
	m.ecs.Registry().OnRemove(m.detach)
	m.ecs.Registry().Register(m.objects)
	return m
}

func (m *Map) ID() int32          { return m.id }
func (m *Map) Name() string       { return m.name }
func (m *Map) Settings() Settings { return m.settings }
func (m *Map) Grid() *GridMap     { return m.grid }
func (m *Map) Tick() uint64       { return m.tick }
func (m *Map) LastRemoved() int   { return m.lastRemoved }
func (m *Map) ObjectCount() int   { return m.objects.Len() }

func (m *Map) SetRespawnResolver(r RespawnResolver) { m.respawn = r }
func (m *Map) SetGridLoader(l GridLoader)           { m.loader = l }

// AddPhase creates the phase for mask. Adding an existing mask returns the
// existing phase.
func (m *Map) AddPhase(mask uint32) *phase.Phase {
	if ps, ok := m.phases[mask]; ok {
		return ps.phase
	}
	tree := NewDynamicTree(m.settings.TreeRebalance)
	ps := &mapPhase{tree: tree}
	ps.phase = phase.New(m, mask, tree, m.bus, m.log)
	m.phases[mask] = ps
	m.order = append(m.order, mask)
	sort.Slice(m.order, func(i, j int) bool { return m.order[i] < m.order[j] })
	return ps.phase
}

// Phase returns the phase for mask, or nil.
func (m *Map) Phase(mask uint32) *phase.Phase {
	if ps, ok := m.phases[mask]; ok {
		return ps.phase
	}
	return nil
}

// Phases returns the phases in mask order.
func (m *Map) Phases() []*phase.Phase {
	out := make([]*phase.Phase, 0, len(m.order))
	for _, mask := range m.order {
		out = append(out, m.phases[mask].phase)
	}
	return out
}

// Tree returns the spatial index of the phase for mask, or nil.
func (m *Map) Tree(mask uint32) *DynamicTree {
	return m.treeOf(mask)
}

func (m *Map) treeOf(mask uint32) *DynamicTree {
	if ps, ok := m.phases[mask]; ok {
		return ps.tree
	}
	return nil
}

// Update ticks every phase in mask order, then removes the objects queued
// on the remove list and unloads idle grids. World objects advance by the
// fixed step diff. Players and sessions advance by the wall time since this
// map last ticked, which is longer than diff when the map waited for a
// worker.
func (m *Map) Update(diff time.Duration) {
	m.tick++
	now := m.now()
	updateDiff := diff
	if !m.lastUpdate.IsZero() {
		updateDiff = max(diff, now.Sub(m.lastUpdate))
	}
	m.lastUpdate = now

	for _, mask := range m.order {
		m.grid.ResetMarks()
		m.phases[mask].phase.Update(diff, updateDiff)
	}
	m.lastRemoved = m.ProcessRemoveList()

	for _, g := range m.grid.sweep(diff, m.settings.GridUnloadDelay) {
		m.UnloadGrid(g)
	}
}

// Reports returns the last tick report of every phase.
func (m *Map) Reports() []phase.TickReport {
	out := make([]phase.TickReport, 0, len(m.order))
	for _, mask := range m.order {
		out = append(out, m.phases[mask].phase.LastReport())
	}
	return out
}

// --- grids ---

func (m *Map) IsGridLoaded(g component.Grid) bool {
	return m.grid.IsLoaded(g)
}

// IsLoadedAt reports whether the grid under pos is loaded.
func (m *Map) IsLoadedAt(pos component.Position) bool {
	return m.grid.IsCellLoaded(component.CellOf(pos))
}

// LoadGrid loads g and lets the grid loader populate it. Returns false if g
// was already loaded.
func (m *Map) LoadGrid(g component.Grid) bool {
	if !m.grid.load(g) {
		return false
	}
	m.log.Debug("grid loaded", zap.Int32("gx", g.X), zap.Int32("gy", g.Y))
	if m.loader != nil {
		m.loader.LoadGrid(m, g)
	}
	return true
}

// EnsureGridsLoaded loads every grid within radius of pos.
func (m *Map) EnsureGridsLoaded(pos component.Position, radius float32) {
	for _, g := range GridsInArea(pos, radius) {
		m.LoadGrid(g)
	}
}

// UnloadGrid drops g and the grid-bound objects in it. Grids holding
// players, pets or active objects stay loaded.
func (m *Map) UnloadGrid(g component.Grid) bool {
	if !m.grid.IsLoaded(g) {
		return false
	}
	var doomed []worldObject
	busy := false
	m.grid.EachInGrid(g, func(_ component.Cell, cd *cellData) {
		if len(cd.world.objects) > 0 {
			busy = true
		}
		for _, obj := range cd.grid.objects {
			if m.isActiveObject(obj) {
				busy = true
			}
			doomed = append(doomed, obj)
		}
	})
	if busy {
		return false
	}
	for _, obj := range doomed {
		m.RemoveFromMap(obj)
	}
	m.grid.unload(g)
	m.log.Debug("grid unloaded", zap.Int32("gx", g.X), zap.Int32("gy", g.Y), zap.Int("objects", len(doomed)))
	return true
}

// --- membership ---

func (m *Map) add(obj worldObject, storage phase.StorageKind, filed bool) (*mapPhase, error) {
	b := obj.base()
	if b.m != nil {
		return nil, fmt.Errorf("%s %d: %w", b.kind, b.guid, ErrAlreadyOnMap)
	}
	ps, ok := m.phases[b.phaseMask]
	if !ok {
		return nil, fmt.Errorf("map %d phase %d: %w", m.id, b.phaseMask, ErrUnknownPhase)
	}
	cell := component.CellOf(b.pos)
	if filed && storage == phase.StorageGrid && !m.grid.IsCellLoaded(cell) {
		return nil, fmt.Errorf("map %d cell (%d,%d): %w", m.id, cell.X, cell.Y, ErrGridNotLoaded)
	}

	id := m.ecs.CreateEntity()
	m.objects.Set(id, &mapEntry{obj: obj})
	m.byGUID[b.guid] = id

	b.m = m
	b.entity = id
	b.cell = cell
	b.storage = storage
	b.filed = filed
	b.inWorld = true
	b.moveState = component.MoveNone
	if filed {
		m.grid.Add(obj, cell, storage)
	}
	b.UpdatePositionData()
	return ps, nil
}

// AddCreature places c. Its grid must be loaded unless it is active, in
// which case the grid is loaded for it.
func (m *Map) AddCreature(c *Creature) error {
	if c.active {
		m.LoadGrid(component.CellOf(c.pos).Grid())
	}
	ps, err := m.add(c, phase.StorageGrid, true)
	if err != nil {
		return err
	}
	if c.active {
		ps.phase.AddActive(c)
	}
	c.UpdateObjectVisibility(true)
	return nil
}

// AddPet places p next to its owner.
func (m *Map) AddPet(p *Pet) error {
	if _, err := m.add(p, phase.StorageWorld, true); err != nil {
		return err
	}
	p.UpdateObjectVisibility(true)
	return nil
}

func (m *Map) AddGameObject(g *GameObject) error {
	ps, err := m.add(g, phase.StorageGrid, true)
	if err != nil {
		return err
	}
	if g.model != nil {
		g.model.Center = g.pos
		ps.tree.Insert(g.model)
	}
	g.UpdateObjectVisibility(true)
	return nil
}

func (m *Map) AddDynamicObject(d *DynamicObject) error {
	if _, err := m.add(d, phase.StorageGrid, true); err != nil {
		return err
	}
	d.UpdateObjectVisibility(true)
	return nil
}

// AddTransport registers t with its phase. Transports are not filed in cells.
func (m *Map) AddTransport(t *Transport) error {
	ps, err := m.add(t, phase.StorageWorld, false)
	if err != nil {
		return err
	}
	ps.phase.AddTransport(t)
	t.UpdateObjectVisibility(true)
	return nil
}

// AddPlayer places p, loading the grids of its activation area.
func (m *Map) AddPlayer(p *Player) error {
	p.SetGridActivationRange(m.settings.ActivationRange)
	m.EnsureGridsLoaded(p.pos, p.activationRange)
	ps, err := m.add(p, phase.StorageWorld, true)
	if err != nil {
		return err
	}
	ps.phase.AddPlayer(p)
	if p.session != nil {
		p.session.SetState(packet.StateInWorld)
	}
	p.UpdateObjectVisibility(true)
	return nil
}

// Find returns the object with guid, or nil.
func (m *Map) Find(guid uint64) phase.Object {
	if obj := m.lookup(guid); obj != nil {
		return obj
	}
	return nil
}

func (m *Map) lookup(guid uint64) worldObject {
	id, ok := m.byGUID[guid]
	if !ok {
		return nil
	}
	e, ok := m.objects.Get(id)
	if !ok {
		return nil
	}
	return e.obj
}

// RemoveFromMap drops obj immediately.
func (m *Map) RemoveFromMap(obj phase.Object) bool {
	wo, ok := obj.(worldObject)
	if !ok || wo.base().m != m {
		return false
	}
	return m.ecs.DestroyEntity(wo.base().entity)
}

// AddObjectToRemoveList queues obj for removal after the tick. Repeated
// calls within one tick queue it once.
func (m *Map) AddObjectToRemoveList(obj phase.Object) {
	wo, ok := obj.(worldObject)
	if !ok || wo.base().m != m {
		return
	}
	if m.ecs.MarkForDestruction(wo.base().entity) {
		m.log.Debug("object queued for removal", zap.Uint64("guid", obj.GUID()), zap.Stringer("kind", obj.Kind()))
	}
}

// IsQueuedForRemoval reports whether obj waits on the remove list.
func (m *Map) IsQueuedForRemoval(obj phase.Object) bool {
	wo, ok := obj.(worldObject)
	if !ok || wo.base().m != m {
		return false
	}
	return m.ecs.IsMarked(wo.base().entity)
}

// RemoveListLen returns how many objects wait on the remove list.
func (m *Map) RemoveListLen() int {
	return len(m.ecs.PendingDestruction())
}

// ProcessRemoveList removes every queued object and returns the count.
func (m *Map) ProcessRemoveList() int {
	return m.ecs.FlushDestroyQueue()
}

// detach runs for every object leaving the map, immediately or through the
// remove list.
func (m *Map) detach(id ecs.EntityID) {
	e, ok := m.objects.Get(id)
	if !ok {
		return
	}
	obj := e.obj
	b := obj.base()
	deferred := m.ecs.IsMarked(id)

	if b.filed {
		m.grid.Remove(obj, b.cell, b.storage)
	}
	ps := m.phases[b.phaseMask]
	ps.phase.RemoveActive(obj)

	switch o := obj.(type) {
	case *Player:
		ps.phase.RemovePlayer(o)
		o.dropHostiles()
		m.forgetView(o)
		if o.session != nil && o.session.State() == packet.StateInWorld {
			o.session.SetState(packet.StateAuthenticated)
		}
	case *Pet:
		o.threat.Clear()
	case *Creature:
		o.threat.Clear()
	case *GameObject:
		ps.tree.Remove(o.guid)
	case *Transport:
		ps.phase.RemoveTransport(o)
	}
	m.hideFromObservers(b)

	// an object leaving the map must be enqueueable wherever it goes next
	b.moveState = component.MoveNone
	b.inWorld = false
	b.m = nil
	b.entity = 0
	b.filed = false
	delete(m.byGUID, b.guid)

	event.Emit(m.bus, event.ObjectRemoved{
		MapID:    m.id,
		GUID:     b.guid,
		Kind:     b.kind,
		Entry:    b.entry,
		Name:     b.name,
		Position: b.pos,
		Deferred: deferred,
		At:       time.Now(),
	})
}

// ZoneAt returns the id of the first zone containing pos, or 0.
func (m *Map) ZoneAt(pos component.Position) int32 {
	for _, z := range m.settings.Zones {
		if pos.X >= z.MinX && pos.X < z.MaxX && pos.Y >= z.MinY && pos.Y < z.MaxY {
			return z.ID
		}
	}
	return 0
}

// --- visiting ---

// VisitNearbyCellsOf applies both visitors to every loaded cell within the
// activation range of obj. Each cell is visited at most once per phase tick;
// the grids of the whole area are kept from unloading.
func (m *Map) VisitNearbyCellsOf(obj phase.Object, grid, world phase.Visitor) {
	pos := obj.Position()
	radius := m.activationRangeOf(obj)

	for _, g := range GridsInArea(pos, radius) {
		m.grid.touch(g)
	}
	m.grid.EachInArea(pos, radius, func(c component.Cell, _ *cellData) {
		if !m.grid.IsCellLoaded(c) {
			return
		}
		cd, seen := m.grid.mark(c)
		if seen || cd == nil {
			return
		}
		grid.Visit(&cd.grid)
		world.Visit(&cd.world)
	})
}

func (m *Map) activationRangeOf(obj phase.Object) float32 {
	if r, ok := obj.(interface{ GridActivationRange() float32 }); ok {
		return r.GridActivationRange()
	}
	return m.settings.ActivationRange
}

// isActiveObject reports whether obj may load grids by moving into them.
func (m *Map) isActiveObject(obj worldObject) bool {
	if obj.Kind() == component.KindPlayer {
		return true
	}
	ps, ok := m.phases[obj.PhaseMask()]
	return ok && ps.phase.IsActive(obj)
}
