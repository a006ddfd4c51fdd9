package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
)

// DefaultTreeRebalance is how often a DynamicTree refiles moved models.
const DefaultTreeRebalance = time.Second

// Model is the collision footprint of a game object: a vertical cylinder.
type Model struct {
	GUID   uint64
	Center component.Position
	Radius float32
	Height float32

	filed component.Position // centre the cells were computed from
	cells []component.Cell
	dirty bool
}

// DynamicTree indexes the collision models of one phase. Moves are cheap:
// they mark the model dirty, and dirty models are refiled into cells on the
// rebalance period driven by Update. Queries between rebalances see the old
// footprint of moved models, like any lazily rebuilt broad phase.
type DynamicTree struct {
	period  time.Duration
	elapsed time.Duration

	models map[uint64]*Model
	cells  map[component.Cell][]uint64
	dirty  []uint64

	rebuilds int
}

func NewDynamicTree(period time.Duration) *DynamicTree {
	if period <= 0 {
		period = DefaultTreeRebalance
	}
	return &DynamicTree{
		period: period,
		models: make(map[uint64]*Model),
		cells:  make(map[component.Cell][]uint64),
	}
}

// Insert files m immediately.
func (t *DynamicTree) Insert(m *Model) {
	if old, ok := t.models[m.GUID]; ok {
		t.unfile(old)
	}
	t.models[m.GUID] = m
	t.file(m)
}

func (t *DynamicTree) Remove(guid uint64) {
	m, ok := t.models[guid]
	if !ok {
		return
	}
	t.unfile(m)
	delete(t.models, guid)
}

// Move records a new centre for guid; the cells follow on the next rebalance.
func (t *DynamicTree) Move(guid uint64, center component.Position) {
	m, ok := t.models[guid]
	if !ok {
		return
	}
	m.Center = center
	if !m.dirty {
		m.dirty = true
		t.dirty = append(t.dirty, guid)
	}
}

// Update advances the rebalance clock.
func (t *DynamicTree) Update(diff time.Duration) {
	t.elapsed += diff
	if t.elapsed < t.period {
		return
	}
	t.elapsed = 0
	t.rebalance()
}

func (t *DynamicTree) rebalance() {
	for _, guid := range t.dirty {
		m, ok := t.models[guid]
		if !ok || !m.dirty {
			continue
		}
		t.unfile(m)
		t.file(m)
		m.dirty = false
	}
	t.dirty = t.dirty[:0]
	t.rebuilds++
}

// Rebuilds returns how many rebalances have run.
func (t *DynamicTree) Rebuilds() int { return t.rebuilds }

// Len returns the number of indexed models.
func (t *DynamicTree) Len() int { return len(t.models) }

// Query returns the GUIDs of models whose filed footprint contains p.
func (t *DynamicTree) Query(p component.Position) []uint64 {
	var hits []uint64
	for _, guid := range t.cells[component.CellOf(p)] {
		m := t.models[guid]
		if m == nil {
			continue
		}
		if p.Z < m.filed.Z || p.Z > m.filed.Z+m.Height {
			continue
		}
		if m.filed.ExactDist2dSq(p) <= m.Radius*m.Radius {
			hits = append(hits, guid)
		}
	}
	return hits
}

func (t *DynamicTree) file(m *Model) {
	lo := component.CellAt(m.Center.X-m.Radius, m.Center.Y-m.Radius)
	hi := component.CellAt(m.Center.X+m.Radius, m.Center.Y+m.Radius)
	m.filed = m.Center
	m.cells = m.cells[:0]
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			c := component.Cell{X: x, Y: y}
			m.cells = append(m.cells, c)
			t.cells[c] = append(t.cells[c], m.GUID)
		}
	}
}

func (t *DynamicTree) unfile(m *Model) {
	for _, c := range m.cells {
		ids := t.cells[c]
		for i, id := range ids {
			if id != m.GUID {
				continue
			}
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			break
		}
		if len(ids) == 0 {
			delete(t.cells, c)
		} else {
			t.cells[c] = ids
		}
	}
	m.cells = m.cells[:0]
}
