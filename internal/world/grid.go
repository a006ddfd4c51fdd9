package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/phase"
)

// bucket is one storage container of a cell. Iteration tolerates appends
// and removals made by the visited objects themselves.
type bucket struct {
	storage phase.StorageKind
	objects []worldObject
}

func (b *bucket) Storage() phase.StorageKind { return b.storage }

func (b *bucket) Each(fn func(phase.Object)) {
	n := len(b.objects)
	for i := 0; i < n && i < len(b.objects); i++ {
		fn(b.objects[i])
	}
}

func (b *bucket) add(obj worldObject) {
	b.objects = append(b.objects, obj)
}

func (b *bucket) remove(obj worldObject) bool {
	for i, o := range b.objects {
		if o.GUID() != obj.GUID() {
			continue
		}
		copy(b.objects[i:], b.objects[i+1:])
		b.objects[len(b.objects)-1] = nil
		b.objects = b.objects[:len(b.objects)-1]
		return true
	}
	return false
}

type cellData struct {
	grid  bucket
	world bucket
	mark  uint64 // visit stamp of the last VisitNearbyCellsOf that covered it
}

func (c *cellData) empty() bool {
	return len(c.grid.objects) == 0 && len(c.world.objects) == 0
}

func (c *cellData) bucket(storage phase.StorageKind) *bucket {
	if storage == phase.StorageWorld {
		return &c.world
	}
	return &c.grid
}

type gridState struct {
	touched bool          // covered by a visit since the last sweep
	idle    time.Duration // time since the grid was last touched
}

// GridMap files objects into cells and tracks which grids are loaded.
// Cell size is chosen so that an activation range spans a handful of cells.
// Accessed only from the map's goroutine; no locks.
type GridMap struct {
	cells  map[component.Cell]*cellData
	loaded map[component.Grid]*gridState
	stamp  uint64
}

func NewGridMap() *GridMap {
	return &GridMap{
		cells:  make(map[component.Cell]*cellData),
		loaded: make(map[component.Grid]*gridState),
		stamp:  1,
	}
}

func (g *GridMap) IsLoaded(gr component.Grid) bool {
	_, ok := g.loaded[gr]
	return ok
}

func (g *GridMap) IsCellLoaded(c component.Cell) bool {
	return g.IsLoaded(c.Grid())
}

func (g *GridMap) load(gr component.Grid) bool {
	if g.IsLoaded(gr) {
		return false
	}
	g.loaded[gr] = &gridState{}
	return true
}

func (g *GridMap) unload(gr component.Grid) {
	delete(g.loaded, gr)
}

// LoadedGrids returns the number of loaded grids.
func (g *GridMap) LoadedGrids() int {
	return len(g.loaded)
}

func (g *GridMap) touch(gr component.Grid) {
	if st, ok := g.loaded[gr]; ok {
		st.touched = true
	}
}

// sweep ages every loaded grid by diff and returns those idle for at least
// delay.
func (g *GridMap) sweep(diff, delay time.Duration) []component.Grid {
	var idle []component.Grid
	for gr, st := range g.loaded {
		if st.touched {
			st.touched = false
			st.idle = 0
			continue
		}
		st.idle += diff
		if delay > 0 && st.idle >= delay {
			idle = append(idle, gr)
		}
	}
	return idle
}

// Add files obj under cell c.
func (g *GridMap) Add(obj worldObject, c component.Cell, storage phase.StorageKind) {
	cd := g.cells[c]
	if cd == nil {
		cd = &cellData{grid: bucket{storage: phase.StorageGrid}, world: bucket{storage: phase.StorageWorld}}
		g.cells[c] = cd
	}
	cd.bucket(storage).add(obj)
}

// Remove takes obj out of cell c.
func (g *GridMap) Remove(obj worldObject, c component.Cell, storage phase.StorageKind) bool {
	cd := g.cells[c]
	if cd == nil {
		return false
	}
	ok := cd.bucket(storage).remove(obj)
	if cd.empty() && cd.mark != g.stamp {
		delete(g.cells, c)
	}
	return ok
}

// Move refiles obj from one cell to another.
func (g *GridMap) Move(obj worldObject, from, to component.Cell, storage phase.StorageKind) {
	if from == to {
		return
	}
	g.Remove(obj, from, storage)
	g.Add(obj, to, storage)
}

// ResetMarks forgets which cells were visited.
func (g *GridMap) ResetMarks() {
	g.stamp++
}

// mark flags c as visited for the current stamp and reports whether it was
// already visited.
func (g *GridMap) mark(c component.Cell) (*cellData, bool) {
	cd := g.cells[c]
	if cd == nil {
		return nil, false
	}
	if cd.mark == g.stamp {
		return cd, true
	}
	cd.mark = g.stamp
	return cd, false
}

// EachInArea calls fn for every non-empty cell within radius of p.
func (g *GridMap) EachInArea(p component.Position, radius float32, fn func(component.Cell, *cellData)) {
	center := component.CellOf(p)
	r := component.CellRadius(radius)
	for x := center.X - r; x <= center.X+r; x++ {
		for y := center.Y - r; y <= center.Y+r; y++ {
			c := component.Cell{X: x, Y: y}
			if cd := g.cells[c]; cd != nil {
				fn(c, cd)
			}
		}
	}
}

// EachInGrid calls fn for every non-empty cell of grid gr.
func (g *GridMap) EachInGrid(gr component.Grid, fn func(component.Cell, *cellData)) {
	x0, y0 := gr.X*component.CellsPerGrid, gr.Y*component.CellsPerGrid
	for x := x0; x < x0+component.CellsPerGrid; x++ {
		for y := y0; y < y0+component.CellsPerGrid; y++ {
			c := component.Cell{X: x, Y: y}
			if cd := g.cells[c]; cd != nil {
				fn(c, cd)
			}
		}
	}
}

// GridsInArea returns the grids overlapped by the square of the given radius
// around p.
func GridsInArea(p component.Position, radius float32) []component.Grid {
	lo := component.CellAt(p.X-radius, p.Y-radius).Grid()
	hi := component.CellAt(p.X+radius, p.Y+radius).Grid()
	grids := make([]component.Grid, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			grids = append(grids, component.Grid{X: x, Y: y})
		}
	}
	return grids
}
