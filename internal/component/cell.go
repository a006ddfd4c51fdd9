package component

import "math"

// Cell size and grid size in world units. A grid is the unit of loading;
// a cell is the unit of visiting. A 3x3 cell neighbourhood covers the default
// activation range.
const (
	CellSize     float32 = 32
	CellsPerGrid int32   = 8
	GridSize             = CellSize * float32(CellsPerGrid)
)

// Cell is a cell coordinate on a map.
type Cell struct {
	X int32
	Y int32
}

// Grid is a grid coordinate on a map.
type Grid struct {
	X int32
	Y int32
}

// CellAt returns the cell containing the planar point (x, y).
func CellAt(x, y float32) Cell {
	return Cell{
		X: int32(math.Floor(float64(x / CellSize))),
		Y: int32(math.Floor(float64(y / CellSize))),
	}
}

// CellOf returns the cell containing p.
func CellOf(p Position) Cell {
	return CellAt(p.X, p.Y)
}

// Grid returns the grid this cell belongs to.
func (c Cell) Grid() Grid {
	return Grid{X: floorDiv(c.X, CellsPerGrid), Y: floorDiv(c.Y, CellsPerGrid)}
}

// DiffGrid reports whether c and o lie in different grids.
func (c Cell) DiffGrid(o Cell) bool {
	return c.Grid() != o.Grid()
}

// CellRadius returns how many cells around a centre cell are needed to cover
// a circle of the given world radius.
func CellRadius(radius float32) int32 {
	if radius <= 0 {
		return 0
	}
	return int32(math.Ceil(float64(radius / CellSize)))
}

func floorDiv(v, d int32) int32 {
	q := v / d
	if v%d != 0 && (v < 0) != (d < 0) {
		q--
	}
	return q
}
