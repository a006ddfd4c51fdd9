package component

import "math"

// Position is a world coordinate plus facing. Pure data; Map and phase code
// own every mutation.
type Position struct {
	X float32
	Y float32
	Z float32
	O float32 // orientation in radians
}

// Pos is shorthand for a Position without orientation.
func Pos(x, y, z float32) Position {
	return Position{X: x, Y: y, Z: z}
}

// ExactDist2dSq returns the squared planar distance between p and q.
func (p Position) ExactDist2dSq(q Position) float32 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// ExactDist2d returns the planar distance between p and q.
func (p Position) ExactDist2d(q Position) float32 {
	return float32(math.Sqrt(float64(p.ExactDist2dSq(q))))
}

// Offset returns p translated by d (orientation is kept from p).
func (p Position) Offset(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z, O: p.O}
}

// Sub returns the translation from q to p.
func (p Position) Sub(q Position) Position {
	return Position{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}
