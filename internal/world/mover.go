package world

import (
	"math"
	"math/rand/v2"

	"github.com/l1jgo/phasesim/internal/component"
)

// WanderMover picks a random point within the creature's wander radius
// around its home. Not safe for concurrent use: give every map its own.
type WanderMover struct {
	rng *rand.Rand
}

func NewWanderMover(seed uint64) *WanderMover {
	return &WanderMover{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (w *WanderMover) NextMove(c *Creature) (component.Position, bool) {
	r := c.WanderRadius()
	if r <= 0 {
		return component.Position{}, false
	}
	angle := w.rng.Float64() * 2 * math.Pi
	dist := float32(math.Sqrt(w.rng.Float64())) * r
	home := c.Home()
	return component.Position{
		X: home.X + dist*float32(math.Cos(angle)),
		Y: home.Y + dist*float32(math.Sin(angle)),
		Z: home.Z,
		O: float32(angle),
	}, true
}
