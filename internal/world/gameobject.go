package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
)

// GameObjectInfo is the spawn data of a game object.
type GameObjectInfo struct {
	Entry     int32
	Name      string
	Pos       component.Position
	PhaseMask uint32
	// Collision footprint; a zero radius means no model.
	Radius float32
	Height float32
	// Lifetime despawns the object after the given time; 0 keeps it.
	Lifetime time.Duration
	// Path makes the object shuttle through the given points (lifts, carts).
	Path  []component.Position
	Speed float32
}

// GameObject is a placed object. Objects with a collision model are indexed
// in their phase's DynamicTree.
type GameObject struct {
	Object
	home     component.Position
	model    *Model
	lifetime time.Duration
	age      time.Duration
	path     []component.Position
	leg      int
	speed    float32
	updates  int
}

func NewGameObject(info GameObjectInfo) *GameObject {
	g := &GameObject{
		Object:   newObject(component.KindGameObject, info.Name, info.Entry, info.Pos, info.PhaseMask),
		home:     info.Pos,
		lifetime: info.Lifetime,
		path:     info.Path,
		speed:    info.Speed,
	}
	if g.speed <= 0 {
		g.speed = defaultSpeed
	}
	if info.Radius > 0 {
		g.model = &Model{GUID: g.guid, Center: info.Pos, Radius: info.Radius, Height: info.Height}
	}
	return g
}

func (g *GameObject) Update(diff time.Duration) {
	g.updates++
	if g.m == nil {
		return
	}
	g.age += diff
	if g.lifetime > 0 && g.age >= g.lifetime {
		g.m.AddObjectToRemoveList(g)
		return
	}
	if len(g.path) == 0 {
		return
	}
	target := g.path[g.leg]
	next, moved := stepToward(g.pos, target, g.speed*float32(diff.Seconds()), 0)
	if !moved {
		g.leg = (g.leg + 1) % len(g.path)
		return
	}
	next.O = g.pos.O
	g.m.GameObjectRelocation(g, next)
}

// UpdateModelPosition moves the collision model to the current position.
func (g *GameObject) UpdateModelPosition() {
	if g.model == nil || g.m == nil {
		return
	}
	if tree := g.m.treeOf(g.phaseMask); tree != nil {
		tree.Move(g.guid, g.pos)
	}
}

func (g *GameObject) RespawnPosition() component.Position { return g.home }
func (g *GameObject) Model() *Model                       { return g.model }
func (g *GameObject) Updates() int                        { return g.updates }
