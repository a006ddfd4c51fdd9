package scripting

import (
	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/phase"
	"github.com/l1jgo/phasesim/internal/world"
)

// Mover lets Lua pick wander targets. Creatures fall back to fallback when
// the script has no answer.
type Mover struct {
	engine   *Engine
	fallback world.Mover
}

func NewMover(e *Engine, fallback world.Mover) *Mover {
	return &Mover{engine: e, fallback: fallback}
}

func (m *Mover) NextMove(c *world.Creature) (component.Position, bool) {
	ctx := WanderContext{
		Entry:  c.Entry(),
		Pos:    c.Position(),
		Home:   c.Home(),
		Radius: c.WanderRadius(),
	}
	if wm := c.Map(); wm != nil {
		ctx.MapID = wm.ID()
	}
	if p, ok := m.engine.NextWander(ctx); ok {
		return p, true
	}
	if m.fallback != nil {
		return m.fallback.NextMove(c)
	}
	return component.Position{}, false
}

// RespawnResolver lets Lua override respawn points.
type RespawnResolver struct {
	engine *Engine
}

func NewRespawnResolver(e *Engine) *RespawnResolver {
	return &RespawnResolver{engine: e}
}

func (r *RespawnResolver) RespawnPosition(m *world.Map, obj phase.Object, home component.Position) component.Position {
	ctx := RespawnContext{
		MapID: m.ID(),
		GUID:  obj.GUID(),
		Kind:  obj.Kind(),
		Home:  home,
	}
	if e, ok := obj.(interface{ Entry() int32 }); ok {
		ctx.Entry = e.Entry()
	}
	if p, ok := r.engine.GetRespawnLocation(ctx); ok {
		return p
	}
	return home
}
