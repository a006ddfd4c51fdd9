package system

import (
	"time"

	coresys "github.com/l1jgo/phasesim/internal/core/system"
	"github.com/l1jgo/phasesim/internal/monitor"
	"github.com/l1jgo/phasesim/internal/world"
)

// Broadcaster receives world snapshots.
type Broadcaster interface {
	Broadcast(v any)
}

// MonitorSystem pushes a world snapshot to the monitor every N ticks.
// Phase 3 (PostUpdate).
type MonitorSystem struct {
	world *world.Manager
	out   Broadcaster
	every int
	tick  uint64
}

func NewMonitorSystem(w *world.Manager, out Broadcaster, every int) *MonitorSystem {
	if every <= 0 {
		every = 1
	}
	return &MonitorSystem{world: w, out: out, every: every}
}

func (s *MonitorSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *MonitorSystem) Update(_ time.Duration) {
	s.tick++
	if s.tick%uint64(s.every) != 0 {
		return
	}
	s.out.Broadcast(monitor.Capture(s.tick, s.world))
}
