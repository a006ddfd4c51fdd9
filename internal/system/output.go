package system

import (
	"time"

	coresys "github.com/l1jgo/phasesim/internal/core/system"
	"github.com/l1jgo/phasesim/internal/world"
)

// OutputSystem flushes every session's buffered packets. Phase 4 (Output).
type OutputSystem struct {
	world *world.Manager
}

func NewOutputSystem(w *world.Manager) *OutputSystem {
	return &OutputSystem{world: w}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.world.FlushSessions()
}
