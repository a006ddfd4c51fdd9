package system

import (
	"time"

	coresys "github.com/l1jgo/phasesim/internal/core/system"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/world"
)

// InputSystem hands newly connected sessions to the world and runs the
// thread-unsafe packet handlers of every session. Phase 0 (Input).
type InputSystem struct {
	accepted <-chan *net.Session
	world    *world.Manager
}

func NewInputSystem(accepted <-chan *net.Session, w *world.Manager) *InputSystem {
	return &InputSystem{accepted: accepted, world: w}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	for {
		select {
		case sess := <-s.accepted:
			s.world.Accept(sess)
			continue
		default:
		}
		break
	}
	s.world.UpdateSessions(dt)
}
