package system

import "time"

// Phase defines execution ordering within a single server tick.
// Not to be confused with a world phase (partition).
type Phase int

const (
	PhaseInput      Phase = iota // 0: accept sessions, route packets
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: map and phase ticks
	PhasePostUpdate              // 3: reports
	PhaseOutput                  // 4: flush sessions, monitor feed
	PhasePersist                 // 5: removal audit flush
	PhaseCleanup                 // 6: end of tick bookkeeping
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
