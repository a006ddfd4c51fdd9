package system

import (
	"context"
	"time"

	"github.com/l1jgo/phasesim/internal/core/event"
	coresys "github.com/l1jgo/phasesim/internal/core/system"
	"github.com/l1jgo/phasesim/internal/persist"
	"go.uber.org/zap"
)

const flushTimeout = 5 * time.Second

// RemovalAuditSystem records every object a map drops and writes the batch
// to the database periodically. Phase 5 (Persist).
type RemovalAuditSystem struct {
	log      *persist.RemovalLog
	interval time.Duration
	elapsed  time.Duration
	zlog     *zap.Logger
}

// NewRemovalAuditSystem subscribes rl to removal and relocation failure
// events on bus.
func NewRemovalAuditSystem(bus *event.Bus, rl *persist.RemovalLog, interval time.Duration, log *zap.Logger) *RemovalAuditSystem {
	event.Subscribe(bus, rl.NoteFailure)
	event.Subscribe(bus, rl.Add)
	return &RemovalAuditSystem{log: rl, interval: interval, zlog: log}
}

func (s *RemovalAuditSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *RemovalAuditSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Flush()
}

// Flush writes everything buffered. Called on shutdown as well.
func (s *RemovalAuditSystem) Flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.log.Flush(ctx); err != nil {
		s.zlog.Error("removal log flush failed",
			zap.Int("pending", s.log.Pending()),
			zap.Error(err),
		)
	}
}
