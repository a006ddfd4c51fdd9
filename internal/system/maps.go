package system

import (
	"fmt"
	"runtime"
	"time"

	coresys "github.com/l1jgo/phasesim/internal/core/system"
	"github.com/l1jgo/phasesim/internal/world"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MapUpdateSystem ticks every map. Maps share no mutable state, so they run
// in parallel on up to workers goroutines; the phases of one map stay on
// one goroutine. Phase 2 (Update).
type MapUpdateSystem struct {
	world   *world.Manager
	workers int
	log     *zap.Logger
}

func NewMapUpdateSystem(w *world.Manager, workers int, log *zap.Logger) *MapUpdateSystem {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &MapUpdateSystem{world: w, workers: workers, log: log}
}

func (s *MapUpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MapUpdateSystem) Update(dt time.Duration) {
	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, m := range s.world.Maps() {
		g.Go(func() error {
			return s.updateMap(m, dt)
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("map update failed", zap.Error(err))
	}
}

// updateMap turns a panic in one map into an error so the other maps
// still finish their tick.
func (s *MapUpdateSystem) updateMap(m *world.Map, dt time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("map %d (%s) panicked: %v", m.ID(), m.Name(), r)
		}
	}()
	m.Update(dt)
	return nil
}
