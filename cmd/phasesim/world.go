package main

import (
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/data"
	"github.com/l1jgo/phasesim/internal/scripting"
	"github.com/l1jgo/phasesim/internal/world"
	"go.uber.org/zap"
)

// worldSetup carries what every map is built with.
type worldSetup struct {
	Base world.Settings
	// Movers returns the mover of one map. Maps tick on separate
	// goroutines, so no two maps may share a mover.
	Movers   func(mapID int32) world.Mover
	Resolver world.RespawnResolver
	Bus      *event.Bus
}

// wanderMovers gives each map its own random source, seeded from seed and
// the map id. With an engine, Lua picks first and the map's mover is the
// fallback; the engine serializes its own calls.
func wanderMovers(seed uint64, engine *scripting.Engine) func(mapID int32) world.Mover {
	return func(mapID int32) world.Mover {
		var m world.Mover = world.NewWanderMover(seed ^ uint64(uint32(mapID))<<32)
		if engine != nil {
			m = scripting.NewMover(engine, m)
		}
		return m
	}
}

// buildMaps creates, populates and registers every map of the list.
func buildMaps(mgr *world.Manager, maps *data.MapTable, spawns *data.SpawnTable, setup worldSetup, log *zap.Logger) error {
	for _, mi := range maps.All() {
		mlog := log.With(zap.Int32("map", mi.MapID))
		m := mi.Build(setup.Base, setup.Bus, mlog)
		if setup.Resolver != nil {
			m.SetRespawnResolver(setup.Resolver)
		}
		spawns.Spawner(mi.MapID, setup.Movers(mi.MapID), mlog).Populate(m)
		mi.Preload(m)
		if err := mgr.AddMap(m); err != nil {
			return err
		}
	}
	start, ok := maps.StartPoint()
	if ok {
		mgr.SetStart(start)
	}
	return nil
}
