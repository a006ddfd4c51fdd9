package main

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/data"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/system"
	"github.com/l1jgo/phasesim/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapMover records which maps asked it for a move. It is deliberately
// unsynchronized: sharing it across map goroutines shows up under -race.
type mapMover struct {
	mapID   int32
	calls   int
	foreign int
}

func (m *mapMover) NextMove(c *world.Creature) (component.Position, bool) {
	m.calls++
	if wm := c.Map(); wm == nil || wm.ID() != m.mapID {
		m.foreign++
	}
	return c.Home(), true
}

func newTestSession() *net.Session {
	return net.NewSession(1, "test", packet.NewRegistry(zap.NewNop()), net.SessionOptions{}, zap.NewNop())
}

func loadTables(t *testing.T) (*data.MapTable, *data.SpawnTable) {
	t.Helper()
	maps, err := data.LoadMapList(filepath.Join("..", "..", "data", "yaml", "map_list.yaml"))
	require.NoError(t, err)
	spawns, err := data.LoadSpawnList(filepath.Join("..", "..", "data", "yaml", "spawn_list.yaml"))
	require.NoError(t, err)
	return maps, spawns
}

func TestEachMapOwnsItsMover(t *testing.T) {
	maps, spawns := loadTables(t)
	bus := event.NewBus()
	mgr := world.NewManager(bus, zap.NewNop())

	var mu sync.Mutex
	movers := make(map[int32]*mapMover)
	err := buildMaps(mgr, maps, spawns, worldSetup{
		Movers: func(id int32) world.Mover {
			mu.Lock()
			defer mu.Unlock()
			require.NotContains(t, movers, id)
			movers[id] = &mapMover{mapID: id}
			return movers[id]
		},
		Bus: bus,
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, movers, 2)

	// both maps carry an active wandering creature; tick them in parallel
	sys := system.NewMapUpdateSystem(mgr, 2, zap.NewNop())
	for i := 0; i < 40; i++ {
		sys.Update(100 * time.Millisecond)
	}

	for id, m := range movers {
		assert.Positive(t, m.calls, "map %d", id)
		assert.Zero(t, m.foreign, "map %d", id)
	}
}

func TestWanderMoversAreDistinct(t *testing.T) {
	newMover := wanderMovers(42, nil)
	a, b := newMover(0), newMover(4)
	assert.NotSame(t, a, b)

	c := world.NewCreature(world.CreatureInfo{Home: component.Pos(100, 100, 0), WanderRadius: 10})
	pa, ok := a.NextMove(c)
	require.True(t, ok)
	pb, ok := b.NextMove(c)
	require.True(t, ok)
	assert.NotEqual(t, pa, pb, "maps draw from different seeds")
}

func TestBuildMapsSetsStart(t *testing.T) {
	maps, spawns := loadTables(t)
	mgr := world.NewManager(nil, zap.NewNop())
	err := buildMaps(mgr, maps, spawns, worldSetup{Movers: wanderMovers(1, nil)}, zap.NewNop())
	require.NoError(t, err)

	sess := newTestSession()
	mgr.Accept(sess)
	p, err := mgr.Login(sess, "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(0), p.Map().ID())
}
