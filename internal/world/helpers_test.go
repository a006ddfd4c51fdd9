package world

import (
	"testing"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/phase"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tick = 100 * time.Millisecond

func pos(x, y, z float32) component.Position { return component.Pos(x, y, z) }

// newTestMap returns a map with phase 1 and grid (0,0) loaded.
func newTestMap(t *testing.T, settings Settings) (*Map, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	m := NewMap(1, "test", settings, bus, zap.NewNop())
	m.AddPhase(1)
	require.True(t, m.LoadGrid(component.Grid{}))
	return m, bus
}

func newTestSession(id uint64) *net.Session {
	return net.NewSession(id, "test", packet.NewRegistry(zap.NewNop()), net.SessionOptions{}, zap.NewNop())
}

// sent flushes sess and returns the opcodes it wrote.
func sent(sess *net.Session) []byte {
	sess.FlushOutput()
	var ops []byte
	for {
		select {
		case data := <-sess.OutQueue:
			ops = append(ops, data[0])
		default:
			return ops
		}
	}
}

type respawnAt component.Position

func (r respawnAt) RespawnPosition(*Map, phase.Object, component.Position) component.Position {
	return component.Position(r)
}

type fixedMover struct {
	targets []component.Position
	calls   int
}

func (f *fixedMover) NextMove(*Creature) (component.Position, bool) {
	if f.calls >= len(f.targets) {
		return component.Position{}, false
	}
	p := f.targets[f.calls]
	f.calls++
	return p, true
}

// collect subscribes to T and returns the slice the events land in after
// the bus is swapped and dispatched.
func collect[T any](bus *event.Bus) *[]T {
	var got []T
	event.Subscribe(bus, func(ev T) { got = append(got, ev) })
	return &got
}

func deliver(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}
