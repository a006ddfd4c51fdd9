package net

import (
	"testing"
	"time"

	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	opSafe   byte = 1
	opUnsafe byte = 2
	opInline byte = 3
)

func newTestSession(t *testing.T, opts SessionOptions) (*Session, *[]byte) {
	t.Helper()
	reg := packet.NewRegistry(zap.NewNop())
	var seen []byte
	record := func(sess any, r *packet.Reader) { seen = append(seen, r.Opcode()) }
	all := []packet.SessionState{packet.StateAuthenticated, packet.StateInWorld}
	reg.Register(opSafe, packet.ProcessThreadSafe, all, record)
	reg.Register(opUnsafe, packet.ProcessThreadUnsafe, all, record)
	reg.Register(opInline, packet.ProcessInPlace, all, record)
	return NewSession(1, "test", reg, opts, zap.NewNop()), &seen
}

func TestMapFilterDefersUnsafePackets(t *testing.T) {
	s, seen := newTestSession(t, SessionOptions{})
	s.SetState(packet.StateInWorld)
	s.InQueue <- []byte{opUnsafe}
	s.InQueue <- []byte{opSafe}
	s.InQueue <- []byte{opInline}

	require.True(t, s.Update(time.Millisecond, NewMapSessionFilter(s)))
	assert.Equal(t, []byte{opSafe, opInline}, *seen)
	assert.Equal(t, 1, s.Pending())

	require.True(t, s.Update(time.Millisecond, NewWorldSessionFilter(s)))
	assert.Equal(t, []byte{opSafe, opInline, opUnsafe}, *seen)
	assert.Zero(t, s.Pending())
}

func TestMapFilterWaitsForWorldEntry(t *testing.T) {
	s, seen := newTestSession(t, SessionOptions{})
	s.InQueue <- []byte{opSafe}

	s.Update(time.Millisecond, NewMapSessionFilter(s))
	assert.Empty(t, *seen)

	s.SetState(packet.StateInWorld)
	s.Update(time.Millisecond, NewMapSessionFilter(s))
	assert.Equal(t, []byte{opSafe}, *seen)
}

func TestWorldFilterLeavesMapPacketsOfPlayersInWorld(t *testing.T) {
	s, seen := newTestSession(t, SessionOptions{})
	s.SetState(packet.StateInWorld)
	s.InQueue <- []byte{opSafe}

	s.Update(time.Millisecond, NewWorldSessionFilter(s))
	assert.Empty(t, *seen)
	assert.Equal(t, 1, s.Pending())
}

func TestUpdateRespectsPerTickLimit(t *testing.T) {
	s, seen := newTestSession(t, SessionOptions{MaxPerTick: 2})
	s.SetState(packet.StateInWorld)
	for i := 0; i < 5; i++ {
		s.InQueue <- []byte{opSafe}
	}
	s.Update(time.Millisecond, NewMapSessionFilter(s))
	assert.Len(t, *seen, 2)
	s.Update(time.Millisecond, NewMapSessionFilter(s))
	assert.Len(t, *seen, 4)
}

func TestIdleTimeoutClosesSession(t *testing.T) {
	closed := false
	s, _ := newTestSession(t, SessionOptions{IdleTimeout: 50 * time.Millisecond, OnClose: func() { closed = true }})

	assert.True(t, s.Update(30*time.Millisecond, NewWorldSessionFilter(s)))
	assert.False(t, s.Update(30*time.Millisecond, NewWorldSessionFilter(s)))
	assert.True(t, closed)
	assert.True(t, s.IsClosed())
	assert.Equal(t, packet.StateDisconnecting, s.State())
}

func TestFlushOutputBackpressureCloses(t *testing.T) {
	s, _ := newTestSession(t, SessionOptions{OutSize: 1})
	s.Send([]byte{1})
	s.Send([]byte{2})
	s.FlushOutput()

	assert.True(t, s.IsClosed())
	assert.Equal(t, []byte{1}, <-s.OutQueue)

	s.Send([]byte{3})
	s.FlushOutput()
	assert.Empty(t, s.OutQueue)
}
