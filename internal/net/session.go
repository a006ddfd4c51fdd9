package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/phasesim/internal/net/packet"
	"go.uber.org/zap"
)

// Session represents a single client connection. Transport I/O runs in
// dedicated goroutines that feed InQueue and drain OutQueue; game state is
// only touched from the loop that currently owns the session (the world
// loop, or the map tick of the player's map).
type Session struct {
	ID uint64

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // transport pushes client packets here
	OutQueue chan []byte // transport writes these to the peer

	RemoteAddr string

	handlers *packet.Registry
	pending  [][]byte // received but rejected by the last filter
	outBuf   [][]byte // buffered packets, flushed once per tick

	maxPerTick int
	idle       time.Duration
	timeout    time.Duration

	bound atomic.Value // game-side owner (the player), opaque to net

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	onClose   func()

	log *zap.Logger
}

// SessionOptions sizes a session's queues and limits.
type SessionOptions struct {
	InSize      int
	OutSize     int
	MaxPerTick  int           // packets pulled from InQueue per Update (0 = 64)
	IdleTimeout time.Duration // 0 disables
	OnClose     func()        // transport teardown
}

func NewSession(id uint64, remote string, handlers *packet.Registry, opts SessionOptions, log *zap.Logger) *Session {
	if opts.InSize <= 0 {
		opts.InSize = 128
	}
	if opts.OutSize <= 0 {
		opts.OutSize = 256
	}
	if opts.MaxPerTick <= 0 {
		opts.MaxPerTick = 64
	}
	s := &Session{
		ID:         id,
		InQueue:    make(chan []byte, opts.InSize),
		OutQueue:   make(chan []byte, opts.OutSize),
		RemoteAddr: remote,
		handlers:   handlers,
		maxPerTick: opts.MaxPerTick,
		timeout:    opts.IdleTimeout,
		closeCh:    make(chan struct{}),
		onClose:    opts.OnClose,
		log:        log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(packet.StateAuthenticated))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Bind attaches the game-side owner of this session.
func (s *Session) Bind(owner any) {
	s.bound.Store(owner)
}

// Bound returns the value passed to Bind, or nil.
func (s *Session) Bound() any {
	return s.bound.Load()
}

// Update pulls new packets from InQueue and dispatches every buffered packet
// the filter accepts. Rejected packets stay buffered, in order, for the next
// Update with a different filter. Returns false once the session is closed.
func (s *Session) Update(diff time.Duration, filter PacketFilter) bool {
	if s.closed.Load() {
		return false
	}

	pulled := 0
pull:
	for pulled < s.maxPerTick {
		select {
		case data := <-s.InQueue:
			s.pending = append(s.pending, data)
			pulled++
		default:
			break pull
		}
	}

	if pulled > 0 {
		s.idle = 0
	} else {
		s.idle += diff
		if s.timeout > 0 && s.idle >= s.timeout {
			s.log.Info("session idle timeout", zap.Duration("idle", s.idle))
			s.Close()
			return false
		}
	}

	kept := s.pending[:0]
	for _, data := range s.pending {
		if len(data) == 0 {
			continue
		}
		if !filter.Process(s.handlers.Processing(data[0])) {
			kept = append(kept, data)
			continue
		}
		if err := s.handlers.Dispatch(s, s.State(), data); err != nil {
			s.log.Debug("packet dropped", zap.Uint8("op", data[0]), zap.Error(err))
		}
		if s.closed.Load() {
			break
		}
	}
	for i := len(kept); i < len(s.pending); i++ {
		s.pending[i] = nil
	}
	s.pending = kept
	return !s.closed.Load()
}

// Pending reports how many received packets are waiting for a filter that
// accepts them.
func (s *Session) Pending() int {
	return len(s.pending)
}

// Send buffers a packet. Nothing reaches OutQueue until FlushOutput.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// FlushOutput drains the output buffer to OutQueue for the writer goroutine.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow session")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}
