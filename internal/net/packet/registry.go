package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateHandshake     SessionState = iota
	StateAuthenticated              // logged in, not yet placed on a map
	StateInWorld                    // player placed on a map
	StateTransferring               // leaving one map for another
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateAuthenticated:
		return "Authenticated"
	case StateInWorld:
		return "InWorld"
	case StateTransferring:
		return "Transferring"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Processing says which loop may run an opcode's handler.
type Processing int

const (
	// ProcessThreadSafe handlers touch only the player's own map and run
	// inside that map's phase tick.
	ProcessThreadSafe Processing = iota
	// ProcessThreadUnsafe handlers touch cross-map state and only run on
	// the world loop.
	ProcessThreadUnsafe
	// ProcessInPlace handlers may run on whichever loop sees them first.
	ProcessInPlace
)

func (p Processing) String() string {
	switch p {
	case ProcessThreadSafe:
		return "thread_safe"
	case ProcessThreadUnsafe:
		return "thread_unsafe"
	case ProcessInPlace:
		return "in_place"
	default:
		return fmt.Sprintf("Processing(%d)", int(p))
	}
}

// HandlerFunc is the callback signature for packet handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	processing    Processing
	allowedStates map[SessionState]bool
}

// Registry maps opcodes to handlers with state-based access control and a
// processing place.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given session states.
func (reg *Registry) Register(opcode byte, mode Processing, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{
		fn:            fn,
		processing:    mode,
		allowedStates: allowed,
	}
}

// Processing returns where opcode may be handled. Unknown opcodes are
// in-place so they are dropped by the first loop that sees them.
func (reg *Registry) Processing(opcode byte) Processing {
	if e, ok := reg.handlers[opcode]; ok {
		return e.processing
	}
	return ProcessInPlace
}

// Dispatch finds the handler for the opcode in data[0], validates the session
// state, and calls the handler.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty packet")
	}
	opcode := data[0]

	entry, ok := reg.handlers[opcode]
	if !ok {
		reg.log.Debug("unknown opcode", zap.Uint8("opcode", opcode), zap.String("state", state.String()))
		return nil
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("opcode not allowed in state",
			zap.Uint8("opcode", opcode),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("opcode %d not allowed in state %s", opcode, state)
	}

	return reg.safeCall(entry.fn, sess, NewReader(data), opcode)
}

// safeCall runs a handler with panic recovery so one bad packet cannot take
// the map goroutine down.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, opcode byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint8("opcode", opcode),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for opcode %d: %v", opcode, rec)
		}
	}()
	fn(sess, r)
	return nil
}
