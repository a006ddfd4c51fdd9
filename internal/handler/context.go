package handler

import (
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World *world.Manager
	Log   *zap.Logger
	// MaxMoveStep rejects client moves farther than this per packet (0 = 20).
	MaxMoveStep float32
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// before entering the world
	reg.Register(packet.C_ENTER_WORLD, packet.ProcessThreadUnsafe,
		[]packet.SessionState{packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandleEnterWorld(sess.(*net.Session), r, deps)
		},
	)

	inWorld := []packet.SessionState{packet.StateInWorld}

	// map-local: run inside the owning map's phase tick
	reg.Register(packet.C_MOVE, packet.ProcessThreadSafe, inWorld,
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_ATTACK, packet.ProcessThreadSafe, inWorld,
		func(sess any, r *packet.Reader) {
			HandleAttack(sess.(*net.Session), r, deps)
		},
	)

	// crosses maps: world loop only
	reg.Register(packet.C_CHAT, packet.ProcessThreadUnsafe, inWorld,
		func(sess any, r *packet.Reader) {
			HandleChat(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_PING, packet.ProcessInPlace,
		[]packet.SessionState{packet.StateAuthenticated, packet.StateInWorld, packet.StateTransferring},
		func(sess any, r *packet.Reader) {
			HandlePing(sess.(*net.Session), r, deps)
		},
	)
}

// playerOf returns the in-world player bound to sess, or nil.
func playerOf(sess *net.Session) *world.Player {
	p, _ := sess.Bound().(*world.Player)
	if p == nil || !p.IsInWorld() {
		return nil
	}
	return p
}
