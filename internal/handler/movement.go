package handler

import (
	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"go.uber.org/zap"
)

const defaultMaxMoveStep = 20

// HandleMove processes C_MOVE: [F x][F y][F z][F o].
// Runs inside the player's map tick, so the map may be touched directly.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	dest := component.Position{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF(), O: r.ReadF()}

	player := playerOf(sess)
	if player == nil {
		return
	}
	m := player.Map()
	if m == nil {
		return
	}

	limit := deps.MaxMoveStep
	if limit <= 0 {
		limit = defaultMaxMoveStep
	}
	if d := player.Position().ExactDist2dSq(dest); d > limit*limit {
		// too far for one step, treat as a bad packet
		deps.Log.Debug("move rejected",
			zap.String("player", player.Name()),
			zap.Float32("x", dest.X),
			zap.Float32("y", dest.Y),
		)
		return
	}
	m.PlayerRelocation(player, dest)
}
