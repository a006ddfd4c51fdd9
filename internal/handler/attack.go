package handler

import (
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/world"
)

const attackThreat = 1

// HandleAttack processes C_ATTACK: [Q target guid].
// The target gains threat on the attacker, which puts the player in combat.
func HandleAttack(sess *net.Session, r *packet.Reader, deps *Deps) {
	guid := r.ReadQ()

	player := playerOf(sess)
	if player == nil || player.Map() == nil {
		return
	}
	switch t := player.Map().Find(guid).(type) {
	case *world.Pet:
		if t.Owner() == player {
			return
		}
		t.AddThreat(player, attackThreat)
	case *world.Creature:
		t.AddThreat(player, attackThreat)
	}
}
