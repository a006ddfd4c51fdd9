package handler

import (
	"fmt"

	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/world"
	"go.uber.org/zap"
)

const maxChatLen = 200

// HandleChat processes C_CHAT: [S text]. The message goes to every player in
// the world, so it only runs on the world loop.
func HandleChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	text := r.ReadS()
	if text == "" {
		return
	}
	if rs := []rune(text); len(rs) > maxChatLen {
		text = string(rs[:maxChatLen])
	}

	player := playerOf(sess)
	if player == nil {
		return
	}

	deps.Log.Debug("C_Chat", zap.String("player", player.Name()), zap.String("text", text))

	w := packet.NewWriter(packet.S_CHAT)
	w.WriteS(fmt.Sprintf("%s: %s", player.Name(), text))
	data := w.Bytes()
	deps.World.EachPlayer(func(p *world.Player) {
		p.Send(data)
	})
}
