package handler

import (
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
)

// HandlePing processes C_PING. Any loop may answer it.
func HandlePing(sess *net.Session, _ *packet.Reader, _ *Deps) {
	sess.Send(packet.NewWriter(packet.S_PONG).Bytes())
}
