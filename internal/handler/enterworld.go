package handler

import (
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"go.uber.org/zap"
)

const maxNameLen = 16

// HandleEnterWorld processes C_ENTER_WORLD: [S name].
func HandleEnterWorld(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadS()
	if name == "" || len([]rune(name)) > maxNameLen {
		deps.Log.Warn("enter world: invalid name", zap.Uint64("session", sess.ID), zap.Int("len", len(name)))
		sess.Close()
		return
	}
	if _, err := deps.World.Login(sess, name); err != nil {
		deps.Log.Error("enter world failed", zap.String("name", name), zap.Error(err))
		sess.Close()
	}
}
