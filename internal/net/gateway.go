package net

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Gateway accepts game clients over WebSocket. Each binary message is one
// packet (opcode byte first). Accepted sessions are handed to the world
// loop through Accepted.
type Gateway struct {
	upgrader websocket.Upgrader
	handlers *packet.Registry
	opts     SessionOptions
	nextID   atomic.Uint64
	accepted chan *Session
	log      *zap.Logger
}

func NewGateway(handlers *packet.Registry, opts SessionOptions, backlog int, log *zap.Logger) *Gateway {
	if backlog <= 0 {
		backlog = 64
	}
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: handlers,
		opts:     opts,
		accepted: make(chan *Session, backlog),
		log:      log,
	}
}

// Accepted yields newly connected sessions.
func (g *Gateway) Accepted() <-chan *Session {
	return g.accepted
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	opts := g.opts
	opts.OnClose = func() { conn.Close() }
	sess := NewSession(g.nextID.Add(1), conn.RemoteAddr().String(), g.handlers, opts, g.log)

	select {
	case g.accepted <- sess:
	default:
		g.log.Warn("accept queue full, rejecting session", zap.String("remote", sess.RemoteAddr))
		sess.Close()
		return
	}

	g.log.Info("client connected", zap.Uint64("session", sess.ID), zap.String("remote", sess.RemoteAddr))
	go g.writePump(sess, conn)
	go g.readPump(sess, conn)
}

func (g *Gateway) readPump(s *Session, conn *websocket.Conn) {
	defer s.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		select {
		case s.InQueue <- data:
		case <-s.Done():
			return
		}
	}
}

func (g *Gateway) writePump(s *Session, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()
	for {
		select {
		case data := <-s.OutQueue:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.log.Debug("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
