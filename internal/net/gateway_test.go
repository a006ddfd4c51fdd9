package net

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGatewayPumpsPackets(t *testing.T) {
	gw := NewGateway(packet.NewRegistry(zap.NewNop()), SessionOptions{}, 4, zap.NewNop())
	srv := httptest.NewServer(gw)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var sess *Session
	select {
	case sess = <-gw.Accepted():
	case <-time.After(2 * time.Second):
		t.Fatal("session not accepted")
	}

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{packet.C_PING}))
	select {
	case data := <-sess.InQueue:
		assert.Equal(t, []byte{packet.C_PING}, data)
	case <-time.After(2 * time.Second):
		t.Fatal("packet not received")
	}

	sess.Send([]byte{packet.S_CHAT, 'h', 'i', 0})
	sess.FlushOutput()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte{packet.S_CHAT, 'h', 'i', 0}, data)

	sess.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
