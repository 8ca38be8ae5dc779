package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hextactics/internal/config"
	"hextactics/internal/game"
	"hextactics/internal/hex"
	"hextactics/internal/level"
	"hextactics/internal/protocol"
)

func startServer(t *testing.T) string {
	t.Helper()

	lvl := &level.Level{
		Name:        "arena",
		Width:       16,
		Depth:       16,
		SpawnRadius: level.DefaultSpawnRadius,
		Spawnpoints: []level.Spawnpoint{
			{Pos: hex.Axial{Q: -5, R: 0}},
			{Pos: hex.Axial{Q: 5, R: 0}},
			{Pos: hex.Axial{Q: 0, R: 5}},
		},
	}

	srv := New(config.Server{TickRate: 100, MaxPlayers: 8}, zap.NewNop())
	srv.Attach(game.NewSession(game.Options{Level: lvl, Sender: srv}))

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	t.Cleanup(cancel)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string, id protocol.PlayerID, name string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	frame, err := protocol.EncodeHandshake(id, name)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, frame))
	return ws
}

func readUntil[T protocol.ServerMessage](t *testing.T, ws *websocket.Conn) T {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.DecodeServer(data)
		require.NoError(t, err)
		if m, ok := msg.(T); ok {
			return m
		}
	}
}

func send(t *testing.T, ws *websocket.Conn, msg protocol.ClientMessage) {
	t.Helper()
	data, err := protocol.EncodeClient(msg)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
}

func TestHandshakeJoinAnnounced(t *testing.T) {
	url := startServer(t)
	ws := dial(t, url, 1, "alice")

	joined := readUntil[protocol.PlayerConnected](t, ws)
	assert.Equal(t, protocol.PlayerID(1), joined.ID)
	assert.Equal(t, "alice", joined.Name)
}

func TestSecondPeerSeesExistingRoster(t *testing.T) {
	url := startServer(t)
	a := dial(t, url, 1, "alice")
	readUntil[protocol.PlayerConnected](t, a)

	b := dial(t, url, 2, "bob")
	first := readUntil[protocol.PlayerConnected](t, b)
	assert.Equal(t, protocol.PlayerID(1), first.ID)
	second := readUntil[protocol.PlayerConnected](t, b)
	assert.Equal(t, protocol.PlayerID(2), second.ID)
}

func TestMidLoadJoinerToldToLoad(t *testing.T) {
	url := startServer(t)
	a := dial(t, url, 1, "alice")
	readUntil[protocol.PlayerConnected](t, a)

	send(t, a, protocol.ClientReady{})
	readUntil[protocol.LoadLevel](t, a)

	// a peer arriving mid-load gets the catch-up LoadLevel on its own socket
	b := dial(t, url, 2, "bob")
	load := readUntil[protocol.LoadLevel](t, b)
	assert.Equal(t, "arena", load.LevelID)
}

func TestDuplicateIDRejected(t *testing.T) {
	url := startServer(t)
	a := dial(t, url, 1, "alice")
	readUntil[protocol.PlayerConnected](t, a)

	dup := dial(t, url, 1, "impostor")
	dup.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := dup.ReadMessage()
	assert.Error(t, err, "duplicate id peer must be closed")

	// the original survives its impostor
	send(t, a, protocol.ChangeName{Name: "still-alice"})
	renamed := readUntil[protocol.PlayerNameChanged](t, a)
	assert.Equal(t, "still-alice", renamed.Name)
}

func TestBadHandshakeClosed(t *testing.T) {
	url := startServer(t)
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte("garbage")))
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
}

func TestReadyBarrierTriggersLevelLoad(t *testing.T) {
	url := startServer(t)
	a := dial(t, url, 1, "alice")
	b := dial(t, url, 2, "bob")
	readUntil[protocol.PlayerConnected](t, a)
	readUntil[protocol.PlayerConnected](t, b)

	send(t, a, protocol.ClientReady{})
	send(t, b, protocol.ClientReady{})

	loadA := readUntil[protocol.LoadLevel](t, a)
	loadB := readUntil[protocol.LoadLevel](t, b)
	assert.Equal(t, "arena", loadA.LevelID)
	assert.Equal(t, "arena", loadB.LevelID)
}

func TestDisconnectBroadcast(t *testing.T) {
	url := startServer(t)
	a := dial(t, url, 1, "alice")
	b := dial(t, url, 2, "bob")
	readUntil[protocol.PlayerConnected](t, a)
	readUntil[protocol.PlayerConnected](t, b)

	b.Close()

	gone := readUntil[protocol.PlayerDisconnected](t, a)
	assert.Equal(t, protocol.PlayerID(2), gone.ID)
}
