package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hextactics/internal/hex"
	"hextactics/internal/level"
	"hextactics/internal/protocol"
)

type recordingSender struct {
	sent []protocol.ClientMessage
}

func (r *recordingSender) Send(msg protocol.ClientMessage) {
	r.sent = append(r.sent, msg)
}

func mirrorLevel() *level.Level {
	return &level.Level{
		Name:        "testfield",
		Width:       16,
		Depth:       16,
		SpawnRadius: level.DefaultSpawnRadius,
	}
}

func newMirror(self protocol.PlayerID) (*Session, *recordingSender) {
	out := &recordingSender{}
	return NewSession(self, out, nil), out
}

func TestOwnJoinMovesToLobby(t *testing.T) {
	s, _ := newMirror(7)
	assert.Equal(t, PhaseWaitingToConnect, s.Phase())

	// hearing about someone else first does not change phase
	s.Apply(protocol.PlayerConnected{ID: 3, Name: "other"})
	assert.Equal(t, PhaseWaitingToConnect, s.Phase())

	s.Apply(protocol.PlayerConnected{ID: 7, Name: "me"})
	assert.Equal(t, PhaseLobby, s.Phase())
	assert.Len(t, s.Players(), 2)
}

func TestReadyToggleOnlyInLobby(t *testing.T) {
	s, out := newMirror(7)

	s.ToggleReady()
	assert.Empty(t, out.sent, "not in lobby yet")

	s.Apply(protocol.PlayerConnected{ID: 7, Name: "me"})
	s.ToggleReady()
	require.Len(t, out.sent, 1)
	assert.IsType(t, protocol.ClientReady{}, out.sent[0])
	assert.True(t, s.Ready())

	s.ToggleReady()
	assert.False(t, s.Ready())
	assert.Len(t, out.sent, 2, "each toggle is one message")
}

func TestLoadLevelFlow(t *testing.T) {
	s, out := newMirror(7)
	s.Apply(protocol.PlayerConnected{ID: 7, Name: "me"})
	s.ToggleReady()

	s.Apply(protocol.LoadLevel{LevelID: "testfield"})
	assert.Equal(t, PhaseLoadingLevel, s.Phase())
	assert.Equal(t, "testfield", s.LevelID())
	assert.False(t, s.Ready(), "readiness resets when loading starts")

	// LevelLoaded goes out only once assets are in
	out.sent = nil
	s.LevelReady(mirrorLevel())
	require.Len(t, out.sent, 1)
	assert.IsType(t, protocol.LevelLoaded{}, out.sent[0])
	assert.Equal(t, PhaseLevelLoaded, s.Phase())

	// a second call outside LoadingLevel is a no-op
	s.LevelReady(mirrorLevel())
	assert.Len(t, out.sent, 1)
}

func TestSpawnRequestFilteredLocally(t *testing.T) {
	s, out := newMirror(7)
	s.Apply(protocol.PlayerConnected{ID: 7, Name: "me"})
	s.Apply(protocol.LoadLevel{LevelID: "testfield"})
	s.LevelReady(mirrorLevel())

	// nothing may be requested before a spawnpoint arrives
	assert.False(t, s.RequestSpawn(hex.Axial{Q: 0, R: 0}, 0))

	s.Apply(protocol.AssignSpawnpoint{Pos: hex.Axial{Q: 2, R: 0}, Elevation: 1})
	assert.Equal(t, PhaseSpawn, s.Phase())
	sp, ok := s.Spawn()
	require.True(t, ok)
	assert.Equal(t, hex.Axial{Q: 2, R: 0}, sp.Pos)

	out.sent = nil

	// outside the radius: filtered, nothing sent
	far := sp.Pos.Add(hex.Axial{Q: level.DefaultSpawnRadius, R: 0})
	assert.False(t, s.RequestSpawn(far, 0))
	assert.Empty(t, out.sent)

	// off the map: filtered
	assert.False(t, s.RequestSpawn(hex.Axial{Q: 400, R: 400}, 0))
	assert.Empty(t, out.sent)

	// in range: sent
	near := sp.Pos.Add(hex.Axial{Q: 1, R: 0})
	assert.True(t, s.RequestSpawn(near, 1))
	require.Len(t, out.sent, 1)
	try, ok := out.sent[0].(protocol.TrySpawnCharacter)
	require.True(t, ok)
	assert.Equal(t, near, try.Pos)

	// once the server confirms our character, further requests are filtered
	s.Apply(protocol.SpawnCharacter{OwnerID: 7, EntityRef: 1, Pos: near, Elevation: 1})
	assert.False(t, s.RequestSpawn(near, 1))
	assert.Len(t, s.Actors(), 1)
}

func TestTurnAnnouncements(t *testing.T) {
	s, out := newMirror(7)
	s.Apply(protocol.PlayerConnected{ID: 7, Name: "me"})
	s.Apply(protocol.PlayerConnected{ID: 8, Name: "foe"})

	s.Apply(protocol.PlayerTurn{ID: 8})
	assert.Equal(t, PhaseIdling, s.Phase())
	cur, ok := s.CurrentTurn()
	require.True(t, ok)
	assert.Equal(t, protocol.PlayerID(8), cur)

	// EndTurn while idling must not leak out
	s.EndTurn()
	assert.Empty(t, out.sent)

	s.Apply(protocol.PlayerTurn{ID: 7})
	assert.Equal(t, PhaseActing, s.Phase())

	// repeated announcement for the same player changes nothing
	s.Apply(protocol.PlayerTurn{ID: 7})
	assert.Equal(t, PhaseActing, s.Phase())

	s.EndTurn()
	require.Len(t, out.sent, 1)
	assert.IsType(t, protocol.EndTurn{}, out.sent[0])
}

func TestDisconnectDropsActors(t *testing.T) {
	s, _ := newMirror(7)
	s.Apply(protocol.PlayerConnected{ID: 7, Name: "me"})
	s.Apply(protocol.PlayerConnected{ID: 8, Name: "foe"})
	s.Apply(protocol.SpawnCharacter{OwnerID: 8, EntityRef: 5, Pos: hex.Axial{Q: 1, R: 1}})

	s.Apply(protocol.PlayerDisconnected{ID: 8})
	assert.Len(t, s.Players(), 1)
	assert.Empty(t, s.Actors())
}

func TestNameChangeMirrors(t *testing.T) {
	s, out := newMirror(7)
	s.Apply(protocol.PlayerConnected{ID: 8, Name: "foe"})
	s.Apply(protocol.PlayerNameChanged{ID: 8, Name: "friend"})
	assert.Equal(t, "friend", s.Players()[8].Name)

	// empty rename is filtered locally
	s.Rename("")
	assert.Empty(t, out.sent)
	s.Rename("me2")
	require.Len(t, out.sent, 1)
}
