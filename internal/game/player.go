package game

import (
	"hextactics/internal/hex"
	"hextactics/internal/level"
	"hextactics/internal/protocol"
)

// Player is one connected client's server-side record. Created on connect,
// destroyed on disconnect; owned exclusively by the session.
type Player struct {
	ID   protocol.PlayerID
	Name string

	Ready       bool
	LevelLoaded bool

	// Spawn is the spawnpoint handed out on entering SpawnPhase; HasSpawn
	// distinguishes "assigned (0,0)" from "never assigned".
	Spawn    level.Spawnpoint
	HasSpawn bool
	Spawned  bool

	// Entity is the actor owned by this player once spawned, 0 before.
	Entity protocol.EntityRef

	// Current marks the active-turn holder. At most one player has it.
	Current bool

	pooledName bool
}

// Entity is the session-scoped state behind an EntityRef. Refs crossing the
// wire are labels into this table, never process-local pointers.
type Entity struct {
	Ref       protocol.EntityRef
	Owner     protocol.PlayerID
	Pos       hex.Axial
	Elevation int
}
