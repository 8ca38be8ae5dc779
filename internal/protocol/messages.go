// Package protocol defines the wire contract between the match server and its
// clients: two closed message sets, the JSON codec that frames them, the
// delivery class each variant travels on, and the connect handshake payload.
package protocol

import "hextactics/internal/hex"

// PlayerID identifies one client for the lifetime of its connection. IDs are
// never reused across distinct connections.
type PlayerID uint64

// EntityRef is an opaque handle to an in-world actor. Across the wire it is a
// label only; it carries no meaning outside the session that minted it.
type EntityRef uint64

// Channel is the delivery class a message travels on.
type Channel int

const (
	// Reliable preserves per-sender order and guarantees delivery.
	Reliable Channel = iota
	// Unreliable may drop or reorder; used only for cosmetic state.
	Unreliable
)

// ServerMessage is the closed set of server-to-client messages.
type ServerMessage interface{ serverMessage() }

// ClientMessage is the closed set of client-to-server messages.
type ClientMessage interface{ clientMessage() }

// Server → client

type PlayerConnected struct {
	ID        PlayerID  `json:"id"`
	Name      string    `json:"name"`
	EntityRef EntityRef `json:"entityRef"`
}

type PlayerDisconnected struct {
	ID PlayerID `json:"id"`
}

type PlayerTurn struct {
	ID PlayerID `json:"id"`
}

type PlayerNameChanged struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

type LoadLevel struct {
	LevelID string `json:"levelId"`
}

type AssignSpawnpoint struct {
	Pos       hex.Axial `json:"pos"`
	Elevation int       `json:"elevation"`
}

type SpawnCharacter struct {
	OwnerID   PlayerID  `json:"ownerId"`
	EntityRef EntityRef `json:"entityRef"`
	Pos       hex.Axial `json:"pos"`
	Elevation int       `json:"elevation"`
}

func (PlayerConnected) serverMessage()    {}
func (PlayerDisconnected) serverMessage() {}
func (PlayerTurn) serverMessage()         {}
func (PlayerNameChanged) serverMessage()  {}
func (LoadLevel) serverMessage()          {}
func (AssignSpawnpoint) serverMessage()   {}
func (SpawnCharacter) serverMessage()     {}

// Client → server

type ClientReady struct{}

type ChangeName struct {
	Name string `json:"name"`
}

type EndTurn struct{}

type LevelLoaded struct{}

type TrySpawnCharacter struct {
	Pos       hex.Axial `json:"pos"`
	Elevation int       `json:"elevation"`
}

func (ClientReady) clientMessage()       {}
func (ChangeName) clientMessage()        {}
func (EndTurn) clientMessage()           {}
func (LevelLoaded) clientMessage()       {}
func (TrySpawnCharacter) clientMessage() {}

// ChannelOf returns the delivery class a message must be sent on. Name changes
// are cosmetic and ride the unreliable class; everything else is state the two
// state machines depend on.
func ChannelOf(msg any) Channel {
	switch msg.(type) {
	case PlayerNameChanged, ChangeName:
		return Unreliable
	default:
		return Reliable
	}
}
