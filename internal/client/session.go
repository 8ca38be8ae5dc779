// Package client mirrors the server's view of a match. The Session here is
// not authoritative: it applies the server message stream to local state and
// filters local input so obviously invalid requests never leave the machine.
// The server re-validates everything anyway.
package client

import (
	"go.uber.org/zap"

	"hextactics/internal/hex"
	"hextactics/internal/level"
	"hextactics/internal/protocol"
)

// Phase is the client's connection-progress machine. It tracks what the
// player may do locally, not what the server is doing.
type Phase int

const (
	PhaseWaitingToConnect Phase = iota
	PhaseLobby
	PhaseLoadingLevel
	PhaseLevelLoaded
	PhaseSpawn
	PhaseIdling
	PhaseActing
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingToConnect:
		return "WaitingToConnect"
	case PhaseLobby:
		return "Lobby"
	case PhaseLoadingLevel:
		return "LoadingLevel"
	case PhaseLevelLoaded:
		return "LevelLoaded"
	case PhaseSpawn:
		return "SpawnPhase"
	case PhaseIdling:
		return "Idling"
	case PhaseActing:
		return "Acting"
	default:
		return "Unknown"
	}
}

// PlayerInfo is one roster entry as the client knows it.
type PlayerInfo struct {
	ID   protocol.PlayerID
	Name string
}

// Actor is a spawned character replicated from the server.
type Actor struct {
	Ref       protocol.EntityRef
	Owner     protocol.PlayerID
	Pos       hex.Axial
	Elevation int
}

// Sender sends messages toward the server. *NetClient implements it; tests
// substitute a recorder.
type Sender interface {
	Send(msg protocol.ClientMessage)
}

type Session struct {
	log  *zap.Logger
	out  Sender
	self protocol.PlayerID

	phase   Phase
	players map[protocol.PlayerID]*PlayerInfo
	actors  map[protocol.EntityRef]*Actor

	levelID string
	lvl     *level.Level

	spawn    level.Spawnpoint
	hasSpawn bool
	spawned  bool

	ready       bool
	currentTurn protocol.PlayerID
	hasTurn     bool
}

func NewSession(self protocol.PlayerID, out Sender, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		log:     log,
		out:     out,
		self:    self,
		phase:   PhaseWaitingToConnect,
		players: make(map[protocol.PlayerID]*PlayerInfo),
		actors:  make(map[protocol.EntityRef]*Actor),
	}
}

// Apply folds one server message into the mirror. Messages that make no sense
// in the current phase still update roster state; only phase moves are gated.
func (s *Session) Apply(msg protocol.ServerMessage) {
	switch m := msg.(type) {
	case protocol.PlayerConnected:
		s.players[m.ID] = &PlayerInfo{ID: m.ID, Name: m.Name}
		if m.ID == s.self && s.phase == PhaseWaitingToConnect {
			s.phase = PhaseLobby
			s.log.Info("joined lobby", zap.Uint64("id", uint64(m.ID)))
		} else {
			s.log.Info("player joined", zap.Uint64("id", uint64(m.ID)), zap.String("name", m.Name))
		}

	case protocol.PlayerDisconnected:
		delete(s.players, m.ID)
		for ref, a := range s.actors {
			if a.Owner == m.ID {
				delete(s.actors, ref)
			}
		}
		s.log.Info("player left", zap.Uint64("id", uint64(m.ID)))

	case protocol.PlayerNameChanged:
		if p, ok := s.players[m.ID]; ok {
			p.Name = m.Name
		}

	case protocol.LoadLevel:
		s.levelID = m.LevelID
		s.phase = PhaseLoadingLevel
		s.ready = false
		s.log.Info("loading level", zap.String("level", m.LevelID))

	case protocol.AssignSpawnpoint:
		s.spawn = level.Spawnpoint{Pos: m.Pos, Elevation: m.Elevation}
		s.hasSpawn = true
		s.phase = PhaseSpawn
		s.log.Info("spawnpoint assigned", zap.Int("q", m.Pos.Q), zap.Int("r", m.Pos.R))

	case protocol.SpawnCharacter:
		s.actors[m.EntityRef] = &Actor{
			Ref:       m.EntityRef,
			Owner:     m.OwnerID,
			Pos:       m.Pos,
			Elevation: m.Elevation,
		}
		if m.OwnerID == s.self {
			s.spawned = true
		}

	case protocol.PlayerTurn:
		// idempotent: a repeated announcement for the same player is a no-op
		s.currentTurn = m.ID
		s.hasTurn = true
		if m.ID == s.self {
			s.phase = PhaseActing
		} else {
			s.phase = PhaseIdling
		}
	}
}

// LevelReady reports that local level assets finished loading. It answers the
// server's barrier and carries the parsed level so spawn requests can be
// filtered locally.
func (s *Session) LevelReady(lvl *level.Level) {
	if s.phase != PhaseLoadingLevel {
		return
	}
	s.lvl = lvl
	s.phase = PhaseLevelLoaded
	s.out.Send(protocol.LevelLoaded{})
}

// ToggleReady flips lobby readiness. Outside the lobby it does nothing.
func (s *Session) ToggleReady() {
	if s.phase != PhaseLobby {
		return
	}
	s.ready = !s.ready
	s.out.Send(protocol.ClientReady{})
}

// Rename asks the server to change this player's display name.
func (s *Session) Rename(name string) {
	if name == "" || len(name) > protocol.MaxNameLen {
		return
	}
	s.out.Send(protocol.ChangeName{Name: name})
}

// RequestSpawn asks to place the character. Requests outside the assigned
// spawn radius are filtered here and never sent.
func (s *Session) RequestSpawn(pos hex.Axial, elevation int) bool {
	if s.phase != PhaseSpawn || !s.hasSpawn || s.spawned {
		return false
	}
	radius := level.DefaultSpawnRadius
	if s.lvl != nil {
		radius = s.lvl.SpawnRadius
		if !s.lvl.Contains(pos) {
			return false
		}
	}
	if s.spawn.Pos.Distance(pos) >= radius {
		return false
	}
	s.out.Send(protocol.TrySpawnCharacter{Pos: pos, Elevation: elevation})
	return true
}

// EndTurn gives up the active turn. Only valid while acting.
func (s *Session) EndTurn() {
	if s.phase != PhaseActing {
		return
	}
	s.out.Send(protocol.EndTurn{})
}

func (s *Session) Phase() Phase            { return s.phase }
func (s *Session) Self() protocol.PlayerID { return s.self }
func (s *Session) LevelID() string         { return s.levelID }
func (s *Session) Ready() bool             { return s.ready }

// Spawn returns the assigned spawnpoint, if one arrived.
func (s *Session) Spawn() (level.Spawnpoint, bool) { return s.spawn, s.hasSpawn }

// CurrentTurn returns the player the server last announced.
func (s *Session) CurrentTurn() (protocol.PlayerID, bool) { return s.currentTurn, s.hasTurn }

// Players returns a copy of the roster mirror.
func (s *Session) Players() map[protocol.PlayerID]PlayerInfo {
	out := make(map[protocol.PlayerID]PlayerInfo, len(s.players))
	for id, p := range s.players {
		out[id] = *p
	}
	return out
}

// Actors returns a copy of the replicated character table.
func (s *Session) Actors() map[protocol.EntityRef]Actor {
	out := make(map[protocol.EntityRef]Actor, len(s.actors))
	for ref, a := range s.actors {
		out[ref] = *a
	}
	return out
}
