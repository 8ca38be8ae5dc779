// Package game owns the authoritative match state: the roster of connected
// players, the turn order, the phase machine and the entity table. A Session
// is driven by exactly one tick loop and is not safe for concurrent use.
// The transport drains every pending inbound message into Handle, then
// calls Advance once, so phase changes are a per-tick barrier check over a
// fully drained snapshot of player flags, never a reaction to a single
// message.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"hextactics/internal/level"
	"hextactics/internal/protocol"
)

var (
	// ErrEmptyTurnOrder means a turn should start but no player can take it.
	// This is a programming-error class condition, reported and not advanced
	// past.
	ErrEmptyTurnOrder = errors.New("turn order is empty")
	// ErrNoSpawnpoints means the level defines fewer spawnpoints than there
	// are players: a fatal misconfiguration.
	ErrNoSpawnpoints = errors.New("not enough spawnpoints for roster")
	// ErrDuplicateID rejects a connect reusing a live client id.
	ErrDuplicateID = errors.New("client id already connected")
)

// Sender is the session's one-way door to the transport. Implementations must
// not block.
type Sender interface {
	Send(id protocol.PlayerID, ch protocol.Channel, msg protocol.ServerMessage)
	Broadcast(ch protocol.Channel, msg protocol.ServerMessage)
}

// Recorder receives journal events. The zero value of interest is nil, which
// disables journaling.
type Recorder interface {
	Record(tick uint64, typ string, fields map[string]any)
}

// Options configures a Session. Sender and Level are required.
type Options struct {
	Logger   *zap.Logger
	Level    *level.Level
	Sender   Sender
	Recorder Recorder
	// Rand drives turn-order shuffling and name assignment. Defaults to a
	// time-seeded source; tests inject a fixed seed.
	Rand  *rand.Rand
	Names []string
}

type Session struct {
	log   *zap.Logger
	lvl   *level.Level
	out   Sender
	rec   Recorder
	rng   *rand.Rand
	names *NamePool

	tick  uint64
	phase Phase

	players map[protocol.PlayerID]*Player
	joined  []protocol.PlayerID // connection order
	order   []protocol.PlayerID // turn order, front is next up

	entities   map[protocol.EntityRef]*Entity
	nextEntity protocol.EntityRef
}

func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		log:      log,
		lvl:      opts.Level,
		out:      opts.Sender,
		rec:      opts.Recorder,
		rng:      rng,
		names:    NewNamePool(opts.Names),
		phase:    PhaseLobby,
		players:  make(map[protocol.PlayerID]*Player),
		entities: make(map[protocol.EntityRef]*Entity),
	}
}

// Connect admits a client. The newcomer is told about every existing player in
// connection order before the broadcast announcing the newcomer reaches
// everyone, itself included.
func (s *Session) Connect(id protocol.PlayerID, name string) error {
	if _, ok := s.players[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}

	pooled := false
	if name == "" {
		name = s.names.Take(s.rng, id)
		pooled = true
	}
	p := &Player{ID: id, Name: name, pooledName: pooled}

	for _, existingID := range s.joined {
		existing := s.players[existingID]
		s.out.Send(id, protocol.Reliable, protocol.PlayerConnected{
			ID:        existing.ID,
			Name:      existing.Name,
			EntityRef: existing.Entity,
		})
	}

	s.players[id] = p
	s.joined = append(s.joined, id)

	s.out.Broadcast(protocol.Reliable, protocol.PlayerConnected{ID: id, Name: name})

	// a client arriving mid-load joins the running barrier
	if s.phase == PhaseWaitingForLevelLoad {
		s.out.Send(id, protocol.Reliable, protocol.LoadLevel{LevelID: s.lvl.Name})
	}

	s.log.Info("player connected",
		zap.Uint64("id", uint64(id)),
		zap.String("name", name),
		zap.String("phase", s.phase.String()))
	s.record("playerConnected", map[string]any{"id": uint64(id), "name": name})
	return nil
}

// Disconnect removes a client from the roster and the turn order atomically,
// despawns its actor and announces the departure. If the departing player held
// the turn, the next turn starts immediately on the same tick; waiting out a
// timeout would stall the match forever since barrier waits have none.
func (s *Session) Disconnect(id protocol.PlayerID) {
	p, ok := s.players[id]
	if !ok {
		return
	}

	delete(s.players, id)
	s.joined = removeID(s.joined, id)
	s.order = removeID(s.order, id)

	if p.Entity != 0 {
		delete(s.entities, p.Entity)
	}
	if p.pooledName {
		s.names.Put(p.Name)
	}

	s.out.Broadcast(protocol.Reliable, protocol.PlayerDisconnected{ID: id})

	s.log.Info("player disconnected",
		zap.Uint64("id", uint64(id)),
		zap.String("name", p.Name),
		zap.String("phase", s.phase.String()))
	s.record("playerDisconnected", map[string]any{"id": uint64(id)})

	if p.Current && s.phase == PhasePlayerTurn {
		s.startTurn()
	}
}

// Handle applies one inbound message. A message that does not fit the current
// phase or sender is a silent no-op; only decode failures are errors, and the
// transport deals with those before the session ever sees the message.
func (s *Session) Handle(id protocol.PlayerID, msg protocol.ClientMessage) {
	p, ok := s.players[id]
	if !ok {
		return
	}

	switch m := msg.(type) {
	case protocol.ClientReady:
		if s.phase != PhaseLobby {
			return
		}
		p.Ready = !p.Ready
		s.log.Info("readiness toggled",
			zap.Uint64("id", uint64(id)),
			zap.Bool("ready", p.Ready))

	case protocol.LevelLoaded:
		if s.phase != PhaseWaitingForLevelLoad {
			return
		}
		// monotonic within this phase: no toggling back
		p.LevelLoaded = true
		s.log.Info("level loaded", zap.Uint64("id", uint64(id)))

	case protocol.TrySpawnCharacter:
		s.handleTrySpawn(p, m)

	case protocol.EndTurn:
		if s.phase != PhasePlayerTurn || !p.Current {
			return
		}
		s.phase = PhaseNextTurn
		s.record("endTurn", map[string]any{"id": uint64(id)})

	case protocol.ChangeName:
		if m.Name == "" || len(m.Name) > protocol.MaxNameLen {
			return
		}
		if p.pooledName {
			s.names.Put(p.Name)
			p.pooledName = false
		}
		p.Name = m.Name
		// cosmetic, so late delivery is harmless
		s.out.Broadcast(protocol.Unreliable, protocol.PlayerNameChanged{ID: id, Name: m.Name})
		s.record("nameChanged", map[string]any{"id": uint64(id), "name": m.Name})
	}
}

func (s *Session) handleTrySpawn(p *Player, m protocol.TrySpawnCharacter) {
	if s.phase != PhaseSpawn || p.Spawned || !p.HasSpawn {
		return
	}
	if !s.lvl.Contains(m.Pos) {
		return
	}
	// the client filters by distance before sending, but the server stays
	// the authority
	if p.Spawn.Pos.Distance(m.Pos) >= s.lvl.SpawnRadius {
		s.log.Warn("spawn request outside radius",
			zap.Uint64("id", uint64(p.ID)),
			zap.Int("distance", p.Spawn.Pos.Distance(m.Pos)))
		return
	}

	s.nextEntity++
	ref := s.nextEntity
	s.entities[ref] = &Entity{Ref: ref, Owner: p.ID, Pos: m.Pos, Elevation: m.Elevation}
	p.Entity = ref
	p.Spawned = true

	s.out.Broadcast(protocol.Reliable, protocol.SpawnCharacter{
		OwnerID:   p.ID,
		EntityRef: ref,
		Pos:       m.Pos,
		Elevation: m.Elevation,
	})
	s.record("spawnCharacter", map[string]any{
		"id": uint64(p.ID), "entity": uint64(ref), "q": m.Pos.Q, "r": m.Pos.R,
	})
}

// Advance runs the once-per-tick barrier checks and transient transitions.
// Call it after draining every pending inbound message for the tick.
func (s *Session) Advance() error {
	s.tick++

	switch s.phase {
	case PhaseLobby:
		if s.rosterNonEmpty() && s.allReady() {
			s.enterWaitingForLevelLoad()
		}
	case PhaseWaitingForLevelLoad:
		if s.rosterNonEmpty() && s.allLevelLoaded() {
			if err := s.enterSpawnPhase(); err != nil {
				return err
			}
		}
	case PhaseSpawn:
		if s.spawnResolved() {
			s.startTurn()
		}
	case PhaseNextTurn:
		s.startTurn()
	case PhasePlayerTurn:
		// waiting on EndTurn or a disconnect
	}
	return nil
}

func (s *Session) rosterNonEmpty() bool { return len(s.players) > 0 }

func (s *Session) allReady() bool {
	for _, p := range s.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (s *Session) allLevelLoaded() bool {
	for _, p := range s.players {
		if !p.LevelLoaded {
			return false
		}
	}
	return true
}

// spawnResolved is the explicit exit condition for SpawnPhase: every player
// holding an assigned spawnpoint has placed a character.
func (s *Session) spawnResolved() bool {
	assigned := false
	for _, p := range s.players {
		if !p.HasSpawn {
			continue
		}
		assigned = true
		if !p.Spawned {
			return false
		}
	}
	return assigned
}

func (s *Session) enterWaitingForLevelLoad() {
	s.phase = PhaseWaitingForLevelLoad
	for _, p := range s.players {
		p.Ready = false
		p.LevelLoaded = false
	}
	s.out.Broadcast(protocol.Reliable, protocol.LoadLevel{LevelID: s.lvl.Name})
	s.log.Info("all players ready", zap.String("level", s.lvl.Name))
	s.record("phase", map[string]any{"phase": s.phase.String(), "level": s.lvl.Name})
}

func (s *Session) enterSpawnPhase() error {
	if len(s.lvl.Spawnpoints) < len(s.players) {
		return fmt.Errorf("%w: %d spawnpoints, %d players",
			ErrNoSpawnpoints, len(s.lvl.Spawnpoints), len(s.players))
	}

	s.phase = PhaseSpawn

	// turn order is a shuffled permutation of the roster at this instant
	s.order = append([]protocol.PlayerID(nil), s.joined...)
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})

	// spawnpoints pair with players 1:1 in the order points were defined
	for i, id := range s.joined {
		p := s.players[id]
		p.Spawn = s.lvl.Spawnpoints[i]
		p.HasSpawn = true
		s.out.Send(id, protocol.Reliable, protocol.AssignSpawnpoint{
			Pos:       p.Spawn.Pos,
			Elevation: p.Spawn.Elevation,
		})
	}

	s.log.Info("entering spawn phase", zap.Int("players", len(s.players)))
	s.record("phase", map[string]any{"phase": s.phase.String(), "order": idsToUint64(s.order)})
	return nil
}

// startTurn rotates the turn order: the player who just finished becomes the
// new tail, the new front becomes current.
func (s *Session) startTurn() {
	// the finisher rejoins the tail before the front is popped, so a lone
	// surviving player hands the turn back to itself
	for _, p := range s.players {
		if p.Current {
			p.Current = false
			s.order = append(s.order, p.ID)
		}
	}

	if len(s.order) == 0 {
		s.log.Error("cannot start turn", zap.Error(ErrEmptyTurnOrder))
		s.record("invariantViolation", map[string]any{"error": ErrEmptyTurnOrder.Error()})
		return
	}

	next := s.order[0]
	s.order = s.order[1:]

	p, ok := s.players[next]
	if !ok {
		// order ⊆ roster is maintained on every disconnect, so this is a bug
		s.log.Error("turn order references unknown player", zap.Uint64("id", uint64(next)))
		return
	}
	p.Current = true
	s.phase = PhasePlayerTurn

	s.out.Broadcast(protocol.Reliable, protocol.PlayerTurn{ID: next})
	s.log.Info("turn started", zap.Uint64("id", uint64(next)), zap.String("name", p.Name))
	s.record("playerTurn", map[string]any{"id": uint64(next)})
}

func (s *Session) record(typ string, fields map[string]any) {
	if s.rec != nil {
		s.rec.Record(s.tick, typ, fields)
	}
}

// Accessors. The session is single-owner; these exist for the transport,
// the binaries and tests, all of which run on the tick goroutine.

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Tick() uint64 { return s.tick }

func (s *Session) RosterSize() int { return len(s.players) }

// Player returns a copy of one roster entry.
func (s *Session) Player(id protocol.PlayerID) (Player, bool) {
	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// RosterIDs returns the roster's ids in connection order.
func (s *Session) RosterIDs() []protocol.PlayerID {
	return append([]protocol.PlayerID(nil), s.joined...)
}

// TurnOrder returns the pending rotation, front first. The current player is
// not in it; it rejoins the tail when its turn ends.
func (s *Session) TurnOrder() []protocol.PlayerID {
	return append([]protocol.PlayerID(nil), s.order...)
}

// CurrentPlayer returns the active-turn holder, if any.
func (s *Session) CurrentPlayer() (protocol.PlayerID, bool) {
	for id, p := range s.players {
		if p.Current {
			return id, true
		}
	}
	return 0, false
}

// EntityCount reports how many actors are alive in the entity table.
func (s *Session) EntityCount() int { return len(s.entities) }

// EntityAt looks up an entity by ref.
func (s *Session) EntityAt(ref protocol.EntityRef) (Entity, bool) {
	e, ok := s.entities[ref]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

func removeID(ids []protocol.PlayerID, id protocol.PlayerID) []protocol.PlayerID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func idsToUint64(ids []protocol.PlayerID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}
