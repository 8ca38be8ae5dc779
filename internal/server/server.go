// Package server runs the authoritative side of a match: it accepts websocket
// peers, performs the handshake, and drives the game session from a single
// tick loop. All session access happens on that loop; the per-connection read
// and write pumps only move bytes between the socket and the queues the loop
// drains.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hextactics/internal/config"
	"hextactics/internal/game"
	"hextactics/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Server struct {
	log     *zap.Logger
	cfg     config.Server
	session *game.Session

	// owned by the tick goroutine
	conns map[protocol.PlayerID]*Connection

	joins  chan *Connection
	leaves chan *Connection
}

// New builds a server without a session; the session needs the server as its
// Sender, so construction is two-step: New, build the session, then Attach.
func New(cfg config.Server, log *zap.Logger) *Server {
	return &Server{
		log:    log,
		cfg:    cfg,
		conns:  make(map[protocol.PlayerID]*Connection),
		joins:  make(chan *Connection, 16),
		leaves: make(chan *Connection, 16),
	}
}

// Attach binds the session the tick loop will drive. Must be called before
// Run or Handler.
func (s *Server) Attach(session *game.Session) {
	s.session = session
}

// Send implements game.Sender for one recipient. Called from the tick
// goroutine only.
func (s *Server) Send(id protocol.PlayerID, ch protocol.Channel, msg protocol.ServerMessage) {
	c, ok := s.conns[id]
	if !ok {
		return
	}
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		s.log.Error("encode failed", zap.Error(err))
		return
	}
	c.enqueue(ch, data)
}

// Broadcast implements game.Sender for the whole roster.
func (s *Server) Broadcast(ch protocol.Channel, msg protocol.ServerMessage) {
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		s.log.Error("encode failed", zap.Error(err))
		return
	}
	for _, c := range s.conns {
		c.enqueue(ch, data)
	}
}

// Handler upgrades websocket requests and performs the join handshake: the
// first binary frame from the client carries its chosen id and display name.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("upgrade failed", zap.Error(err))
			return
		}

		ws.SetReadDeadline(time.Now().Add(writeWait))
		_, frame, err := ws.ReadMessage()
		if err != nil {
			s.log.Warn("handshake read failed", zap.Error(err))
			ws.Close()
			return
		}
		id, name, err := protocol.DecodeHandshake(frame)
		if err != nil {
			s.log.Warn("bad handshake", zap.Error(err))
			ws.Close()
			return
		}
		ws.SetReadDeadline(time.Time{})

		c := newConnection(ws, id, name, s.log)
		go c.writePump()

		select {
		case s.joins <- c:
		case <-time.After(writeWait):
			s.log.Warn("join queue stalled, rejecting peer", zap.Uint64("id", uint64(id)))
			c.close()
			return
		}

		c.readPump(s.leaves)
	}
}

// Run drives the tick loop until the context is cancelled or the session
// reports a fatal error. Joins are admitted first so a fresh peer's messages
// count in the same tick, then every connection's inbound queue is drained,
// then departures are applied, then the session advances.
func (s *Server) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("server loop started",
		zap.Int("tick_rate", s.cfg.TickRate),
		zap.Int("max_players", s.cfg.MaxPlayers))

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-ticker.C:
			if err := s.tickOnce(); err != nil {
				s.shutdown()
				return fmt.Errorf("session: %w", err)
			}
		}
	}
}

func (s *Server) tickOnce() error {
	s.drainJoins()

	for id, c := range s.conns {
		for _, msg := range c.DrainInbound() {
			s.session.Handle(id, msg)
		}
	}

	s.drainLeaves()

	return s.session.Advance()
}

func (s *Server) drainJoins() {
	for {
		select {
		case c := <-s.joins:
			s.admit(c)
		default:
			return
		}
	}
}

func (s *Server) admit(c *Connection) {
	if s.session.RosterSize() >= s.cfg.MaxPlayers {
		s.log.Warn("match full, rejecting peer", zap.Uint64("id", uint64(c.id)))
		c.close()
		return
	}
	if _, ok := s.conns[c.id]; ok {
		s.log.Warn("duplicate connection, rejecting peer", zap.Uint64("id", uint64(c.id)))
		c.close()
		return
	}

	// the join replay and the newcomer's own announcement route through the
	// conns map, so registration has to come first
	s.conns[c.id] = c
	if err := s.session.Connect(c.id, c.name); err != nil {
		s.log.Warn("join rejected", zap.Uint64("id", uint64(c.id)), zap.Error(err))
		delete(s.conns, c.id)
		c.close()
		return
	}
}

func (s *Server) drainLeaves() {
	for {
		select {
		case c := <-s.leaves:
			// only drop the peer if it is still the registered connection;
			// a rejected duplicate must not evict the original
			if cur, ok := s.conns[c.id]; ok && cur == c {
				delete(s.conns, c.id)
				s.session.Disconnect(c.id)
			}
		default:
			return
		}
	}
}

func (s *Server) shutdown() {
	for _, c := range s.conns {
		c.close()
	}
}
