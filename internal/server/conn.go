package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hextactics/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	reliableQueueSize   = 256
	unreliableQueueSize = 64
	inboundQueueSize    = 256
)

// Connection wraps one websocket peer. Outbound traffic is split in two
// queues: the reliable queue must deliver in order, so overflowing it kills
// the connection; the unreliable queue sheds load by dropping the newest
// frame. The write pump drains the reliable queue first.
type Connection struct {
	id   protocol.PlayerID
	name string
	conn *websocket.Conn
	log  *zap.Logger

	reliable   chan []byte
	unreliable chan []byte
	inbound    chan protocol.ClientMessage

	// caps per-peer message rate so one client cannot monopolize a tick
	limiter *rate.Limiter

	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(ws *websocket.Conn, id protocol.PlayerID, name string, log *zap.Logger) *Connection {
	return &Connection{
		id:         id,
		name:       name,
		conn:       ws,
		log:        log.With(zap.Uint64("id", uint64(id))),
		reliable:   make(chan []byte, reliableQueueSize),
		unreliable: make(chan []byte, unreliableQueueSize),
		inbound:    make(chan protocol.ClientMessage, inboundQueueSize),
		limiter:    rate.NewLimiter(rate.Limit(60), 120),
		closed:     make(chan struct{}),
	}
}

func (c *Connection) ID() protocol.PlayerID { return c.id }

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// enqueue routes an encoded frame to the queue for its channel class.
func (c *Connection) enqueue(ch protocol.Channel, data []byte) {
	switch ch {
	case protocol.Reliable:
		select {
		case c.reliable <- data:
		default:
			// a peer that cannot keep up with reliable traffic has to go,
			// skipping frames here would corrupt its view of the match
			c.log.Warn("reliable queue overflow, closing connection")
			c.close()
		}
	default:
		select {
		case c.unreliable <- data:
		default:
			c.log.Debug("unreliable frame dropped")
		}
	}
}

// DrainInbound hands back every message read since the last tick.
func (c *Connection) DrainInbound() []protocol.ClientMessage {
	var msgs []protocol.ClientMessage
	for {
		select {
		case m := <-c.inbound:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func (c *Connection) readPump(leave chan<- *Connection) {
	defer func() {
		c.close()
		leave <- c
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.log.Warn("inbound rate limit exceeded, dropping message")
			continue
		}

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			// a bad frame is dropped, not the peer
			c.log.Warn("undecodable client message", zap.Error(err))
			continue
		}

		select {
		case c.inbound <- msg:
		default:
			c.log.Warn("inbound queue overflow, dropping message")
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	write := func(data []byte) bool {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(websocket.TextMessage, data) == nil
	}

	for {
		// reliable frames go out ahead of anything else
		select {
		case data := <-c.reliable:
			if !write(data) {
				return
			}
			continue
		default:
		}

		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.reliable:
			if !write(data) {
				return
			}
		case data := <-c.unreliable:
			if !write(data) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
