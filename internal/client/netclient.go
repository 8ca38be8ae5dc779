package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hextactics/internal/protocol"
)

// NewClientID derives a connect id from the wall clock. Collisions between
// two clients dialing in the same millisecond are caught by the server's
// duplicate check.
func NewClientID() protocol.PlayerID {
	return protocol.PlayerID(time.Now().UnixMilli())
}

// NetClient owns the websocket to the server: a write queue drained by one
// pump, and an inbound queue the local tick drains with Drain. Decoding
// happens on the read pump so the driver never sees raw frames.
type NetClient struct {
	conn *websocket.Conn
	log  *zap.Logger
	id   protocol.PlayerID

	send    chan []byte
	inbound chan protocol.ServerMessage

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects, sends the handshake frame and starts the pumps.
func Dial(url string, id protocol.PlayerID, name string, log *zap.Logger) (*NetClient, error) {
	frame, err := protocol.EncodeHandshake(id, name)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	nc := &NetClient{
		conn:    conn,
		log:     log,
		id:      id,
		send:    make(chan []byte, 256),
		inbound: make(chan protocol.ServerMessage, 256),
		done:    make(chan struct{}),
	}
	go nc.readPump()
	go nc.writePump()
	return nc, nil
}

func (nc *NetClient) ID() protocol.PlayerID { return nc.id }

// Done closes when the connection is gone.
func (nc *NetClient) Done() <-chan struct{} { return nc.done }

// Send queues one message for the server. A full queue drops the message;
// the server treats missing client messages as the client staying silent.
func (nc *NetClient) Send(msg protocol.ClientMessage) {
	data, err := protocol.EncodeClient(msg)
	if err != nil {
		nc.log.Error("encode failed", zap.Error(err))
		return
	}
	select {
	case nc.send <- data:
	default:
		nc.log.Warn("send queue full, dropping message")
	}
}

// Drain returns every server message received since the last call.
func (nc *NetClient) Drain() []protocol.ServerMessage {
	var msgs []protocol.ServerMessage
	for {
		select {
		case m := <-nc.inbound:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func (nc *NetClient) Close() {
	nc.closeOnce.Do(func() {
		close(nc.done)
		nc.conn.Close()
	})
}

func (nc *NetClient) readPump() {
	defer nc.Close()

	for {
		_, data, err := nc.conn.ReadMessage()
		if err != nil {
			select {
			case <-nc.done:
			default:
				nc.log.Warn("connection lost", zap.Error(err))
			}
			return
		}

		msg, err := protocol.DecodeServer(data)
		if err != nil {
			nc.log.Warn("undecodable server message", zap.Error(err))
			continue
		}

		select {
		case nc.inbound <- msg:
		default:
			nc.log.Warn("inbound queue full, dropping message")
		}
	}
}

func (nc *NetClient) writePump() {
	defer nc.Close()

	for {
		select {
		case <-nc.done:
			nc.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-nc.send:
			if err := nc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
