package wsserver

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ThakurMayank5/doodle-party-server/internal/game"
)

// Keepalive: ping every 10s, drop the connection after 6 missed pongs.
const (
	pingPeriod = 10 * time.Second
	pongWait   = 6 * pingPeriod
	writeWait  = 5 * time.Second
)

const sendBuffer = 64

// conn adapts one gorilla websocket connection into a game.ClientSink,
// with a buffered outbound channel so a slow client can't stall the
// Room's event loop (Send is called from Room's goroutine).
type conn struct {
	ws        *websocket.Conn
	sessionID string
	room      *game.Room
	send      chan game.OutboundMessage
	log       zerolog.Logger
}

func newConn(ws *websocket.Conn, sessionID string, room *game.Room, log zerolog.Logger) *conn {
	return &conn{
		ws:        ws,
		sessionID: sessionID,
		room:      room,
		send:      make(chan game.OutboundMessage, sendBuffer),
		log:       log,
	}
}

// Send implements game.ClientSink. It never blocks the caller: a full
// outbound buffer means this client is too slow and its message is
// dropped rather than stalling the room.
func (c *conn) Send(msg game.OutboundMessage) {
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Str("session", c.sessionID).Msg("client send buffer full, dropping message")
	}
}

// writePump owns all writes to the underlying connection: outbound game
// messages and the keepalive ping. Exactly one goroutine may write to a
// gorilla connection at a time, so everything funnels through here.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump is the inbound half: it decodes frames, translates them to
// game.InboundEvent values, and posts them to the room. It returns once
// the connection closes or the client sends an explicit leave message;
// the return value tells the caller which happened so it can post the
// right kind of LeaveMsg.
func (c *conn) readPump() (consented bool) {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return false
		}
		event, isLeave, ok := decodeEnvelope(c.sessionID, raw)
		if !ok {
			continue
		}
		if isLeave {
			return true
		}
		c.room.Post(event)
	}
}
