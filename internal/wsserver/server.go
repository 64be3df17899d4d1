// Package wsserver is the WebSocket transport: the accept loop,
// per-connection read/write pumps, ping/pong keepalive, and the framing
// that turns wire JSON into game.InboundEvent values and back.
package wsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ThakurMayank5/doodle-party-server/internal/directory"
	"github.com/ThakurMayank5/doodle-party-server/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler returns the gin handler for the WebSocket endpoint. A client
// joins an existing room with ?roomCode=XXXXX&nickname=..., or creates
// one with ?create=true&nickname=...
func Handler(dir *directory.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		nickname := c.Query("nickname")
		if nickname == "" {
			nickname = "Player"
		}

		var room *game.Room
		if c.Query("create") == "true" {
			room = dir.Create()
		} else {
			roomCode := c.Query("roomCode")
			found, ok := dir.Get(roomCode)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
				return
			}
			room = found
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		sessionID := uuid.NewString()
		cn := newConn(ws, sessionID, room, log.Logger)

		room.Post(game.JoinMsg{SessionID: sessionID, Nickname: nickname, Sink: cn})

		go cn.writePump()
		consented := cn.readPump()

		room.Post(game.LeaveMsg{SessionID: sessionID, Consented: consented})
		close(cn.send)
	}
}
