package wsserver

import (
	"encoding/json"

	"github.com/ThakurMayank5/doodle-party-server/internal/game"
)

// envelope is the client->server {type, data} wire shape, the inbound twin
// of game.OutboundMessage.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeEnvelope parses one client frame into a game.InboundEvent tagged
// with sessionID. A malformed or unrecognized frame returns ok=false and
// is silently dropped by the caller; bad input never kills the connection.
// isLeave signals the one frame type readPump handles itself rather than
// forwarding to the room.
func decodeEnvelope(sessionID string, raw []byte) (event game.InboundEvent, isLeave bool, ok bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, false
	}

	switch env.Type {
	case "leave":
		return nil, true, true

	case "setGameMode":
		var payload struct {
			GameMode game.GameMode `json:"gameMode"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, false, false
		}
		return game.SetGameModeEvent{SessionID: sessionID, GameMode: payload.GameMode}, false, true

	case "joinTeam":
		var payload struct {
			TeamIndex int `json:"teamIndex"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, false, false
		}
		return game.JoinTeamEvent{SessionID: sessionID, TeamIndex: payload.TeamIndex}, false, true

	case "spectate":
		return game.SpectateEvent{SessionID: sessionID}, false, true

	case "startGame":
		var payload struct {
			Settings *game.PartialSettings `json:"settings"`
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				return nil, false, false
			}
		}
		return game.StartGameEvent{SessionID: sessionID, Settings: payload.Settings}, false, true

	case "selectWord":
		var payload struct {
			WordIndex int `json:"wordIndex"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, false, false
		}
		return game.SelectWordEvent{SessionID: sessionID, WordIndex: payload.WordIndex}, false, true

	case "draw":
		var stroke game.DrawStroke
		if err := json.Unmarshal(env.Data, &stroke); err != nil {
			return nil, false, false
		}
		return game.DrawEvent{SessionID: sessionID, Stroke: stroke}, false, true

	case "clearCanvas":
		return game.ClearCanvasEvent{SessionID: sessionID}, false, true

	case "undo":
		return game.UndoEvent{SessionID: sessionID}, false, true

	case "guess":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, false, false
		}
		return game.GuessEvent{SessionID: sessionID, Text: payload.Text}, false, true

	case "chat":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, false, false
		}
		return game.ChatEvent{SessionID: sessionID, Text: payload.Text}, false, true

	case "playAgain":
		return game.PlayAgainEvent{SessionID: sessionID}, false, true

	default:
		return nil, false, false
	}
}
