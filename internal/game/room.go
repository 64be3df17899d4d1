package game

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	MaxClientsPerRoom = 16
	graceWindow       = 20 * time.Second
	startGameDelay    = 500 * time.Millisecond
)

// ClientSink is what a connected client's transport adapter must provide so
// Room can reach it without knowing anything about websockets. Satisfied
// by internal/wsserver's per-connection type.
type ClientSink interface {
	Send(msg OutboundMessage)
}

// JoinMsg is posted by the transport when sessionID (already minted by the
// transport layer) wants to join this room under nickname.
type JoinMsg struct {
	SessionID string
	Nickname  string
	Sink      ClientSink
}

// LeaveMsg is posted by the transport when a connection drops. Consented
// distinguishes an explicit leave from a dropped connection that should
// get a reconnection grace window.
type LeaveMsg struct {
	SessionID string
	Consented bool
}

// graceExpired is posted internally when a disconnected player's grace
// window runs out without a reconnect.
type graceExpired struct {
	SessionID string
}

// Room is the single serial event loop that owns one GameState and its
// stroke history, dispatches client messages to the controllers under
// role/phase guards, and fans out broadcasts. Every exported method below
// other than Post/Run is only ever called from the goroutine running Run.
// That, plus timer callbacks posting back into inbox rather than mutating
// directly, is what lets the rest of the package mutate GameState without
// locks.
type Room struct {
	Code string

	state         *GameState
	strokeHistory []DrawStroke

	roster *Roster
	score  *Score
	round  *Round
	sched  *Scheduler

	conns       map[string]ClientSink
	graceTimers map[string]*time.Timer
	colorIndex  int

	log zerolog.Logger

	inbox   chan any
	stopped bool

	onDispose func(code string)
}

// NewRoom builds a Room in its initial mode-select phase. onDispose, if
// non-nil, is called once (from the room's own goroutine) when the last
// client leaves — the directory uses it to drop the code->room mapping.
func NewRoom(code string, log zerolog.Logger, onDispose func(string)) *Room {
	state := NewGameState()
	rm := &Room{
		Code:        code,
		state:       state,
		conns:       make(map[string]ClientSink),
		graceTimers: make(map[string]*time.Timer),
		log:         log,
		inbox:       make(chan any, 256),
		onDispose:   onDispose,
	}
	rm.roster = NewRoster(state)
	rm.score = NewScore(state)
	rm.sched = NewScheduler(func(f TimerFired) { rm.Post(f) })
	rm.round = NewRound(state, rm.roster, rm.score, rm, rm.sched, log)
	return rm
}

// Post enqueues an event for the room's loop. It never blocks: a full
// inbox means the room is wedged or already disposed, and the event is
// logged and dropped rather than stalling the caller's goroutine.
func (rm *Room) Post(event any) {
	select {
	case rm.inbox <- event:
	default:
		rm.log.Warn().Msg("room inbox full, dropping event")
	}
}

// Run drains the event loop until the room disposes itself. Call it in its
// own goroutine; it returns once the last client has left.
func (rm *Room) Run() {
	for raw := range rm.inbox {
		rm.handle(raw)
		if rm.stopped {
			return
		}
		rm.broadcastState()
	}
}

func (rm *Room) handle(raw any) {
	switch v := raw.(type) {
	case JoinMsg:
		rm.handleJoin(v)
	case LeaveMsg:
		rm.handleLeave(v)
	case graceExpired:
		rm.handleGraceExpired(v)
	case TimerFired:
		rm.handleTimerFired(v)
	case InboundEvent:
		rm.handleInbound(v)
	default:
		rm.log.Warn().Msg("room received event of unknown type")
	}
}

func (rm *Room) broadcastState() {
	rm.BroadcastAll(Snapshot(rm.state))
}

// --- Broadcaster ------------------------------------------------------

func (rm *Room) BroadcastAll(msg OutboundMessage) {
	for _, sink := range rm.conns {
		sink.Send(msg)
	}
}

func (rm *Room) BroadcastExcept(sessionID string, msg OutboundMessage) {
	for id, sink := range rm.conns {
		if id != sessionID {
			sink.Send(msg)
		}
	}
}

func (rm *Room) SendDirect(sessionID string, msg OutboundMessage) {
	if sink, ok := rm.conns[sessionID]; ok {
		sink.Send(msg)
	}
}

func (rm *Room) ClearCanvas() {
	rm.strokeHistory = rm.strokeHistory[:0]
	rm.BroadcastAll(clearCanvasMessage())
}

func (rm *Room) sendError(sessionID, message string) {
	rm.SendDirect(sessionID, errorMessage(message))
}

// --- Join / leave / reconnect ------------------------------------------

const maxNicknameLen = 20

func (rm *Room) handleJoin(msg JoinMsg) {
	if len(rm.conns) >= MaxClientsPerRoom {
		msg.Sink.Send(errorMessage("Room is full"))
		return
	}

	if runes := []rune(msg.Nickname); len(runes) > maxNicknameLen {
		msg.Nickname = string(runes[:maxNicknameLen])
	}

	if oldID, old, ok := rm.findDisconnectedByNickname(msg.Nickname); ok {
		rm.reconnect(oldID, old, msg)
		return
	}

	color := AvatarPalette[rm.colorIndex%len(AvatarPalette)]
	rm.colorIndex++
	isHost := len(rm.state.Players) == 0

	player := &Player{
		SessionID:   msg.SessionID,
		Nickname:    msg.Nickname,
		AvatarColor: color,
		TeamIndex:   SpectatorTeamIndex,
		Role:        RoleSpectator,
		IsHost:      isHost,
		IsConnected: true,
	}
	rm.state.Players[msg.SessionID] = player
	rm.state.AppendJoinOrder(msg.SessionID)
	rm.conns[msg.SessionID] = msg.Sink

	msg.Sink.Send(connectedMessage(player, rm.Code))
	rm.sendHistoryIfDrawing(msg.Sink)

	rm.log.Info().Str("session", msg.SessionID).Str("nickname", msg.Nickname).Msg("player joined")
}

func (rm *Room) findDisconnectedByNickname(nickname string) (string, *Player, bool) {
	for id, p := range rm.state.Players {
		if !p.IsConnected && strings.EqualFold(p.Nickname, nickname) {
			return id, p, true
		}
	}
	return "", nil, false
}

// reconnect remaps a disconnected player onto a new connection: a fresh
// Player record under the new sessionId inherits the old one's identity,
// and every reference to the old id (drawer queue, currentDrawer) is
// patched in place.
func (rm *Room) reconnect(oldID string, old *Player, msg JoinMsg) {
	newPlayer := &Player{
		SessionID:   msg.SessionID,
		Nickname:    old.Nickname,
		AvatarColor: old.AvatarColor,
		TeamIndex:   old.TeamIndex,
		Role:        old.Role,
		IsHost:      old.IsHost,
		IsConnected: true,
	}

	delete(rm.state.Players, oldID)
	rm.state.Players[msg.SessionID] = newPlayer
	rm.state.ReplaceJoinOrder(oldID, msg.SessionID)

	if newPlayer.TeamIndex >= 0 && newPlayer.TeamIndex < len(rm.state.Teams) {
		team := rm.state.Teams[newPlayer.TeamIndex]
		replaced := false
		for i, id := range team.DrawerQueue {
			if id == oldID {
				team.DrawerQueue[i] = msg.SessionID
				replaced = true
				break
			}
		}
		if !replaced {
			team.DrawerQueue = append(team.DrawerQueue, msg.SessionID)
		}
	}

	if rm.state.CurrentDrawer == oldID {
		rm.state.CurrentDrawer = msg.SessionID
	}

	rm.cancelGraceTimer(oldID)
	rm.conns[msg.SessionID] = msg.Sink

	msg.Sink.Send(connectedMessage(newPlayer, rm.Code))
	rm.sendHistoryIfDrawing(msg.Sink)

	rm.log.Info().Str("session", msg.SessionID).Str("nickname", newPlayer.Nickname).Msg("player reconnected")
}

func (rm *Room) sendHistoryIfDrawing(sink ClientSink) {
	if rm.state.Phase == PhaseDrawing && len(rm.strokeHistory) > 0 {
		// Copy so the sink's write pump never observes later appends.
		history := make([]DrawStroke, len(rm.strokeHistory))
		copy(history, rm.strokeHistory)
		sink.Send(strokeHistoryMessage(history))
	}
}

func (rm *Room) handleLeave(msg LeaveMsg) {
	if msg.Consented {
		rm.removePlayer(msg.SessionID)
		return
	}

	player, ok := rm.state.Players[msg.SessionID]
	if !ok {
		delete(rm.conns, msg.SessionID)
		return
	}
	rm.roster.HandleDisconnect(player)
	delete(rm.conns, msg.SessionID)

	sessionID := msg.SessionID
	rm.graceTimers[sessionID] = time.AfterFunc(graceWindow, func() {
		rm.Post(graceExpired{SessionID: sessionID})
	})
}

func (rm *Room) handleGraceExpired(ev graceExpired) {
	if _, stillPending := rm.graceTimers[ev.SessionID]; !stillPending {
		return
	}
	delete(rm.graceTimers, ev.SessionID)
	rm.removePlayer(ev.SessionID)
}

func (rm *Room) cancelGraceTimer(sessionID string) {
	if t, ok := rm.graceTimers[sessionID]; ok {
		t.Stop()
		delete(rm.graceTimers, sessionID)
	}
}

func (rm *Room) removePlayer(sessionID string) {
	player, ok := rm.state.Players[sessionID]
	if !ok {
		delete(rm.conns, sessionID)
		return
	}

	rm.roster.removePlayerFromCurrentTeam(player)
	delete(rm.state.Players, sessionID)
	rm.state.RemoveJoinOrder(sessionID)
	delete(rm.conns, sessionID)
	rm.cancelGraceTimer(sessionID)

	if player.IsHost {
		rm.promoteNextHost()
	}

	rm.log.Info().Str("session", sessionID).Msg("player left")

	if len(rm.state.Players) == 0 {
		rm.dispose()
	}
}

// promoteNextHost hands the host role to the earliest-joined connected
// player. Players sitting out a grace window are skipped; if everyone left
// is disconnected, the earliest of those gets it so the role survives a
// reconnect.
func (rm *Room) promoteNextHost() {
	var fallback *Player
	for _, id := range rm.state.JoinOrder() {
		p, ok := rm.state.Players[id]
		if !ok {
			continue
		}
		if p.IsConnected {
			p.IsHost = true
			return
		}
		if fallback == nil {
			fallback = p
		}
	}
	if fallback != nil {
		fallback.IsHost = true
	}
}

func (rm *Room) dispose() {
	rm.sched.CancelAll()
	for id, t := range rm.graceTimers {
		t.Stop()
		delete(rm.graceTimers, id)
	}
	rm.stopped = true
	rm.log.Info().Msg("room disposed")
	if rm.onDispose != nil {
		rm.onDispose(rm.Code)
	}
}

// --- Timer dispatch ------------------------------------------------------

func (rm *Room) handleTimerFired(f TimerFired) {
	if f.Kind == TimerStartGameDelay {
		if rm.sched.Valid(f) {
			rm.round.StartGame()
		}
		return
	}
	rm.round.HandleTimer(f)
}

// --- Inbound message dispatch ------------------------------------------
//
// Each handler below checks guards in a fixed order: phase, then
// identity/role, then payload validity, before touching state.

func (rm *Room) drop(reason DropReason, sessionID string) {
	rm.log.Debug().Str("reason", string(reason)).Str("session", sessionID).Msg("dropped message")
}

func (rm *Room) handleInbound(raw InboundEvent) {
	switch ev := raw.(type) {
	case SetGameModeEvent:
		rm.onSetGameMode(ev)
	case JoinTeamEvent:
		rm.onJoinTeam(ev)
	case SpectateEvent:
		rm.onSpectate(ev)
	case StartGameEvent:
		rm.onStartGame(ev)
	case SelectWordEvent:
		rm.onSelectWord(ev)
	case DrawEvent:
		rm.onDraw(ev)
	case ClearCanvasEvent:
		rm.onClearCanvas(ev)
	case UndoEvent:
		rm.onUndo(ev)
	case GuessEvent:
		rm.onGuess(ev)
	case ChatEvent:
		rm.onChat(ev)
	case PlayAgainEvent:
		rm.onPlayAgain(ev)
	}
}

func (rm *Room) onSetGameMode(ev SetGameModeEvent) {
	if rm.state.Phase != PhaseModeSelect {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	p, ok := rm.state.Players[ev.SessionID]
	if !ok || !p.IsHost {
		rm.sendError(ev.SessionID, "Only the host can change the game mode")
		return
	}
	switch ev.GameMode {
	case ModeFFA:
		rm.state.Teams = nil
	case ModeTeams:
		if len(rm.state.Teams) == 0 {
			rm.roster.InitTeams(2)
		}
	default:
		rm.sendError(ev.SessionID, "Unknown game mode")
		return
	}
	rm.state.Settings.GameMode = ev.GameMode
	rm.state.Phase = PhaseLobby
}

func (rm *Room) onJoinTeam(ev JoinTeamEvent) {
	if rm.state.Phase != PhaseLobby {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	p, ok := rm.state.Players[ev.SessionID]
	if !ok {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	if err := rm.roster.JoinTeam(p, ev.TeamIndex); err != nil {
		rm.drop(DropBadPayload, ev.SessionID)
	}
}

func (rm *Room) onSpectate(ev SpectateEvent) {
	if rm.state.Phase != PhaseLobby {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	p, ok := rm.state.Players[ev.SessionID]
	if !ok {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	rm.roster.SetSpectator(p)
}

func (rm *Room) onStartGame(ev StartGameEvent) {
	if rm.state.Phase != PhaseLobby {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	p, ok := rm.state.Players[ev.SessionID]
	if !ok || !p.IsHost {
		rm.sendError(ev.SessionID, "Only the host can start the game")
		return
	}
	if ok, reason := rm.roster.CanStartGame(); !ok {
		rm.sendError(ev.SessionID, reason)
		return
	}
	rm.mergeSettings(ev.Settings)
	rm.sched.Arm(TimerStartGameDelay, startGameDelay)
}

func (rm *Room) mergeSettings(p *PartialSettings) {
	if p == nil {
		return
	}
	s := &rm.state.Settings
	if p.GameMode != nil {
		s.GameMode = *p.GameMode
	}
	if p.WinMode != nil {
		s.WinMode = *p.WinMode
	}
	if p.TargetScore != nil {
		s.TargetScore = *p.TargetScore
	}
	if p.TotalRounds != nil {
		s.TotalRounds = *p.TotalRounds
	}
	if p.DrawTime != nil {
		dt := *p.DrawTime
		if dt < 30 {
			dt = 30
		}
		if dt > 120 {
			dt = 120
		}
		s.DrawTime = dt
	}
	if p.WordCategory != nil {
		s.WordCategory = *p.WordCategory
	}
}

func (rm *Room) onSelectWord(ev SelectWordEvent) {
	if rm.state.Phase != PhaseWordSelect {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	if ev.SessionID != rm.state.CurrentDrawer {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	if err := rm.round.SelectWord(ev.WordIndex); err != nil {
		rm.drop(DropBadPayload, ev.SessionID)
	}
}

func (rm *Room) onDraw(ev DrawEvent) {
	if rm.state.Phase != PhaseDrawing {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	if ev.SessionID != rm.state.CurrentDrawer {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	rm.strokeHistory = append(rm.strokeHistory, ev.Stroke)
	rm.BroadcastExcept(ev.SessionID, drawMessage(ev.Stroke))
}

func (rm *Room) onClearCanvas(ev ClearCanvasEvent) {
	if rm.state.Phase != PhaseDrawing {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	if ev.SessionID != rm.state.CurrentDrawer {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	rm.ClearCanvas()
}

func (rm *Room) onUndo(ev UndoEvent) {
	if rm.state.Phase != PhaseDrawing {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	if ev.SessionID != rm.state.CurrentDrawer {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	if len(rm.strokeHistory) > 0 {
		rm.strokeHistory = rm.strokeHistory[:len(rm.strokeHistory)-1]
	}
	rm.BroadcastAll(undoMessage())
}

// canGuess applies the per-mode guessing eligibility rules: in teams mode
// only the active team's guessers may guess, in FFA anyone but the drawer,
// and in sudden death only the tied players.
func (rm *Room) canGuess(p *Player) bool {
	if p.SessionID == rm.state.CurrentDrawer {
		return false
	}
	if rm.state.Settings.GameMode == ModeFFA {
		if rm.state.IsSuddenDeath {
			return p.Role == RoleGuesser
		}
		return true
	}
	return p.Role == RoleGuesser
}

func (rm *Room) onGuess(ev GuessEvent) {
	if rm.state.Phase != PhaseDrawing {
		rm.drop(DropWrongPhase, ev.SessionID)
		return
	}
	p, ok := rm.state.Players[ev.SessionID]
	if !ok {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	if !rm.canGuess(p) {
		rm.sendError(ev.SessionID, "You can't guess right now")
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		rm.drop(DropBadPayload, ev.SessionID)
		return
	}
	rm.round.ProcessGuess(ev.SessionID, p.Nickname, text)
}

func (rm *Room) onChat(ev ChatEvent) {
	p, ok := rm.state.Players[ev.SessionID]
	if !ok {
		rm.drop(DropWrongSender, ev.SessionID)
		return
	}
	if rm.state.Phase == PhaseDrawing && p.Role == RoleGuesser {
		rm.sendError(ev.SessionID, "Guessers can't chat during the drawing phase")
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		rm.drop(DropBadPayload, ev.SessionID)
		return
	}
	rm.state.AppendChat(ChatEntry{
		PlayerID:  ev.SessionID,
		Nickname:  p.Nickname,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (rm *Room) onPlayAgain(ev PlayAgainEvent) {
	p, ok := rm.state.Players[ev.SessionID]
	if !ok || !p.IsHost {
		rm.sendError(ev.SessionID, "Only the host can start a new game")
		return
	}
	rm.resetToLobby()
}

// resetToLobby returns the room to mode-select with every player back to
// spectator, ready for another game.
func (rm *Room) resetToLobby() {
	rm.sched.CancelAll()
	rm.ClearCanvas()

	rm.state.Phase = PhaseModeSelect
	rm.state.CurrentRound = 0
	rm.state.ActiveTeamIndex = 0
	rm.state.CurrentDrawer = ""
	rm.state.WordHint = ""
	rm.state.currentWord = ""
	rm.state.TimeRemaining = 0
	rm.state.Guesses = make([]GuessEntry, 0)
	rm.state.WinningTeamIndex = -1
	rm.state.WinnerSessionIDs = nil
	rm.state.PlayerScores = make(map[string]int)
	rm.state.IsSuddenDeath = false
	rm.state.Settings.GameMode = ModeTeams

	for _, p := range rm.state.Players {
		p.TeamIndex = SpectatorTeamIndex
		p.Role = RoleSpectator
	}
	rm.roster.InitTeams(2)
}
