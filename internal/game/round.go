package game

import (
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ThakurMayank5/doodle-party-server/internal/wordbank"
)

// Phase timing.
const (
	wordSelectTimeout = 15 * time.Second
	hintRevealEvery   = 20 * time.Second
	roundEndDelay     = 5 * time.Second
	drawTick          = 1 * time.Second
)

// Round drives the phase state machine. It mutates GameState and asks
// roster/score to mutate their slices of it, schedules the phase timers,
// and talks to clients exclusively through Broadcaster.
type Round struct {
	state  *GameState
	roster *Roster
	score  *Score
	bc     Broadcaster
	sched  *Scheduler
	log    zerolog.Logger

	pendingWordChoices []string
	hint               *wordbank.Hint
	onRoundEndTimeout  func()
}

// NewRound borrows state, roster and score for the room's lifetime; they
// outlive any single dispatched event (the Round controller itself is
// long-lived, unlike Roster/Score which are cheap wrappers rebuilt by Room
// per handler if desired — here Room keeps one of each for the room).
func NewRound(state *GameState, roster *Roster, score *Score, bc Broadcaster, sched *Scheduler, log zerolog.Logger) *Round {
	return &Round{
		state:  state,
		roster: roster,
		score:  score,
		bc:     bc,
		sched:  sched,
		log:    log,
	}
}

// StartGame resets game-scoped state and begins round 1.
func (rc *Round) StartGame() {
	rc.state.CurrentRound = 0
	rc.state.ActiveTeamIndex = 0
	rc.state.WinningTeamIndex = -1
	rc.state.IsSuddenDeath = false
	rc.state.WinnerSessionIDs = nil

	switch rc.state.Settings.GameMode {
	case ModeFFA:
		rc.score.ResetPlayerScores()
		rc.roster.InitFFA()
	default:
		rc.score.ResetTeamScores()
	}

	rc.log.Info().Str("mode", string(rc.state.Settings.GameMode)).Msg("game started")
	rc.StartNextRound()
}

// StartNextRound cancels pending timers, wipes round-scoped fields, picks
// the next drawer, and offers word choices.
func (rc *Round) StartNextRound() {
	rc.sched.CancelAll()
	rc.bc.ClearCanvas()

	rc.state.Guesses = make([]GuessEntry, 0)
	rc.state.WordHint = ""
	rc.state.currentWord = ""
	rc.hint = nil
	rc.state.CurrentRound++

	var drawerID string
	var ok bool

	switch rc.state.Settings.GameMode {
	case ModeFFA:
		drawerID, ok = rc.roster.GetNextFFADrawer()
		if !ok {
			rc.abortRound("no FFA drawer available")
			return
		}
		rc.state.CurrentDrawer = drawerID
		rc.roster.AssignFFARoles(drawerID)
	default:
		rc.advancePastEmptyTeams()
		drawerID, ok = rc.roster.GetNextDrawer(rc.state.ActiveTeamIndex)
		if !ok {
			rc.abortRound("no drawer available for active team")
			return
		}
		rc.state.CurrentDrawer = drawerID
		rc.roster.AssignRoles(drawerID, rc.state.ActiveTeamIndex)
	}

	rc.offerWordChoices(drawerID)
}

// advancePastEmptyTeams skips activeTeamIndex past any team whose drawer
// queue is empty, trying at most once per team.
func (rc *Round) advancePastEmptyTeams() {
	n := len(rc.state.Teams)
	if n == 0 {
		return
	}
	for attempt := 0; attempt < n; attempt++ {
		if len(rc.state.Teams[rc.state.ActiveTeamIndex].DrawerQueue) > 0 {
			return
		}
		rc.state.ActiveTeamIndex = (rc.state.ActiveTeamIndex + 1) % n
	}
}

func (rc *Round) abortRound(reason string) {
	rc.log.Warn().Str("reason", reason).Msg("round aborted, returning to lobby")
	rc.state.Phase = PhaseLobby
	rc.state.CurrentDrawer = ""
	for _, p := range rc.state.Players {
		p.Role = RoleSpectator
	}
}

func (rc *Round) offerWordChoices(drawerID string) {
	rc.pendingWordChoices = wordbank.RandomWords(rc.state.Settings.WordCategory, 3)
	rc.state.Phase = PhaseWordSelect
	rc.bc.SendDirect(drawerID, wordChoicesMessage(rc.pendingWordChoices))
	rc.sched.Arm(TimerWordAutoPick, wordSelectTimeout)
}

// SelectWord handles `selectWord {wordIndex}`. Room has already verified
// the sender is the current drawer; this only validates phase and index.
func (rc *Round) SelectWord(wordIndex int) error {
	if rc.state.Phase != PhaseWordSelect {
		return ErrWrongPhase
	}
	if wordIndex < 0 || wordIndex >= len(rc.pendingWordChoices) {
		return ErrWordIndexOutOfRange
	}
	rc.commitWord(rc.pendingWordChoices[wordIndex])
	return nil
}

// commitWord is shared by SelectWord and the word-auto-pick timer.
func (rc *Round) commitWord(word string) {
	rc.sched.Cancel(TimerWordAutoPick)

	rc.state.currentWord = word
	rc.pendingWordChoices = nil
	rc.hint = wordbank.NewHint(word)
	rc.state.WordHint = rc.hint.Mask()
	rc.state.TimeRemaining = rc.state.Settings.DrawTime
	rc.state.Phase = PhaseDrawing

	rc.bc.SendDirect(rc.state.CurrentDrawer, secretWordMessage(word))

	rc.sched.ArmRepeating(TimerDrawTick, drawTick)
	rc.sched.ArmRepeating(TimerHintReveal, hintRevealEvery)
}

// ProcessGuess handles `guess {text}` after Room's role/phase guard has
// already confirmed the sender may guess.
func (rc *Round) ProcessGuess(playerID, nickname, text string) {
	normalizedGuess := strings.ToLower(strings.TrimSpace(text))
	normalizedWord := strings.ToLower(strings.TrimSpace(rc.state.currentWord))
	correct := normalizedGuess != "" && normalizedGuess == normalizedWord

	rc.state.AppendGuess(playerID, nickname, text, correct)
	if !correct {
		return
	}

	switch {
	case rc.state.Settings.GameMode == ModeFFA && rc.state.IsSuddenDeath:
		rc.bc.BroadcastAll(correctGuessMessage(playerID, nickname, rc.state.currentWord))
		rc.endSuddenDeathWin(playerID)
	case rc.state.Settings.GameMode == ModeFFA:
		rc.score.AwardPlayerPoint(playerID)
		rc.bc.BroadcastAll(correctGuessMessage(playerID, nickname, rc.state.currentWord))
		rc.endRound(true)
	default:
		rc.score.AwardPoint(rc.state.ActiveTeamIndex)
		rc.bc.BroadcastAll(correctGuessMessage(playerID, nickname, rc.state.currentWord))
		rc.endRound(true)
	}
}

func (rc *Round) endRound(wasCorrect bool) {
	rc.sched.CancelAll()
	rc.state.Phase = PhaseRoundEnd
	rc.releaseDrawer()

	teamIndex := -1
	teamName := ""
	if rc.state.Settings.GameMode != ModeFFA && rc.state.ActiveTeamIndex < len(rc.state.Teams) {
		teamIndex = rc.state.ActiveTeamIndex
		teamName = rc.state.Teams[teamIndex].Name
	}
	rc.bc.BroadcastAll(roundResultMessage(rc.state.currentWord, wasCorrect, teamIndex, teamName))

	if rc.state.Settings.GameMode == ModeFFA {
		rc.resolveFFARoundEnd()
	} else {
		rc.resolveTeamsRoundEnd()
	}
}

func (rc *Round) resolveTeamsRoundEnd() {
	winner := rc.score.CheckWinCondition()
	if winner >= 0 {
		rc.onRoundEndTimeout = func() {
			rc.state.WinningTeamIndex = winner
			rc.state.Phase = PhaseGameOver
		}
	} else {
		n := len(rc.state.Teams)
		if n > 0 {
			rc.state.ActiveTeamIndex = (rc.state.ActiveTeamIndex + 1) % n
		}
		rc.onRoundEndTimeout = rc.StartNextRound
	}
	rc.sched.Arm(TimerRoundAdvance, roundEndDelay)
}

func (rc *Round) resolveFFARoundEnd() {
	winners := rc.score.CheckFFAWinCondition()
	switch len(winners) {
	case 0:
		rc.onRoundEndTimeout = rc.StartNextRound
	case 1:
		winner := winners[0]
		rc.onRoundEndTimeout = func() {
			rc.state.WinnerSessionIDs = []string{winner}
			rc.state.Phase = PhaseGameOver
		}
	default:
		tied := winners
		rc.onRoundEndTimeout = func() {
			rc.startSuddenDeath(tied)
		}
	}
	rc.sched.Arm(TimerRoundAdvance, roundEndDelay)
}

// startSuddenDeath begins the FFA tie-breaker: a non-tied player draws and
// the first tied guesser to answer correctly wins the whole game.
func (rc *Round) startSuddenDeath(tiedIDs []string) {
	rc.state.IsSuddenDeath = true
	rc.state.WinnerSessionIDs = tiedIDs
	rc.state.Guesses = make([]GuessEntry, 0)
	rc.state.WordHint = ""
	rc.state.currentWord = ""
	rc.hint = nil

	drawerID, ok := rc.roster.GetSuddenDeathDrawer(tiedIDs)
	if !ok {
		rc.abortRound("no sudden-death drawer available")
		return
	}
	rc.state.CurrentDrawer = drawerID

	tied := make(map[string]bool, len(tiedIDs))
	for _, id := range tiedIDs {
		tied[id] = true
	}
	for _, p := range rc.state.Players {
		switch {
		case p.SessionID == drawerID:
			p.Role = RoleDrawer
		case tied[p.SessionID]:
			p.Role = RoleGuesser
		default:
			p.Role = RoleSpectator
		}
	}

	rc.log.Info().Strs("tied", tiedIDs).Str("drawer", drawerID).Msg("sudden death")
	rc.offerWordChoices(drawerID)
}

// endSuddenDeathWin declares sessionID the outright game winner.
func (rc *Round) endSuddenDeathWin(sessionID string) {
	rc.sched.CancelAll()
	rc.state.IsSuddenDeath = false
	rc.state.WinnerSessionIDs = []string{sessionID}
	rc.state.Phase = PhaseGameOver
	rc.releaseDrawer()
}

// releaseDrawer makes the round's drawer a spectator once drawing is over,
// so no player holds the drawer role outside word-select/drawing.
func (rc *Round) releaseDrawer() {
	for _, p := range rc.state.Players {
		if p.Role == RoleDrawer {
			p.Role = RoleSpectator
		}
	}
}

// HandleTimer is Room's entry point for a fired Scheduler timer. It is a
// no-op for anything stale.
func (rc *Round) HandleTimer(fired TimerFired) {
	if !rc.sched.Valid(fired) {
		rc.log.Debug().Str("kind", string(fired.Kind)).Msg("stale timer, ignoring")
		return
	}

	switch fired.Kind {
	case TimerWordAutoPick:
		if rc.state.Phase != PhaseWordSelect || len(rc.pendingWordChoices) == 0 {
			return
		}
		rc.commitWord(rc.pendingWordChoices[rand.Intn(len(rc.pendingWordChoices))])
	case TimerDrawTick:
		if rc.state.Phase != PhaseDrawing {
			return
		}
		rc.state.TimeRemaining--
		if rc.state.TimeRemaining <= 0 {
			rc.endRound(false)
		}
	case TimerHintReveal:
		if rc.state.Phase != PhaseDrawing || rc.hint == nil {
			return
		}
		if rc.hint.RevealRandomLetter() {
			rc.state.WordHint = rc.hint.Mask()
		}
	case TimerRoundAdvance:
		if rc.state.Phase != PhaseRoundEnd || rc.onRoundEndTimeout == nil {
			return
		}
		action := rc.onRoundEndTimeout
		rc.onRoundEndTimeout = nil
		action()
	}
}
