package game

import "sort"

// Score handles point awards, win-condition evaluation for both modes, and
// FFA tie detection.
type Score struct {
	state *GameState
}

// NewScore wraps state. Room builds one Score and keeps it for the room's
// lifetime; it only touches state while handling one of that room's events.
func NewScore(state *GameState) *Score {
	return &Score{state: state}
}

// AwardPoint increments the given team's score.
func (s *Score) AwardPoint(teamIndex int) {
	if teamIndex < 0 || teamIndex >= len(s.state.Teams) {
		return
	}
	s.state.Teams[teamIndex].Score++
}

// AwardPlayerPoint increments sessionID's FFA score.
func (s *Score) AwardPlayerPoint(sessionID string) {
	s.state.PlayerScores[sessionID]++
}

// CheckWinCondition evaluates the teams-mode win condition. Points mode
// returns the lowest-index team that has reached the target; rounds mode,
// once all rounds are played, returns the highest scorer. Ties break toward
// the lowest index: the scan only advances on strict greater-than.
func (s *Score) CheckWinCondition() int {
	switch s.state.Settings.WinMode {
	case WinRounds:
		if s.state.CurrentRound < s.state.Settings.TotalRounds {
			return -1
		}
		best := -1
		bestScore := -1
		for i, t := range s.state.Teams {
			if t.Score > bestScore {
				bestScore = t.Score
				best = i
			}
		}
		return best
	default: // WinPoints
		for i, t := range s.state.Teams {
			if t.Score >= s.state.Settings.TargetScore {
				return i
			}
		}
		return -1
	}
}

// CheckFFAWinCondition evaluates the FFA win/tie condition. An empty slice
// means "not won yet"; length 1 is an outright winner; length >= 2 is a
// tie requiring sudden death.
func (s *Score) CheckFFAWinCondition() []string {
	maxScore := 0
	for _, sc := range s.state.PlayerScores {
		if sc > maxScore {
			maxScore = sc
		}
	}

	switch s.state.Settings.WinMode {
	case WinRounds:
		if s.state.CurrentRound < s.state.Settings.TotalRounds {
			return nil
		}
	default: // WinPoints
		if maxScore < s.state.Settings.TargetScore {
			return nil
		}
	}

	if maxScore == 0 {
		return nil
	}

	winners := make([]string, 0, 2)
	for id, sc := range s.state.PlayerScores {
		if sc == maxScore {
			winners = append(winners, id)
		}
	}
	sort.Strings(winners)
	return winners
}

// ResetTeamScores zeros every team's score.
func (s *Score) ResetTeamScores() {
	for _, t := range s.state.Teams {
		t.Score = 0
	}
}

// ResetPlayerScores clears the FFA scoreboard.
func (s *Score) ResetPlayerScores() {
	s.state.PlayerScores = make(map[string]int)
}
