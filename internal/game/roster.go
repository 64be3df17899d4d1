package game

// AvatarPalette is the fixed 12-entry palette Room assigns from, round-robin
// on join order.
var AvatarPalette = [12]string{
	"#e74c3c", "#3498db", "#2ecc71", "#f1c40f",
	"#9b59b6", "#e67e22", "#1abc9c", "#e84393",
	"#34495e", "#fd79a8", "#00cec9", "#6c5ce7",
}

// teamPreset is one name+color pair InitTeams draws from.
type teamPreset struct {
	Name  string
	Color string
}

var teamPresets = []teamPreset{
	{Name: "Blaze", Color: "#e74c3c"},
	{Name: "Wave", Color: "#3498db"},
	{Name: "Forest", Color: "#2ecc71"},
	{Name: "Sun", Color: "#f1c40f"},
	{Name: "Storm", Color: "#9b59b6"},
	{Name: "Ember", Color: "#e67e22"},
	{Name: "Reef", Color: "#1abc9c"},
	{Name: "Bloom", Color: "#e84393"},
}

// ffaPoolName is the display name given to teams[0] when it is overloaded
// as the FFA pool.
const ffaPoolName = "Players"

// Roster handles player join/leave/spectate, team assignment, drawer-queue
// rotation, and role assignment for both game modes. It mutates the
// GameState it was handed at construction and nothing else.
type Roster struct {
	state *GameState
}

// NewRoster wraps state. Room builds one Roster and keeps it for the room's
// lifetime; it only touches state while handling one of that room's events.
func NewRoster(state *GameState) *Roster {
	return &Roster{state: state}
}

// InitTeams replaces the teams array with count fresh teams from the
// preset palette, clearing queues and scores.
func (r *Roster) InitTeams(count int) {
	teams := make([]*Team, count)
	for i := 0; i < count; i++ {
		preset := teamPresets[i%len(teamPresets)]
		teams[i] = &Team{
			Name:        preset.Name,
			Color:       preset.Color,
			Score:       0,
			DrawerQueue: nil,
		}
	}
	r.state.Teams = teams
}

func removeFromQueue(queue []string, sessionID string) []string {
	for i, id := range queue {
		if id == sessionID {
			return append(queue[:i:i], queue[i+1:]...)
		}
	}
	return queue
}

// JoinTeam assigns player to teamIndex, first removing them from any prior
// team queue. Rejoining the same team is idempotent in membership but
// re-appends to the tail.
func (r *Roster) JoinTeam(player *Player, teamIndex int) error {
	if teamIndex < 0 || teamIndex >= len(r.state.Teams) {
		return ErrTeamIndexOutOfRange
	}
	r.removePlayerFromCurrentTeam(player)
	player.TeamIndex = teamIndex
	team := r.state.Teams[teamIndex]
	team.DrawerQueue = append(team.DrawerQueue, player.SessionID)
	return nil
}

// SetSpectator removes player from any team queue and marks them a spectator.
func (r *Roster) SetSpectator(player *Player) {
	r.removePlayerFromCurrentTeam(player)
	player.TeamIndex = SpectatorTeamIndex
	player.Role = RoleSpectator
}

func (r *Roster) removePlayerFromCurrentTeam(player *Player) {
	if player.TeamIndex < 0 || player.TeamIndex >= len(r.state.Teams) {
		return
	}
	team := r.state.Teams[player.TeamIndex]
	team.DrawerQueue = removeFromQueue(team.DrawerQueue, player.SessionID)
}

// GetNextDrawer pops the front of teamIndex's queue and pushes it back to
// the tail (round-robin), returning ok=false if the queue is empty.
func (r *Roster) GetNextDrawer(teamIndex int) (string, bool) {
	if teamIndex < 0 || teamIndex >= len(r.state.Teams) {
		return "", false
	}
	team := r.state.Teams[teamIndex]
	if len(team.DrawerQueue) == 0 {
		return "", false
	}
	id := team.DrawerQueue[0]
	team.DrawerQueue = append(team.DrawerQueue[1:], id)
	return id, true
}

// AssignRoles assigns drawer/guesser/opponent/spectator for teams mode.
func (r *Roster) AssignRoles(drawerID string, activeTeamIndex int) {
	for _, p := range r.state.Players {
		switch {
		case p.SessionID == drawerID:
			p.Role = RoleDrawer
		case p.TeamIndex == activeTeamIndex:
			p.Role = RoleGuesser
		case p.TeamIndex >= 0:
			p.Role = RoleOpponent
		default:
			p.Role = RoleSpectator
		}
	}
}

// InitFFA clears teams and installs a single pseudo-team at index 0 acting
// as the FFA pool, populated in join order so round-robin rotation is
// deterministic.
func (r *Roster) InitFFA() {
	pool := &Team{Name: ffaPoolName, Color: "#95a5a6", Score: 0}
	for _, id := range r.state.JoinOrder() {
		p, ok := r.state.Players[id]
		if !ok || !p.IsConnected {
			continue
		}
		p.TeamIndex = 0
		pool.DrawerQueue = append(pool.DrawerQueue, id)
	}
	r.state.Teams = []*Team{pool}
	for _, p := range r.state.Players {
		if p.TeamIndex != 0 {
			p.TeamIndex = SpectatorTeamIndex
			p.Role = RoleSpectator
		}
	}
}

// AssignFFARoles assigns drawer to drawerID, guesser to every other pool
// member, and spectator to everyone else.
func (r *Roster) AssignFFARoles(drawerID string) {
	for _, p := range r.state.Players {
		switch {
		case p.SessionID == drawerID:
			p.Role = RoleDrawer
		case p.TeamIndex == 0:
			p.Role = RoleGuesser
		default:
			p.Role = RoleSpectator
		}
	}
}

// GetNextFFADrawer round-robins the FFA pool queue (teams[0]).
func (r *Roster) GetNextFFADrawer() (string, bool) {
	return r.GetNextDrawer(0)
}

// GetSuddenDeathDrawer scans the pool in queue order for the first
// connected session id not in tiedIDs, falling back to tiedIDs[0].
func (r *Roster) GetSuddenDeathDrawer(tiedIDs []string) (string, bool) {
	if len(r.state.Teams) == 0 {
		return "", false
	}
	tied := make(map[string]bool, len(tiedIDs))
	for _, id := range tiedIDs {
		tied[id] = true
	}
	for _, id := range r.state.Teams[0].DrawerQueue {
		p, ok := r.state.Players[id]
		if !ok || !p.IsConnected || tied[id] {
			continue
		}
		return id, true
	}
	if len(tiedIDs) > 0 {
		return tiedIDs[0], true
	}
	return "", false
}

// CanStartGame reports whether the room has enough assigned players for the
// current game mode, with a human-readable reason when it does not.
func (r *Roster) CanStartGame() (bool, string) {
	switch r.state.Settings.GameMode {
	case ModeFFA:
		connected := 0
		for _, p := range r.state.Players {
			if p.IsConnected {
				connected++
			}
		}
		if connected < 2 {
			return false, "Need at least 2 connected players to start"
		}
		return true, ""
	default:
		teamsWithPlayers := 0
		for _, t := range r.state.Teams {
			if len(t.DrawerQueue) > 0 {
				teamsWithPlayers++
			}
		}
		if teamsWithPlayers < 2 {
			return false, "Need at least two teams with a player each to start"
		}
		return true, ""
	}
}

// HandleDisconnect flips isConnected; queue membership is preserved.
func (r *Roster) HandleDisconnect(player *Player) {
	player.IsConnected = false
}

// HandleReconnect flips isConnected back on.
func (r *Roster) HandleReconnect(player *Player) {
	player.IsConnected = true
}
