// Package entities holds the Lobby/Veto Engine's map pool, veto record and
// lobby state shapes. The map pool and veto protocol are this spec's own
// addition (§4.4), supplementing the teacher's slot-based lobby entity
// which has no map-veto concept at all.
package entities

import common "github.com/leetgaming/ranked-coordinator/pkg/domain"

// MapEntry is one playable map in the pool (spec §4.4: "a fixed set of
// maps, each with mapId and mapNumber").
type MapEntry struct {
	MapID     string `json:"mapId"`
	MapNumber int    `json:"mapNumber"`
}

// Status is the lobby's lifecycle stage.
type Status string

const (
	StatusVetoing     Status = "VETOING"
	StatusMapSelected Status = "MAP_SELECTED"
	StatusAbandoned   Status = "ABANDONED"
)

// VetoReason distinguishes a player-initiated veto from an auto-veto on
// turn-timer expiry (spec §4.4: "logs reason=TIMEOUT").
type VetoReason string

const (
	VetoReasonExplicit VetoReason = "EXPLICIT"
	VetoReasonTimeout  VetoReason = "TIMEOUT"
)

// VetoRecord is one turn's outcome, broadcast as VETO_UPDATE.
type VetoRecord struct {
	Team   common.Team `json:"team"`
	MapID  string      `json:"mapId"`
	Reason VetoReason  `json:"reason"`
}

// ChatChannel is the routing target for CHAT_SEND (spec §4.4).
type ChatChannel string

const (
	ChannelTeam    ChatChannel = "TEAM"
	ChannelGeneral ChatChannel = "GENERAL"
)

// Lobby is the full per-match veto/role-swap/chat state, persisted at
// `lobby:{id}:state` (teams/turn/status) with vetos and the selected map
// kept in their own keys per spec §6.
type Lobby struct {
	MatchID         common.MatchID
	Status          Status
	Teams           map[common.Team][]common.PlayerID
	AssignedRoles   map[common.PlayerID]string
	RemainingMaps   []MapEntry
	Vetos           []VetoRecord
	CurrentTurnTeam common.Team
	TurnExpiresAt   int64
	SelectedMap     *MapEntry
}

// TeamRoster returns the ordered slice of players on a team, used both for
// "first-listed player is the leader" (spec §4.4) and for per-viewer chat
// anonymization indexing.
func (l Lobby) TeamRoster(t common.Team) []common.PlayerID {
	return l.Teams[t]
}

// Leader is the first-listed player on a team, the only one allowed to
// cast that team's veto.
func (l Lobby) Leader(t common.Team) (common.PlayerID, bool) {
	roster := l.Teams[t]
	if len(roster) == 0 {
		return 0, false
	}
	return roster[0], true
}

// IndexOf returns a player's 1-based position within their own team
// roster, used to build the anonymized "Player 0N" display name.
func (l Lobby) IndexOf(player common.PlayerID) (team common.Team, index int, ok bool) {
	for t, roster := range l.Teams {
		for i, p := range roster {
			if p == player {
				return t, i + 1, true
			}
		}
	}
	return "", 0, false
}
