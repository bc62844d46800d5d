// Package services implements the Lobby/Veto Engine: the alternating map
// veto protocol, intra-team role swap and the two-channel chat router
// (spec §4.4). Grounded on lobby_orchestration_service.go's orchestration
// shape, extended with the map-veto/chat concepts the teacher's lobby
// entity doesn't carry.
package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/ports/out"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

// turnTimerDuration isn't pinned by a numeric value in this pipeline's
// design notes beyond "the turn timer"; 15s matches the ready-check/host
// timer family's order of magnitude for a single-click decision window.
const turnTimerDuration = 15 * time.Second

// startingTeam is the deterministic first-to-veto side (spec §4.4 example).
const startingTeam = common.TeamAlpha

type Clock func() int64

func RealClock() int64 { return time.Now().UnixMilli() }

type Service struct {
	repo       out.Repository
	matchState matchstate.Repository
	hostStart  out.HostStarter
	requeue    out.Requeuer
	cooldowns  out.CooldownTracker
	broadcast  transport.Broadcaster
	mapPool    []entities.MapEntry
	clock      Clock

	mu     sync.Mutex
	timers map[common.MatchID]*time.Timer
}

func NewService(
	repo out.Repository,
	matchState matchstate.Repository,
	hostStart out.HostStarter,
	requeue out.Requeuer,
	cooldowns out.CooldownTracker,
	broadcast transport.Broadcaster,
	mapPool []entities.MapEntry,
	clock Clock,
) *Service {
	return &Service{
		repo:       repo,
		matchState: matchState,
		hostStart:  hostStart,
		requeue:    requeue,
		cooldowns:  cooldowns,
		broadcast:  broadcast,
		mapPool:    mapPool,
		clock:      clock,
		timers:     make(map[common.MatchID]*time.Timer),
	}
}

// StartLobby builds the initial veto state from the classes hash the Queue
// Engine wrote and the Ready Check Coordinator just confirmed, then arms
// the first turn timer.
func (s *Service) StartLobby(ctx context.Context, matchID common.MatchID) error {
	classes, err := s.matchState.Classes(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_CLASSES_READ_FAILED", err)
	}
	if len(s.mapPool) < 6 {
		return common.NewFatalError("MAP_POOL_TOO_SMALL", nil)
	}

	teams := map[common.Team][]common.PlayerID{}
	roles := map[common.PlayerID]string{}
	for _, c := range classes {
		teams[c.Team] = append(teams[c.Team], c.PlayerID)
		roles[c.PlayerID] = c.AssignedRole
	}
	for _, roster := range teams {
		sort.Slice(roster, func(i, j int) bool { return roster[i] < roster[j] })
	}

	pool := append([]entities.MapEntry(nil), s.mapPool...)
	now := s.clock()
	lobby := entities.Lobby{
		MatchID:         matchID,
		Status:          entities.StatusVetoing,
		Teams:           teams,
		AssignedRoles:   roles,
		RemainingMaps:   pool,
		CurrentTurnTeam: startingTeam,
		TurnExpiresAt:   now + turnTimerDuration.Milliseconds(),
	}
	if err := s.repo.Save(ctx, lobby); err != nil {
		return common.NewTransientError("LOBBY_SAVE_FAILED", err)
	}

	s.broadcastLobbyData(ctx, lobby)
	s.armTurnTimer(matchID)
	return nil
}

func (s *Service) armTurnTimer(matchID common.MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[matchID]; ok {
		existing.Stop()
	}
	s.timers[matchID] = time.AfterFunc(turnTimerDuration, func() {
		if err := s.onTurnTimeout(context.Background(), matchID); err != nil {
			slog.ErrorContext(context.Background(), "veto turn timeout failed", "match_id", matchID, "error", err)
		}
	})
}

func (s *Service) stopTimer(matchID common.MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[matchID]; ok {
		t.Stop()
		delete(s.timers, matchID)
	}
}

// Veto applies one explicit veto cast by the current turn team's leader.
func (s *Service) Veto(ctx context.Context, matchID common.MatchID, player common.PlayerID, mapID string) error {
	lobby, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_READ_FAILED", err)
	}
	if !ok || lobby.Status != entities.StatusVetoing {
		return common.NewLogicalError("LOBBY_NOT_VETOING")
	}

	leader, hasLeader := lobby.Leader(lobby.CurrentTurnTeam)
	if !hasLeader || leader != player {
		return common.NewValidationError("NOT_TURN_LEADER")
	}
	if !containsMap(lobby.RemainingMaps, mapID) {
		return common.NewValidationError("MAP_NOT_AVAILABLE")
	}

	return s.applyVeto(ctx, lobby, mapID, entities.VetoReasonExplicit)
}

func (s *Service) onTurnTimeout(ctx context.Context, matchID common.MatchID) error {
	lobby, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_READ_FAILED", err)
	}
	if !ok || lobby.Status != entities.StatusVetoing {
		return nil
	}
	// Auto-veto the lexicographically-first remaining map (spec §4.4).
	sorted := append([]entities.MapEntry(nil), lobby.RemainingMaps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MapID < sorted[j].MapID })
	return s.applyVeto(ctx, lobby, sorted[0].MapID, entities.VetoReasonTimeout)
}

func (s *Service) applyVeto(ctx context.Context, lobby entities.Lobby, mapID string, reason entities.VetoReason) error {
	s.stopTimer(lobby.MatchID)

	record := entities.VetoRecord{Team: lobby.CurrentTurnTeam, MapID: mapID, Reason: reason}
	lobby.Vetos = append(lobby.Vetos, record)
	lobby.RemainingMaps = removeMap(lobby.RemainingMaps, mapID)

	s.broadcastAll(ctx, lobby, transport.Message{Type: transport.TypeVetoUpdate, Payload: record})

	if len(lobby.RemainingMaps) == 1 {
		lobby.Status = entities.StatusMapSelected
		lobby.SelectedMap = &lobby.RemainingMaps[0]
		if err := s.repo.Save(ctx, lobby); err != nil {
			return common.NewTransientError("LOBBY_SAVE_FAILED", err)
		}
		s.broadcastAll(ctx, lobby, transport.Message{Type: transport.TypeMapSelected, Payload: lobby.SelectedMap})
		return s.hostStart.StartHost(ctx, lobby.MatchID, lobby.SelectedMap.MapNumber)
	}

	lobby.CurrentTurnTeam = lobby.CurrentTurnTeam.Other()
	lobby.TurnExpiresAt = s.clock() + turnTimerDuration.Milliseconds()
	if err := s.repo.Save(ctx, lobby); err != nil {
		return common.NewTransientError("LOBBY_SAVE_FAILED", err)
	}
	s.broadcastAll(ctx, lobby, transport.Message{Type: transport.TypeTurnChange, Payload: turnChangePayload{Team: lobby.CurrentTurnTeam}})
	s.armTurnTimer(lobby.MatchID)
	return nil
}

type turnChangePayload struct {
	Team common.Team `json:"team"`
}

// RequestSwap notifies the target player of a proposed intra-team role
// swap (spec §4.4). No state changes until AcceptSwap.
func (s *Service) RequestSwap(ctx context.Context, matchID common.MatchID, from, to common.PlayerID) error {
	lobby, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_READ_FAILED", err)
	}
	if !ok {
		return common.NewLogicalError("LOBBY_NOT_FOUND")
	}
	fromTeam, _, fOk := lobby.IndexOf(from)
	toTeam, _, tOk := lobby.IndexOf(to)
	if !fOk || !tOk || fromTeam != toTeam {
		return common.NewValidationError("SWAP_MUST_BE_INTRA_TEAM")
	}
	s.sendOne(ctx, to, transport.Message{Type: transport.TypeLobbySwapRequested, Payload: swapPayload{From: from, To: to}})
	return nil
}

// AcceptSwap atomically exchanges assignedRole between from and to, then
// resynchronizes both players' lobby view via LOBBY_DATA.
func (s *Service) AcceptSwap(ctx context.Context, matchID common.MatchID, from, to common.PlayerID) error {
	lobby, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_READ_FAILED", err)
	}
	if !ok {
		return common.NewLogicalError("LOBBY_NOT_FOUND")
	}
	fromTeam, _, fOk := lobby.IndexOf(from)
	toTeam, _, tOk := lobby.IndexOf(to)
	if !fOk || !tOk || fromTeam != toTeam {
		return common.NewValidationError("SWAP_MUST_BE_INTRA_TEAM")
	}

	lobby.AssignedRoles[from], lobby.AssignedRoles[to] = lobby.AssignedRoles[to], lobby.AssignedRoles[from]
	if err := s.repo.Save(ctx, lobby); err != nil {
		return common.NewTransientError("LOBBY_SAVE_FAILED", err)
	}
	if err := s.matchState.SetAssignedRole(ctx, matchID, from, lobby.AssignedRoles[from]); err != nil {
		slog.WarnContext(ctx, "failed to sync swapped role", "player", from, "error", err)
	}
	if err := s.matchState.SetAssignedRole(ctx, matchID, to, lobby.AssignedRoles[to]); err != nil {
		slog.WarnContext(ctx, "failed to sync swapped role", "player", to, "error", err)
	}

	s.broadcastAll(ctx, lobby, transport.Message{Type: transport.TypeLobbySwapCompleted, Payload: swapPayload{From: from, To: to}})
	s.broadcastLobbyData(ctx, lobby)
	return nil
}

type swapPayload struct {
	From common.PlayerID `json:"from"`
	To   common.PlayerID `json:"to"`
}

// Chat routes a message to the sender's team (TEAM) or to all ten
// (GENERAL), anonymizing opponent identity per viewer on GENERAL so real
// names stay hidden across teams until the match completes (spec §4.4).
func (s *Service) Chat(ctx context.Context, matchID common.MatchID, sender common.PlayerID, channel entities.ChatChannel, message string) error {
	lobby, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_READ_FAILED", err)
	}
	if !ok {
		return common.NewLogicalError("LOBBY_NOT_FOUND")
	}
	senderTeam, senderIndex, sOk := lobby.IndexOf(sender)
	if !sOk {
		return common.NewValidationError("PLAYER_NOT_IN_LOBBY")
	}

	if channel == entities.ChannelTeam {
		for _, p := range lobby.TeamRoster(senderTeam) {
			s.sendOne(ctx, p, transport.Message{Type: transport.TypeChatMessage, Payload: chatPayload{
				Channel: channel, SenderID: sender, Message: message,
			}})
		}
		return nil
	}

	// GENERAL: own-team viewers see the real sender id; cross-team viewers
	// get the position-based anonymized label instead (spec §4.4).
	for team, roster := range lobby.Teams {
		anonymized := team != senderTeam
		for _, p := range roster {
			payload := chatPayload{Channel: channel, SenderID: sender, Message: message}
			if anonymized {
				name := anonymizedName(senderIndex)
				payload.AnonymizedName = &name
				payload.SenderID = 0
			}
			s.sendOne(ctx, p, transport.Message{Type: transport.TypeChatMessage, Payload: payload})
		}
	}
	return nil
}

type chatPayload struct {
	Channel        entities.ChatChannel `json:"channel"`
	SenderID       common.PlayerID      `json:"senderId,omitempty"`
	AnonymizedName *string              `json:"anonymizedName,omitempty"`
	Message        string               `json:"message"`
}

func anonymizedName(index int) string {
	return "Player " + zeroPad(index)
}

func zeroPad(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Abandon cancels an in-progress lobby, requeues survivors and applies an
// abandon cooldown to the offender (spec §4.4, always applied per the
// "ABANDON penalty applies always" decision recorded in SPEC_FULL.md §F).
func (s *Service) Abandon(ctx context.Context, matchID common.MatchID, player common.PlayerID) error {
	s.stopTimer(matchID)

	lobby, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("LOBBY_READ_FAILED", err)
	}
	if !ok {
		return nil
	}
	if err := s.repo.Delete(ctx, matchID); err != nil {
		slog.WarnContext(ctx, "failed to delete lobby on abandon", "match_id", matchID, "error", err)
	}

	snapshot, err := s.matchState.QueueSnapshot(ctx, matchID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load queue snapshot on abandon", "match_id", matchID, "error", err)
	}
	for _, entry := range snapshot {
		if entry.PlayerID == player {
			continue
		}
		hint := out.RequeueHint{PlayerID: entry.PlayerID, QueuedAt: entry.QueuedAt, Primary: entry.Primary, Secondary: entry.Secondary}
		if err := s.requeue.WriteRequeueHint(ctx, hint); err != nil {
			slog.WarnContext(ctx, "failed to write requeue hint", "player", entry.PlayerID, "error", err)
			continue
		}
		s.sendOne(ctx, entry.PlayerID, transport.Message{Type: transport.TypeRequeue, Payload: requeuePayload{QueuedAt: entry.QueuedAt}})
	}

	if err := s.matchState.DeleteMatch(ctx, matchID); err != nil {
		slog.WarnContext(ctx, "failed to delete match keys on abandon", "match_id", matchID, "error", err)
	}

	count, err := s.cooldowns.RecordAbandon(ctx, player)
	if err != nil {
		slog.WarnContext(ctx, "failed to record abandon", "player", player, "error", err)
		return nil
	}
	seconds := abandonCooldownSeconds(count)
	endsAt := s.clock() + seconds*1000
	if err := s.cooldowns.SetCooldown(ctx, player, endsAt); err != nil {
		slog.WarnContext(ctx, "failed to set abandon cooldown", "player", player, "error", err)
		return nil
	}
	s.sendOne(ctx, player, transport.Message{Type: transport.TypeCooldownSet, Payload: cooldownSetPayload{Seconds: seconds, EndsAt: endsAt}})
	return nil
}

type requeuePayload struct {
	QueuedAt int64 `json:"queuedAt"`
}

type cooldownSetPayload struct {
	Seconds int64 `json:"seconds"`
	EndsAt  int64 `json:"endsAt"`
}

// abandonCooldownSeconds mirrors the escalating shape of the Ready Check
// Coordinator's decline cooldown, using the same rolling-window counter
// kind but a separate key namespace (spec §9: "must not share keys").
func abandonCooldownSeconds(count int) int64 {
	switch {
	case count <= 1:
		return 300
	case count == 2:
		return 900
	case count == 3:
		return 1800
	default:
		return 3600
	}
}

func (s *Service) broadcastLobbyData(ctx context.Context, lobby entities.Lobby) {
	s.broadcastAll(ctx, lobby, transport.Message{Type: transport.TypeLobbyData, Payload: lobbyDataPayload{
		MatchID:       string(lobby.MatchID),
		Teams:         lobby.Teams,
		AssignedRoles: lobby.AssignedRoles,
		RemainingMaps: lobby.RemainingMaps,
		CurrentTurn:   lobby.CurrentTurnTeam,
	}})
}

type lobbyDataPayload struct {
	MatchID       string                             `json:"matchId"`
	Teams         map[common.Team][]common.PlayerID  `json:"teams"`
	AssignedRoles map[common.PlayerID]string          `json:"assignedRoles"`
	RemainingMaps []entities.MapEntry                 `json:"remainingMaps"`
	CurrentTurn   common.Team                         `json:"currentTurn"`
}

func (s *Service) broadcastAll(ctx context.Context, lobby entities.Lobby, msg transport.Message) {
	all := append(append([]common.PlayerID(nil), lobby.Teams[common.TeamAlpha]...), lobby.Teams[common.TeamBravo]...)
	if err := s.broadcast.SendAll(ctx, all, msg); err != nil {
		slog.WarnContext(ctx, "broadcast failed", "type", msg.Type, "error", err)
	}
}

func (s *Service) sendOne(ctx context.Context, player common.PlayerID, msg transport.Message) {
	if err := s.broadcast.Send(ctx, player, msg); err != nil {
		slog.WarnContext(ctx, "send failed", "type", msg.Type, "player", player, "error", err)
	}
}

func containsMap(maps []entities.MapEntry, mapID string) bool {
	for _, m := range maps {
		if m.MapID == mapID {
			return true
		}
	}
	return false
}

func removeMap(maps []entities.MapEntry, mapID string) []entities.MapEntry {
	out := make([]entities.MapEntry, 0, len(maps))
	for _, m := range maps {
		if m.MapID != mapID {
			out = append(out, m)
		}
	}
	return out
}
