// Package services implements the Ready Check Coordinator's consensus
// state machine, grounded on lobby_orchestration_service.go's
// StartReadyCheck/SetPlayerReady shape but rebuilt around spec §4.3's
// PENDING/READY/DECLINED machine, the COMPLETING latch and the escalating
// decline cooldown.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

const readyCheckTTL = 20 * time.Second

// Clock abstracts wall-clock reads for deterministic tests.
type Clock func() int64

func RealClock() int64 { return time.Now().UnixMilli() }

// Coordinator runs the 20-second consensus window described in spec §4.3.
// Per-match timers are owned by this process (spec §5's single-dispatcher
// model), guarded by a mutex since Accept/Decline/timeout can race.
type Coordinator struct {
	repo       out.Repository
	matchState matchstate.Repository
	requeue    out.Requeuer
	cooldowns  out.CooldownTracker
	lobby      out.LobbyStarter
	broadcast  transport.Broadcaster
	clock      Clock

	mu     sync.Mutex
	timers map[common.MatchID]*time.Timer
}

func NewCoordinator(
	repo out.Repository,
	matchState matchstate.Repository,
	requeue out.Requeuer,
	cooldowns out.CooldownTracker,
	lobby out.LobbyStarter,
	broadcast transport.Broadcaster,
	clock Clock,
) *Coordinator {
	return &Coordinator{
		repo:       repo,
		matchState: matchState,
		requeue:    requeue,
		cooldowns:  cooldowns,
		lobby:      lobby,
		broadcast:  broadcast,
		clock:      clock,
		timers:     make(map[common.MatchID]*time.Timer),
	}
}

// Start initializes the ready hash, arms the 20s timer and broadcasts
// MATCH_FOUND to each player with their assigned team/role (spec §4.3). The
// player/team/role set is read back from the classes hash the Queue
// Engine's cohort-publication contract already wrote.
func (c *Coordinator) Start(ctx context.Context, matchID common.MatchID) error {
	classes, err := c.matchState.Classes(ctx, matchID)
	if err != nil {
		return common.NewTransientError("READY_CHECK_CLASSES_READ_FAILED", err)
	}
	if len(classes) == 0 {
		return common.NewLogicalError("READY_CHECK_NO_CLASSES")
	}

	players := make([]common.PlayerID, 0, len(classes))
	for _, cl := range classes {
		players = append(players, cl.PlayerID)
	}

	now := c.clock()
	expires := now + readyCheckTTL.Milliseconds()
	if err := c.repo.Start(ctx, matchID, players, now, expires); err != nil {
		return common.NewTransientError("READY_CHECK_START_FAILED", err)
	}

	for _, cl := range classes {
		msg := transport.Message{Type: transport.TypeMatchFound, Payload: matchFoundPayload{
			MatchID: string(matchID),
			Team:    cl.Team,
			Role:    cl.AssignedRole,
		}}
		if err := c.broadcast.Send(ctx, cl.PlayerID, msg); err != nil {
			slog.WarnContext(ctx, "failed to send MATCH_FOUND", "player", cl.PlayerID, "error", err)
		}
	}

	c.armTimer(ctx, matchID)
	return nil
}

type matchFoundPayload struct {
	MatchID string      `json:"matchId"`
	Team    common.Team `json:"team"`
	Role    string      `json:"role"`
}

func (c *Coordinator) armTimer(ctx context.Context, matchID common.MatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.timers[matchID]; ok {
		existing.Stop()
	}
	c.timers[matchID] = time.AfterFunc(readyCheckTTL, func() {
		if err := c.cancel(context.Background(), matchID, 0, entities.CauseTimeout); err != nil {
			slog.ErrorContext(ctx, "ready check timeout cancel failed", "match_id", matchID, "error", err)
		}
	})
}

func (c *Coordinator) stopTimer(matchID common.MatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[matchID]; ok {
		t.Stop()
		delete(c.timers, matchID)
	}
}

// Accept transitions one player PENDING -> READY. Ignored while the match
// is already COMPLETING (spec §4.3). On ready == total, latches COMPLETING
// and hands off to the Lobby/Veto Engine.
func (c *Coordinator) Accept(ctx context.Context, matchID common.MatchID, player common.PlayerID) error {
	rc, ok, err := c.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("READY_CHECK_READ_FAILED", err)
	}
	if !ok {
		return common.NewLogicalError("READY_CHECK_NOT_FOUND")
	}
	if rc.Status == entities.MatchCompleting {
		return nil
	}
	status, in := rc.Players[player]
	if !in || status != entities.StatusPending {
		return nil
	}

	if err := c.repo.SetPlayerStatus(ctx, matchID, player, entities.StatusReady); err != nil {
		return common.NewTransientError("READY_CHECK_WRITE_FAILED", err)
	}
	rc.Players[player] = entities.StatusReady

	ready, total := rc.ReadyCount(), rc.TotalPlayers
	update := transport.Message{Type: transport.TypeReadyUpdate, Payload: readyUpdatePayload{Ready: ready, Total: total}}
	c.broadcastAll(ctx, playerIDs(rc.Players), update)

	if ready < total {
		return nil
	}

	if err := c.repo.SetMatchStatus(ctx, matchID, entities.MatchCompleting); err != nil {
		return common.NewTransientError("READY_CHECK_LATCH_FAILED", err)
	}
	c.stopTimer(matchID)

	if err := c.lobby.StartLobby(ctx, matchID); err != nil {
		return common.NewTransientError("LOBBY_START_FAILED", err)
	}
	return nil
}

type readyUpdatePayload struct {
	Ready int `json:"ready"`
	Total int `json:"total"`
}

// Decline is the explicit-decline entry point into cancel.
func (c *Coordinator) Decline(ctx context.Context, matchID common.MatchID, player common.PlayerID) error {
	return c.cancel(ctx, matchID, player, entities.CauseDecline)
}

// Disconnect force-cancels a ready check when the Session Router detects
// the player's transport died mid-check (spec §4.7).
func (c *Coordinator) Disconnect(ctx context.Context, matchID common.MatchID, player common.PlayerID) error {
	return c.cancel(ctx, matchID, player, entities.CauseDisconnect)
}

// cancel tears down a ready check: clears state, broadcasts
// READY_CHECK_FAILED, requeues survivors with their original queuedAt and
// applies the escalating decline cooldown to the offender (spec §4.3).
func (c *Coordinator) cancel(ctx context.Context, matchID common.MatchID, causingPlayer common.PlayerID, cause entities.CancelCause) error {
	c.stopTimer(matchID)

	rc, ok, err := c.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("READY_CHECK_READ_FAILED", err)
	}
	if !ok || rc.Status == entities.MatchCompleting {
		return nil
	}

	if err := c.repo.Delete(ctx, matchID); err != nil {
		slog.WarnContext(ctx, "failed to clear ready hash on cancel", "match_id", matchID, "error", err)
	}

	players := playerIDs(rc.Players)
	failed := transport.Message{Type: transport.TypeReadyCheckFailed, Payload: readyCheckFailedPayload{
		MatchID:     string(matchID),
		PlayerID:    causingPlayer,
		Cause:       string(cause),
	}}
	c.broadcastAll(ctx, players, failed)

	snapshot, err := c.matchState.QueueSnapshot(ctx, matchID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load queue snapshot on cancel", "match_id", matchID, "error", err)
	}
	for _, entry := range snapshot {
		if entry.PlayerID == causingPlayer {
			continue
		}
		hint := out.RequeueHint{PlayerID: entry.PlayerID, QueuedAt: entry.QueuedAt, Primary: entry.Primary, Secondary: entry.Secondary}
		if err := c.requeue.WriteRequeueHint(ctx, hint); err != nil {
			slog.WarnContext(ctx, "failed to write requeue hint", "player", entry.PlayerID, "error", err)
			continue
		}
		c.broadcastOne(ctx, entry.PlayerID, transport.Message{Type: transport.TypeRequeue, Payload: requeuePayload{QueuedAt: entry.QueuedAt}})
	}

	if err := c.matchState.DeleteMatch(ctx, matchID); err != nil {
		slog.WarnContext(ctx, "failed to delete match keys on cancel", "match_id", matchID, "error", err)
	}

	if cause == entities.CauseDecline && causingPlayer != 0 {
		c.applyDeclineCooldown(ctx, causingPlayer)
	}
	return nil
}

type readyCheckFailedPayload struct {
	MatchID  string          `json:"matchId"`
	PlayerID common.PlayerID `json:"playerId"`
	Cause    string          `json:"cause"`
}

type requeuePayload struct {
	QueuedAt int64 `json:"queuedAt"`
}

// declineCooldownSeconds maps the rolling-24h decline count to the
// escalating cooldown spec §4.3 defines: counts 2/3/4/≥5 -> 5/15/30/60 min.
// A first offense (count 1) is tracked but does not yet cool the player down.
func declineCooldownSeconds(count int) (int64, bool) {
	switch {
	case count <= 1:
		return 0, false
	case count == 2:
		return 300, true
	case count == 3:
		return 900, true
	case count == 4:
		return 1800, true
	default:
		return 3600, true
	}
}

func (c *Coordinator) applyDeclineCooldown(ctx context.Context, player common.PlayerID) {
	count, err := c.cooldowns.RecordDecline(ctx, player)
	if err != nil {
		slog.WarnContext(ctx, "failed to record decline", "player", player, "error", err)
		return
	}
	seconds, active := declineCooldownSeconds(count)
	if !active {
		return
	}
	endsAt := c.clock() + seconds*1000
	if err := c.cooldowns.SetCooldown(ctx, player, endsAt); err != nil {
		slog.WarnContext(ctx, "failed to set decline cooldown", "player", player, "error", err)
		return
	}
	c.broadcastOne(ctx, player, transport.Message{Type: transport.TypeCooldownSet, Payload: cooldownSetPayload{Seconds: seconds, EndsAt: endsAt}})
}

type cooldownSetPayload struct {
	Seconds int64 `json:"seconds"`
	EndsAt  int64 `json:"endsAt"`
}

func (c *Coordinator) broadcastAll(ctx context.Context, players []common.PlayerID, msg transport.Message) {
	if err := c.broadcast.SendAll(ctx, players, msg); err != nil {
		slog.WarnContext(ctx, "broadcast failed", "type", msg.Type, "error", err)
	}
}

func (c *Coordinator) broadcastOne(ctx context.Context, player common.PlayerID, msg transport.Message) {
	if err := c.broadcast.Send(ctx, player, msg); err != nil {
		slog.WarnContext(ctx, "send failed", "type", msg.Type, "player", player, "error", err)
	}
}

func playerIDs(statuses map[common.PlayerID]entities.PlayerStatus) []common.PlayerID {
	out := make([]common.PlayerID, 0, len(statuses))
	for id := range statuses {
		out = append(out, id)
	}
	return out
}
