// Package out defines the Ready Check Coordinator's collaborator ports,
// grounded on the teacher's narrow ports/out style (one interface per
// concern rather than a single fat repository).
package out

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/entities"
)

// Repository owns the `match:{id}:ready` hash (TTL 120s, spec §6).
type Repository interface {
	Start(ctx context.Context, matchID common.MatchID, players []common.PlayerID, startedAt, expiresAt int64) error
	Get(ctx context.Context, matchID common.MatchID) (entities.ReadyCheck, bool, error)
	SetPlayerStatus(ctx context.Context, matchID common.MatchID, player common.PlayerID, status entities.PlayerStatus) error
	SetMatchStatus(ctx context.Context, matchID common.MatchID, status entities.MatchStatus) error
	Delete(ctx context.Context, matchID common.MatchID) error
}

// RequeueHint is what survives a pre-game cancellation to preserve a
// player's original queuedAt (spec §8 property 8).
type RequeueHint struct {
	PlayerID  common.PlayerID
	QueuedAt  int64
	Primary   string
	Secondary string
}

// Requeuer writes the single-use priority hint consumed on the survivor's
// next QUEUE_JOIN.
type Requeuer interface {
	WriteRequeueHint(ctx context.Context, hint RequeueHint) error
}

// CooldownTracker owns the `decline:count:{id}` counter (TTL 24h) and the
// resulting `cooldown:{id}` entry, kept separate from the Host Selector's
// and Lobby's abandon-cooldown counters per spec §9.
type CooldownTracker interface {
	RecordDecline(ctx context.Context, player common.PlayerID) (count int, err error)
	SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error
}

// LobbyStarter decouples Ready Check from the Lobby/Veto Engine the way
// out.CohortSink decouples the Queue Engine from Ready Check.
type LobbyStarter interface {
	StartLobby(ctx context.Context, matchID common.MatchID) error
}
