// Package out defines the Host Selector's collaborator ports.
package out

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
)

// Repository owns `match:{id}:host|hostPassword|room` (spec §6).
type Repository interface {
	Save(ctx context.Context, assignment entities.Assignment) error
	Get(ctx context.Context, matchID common.MatchID) (entities.Assignment, bool, error)
	Delete(ctx context.Context, matchID common.MatchID) error
}

// CooldownTracker owns `cooldown:host:{id}` — a five-minute penalty applied
// to a host who times out or reports failure (spec §4.5 "Timeout").
type CooldownTracker interface {
	IsOnCooldown(ctx context.Context, player common.PlayerID) (bool, error)
	SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error
}

// ValidationStarter hands control to the Validation Engine once the host
// confirms their room (spec §4.5 "invokes Validation Engine start").
type ValidationStarter interface {
	StartValidation(ctx context.Context, matchID common.MatchID, roomID string, mapNumber int) error
}

// RequeueHint mirrors the other stages' requeue shape so a host-selection
// failure's survivors get the same priority-preserving treatment.
type RequeueHint struct {
	PlayerID  common.PlayerID
	QueuedAt  int64
	Primary   string
	Secondary string
}

type Requeuer interface {
	WriteRequeueHint(ctx context.Context, hint RequeueHint) error
}
