// Package out defines the Lobby/Veto Engine's collaborator ports.
package out

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/entities"
)

// Repository owns `lobby:{id}:state|vetos|selectedMap` (spec §6).
type Repository interface {
	Save(ctx context.Context, lobby entities.Lobby) error
	Get(ctx context.Context, matchID common.MatchID) (entities.Lobby, bool, error)
	Delete(ctx context.Context, matchID common.MatchID) error
}

// HostStarter hands control to the Host Selector once MAP_SELECTED fires
// (spec §4.4 "Host Selector is triggered").
type HostStarter interface {
	StartHost(ctx context.Context, matchID common.MatchID, mapNumber int) error
}

// RequeueHint mirrors the Ready Check Coordinator's requeue shape so an
// abandoned lobby's survivors get the same priority-preserving treatment
// (spec §8 property 8).
type RequeueHint struct {
	PlayerID  common.PlayerID
	QueuedAt  int64
	Primary   string
	Secondary string
}

type Requeuer interface {
	WriteRequeueHint(ctx context.Context, hint RequeueHint) error
}

// CooldownTracker owns the `abandon:count:{id}` counter, kept separate
// from Ready Check's decline counter per spec §9.
type CooldownTracker interface {
	RecordAbandon(ctx context.Context, player common.PlayerID) (count int, err error)
	SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error
}
