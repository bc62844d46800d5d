// Package out defines the Queue Engine's repository ports: narrow
// interfaces over the state store, grounded on the teacher's
// ports/out/matchmaking_repository.go shape (MatchmakingSessionRepository,
// MatchmakingPoolRepository), never the raw store client.
package out

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
)

// Repository is everything the tick loop and the Admit/Remove use cases
// need from durable queue state.
type Repository interface {
	Admit(ctx context.Context, entry entities.QueueEntry) error
	Remove(ctx context.Context, player common.PlayerID) error
	Exists(ctx context.Context, player common.PlayerID) (bool, error)
	Snapshot(ctx context.Context) ([]entities.QueueEntry, error)

	SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error
	CooldownEndsAt(ctx context.Context, player common.PlayerID) (int64, bool, error)

	// WriteRequeueHint preserves a survivor's original queuedAt after a
	// pre-game cancellation (spec §4.3/§8 property 8).
	WriteRequeueHint(ctx context.Context, player common.PlayerID, queuedAt int64, classes entities.Classes) error
	ConsumeRequeueHint(ctx context.Context, player common.PlayerID) (queuedAt int64, ok bool, err error)
}

// PlayerDirectory is the named external collaborator spec §1 keeps outside
// this core: authentication/identity, ban status and social-id dedup are
// somebody else's system of record. The Queue Engine only calls it through
// this interface.
type PlayerDirectory interface {
	Exists(ctx context.Context, player common.PlayerID) (bool, error)
	BannedUntil(ctx context.Context, player common.PlayerID) (until int64, banned bool, err error)
	SocialIDConflict(ctx context.Context, player common.PlayerID, socialID string) (existingAccount common.PlayerID, conflict bool, err error)
}

// CohortSink receives a published Cohort and owns everything downstream of
// the Queue Engine (spec §2's control flow: Queue Engine → Team Builder →
// Ready Check). Wired in `cmd/coordinator` to the Ready Check Coordinator.
type CohortSink interface {
	OnCohortPublished(ctx context.Context, matchID common.MatchID, alpha, bravo []CohortAssignment) error
}

// CohortAssignment mirrors team/entities.Assignment without importing the
// team package here, keeping ports/out free of a cross-module dependency
// cycle risk as the pipeline grows.
type CohortAssignment struct {
	PlayerID    common.PlayerID
	Role        string
	WasAutofill bool
}
