// Package out defines the narrow slices of the relational MatchRecord
// table each pipeline stage needs, kept separate per spec §9's
// interface-segregation style rather than one fat repository.
package out

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/match/entities"
)

// HostAssignments is the Host Selector's view of the MatchRecord table.
type HostAssignments interface {
	// AssignHost updates hostOidUser on the row, only while it is still
	// status=ready (spec §4.5 step 5).
	AssignHost(ctx context.Context, matchID common.MatchID, host common.PlayerID) error

	// ConfirmRoom atomically sets status=in-progress, roomId, mapNumber.
	ConfirmRoom(ctx context.Context, matchID common.MatchID, roomID string, mapNumber int) error

	// Cancel transitions the row to cancelled{endReason}.
	Cancel(ctx context.Context, matchID common.MatchID, endReason string) error
}

// Reader is used by later stages (Validation Engine) to read a settled row.
type Reader interface {
	Get(ctx context.Context, matchID common.MatchID) (entities.MatchRecord, bool, error)
}

// Writer creates the row at cohort-publication time.
type Writer interface {
	Create(ctx context.Context, record entities.MatchRecord) error
}

// Settler is the Validation Engine's write path: the final transition to
// `completed` plus the settled per-player rows (spec §4.6 "On valid").
type Settler interface {
	Complete(ctx context.Context, matchID common.MatchID) error
	UpsertPlayerStat(ctx context.Context, stat entities.PlayerMatchStat) error
}
