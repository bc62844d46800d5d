// Package matchstate is the shared per-match keyspace every pipeline stage
// after the Queue Engine reads and writes: match status, the assigned-role
// hash, and the queue snapshot used to requeue survivors. Spec §3 requires
// atomic stage handoff ("the outgoing stage writes the new status key
// before the incoming stage reads it") and a uniform 2h TTL so an orphaned
// match self-cleans; centralizing these keys here keeps every stage's
// ports/out free of duplicated status/classes plumbing.
package matchstate

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// Status is the match-level lifecycle tag stored at `match:{id}:status`.
type Status string

const (
	StatusAwaitingHost Status = "awaiting-host"
	StatusInProgress   Status = "in-progress"
	StatusReady        Status = "ready"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

// ClassAssignment is one player's entry in the `match:{id}:classes` hash,
// written once by the Queue Engine's cohort-publication contract and read
// by every later stage that needs a player's role or autofill provenance.
type ClassAssignment struct {
	PlayerID     common.PlayerID `json:"player_id"`
	Team         common.Team     `json:"team"`
	Primary      string          `json:"primary"`
	Secondary    string          `json:"secondary"`
	AssignedRole string          `json:"assigned_role"`
	WasAutofill  bool            `json:"was_autofill"`
}

// QueueSnapshotEntry is one player's original queue state, persisted so a
// pre-game failure can requeue survivors with their original queuedAt
// (spec §8 property 8).
type QueueSnapshotEntry struct {
	PlayerID  common.PlayerID `json:"player_id"`
	MMR       int             `json:"mmr"`
	Primary   string          `json:"primary"`
	Secondary string          `json:"secondary"`
	QueuedAt  int64           `json:"queued_at"`
}

// Repository is the narrow port over the shared match keyspace.
type Repository interface {
	// WriteCohortHandoff persists the classes hash and queue snapshot
	// atomically (spec §4.1's cohort-publication contract), TTL 2h.
	WriteCohortHandoff(ctx context.Context, matchID common.MatchID, classes []ClassAssignment, snapshot []QueueSnapshotEntry) error

	Classes(ctx context.Context, matchID common.MatchID) ([]ClassAssignment, error)
	SetAssignedRole(ctx context.Context, matchID common.MatchID, player common.PlayerID, role string) error

	QueueSnapshot(ctx context.Context, matchID common.MatchID) ([]QueueSnapshotEntry, error)

	SetStatus(ctx context.Context, matchID common.MatchID, status Status) error
	GetStatus(ctx context.Context, matchID common.MatchID) (Status, bool, error)

	// DeleteMatch tears down every key under `match:{id}:*` plus any
	// additional keys a stage (lobby, host) asks to include, per spec §4's
	// per-stage cleanup obligations.
	DeleteMatch(ctx context.Context, matchID common.MatchID, extraKeys ...string) error
}
