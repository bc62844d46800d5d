// Package out defines the Validation Engine's collaborator ports.
package out

import (
	"context"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/validation/entities"
)

// LogReader fetches the external system-of-record's match-result log in a
// single round trip per tick (spec §4.6: "a single query per tick fetches
// logs for all active matches").
type LogReader interface {
	FetchLogs(ctx context.Context, gameMode string, isValid bool, from, to time.Time, playerIDs []common.PlayerID) ([]entities.LogEntry, error)
}

// ActiveMatches owns the set of matches currently awaiting settlement.
type ActiveMatches interface {
	ListActive(ctx context.Context) ([]entities.ActiveMatch, error)
	Add(ctx context.Context, match entities.ActiveMatch) error
	IncrementAttempts(ctx context.Context, matchID common.MatchID) (int, error)
	Remove(ctx context.Context, matchID common.MatchID) error
}
