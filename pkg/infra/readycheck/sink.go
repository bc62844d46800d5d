package readycheck

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	matchentities "github.com/leetgaming/ranked-coordinator/pkg/domain/match/entities"
	queueout "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/out"
)

// coordinator is the narrow slice of readycheck/services.Coordinator this
// sink needs.
type coordinator interface {
	Start(ctx context.Context, matchID common.MatchID) error
}

// sessionIndexer is the Session Router's MatchLookup write path. Optional:
// a sink with no indexer attached simply skips it, which is how the
// existing single-argument constructor and its test keep working.
type sessionIndexer interface {
	IndexPlayers(ctx context.Context, matchID common.MatchID, players []common.PlayerID) error
}

// recordWriter is the relational Writer port: creating the durable
// MatchRecord row is the other thing that must happen exactly once, at
// cohort-publication time, before the Host Selector's AssignHost (which
// requires the row to already exist with status=ready) can ever succeed.
type recordWriter interface {
	Create(ctx context.Context, record matchentities.MatchRecord) error
}

// CohortSink adapts the Queue Engine's ports/out.CohortSink onto the Ready
// Check Coordinator, decoupling the two packages per spec §2's control
// flow (Queue Engine -> Ready Check). It is also the one place in the
// pipeline holding the full alpha+bravo roster before any per-match state
// exists, so it doubles as the Session Router's player->match indexing
// hook and the relational MatchRecord writer, when either is attached.
type CohortSink struct {
	coordinator coordinator
	indexer     sessionIndexer
	records     recordWriter
}

func NewCohortSink(coordinator coordinator) *CohortSink {
	return &CohortSink{coordinator: coordinator}
}

// WithSessionIndex attaches the Session Router's match index and returns
// the same sink, for chaining at wiring time.
func (s *CohortSink) WithSessionIndex(indexer sessionIndexer) *CohortSink {
	s.indexer = indexer
	return s
}

// WithMatchRecordWriter attaches the relational Writer and returns the
// same sink, for chaining at wiring time.
func (s *CohortSink) WithMatchRecordWriter(records recordWriter) *CohortSink {
	s.records = records
	return s
}

// OnCohortPublished indexes the roster for session lookup and creates the
// durable MatchRecord row (when those ports are attached), then starts the
// ready check; the coordinator itself reads the same classes hash the
// Queue Engine just wrote, not the alpha/bravo arguments.
func (s *CohortSink) OnCohortPublished(ctx context.Context, matchID common.MatchID, alpha, bravo []queueout.CohortAssignment) error {
	if s.indexer != nil {
		players := make([]common.PlayerID, 0, len(alpha)+len(bravo))
		for _, a := range alpha {
			players = append(players, a.PlayerID)
		}
		for _, b := range bravo {
			players = append(players, b.PlayerID)
		}
		if err := s.indexer.IndexPlayers(ctx, matchID, players); err != nil {
			return err
		}
	}
	if s.records != nil {
		record := matchentities.MatchRecord{MatchID: matchID, Status: matchentities.StatusReady}
		if err := s.records.Create(ctx, record); err != nil {
			return err
		}
	}
	return s.coordinator.Start(ctx, matchID)
}
