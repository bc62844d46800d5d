package host

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
)

// hostService is the narrow slice of the Host Selector's Start method this
// adapter needs.
type hostService interface {
	Start(ctx context.Context, matchID common.MatchID, candidates []entities.Candidate, mapNumber int) error
}

// Starter bridges the Lobby/Veto Engine's simpler `StartHost(matchId,
// mapNumber)` port onto the Host Selector's `Start`, which additionally
// needs each candidate's MMR to rank them (spec §4.5 step 2). MMR isn't
// part of the shared classes hash, so this adapter reads it back from the
// queue snapshot the cohort-publication handoff already persisted.
type Starter struct {
	service    hostService
	matchState matchstate.Repository
}

func NewStarter(service hostService, matchState matchstate.Repository) *Starter {
	return &Starter{service: service, matchState: matchState}
}

func (s *Starter) StartHost(ctx context.Context, matchID common.MatchID, mapNumber int) error {
	snapshot, err := s.matchState.QueueSnapshot(ctx, matchID)
	if err != nil {
		return common.NewTransientError("HOST_SNAPSHOT_READ_FAILED", err)
	}
	if len(snapshot) == 0 {
		return common.NewLogicalError("HOST_NO_SNAPSHOT")
	}
	candidates := make([]entities.Candidate, 0, len(snapshot))
	for _, entry := range snapshot {
		candidates = append(candidates, entities.Candidate{PlayerID: entry.PlayerID, MMR: entry.MMR})
	}
	return s.service.Start(ctx, matchID, candidates, mapNumber)
}
