package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	infraMatchstate "github.com/leetgaming/ranked-coordinator/pkg/infra/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

type fakeHostService struct {
	matchID    common.MatchID
	candidates []entities.Candidate
	mapNumber  int
}

func (f *fakeHostService) Start(_ context.Context, matchID common.MatchID, candidates []entities.Candidate, mapNumber int) error {
	f.matchID = matchID
	f.candidates = candidates
	f.mapNumber = mapNumber
	return nil
}

func TestStarter_ReadsMMRFromQueueSnapshot(t *testing.T) {
	store := statestore.NewMemoryStore()
	matchState := infraMatchstate.NewRepository(store)
	ctx := context.Background()
	matchID := common.MatchID("40")

	snapshot := []matchstate.QueueSnapshotEntry{
		{PlayerID: 1, MMR: 1500, QueuedAt: 1},
		{PlayerID: 2, MMR: 1600, QueuedAt: 2},
	}
	require.NoError(t, matchState.WriteCohortHandoff(ctx, matchID, nil, snapshot))

	svc := &fakeHostService{}
	starter := NewStarter(svc, matchState)

	require.NoError(t, starter.StartHost(ctx, matchID, 4))

	assert.Equal(t, matchID, svc.matchID)
	assert.Equal(t, 4, svc.mapNumber)
	require.Len(t, svc.candidates, 2)
	assert.Equal(t, 1600, svc.candidates[1].MMR)
}
