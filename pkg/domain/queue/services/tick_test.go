package services

import (
	"context"
	"testing"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/out"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	infraMatchstate "github.com/leetgaming/ranked-coordinator/pkg/infra/matchstate"
	infraQueue "github.com/leetgaming/ranked-coordinator/pkg/infra/queue"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	matchID common.MatchID
	alpha   []out.CohortAssignment
	bravo   []out.CohortAssignment
	calls   int
}

func (f *fakeSink) OnCohortPublished(_ context.Context, matchID common.MatchID, alpha, bravo []out.CohortAssignment) error {
	f.calls++
	f.matchID = matchID
	f.alpha = alpha
	f.bravo = bravo
	return nil
}

func seedTenPlayers(t *testing.T, repo *infraQueue.Repository, baseQueuedAt int64) {
	t.Helper()
	ctx := context.Background()
	primaries := []team.Class{
		team.ClassSniper, team.ClassSniper,
		team.ClassT1, team.ClassT1,
		team.ClassT2, team.ClassT2,
		team.ClassT3, team.ClassT3,
		team.ClassT4, team.ClassT4,
	}
	for i, primary := range primaries {
		entry := entities.QueueEntry{
			PlayerID: common.PlayerID(i + 1),
			MMR:      1500,
			Classes:  entities.Classes{Primary: primary, Secondary: team.ClassSMG},
			QueuedAt: baseQueuedAt + int64(i),
		}
		require.NoError(t, repo.Admit(ctx, entry))
	}
}

// S1: ten role-complete, same-MMR players produce a cohort on the first tick.
func TestTick_S1_PublishesCohortOnFirstTick(t *testing.T) {
	store := statestore.NewMemoryStore()
	repo := infraQueue.NewRepository(store)
	matchState := infraMatchstate.NewRepository(store)
	sink := &fakeSink{}
	matchIDs := NewMatchIDGenerator(store)

	ctx := context.Background()
	seedTenPlayers(t, repo, 1000)

	svc := NewTickService(repo, sink, matchState, matchIDs, func() int64 { return 1000 })
	require.NoError(t, svc.Tick(ctx))

	assert.Equal(t, 1, sink.calls)
	assert.Len(t, sink.alpha, 5)
	assert.Len(t, sink.bravo, 5)

	remaining, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining, "all ten entries should be removed from queue on publish")

	classes, err := matchState.Classes(ctx, sink.matchID)
	require.NoError(t, err)
	assert.Len(t, classes, 10)
}

func TestTick_SkipsWhenFewerThanTenQueued(t *testing.T) {
	store := statestore.NewMemoryStore()
	repo := infraQueue.NewRepository(store)
	matchState := infraMatchstate.NewRepository(store)
	sink := &fakeSink{}
	matchIDs := NewMatchIDGenerator(store)

	ctx := context.Background()
	require.NoError(t, repo.Admit(ctx, entities.QueueEntry{PlayerID: 1, MMR: 1500, QueuedAt: 0}))

	svc := NewTickService(repo, sink, matchState, matchIDs, func() int64 { return 0 })
	require.NoError(t, svc.Tick(ctx))

	assert.Equal(t, 0, sink.calls)
}
