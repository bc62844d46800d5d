package matchstate

import (
	"context"
	"testing"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	domain "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CohortHandoffRoundTrip(t *testing.T) {
	repo := NewRepository(statestore.NewMemoryStore())
	ctx := context.Background()
	matchID := common.MatchID("42")

	classes := []domain.ClassAssignment{
		{PlayerID: 1, Team: common.TeamAlpha, Primary: "SNIPER", AssignedRole: "SNIPER"},
		{PlayerID: 2, Team: common.TeamBravo, Primary: "T1", AssignedRole: "T1"},
	}
	snapshot := []domain.QueueSnapshotEntry{
		{PlayerID: 1, MMR: 1500, Primary: "SNIPER", QueuedAt: 1000},
		{PlayerID: 2, MMR: 1510, Primary: "T1", QueuedAt: 1001},
	}

	require.NoError(t, repo.WriteCohortHandoff(ctx, matchID, classes, snapshot))

	got, err := repo.Classes(ctx, matchID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	gotSnapshot, err := repo.QueueSnapshot(ctx, matchID)
	require.NoError(t, err)
	assert.Len(t, gotSnapshot, 2)

	status, ok, err := repo.GetStatus(ctx, matchID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.StatusReady, status)
}

func TestRepository_SetAssignedRoleUpdatesOnlyThatPlayer(t *testing.T) {
	repo := NewRepository(statestore.NewMemoryStore())
	ctx := context.Background()
	matchID := common.MatchID("7")

	classes := []domain.ClassAssignment{
		{PlayerID: 1, Team: common.TeamAlpha, Primary: "SNIPER", AssignedRole: "SNIPER"},
		{PlayerID: 2, Team: common.TeamAlpha, Primary: "T1", AssignedRole: "T1"},
	}
	require.NoError(t, repo.WriteCohortHandoff(ctx, matchID, classes, nil))

	require.NoError(t, repo.SetAssignedRole(ctx, matchID, 1, "T2"))

	got, err := repo.Classes(ctx, matchID)
	require.NoError(t, err)
	byID := map[common.PlayerID]domain.ClassAssignment{}
	for _, c := range got {
		byID[c.PlayerID] = c
	}
	assert.Equal(t, "T2", byID[1].AssignedRole)
	assert.Equal(t, "T1", byID[2].AssignedRole)
}

func TestRepository_DeleteMatchRemovesAllKeys(t *testing.T) {
	repo := NewRepository(statestore.NewMemoryStore())
	ctx := context.Background()
	matchID := common.MatchID("9")

	require.NoError(t, repo.WriteCohortHandoff(ctx, matchID, nil, nil))
	require.NoError(t, repo.SetStatus(ctx, matchID, domain.StatusInProgress))
	require.NoError(t, repo.DeleteMatch(ctx, matchID))

	_, ok, err := repo.GetStatus(ctx, matchID)
	require.NoError(t, err)
	assert.False(t, ok)
}
