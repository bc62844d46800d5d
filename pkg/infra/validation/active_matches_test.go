package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/validation/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

func TestActiveMatchRepository_AddListIncrementRemove(t *testing.T) {
	store := statestore.NewMemoryStore()
	repo := NewActiveMatchRepository(store)
	ctx := context.Background()

	match := entities.ActiveMatch{
		MatchID:   "50",
		GameMode:  "ranked_5v5",
		MapNumber: 1,
		StartedAt: 1000,
		Roster:    []entities.PlayerAssignment{{PlayerID: 1, Team: common.TeamAlpha}},
	}
	require.NoError(t, repo.Add(ctx, match))

	listed, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, common.MatchID("50"), listed[0].MatchID)

	attempts, err := repo.IncrementAttempts(ctx, "50")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = repo.IncrementAttempts(ctx, "50")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	require.NoError(t, repo.Remove(ctx, "50"))
	listed, err = repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
