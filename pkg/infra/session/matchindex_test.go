package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

func TestMatchIndex_IndexAndLookup(t *testing.T) {
	store := statestore.NewMemoryStore()
	index := NewMatchIndex(store)
	ctx := context.Background()

	require.NoError(t, index.IndexPlayers(ctx, "10", []common.PlayerID{1, 2, 3}))

	matchID, ok, err := index.MatchFor(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, common.MatchID("10"), matchID)

	_, ok, err = index.MatchFor(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}
