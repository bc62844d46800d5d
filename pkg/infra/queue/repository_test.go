package queue

import (
	"context"
	"testing"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_AdmitExistsRemove(t *testing.T) {
	repo := NewRepository(statestore.NewMemoryStore())
	ctx := context.Background()

	entry := entities.QueueEntry{
		PlayerID: 1,
		MMR:      1500,
		Classes:  entities.Classes{Primary: team.ClassSniper, Secondary: team.ClassT1},
		QueuedAt: 1000,
	}
	require.NoError(t, repo.Admit(ctx, entry))

	exists, err := repo.Exists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	snapshot, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, entry.PlayerID, snapshot[0].PlayerID)

	require.NoError(t, repo.Remove(ctx, 1))
	exists, err = repo.Exists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	snapshot, err = repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestRepository_RequeueHintRoundTrip(t *testing.T) {
	repo := NewRepository(statestore.NewMemoryStore())
	ctx := context.Background()

	classes := entities.Classes{Primary: team.ClassT2, Secondary: team.ClassSMG}
	require.NoError(t, repo.WriteRequeueHint(ctx, common.PlayerID(7), 12345, classes))

	queuedAt, ok, err := repo.ConsumeRequeueHint(ctx, common.PlayerID(7))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12345), queuedAt)

	// Consuming again finds nothing: the hint is single-use.
	_, ok, err = repo.ConsumeRequeueHint(ctx, common.PlayerID(7))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_Cooldown(t *testing.T) {
	repo := NewRepository(statestore.NewMemoryStore())
	ctx := context.Background()

	_, active, err := repo.CooldownEndsAt(ctx, common.PlayerID(3))
	require.NoError(t, err)
	assert.False(t, active)
}
