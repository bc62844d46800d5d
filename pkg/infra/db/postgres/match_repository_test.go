package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/match/entities"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDBStore struct {
	execs []execCall
	row   *fakeRow
}

func (f *fakeDBStore) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

func (f *fakeDBStore) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

type fakeRow struct{ err error }

func (r *fakeRow) Scan(dest ...any) error { return r.err }

func TestMatchRepository_AssignHostExecutesConditionalUpdate(t *testing.T) {
	store := &fakeDBStore{}
	repo := NewMatchRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.AssignHost(ctx, common.MatchID("5"), common.PlayerID(1)))

	require.Len(t, store.execs, 1)
	assert.Equal(t, common.MatchID("5"), store.execs[0].args[0])
	assert.Equal(t, common.PlayerID(1), store.execs[0].args[1])
}

func TestMatchRepository_ConfirmRoomSetsInProgress(t *testing.T) {
	store := &fakeDBStore{}
	repo := NewMatchRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.ConfirmRoom(ctx, common.MatchID("6"), "4821", 3))

	require.Len(t, store.execs, 1)
	assert.Equal(t, entities.StatusInProgress, store.execs[0].args[1])
}

func TestMatchRepository_CancelRecordsEndReason(t *testing.T) {
	store := &fakeDBStore{}
	repo := NewMatchRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Cancel(ctx, common.MatchID("7"), "HOST_TIMEOUT"))

	require.Len(t, store.execs, 1)
	assert.Equal(t, "HOST_TIMEOUT", store.execs[0].args[2])
}
