package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	hostout "github.com/leetgaming/ranked-coordinator/pkg/domain/host/ports/out"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
	infraHost "github.com/leetgaming/ranked-coordinator/pkg/infra/host"
	infraMatchstate "github.com/leetgaming/ranked-coordinator/pkg/infra/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

type fakeBroadcaster struct{ sent []string }

func (f *fakeBroadcaster) Send(_ context.Context, _ common.PlayerID, msg transport.Message) error {
	f.sent = append(f.sent, msg.Type)
	return nil
}

func (f *fakeBroadcaster) SendAll(_ context.Context, _ []common.PlayerID, msg transport.Message) error {
	f.sent = append(f.sent, msg.Type)
	return nil
}

func (f *fakeBroadcaster) countOf(typ string) int {
	n := 0
	for _, s := range f.sent {
		if s == typ {
			n++
		}
	}
	return n
}

type fakeRecords struct {
	assignedHost common.PlayerID
	confirmed    bool
	cancelled    bool
}

func (f *fakeRecords) AssignHost(_ context.Context, _ common.MatchID, host common.PlayerID) error {
	f.assignedHost = host
	return nil
}

func (f *fakeRecords) ConfirmRoom(_ context.Context, _ common.MatchID, _ string, _ int) error {
	f.confirmed = true
	return nil
}

func (f *fakeRecords) Cancel(_ context.Context, _ common.MatchID, _ string) error {
	f.cancelled = true
	return nil
}

type fakeValidationStarter struct {
	started   bool
	roomID    string
	mapNumber int
}

func (f *fakeValidationStarter) StartValidation(_ context.Context, _ common.MatchID, roomID string, mapNumber int) error {
	f.started = true
	f.roomID = roomID
	f.mapNumber = mapNumber
	return nil
}

type fakeRequeuer struct{ calls int }

func (f *fakeRequeuer) WriteRequeueHint(_ context.Context, _ hostout.RequeueHint) error {
	f.calls++
	return nil
}

func tenCandidates() []entities.Candidate {
	candidates := make([]entities.Candidate, 0, 10)
	for i := 1; i <= 10; i++ {
		candidates = append(candidates, entities.Candidate{PlayerID: common.PlayerID(i), MMR: 1000 + i*10})
	}
	return candidates
}

func newTestService(t *testing.T) (*Service, *fakeBroadcaster, *fakeRecords, *fakeValidationStarter, statestore.Store) {
	t.Helper()
	store := statestore.NewMemoryStore()
	repo := infraHost.NewRepository(store)
	cooldowns := infraHost.NewCooldownTracker(store)
	broadcast := &fakeBroadcaster{}
	records := &fakeRecords{}
	validation := &fakeValidationStarter{}
	matchState := infraMatchstate.NewRepository(store)

	svc := NewService(repo, matchState, records, cooldowns, &fakeRequeuer{}, validation, broadcast, func() int64 { return 1000 })
	return svc, broadcast, records, validation, store
}

func TestHost_StartPicksHighestMMR(t *testing.T) {
	svc, broadcast, records, _, _ := newTestService(t)
	ctx := context.Background()
	matchID := common.MatchID("30")

	require.NoError(t, svc.Start(ctx, matchID, tenCandidates(), 6))

	assert.Equal(t, common.PlayerID(10), records.assignedHost)
	assert.Equal(t, 1, broadcast.countOf(transport.TypeHostSelected))
	assert.Equal(t, 9, broadcast.countOf(transport.TypeHostWaiting))
}

func TestHost_StartSkipsCooledDownTopCandidate(t *testing.T) {
	svc, _, records, _, store := newTestService(t)
	ctx := context.Background()
	matchID := common.MatchID("31")

	cooldowns := infraHost.NewCooldownTracker(store)
	futureEndsAt := time.Now().Add(time.Hour).UnixMilli()
	require.NoError(t, cooldowns.SetCooldown(ctx, common.PlayerID(10), futureEndsAt))

	require.NoError(t, svc.Start(ctx, matchID, tenCandidates(), 6))

	assert.Equal(t, common.PlayerID(9), records.assignedHost)
}

func TestHost_ConfirmRoomStartsValidation(t *testing.T) {
	svc, _, records, validation, store := newTestService(t)
	ctx := context.Background()
	matchID := common.MatchID("32")

	require.NoError(t, svc.Start(ctx, matchID, tenCandidates(), 6))

	hostRepo := infraHost.NewRepository(store)
	assignment, ok, err := hostRepo.Get(ctx, matchID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.ConfirmRoom(ctx, matchID, assignment.HostID, "4821", 6))

	assert.True(t, records.confirmed)
	assert.True(t, validation.started)
	assert.Equal(t, "4821", validation.roomID)
	assert.Equal(t, 6, validation.mapNumber)

	_, ok, err = hostRepo.Get(ctx, matchID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_ConfirmRoomRejectsNonHost(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	matchID := common.MatchID("33")

	require.NoError(t, svc.Start(ctx, matchID, tenCandidates(), 6))

	err := svc.ConfirmRoom(ctx, matchID, common.PlayerID(1), "4821", 6)
	require.Error(t, err)
}

func TestHost_ReportFailureRequeuesSurvivors(t *testing.T) {
	svc, broadcast, records, _, store := newTestService(t)
	ctx := context.Background()
	matchID := common.MatchID("34")

	matchState := infraMatchstate.NewRepository(store)
	classes := make([]matchstate.ClassAssignment, 0, 10)
	snapshot := make([]matchstate.QueueSnapshotEntry, 0, 10)
	for i := 1; i <= 10; i++ {
		classes = append(classes, matchstate.ClassAssignment{PlayerID: common.PlayerID(i), Team: common.TeamAlpha})
		snapshot = append(snapshot, matchstate.QueueSnapshotEntry{PlayerID: common.PlayerID(i), QueuedAt: int64(i)})
	}
	require.NoError(t, matchState.WriteCohortHandoff(ctx, matchID, classes, snapshot))

	require.NoError(t, svc.Start(ctx, matchID, tenCandidates(), 6))

	hostRepo := infraHost.NewRepository(store)
	assignment, ok, err := hostRepo.Get(ctx, matchID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.ReportFailure(ctx, matchID, assignment.HostID))

	assert.True(t, records.cancelled)
	assert.Equal(t, 1, broadcast.countOf(transport.TypeHostFailed))
	assert.Equal(t, 9, broadcast.countOf(transport.TypeRequeue))

	_, stillPresent, err := infraHost.NewRepository(store).Get(ctx, matchID)
	require.NoError(t, err)
	assert.False(t, stillPresent)
}
