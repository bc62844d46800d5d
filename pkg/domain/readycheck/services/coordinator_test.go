package services

import (
	"context"
	"testing"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
	infraMatchstate "github.com/leetgaming/ranked-coordinator/pkg/infra/matchstate"
	infraReadycheck "github.com/leetgaming/ranked-coordinator/pkg/infra/readycheck"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMsg struct {
	player common.PlayerID
	all    []common.PlayerID
	typ    string
}

type fakeBroadcaster struct {
	sent []sentMsg
}

func (f *fakeBroadcaster) Send(_ context.Context, player common.PlayerID, msg transport.Message) error {
	f.sent = append(f.sent, sentMsg{player: player, typ: msg.Type})
	return nil
}

func (f *fakeBroadcaster) SendAll(_ context.Context, players []common.PlayerID, msg transport.Message) error {
	f.sent = append(f.sent, sentMsg{all: players, typ: msg.Type})
	return nil
}

func (f *fakeBroadcaster) countOf(typ string) int {
	n := 0
	for _, s := range f.sent {
		if s.typ == typ {
			if len(s.all) > 0 {
				n += len(s.all)
			} else {
				n++
			}
		}
	}
	return n
}

type fakeLobbyStarter struct {
	startedMatch common.MatchID
	calls        int
}

func (f *fakeLobbyStarter) StartLobby(_ context.Context, matchID common.MatchID) error {
	f.calls++
	f.startedMatch = matchID
	return nil
}

type fakeRequeuer struct{}

func (fakeRequeuer) WriteRequeueHint(_ context.Context, _ out.RequeueHint) error { return nil }

func tenClasses() []matchstate.ClassAssignment {
	classes := make([]matchstate.ClassAssignment, 0, 10)
	for i := 1; i <= 10; i++ {
		team := common.TeamAlpha
		if i > 5 {
			team = common.TeamBravo
		}
		classes = append(classes, matchstate.ClassAssignment{PlayerID: common.PlayerID(i), Team: team, Primary: "SNIPER", AssignedRole: "SNIPER"})
	}
	return classes
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeBroadcaster, *fakeLobbyStarter, statestore.Store) {
	t.Helper()
	store := statestore.NewMemoryStore()
	repo := infraReadycheck.NewRepository(store)
	matchState := infraMatchstate.NewRepository(store)
	cooldowns := infraReadycheck.NewCooldownTracker(store)
	broadcast := &fakeBroadcaster{}
	lobby := &fakeLobbyStarter{}

	coord := NewCoordinator(repo, matchState, fakeRequeuer{}, cooldowns, lobby, broadcast, func() int64 { return 0 })
	return coord, broadcast, lobby, store
}

func TestCoordinator_AllAcceptStartsLobby(t *testing.T) {
	coord, broadcast, lobby, store := newTestCoordinator(t)
	ctx := context.Background()
	matchID := common.MatchID("1")

	matchState := infraMatchstate.NewRepository(store)
	require.NoError(t, matchState.WriteCohortHandoff(ctx, matchID, tenClasses(), nil))

	require.NoError(t, coord.Start(ctx, matchID))
	assert.Equal(t, 10, broadcast.countOf(transport.TypeMatchFound))

	for i := 1; i <= 10; i++ {
		require.NoError(t, coord.Accept(ctx, matchID, common.PlayerID(i)))
	}

	assert.Equal(t, 1, lobby.calls)
	assert.Equal(t, matchID, lobby.startedMatch)
}

func TestCoordinator_DeclineCancelsAndRequeuesSurvivors(t *testing.T) {
	coord, broadcast, lobby, store := newTestCoordinator(t)
	ctx := context.Background()
	matchID := common.MatchID("2")

	matchState := infraMatchstate.NewRepository(store)
	snapshot := make([]matchstate.QueueSnapshotEntry, 0, 10)
	for i := 1; i <= 10; i++ {
		snapshot = append(snapshot, matchstate.QueueSnapshotEntry{PlayerID: common.PlayerID(i), QueuedAt: int64(i)})
	}
	require.NoError(t, matchState.WriteCohortHandoff(ctx, matchID, tenClasses(), snapshot))
	require.NoError(t, coord.Start(ctx, matchID))

	require.NoError(t, coord.Decline(ctx, matchID, common.PlayerID(7)))

	assert.Equal(t, 10, broadcast.countOf(transport.TypeReadyCheckFailed))
	assert.Equal(t, 9, broadcast.countOf(transport.TypeRequeue))
	assert.Equal(t, 0, lobby.calls)

	_, ok, err := infraReadycheck.NewRepository(store).Get(ctx, matchID)
	require.NoError(t, err)
	assert.False(t, ok, "ready hash must be cleared after cancel")
}

func TestCoordinator_SecondDeclineTriggersCooldown(t *testing.T) {
	coord, broadcast, _, store := newTestCoordinator(t)
	ctx := context.Background()

	cooldowns := infraReadycheck.NewCooldownTracker(store)
	_, _ = cooldowns.RecordDecline(ctx, 7)

	matchID := common.MatchID("3")
	matchState := infraMatchstate.NewRepository(store)
	require.NoError(t, matchState.WriteCohortHandoff(ctx, matchID, tenClasses(), nil))
	require.NoError(t, coord.Start(ctx, matchID))

	require.NoError(t, coord.Decline(ctx, matchID, common.PlayerID(7)))

	assert.Equal(t, 1, broadcast.countOf(transport.TypeCooldownSet))
}
