package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	hostentities "github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	queuein "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/in"
	queueusecases "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/usecases"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

type fakeTransport struct {
	sent   []transport.Message
	closed bool
}

func (f *fakeTransport) Send(_ context.Context, msg transport.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close(_ context.Context) error {
	f.closed = true
	return nil
}

type fakeQueueJoiner struct{}

func (fakeQueueJoiner) Exec(_ context.Context, _ queuein.AdmitCommand) (*queueusecases.AdmitResult, error) {
	return &queueusecases.AdmitResult{}, nil
}

type fakeQueueLeaver struct{ left []common.PlayerID }

func (f *fakeQueueLeaver) Exec(_ context.Context, player common.PlayerID) error {
	f.left = append(f.left, player)
	return nil
}

type fakeReadyCheckCanceller struct {
	matchID common.MatchID
	player  common.PlayerID
	calls   int
}

func (f *fakeReadyCheckCanceller) Disconnect(_ context.Context, matchID common.MatchID, player common.PlayerID) error {
	f.calls++
	f.matchID, f.player = matchID, player
	return nil
}

type fakeHostAborter struct {
	matchID common.MatchID
	host    common.PlayerID
	calls   int
}

func (f *fakeHostAborter) ReportFailure(_ context.Context, matchID common.MatchID, host common.PlayerID) error {
	f.calls++
	f.matchID, f.host = matchID, host
	return nil
}

type fakeHostReader struct {
	assignment hostentities.Assignment
	ok         bool
}

func (f *fakeHostReader) Get(_ context.Context, _ common.MatchID) (hostentities.Assignment, bool, error) {
	return f.assignment, f.ok, nil
}

type fakeMatchLookup struct {
	matchID common.MatchID
	ok      bool
}

func (f *fakeMatchLookup) MatchFor(_ context.Context, _ common.PlayerID) (common.MatchID, bool, error) {
	return f.matchID, f.ok, nil
}

func fixedClock() int64 { return 1_000_000 }

func TestRouter_AuthenticateRejectsDuplicateConnection(t *testing.T) {
	ctx := context.Background()
	router := NewRouter(fakeQueueJoiner{}, &fakeQueueLeaver{}, &fakeReadyCheckCanceller{}, &fakeHostAborter{}, &fakeHostReader{}, &fakeMatchLookup{}, fixedClock)

	first := &fakeTransport{}
	require.NoError(t, router.Authenticate(ctx, 1, first))
	assert.Equal(t, transport.TypeAuthSuccess, first.sent[0].Type)

	second := &fakeTransport{}
	err := router.Authenticate(ctx, 1, second)
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	assert.Equal(t, transport.TypeAuthFailed, second.sent[0].Type)
}

func TestRouter_DisconnectCascadesToQueueAndReadyCheck(t *testing.T) {
	ctx := context.Background()
	queueLeaver := &fakeQueueLeaver{}
	readyCheck := &fakeReadyCheckCanceller{}
	hostAborter := &fakeHostAborter{}
	hostReader := &fakeHostReader{ok: false}
	matchLookup := &fakeMatchLookup{matchID: "7", ok: true}

	router := NewRouter(fakeQueueJoiner{}, queueLeaver, readyCheck, hostAborter, hostReader, matchLookup, fixedClock)

	conn := &fakeTransport{}
	require.NoError(t, router.Authenticate(ctx, 5, conn))

	router.Disconnect(ctx, 5)

	assert.True(t, conn.closed)
	assert.Equal(t, []common.PlayerID{5}, queueLeaver.left)
	assert.Equal(t, 1, readyCheck.calls)
	assert.Equal(t, common.MatchID("7"), readyCheck.matchID)
	assert.Equal(t, 0, hostAborter.calls)
}

func TestRouter_DisconnectAbortsHostWhenPlayerIsActiveHost(t *testing.T) {
	ctx := context.Background()
	queueLeaver := &fakeQueueLeaver{}
	hostAborter := &fakeHostAborter{}
	hostReader := &fakeHostReader{ok: true, assignment: hostentities.Assignment{MatchID: "9", HostID: 5}}
	matchLookup := &fakeMatchLookup{matchID: "9", ok: true}

	router := NewRouter(fakeQueueJoiner{}, queueLeaver, &fakeReadyCheckCanceller{}, hostAborter, hostReader, matchLookup, fixedClock)

	conn := &fakeTransport{}
	require.NoError(t, router.Authenticate(ctx, 5, conn))
	router.Disconnect(ctx, 5)

	assert.Equal(t, 1, hostAborter.calls)
	assert.Equal(t, common.PlayerID(5), hostAborter.host)
}

func TestRouter_DisconnectSkipsHostAbortForNonHost(t *testing.T) {
	ctx := context.Background()
	hostAborter := &fakeHostAborter{}
	hostReader := &fakeHostReader{ok: true, assignment: hostentities.Assignment{MatchID: "9", HostID: 2}}
	matchLookup := &fakeMatchLookup{matchID: "9", ok: true}

	router := NewRouter(fakeQueueJoiner{}, &fakeQueueLeaver{}, &fakeReadyCheckCanceller{}, hostAborter, hostReader, matchLookup, fixedClock)

	conn := &fakeTransport{}
	require.NoError(t, router.Authenticate(ctx, 5, conn))
	router.Disconnect(ctx, 5)

	assert.Equal(t, 0, hostAborter.calls)
}

func TestRouter_SendAllFansOutToConnectedPlayers(t *testing.T) {
	ctx := context.Background()
	router := NewRouter(fakeQueueJoiner{}, &fakeQueueLeaver{}, &fakeReadyCheckCanceller{}, &fakeHostAborter{}, &fakeHostReader{}, &fakeMatchLookup{}, fixedClock)

	a, b := &fakeTransport{}, &fakeTransport{}
	require.NoError(t, router.Authenticate(ctx, 1, a))
	require.NoError(t, router.Authenticate(ctx, 2, b))

	require.NoError(t, router.SendAll(ctx, []common.PlayerID{1, 2, 3}, transport.Message{Type: transport.TypeMatchFound}))

	assert.Equal(t, transport.TypeMatchFound, a.sent[len(a.sent)-1].Type)
	assert.Equal(t, transport.TypeMatchFound, b.sent[len(b.sent)-1].Type)
}
