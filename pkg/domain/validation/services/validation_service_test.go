package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	matchentities "github.com/leetgaming/ranked-coordinator/pkg/domain/match/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/validation/entities"
	infraMatchstate "github.com/leetgaming/ranked-coordinator/pkg/infra/matchstate"
	infraValidation "github.com/leetgaming/ranked-coordinator/pkg/infra/validation"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

type fakeLogReader struct {
	logs []entities.LogEntry
}

func (f *fakeLogReader) FetchLogs(_ context.Context, _ string, _ bool, _, _ time.Time, _ []common.PlayerID) ([]entities.LogEntry, error) {
	return f.logs, nil
}

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
	completed bool
	stats     []matchentities.PlayerMatchStat
	cancelled string
}

func (f *fakeRecords) Complete(_ context.Context, _ common.MatchID) error {
	f.completed = true
	return nil
}

func (f *fakeRecords) UpsertPlayerStat(_ context.Context, stat matchentities.PlayerMatchStat) error {
	f.stats = append(f.stats, stat)
	return nil
}

func (f *fakeRecords) Cancel(_ context.Context, _ common.MatchID, reason string) error {
	f.cancelled = reason
	return nil
}

func tenPlayerRoster() []entities.PlayerAssignment {
	roster := make([]entities.PlayerAssignment, 0, 10)
	for i := 1; i <= 10; i++ {
		team := common.TeamAlpha
		if i > 5 {
			team = common.TeamBravo
		}
		roster = append(roster, entities.PlayerAssignment{PlayerID: common.PlayerID(i), Team: team})
	}
	return roster
}

func tenPlayerLogs(winner common.Team, startTime int64) []entities.LogEntry {
	logs := make([]entities.LogEntry, 0, 10)
	for i := 1; i <= 10; i++ {
		team := common.TeamAlpha
		if i > 5 {
			team = common.TeamBravo
		}
		logs = append(logs, entities.LogEntry{
			MatchID:   "60",
			PlayerID:  common.PlayerID(i),
			Team:      team,
			IsWin:     team == winner,
			StartTime: startTime,
			MapNumber: 1,
		})
	}
	return logs
}

func newTestService(t *testing.T, logs *fakeLogReader) (*Service, *fakeBroadcaster, *fakeRecords, *infraValidation.ActiveMatchRepository, func(time.Time)) {
	t.Helper()
	store := statestore.NewMemoryStore()
	active := infraValidation.NewActiveMatchRepository(store)
	matchState := infraMatchstate.NewRepository(store)
	broadcast := &fakeBroadcaster{}
	records := &fakeRecords{}

	now := time.UnixMilli(2_000_000)
	clock := func() time.Time { return now }

	svc := NewService(logs, active, matchState, records, records, broadcast, clock)
	setNow := func(t time.Time) { now = t }
	return svc, broadcast, records, active, setNow
}

func TestValidation_SettlesMatchOnValidLogs(t *testing.T) {
	ctx := context.Background()
	logs := &fakeLogReader{logs: tenPlayerLogs(common.TeamAlpha, 2_000_000)}
	svc, broadcast, records, active, _ := newTestService(t, logs)

	require.NoError(t, active.Add(ctx, entities.ActiveMatch{
		MatchID:   "60",
		GameMode:  gameMode,
		MapNumber: 1,
		StartedAt: 2_000_000,
		Roster:    tenPlayerRoster(),
	}))

	svc.pollOnce(ctx)

	assert.True(t, records.completed)
	assert.Len(t, records.stats, 10)
	assert.Equal(t, 1, broadcast.countOf(transport.TypeMatchEnded))

	remaining, err := active.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestValidation_TimesOutAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	logs := &fakeLogReader{logs: nil}
	svc, broadcast, records, active, _ := newTestService(t, logs)

	require.NoError(t, active.Add(ctx, entities.ActiveMatch{
		MatchID:   "61",
		GameMode:  gameMode,
		MapNumber: 1,
		StartedAt: 2_000_000,
		Roster:    tenPlayerRoster(),
		Attempts:  entities.MaxAttempts - 1,
	}))

	svc.pollOnce(ctx)

	assert.Equal(t, "VALIDATION_TIMEOUT", records.cancelled)
	assert.Equal(t, 1, broadcast.countOf(transport.TypeMatchInvalid))

	remaining, err := active.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestValidation_MarksAbandonedPlayersWhenUnderRepresented(t *testing.T) {
	ctx := context.Background()
	full := tenPlayerLogs(common.TeamAlpha, 2_000_000)
	// Player 10 never shows up; player 1's row repeats so the total row
	// count still clears the `|logs| >= expectedPlayers` gate even though
	// only 9 distinct players are observed.
	partial := append(full[:9:9], full[0])
	logs := &fakeLogReader{logs: partial}
	svc, _, records, active, _ := newTestService(t, logs)

	require.NoError(t, active.Add(ctx, entities.ActiveMatch{
		MatchID:   "60",
		GameMode:  gameMode,
		MapNumber: 1,
		StartedAt: 2_000_000,
		Roster:    tenPlayerRoster(),
	}))

	svc.pollOnce(ctx)

	var abandonedCount int
	for _, s := range records.stats {
		if s.Abandoned {
			abandonedCount++
			assert.Equal(t, common.PlayerID(10), s.PlayerID)
		}
	}
	assert.Equal(t, 1, abandonedCount)
}
