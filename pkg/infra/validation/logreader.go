// Package validation adapts the Validation Engine's ports onto Redis (the
// active-match polling set) and Postgres (the external match-result log
// table), grounded on the teacher's narrow pgx trait
// (achievements.go's DBStore) for the latter.
package validation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/validation/entities"
)

// rowsQueryer is the one pgx method this adapter needs.
type rowsQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type LogReader struct {
	db rowsQueryer
}

func NewLogReader(db rowsQueryer) *LogReader {
	return &LogReader{db: db}
}

// FetchLogs is the single per-tick query spec §4.6 requires, filtered by
// game mode, validity flag, time range and the union of expected players.
func (r *LogReader) FetchLogs(ctx context.Context, gameMode string, isValid bool, from, to time.Time, playerIDs []common.PlayerID) ([]entities.LogEntry, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT match_id, player_id, team, is_win, start_time, map_number
		FROM match_result_logs
		WHERE game_mode = $1 AND is_valid = $2 AND start_time BETWEEN $3 AND $4 AND player_id = ANY($5)
	`
	rows, err := r.db.Query(ctx, query, gameMode, isValid, from, to, playerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []entities.LogEntry
	for rows.Next() {
		var l entities.LogEntry
		var startTime time.Time
		if err := rows.Scan(&l.MatchID, &l.PlayerID, &l.Team, &l.IsWin, &startTime, &l.MapNumber); err != nil {
			return nil, err
		}
		l.StartTime = startTime.UnixMilli()
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
