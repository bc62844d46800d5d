// Package postgres is the relational store adapter for the MatchRecord
// table and its per-player settlement rows. Grounded on the teacher's
// narrow DBStore interface (internal/worker/achievements.go's
// Query/QueryRow/Exec trait over pgx) and its ON CONFLICT upsert style,
// since the original CRUD uses MongoDB instead of a relational store.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/match/entities"
)

// DBStore is the narrow trait this adapter needs over *pgxpool.Pool, kept
// so tests can substitute a fake without standing up a real database.
type DBStore interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type MatchRepository struct {
	db DBStore
}

func NewMatchRepository(db DBStore) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts the row at cohort-publication time (spec §4.1).
func (r *MatchRepository) Create(ctx context.Context, record entities.MatchRecord) error {
	query := `
		INSERT INTO match_records (match_id, status, map_number, room_id, host_oid_user, end_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, record.MatchID, record.Status, record.MapNumber, record.RoomID, record.HostOidUser, record.EndReason)
	return err
}

func (r *MatchRepository) Get(ctx context.Context, matchID common.MatchID) (entities.MatchRecord, bool, error) {
	query := `
		SELECT match_id, status, map_number, room_id, host_oid_user, end_reason, created_at, updated_at
		FROM match_records WHERE match_id = $1
	`
	var record entities.MatchRecord
	err := r.db.QueryRow(ctx, query, matchID).Scan(
		&record.MatchID, &record.Status, &record.MapNumber, &record.RoomID,
		&record.HostOidUser, &record.EndReason, &record.CreatedAt, &record.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return entities.MatchRecord{}, false, nil
	}
	if err != nil {
		return entities.MatchRecord{}, false, err
	}
	return record, true, nil
}

// AssignHost writes hostOidUser only while the row is still `ready`
// (spec §4.5 step 5) so a race with a cancellation never resurrects a
// match that already moved on.
func (r *MatchRepository) AssignHost(ctx context.Context, matchID common.MatchID, host common.PlayerID) error {
	query := `
		UPDATE match_records SET host_oid_user = $2, status = $3, updated_at = now()
		WHERE match_id = $1 AND status = $4
	`
	_, err := r.db.Exec(ctx, query, matchID, host, entities.StatusAwaitingHost, entities.StatusReady)
	return err
}

// ConfirmRoom atomically sets status=in-progress, roomId, mapNumber
// (spec §4.5 "ConfirmRoom").
func (r *MatchRepository) ConfirmRoom(ctx context.Context, matchID common.MatchID, roomID string, mapNumber int) error {
	query := `
		UPDATE match_records SET status = $2, room_id = $3, map_number = $4, updated_at = now()
		WHERE match_id = $1
	`
	_, err := r.db.Exec(ctx, query, matchID, entities.StatusInProgress, roomID, mapNumber)
	return err
}

func (r *MatchRepository) Cancel(ctx context.Context, matchID common.MatchID, endReason string) error {
	query := `
		UPDATE match_records SET status = $2, end_reason = $3, updated_at = now()
		WHERE match_id = $1
	`
	_, err := r.db.Exec(ctx, query, matchID, entities.StatusCancelled, endReason)
	return err
}

// Complete transitions the row to completed once the Validation Engine
// settles a winner (spec §4.6).
func (r *MatchRepository) Complete(ctx context.Context, matchID common.MatchID) error {
	query := `UPDATE match_records SET status = $2, updated_at = now() WHERE match_id = $1`
	_, err := r.db.Exec(ctx, query, matchID, entities.StatusCompleted)
	return err
}

// UpsertPlayerStat writes one player's settled outcome, idempotent per
// spec §8 property 9 (a match can only be settled once; replays must not
// double-apply a delta).
func (r *MatchRepository) UpsertPlayerStat(ctx context.Context, stat entities.PlayerMatchStat) error {
	query := `
		INSERT INTO player_match_stats (match_id, player_id, team, won, abandoned, mmr_change)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id, player_id)
		DO UPDATE SET team = EXCLUDED.team, won = EXCLUDED.won, abandoned = EXCLUDED.abandoned, mmr_change = EXCLUDED.mmr_change
	`
	_, err := r.db.Exec(ctx, query, stat.MatchID, stat.PlayerID, stat.Team, stat.Won, stat.Abandoned, stat.MMRChange)
	return err
}
