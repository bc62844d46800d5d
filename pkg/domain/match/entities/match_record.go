// Package entities holds the relational MatchRecord row every pipeline
// stage after the Queue Engine mutates. The Redis-backed matchstate
// keyspace is the fast, self-expiring copy of this data; MatchRecord is the
// durable row the Validation Engine and post-match stats read from once
// the 2h Redis TTL has long since passed.
package entities

import (
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

type Status string

const (
	StatusReady       Status = "ready"
	StatusAwaitingHost Status = "awaiting-host"
	StatusInProgress  Status = "in-progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// MatchRecord is the row created once a cohort publishes and updated by
// every later stage (host assignment, room confirmation, settlement).
type MatchRecord struct {
	MatchID     common.MatchID  `db:"match_id"`
	Status      Status          `db:"status"`
	MapNumber   int             `db:"map_number"`
	RoomID      string          `db:"room_id"`
	HostOidUser *common.PlayerID `db:"host_oid_user"`
	EndReason   string          `db:"end_reason"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// PlayerMatchStat is one player's settled row for a completed match,
// written by the Validation Engine once a winner is determined.
type PlayerMatchStat struct {
	MatchID   common.MatchID  `db:"match_id"`
	PlayerID  common.PlayerID `db:"player_id"`
	Team      common.Team     `db:"team"`
	Won       bool            `db:"won"`
	Abandoned bool            `db:"abandoned"`
	MMRChange int             `db:"mmr_change"`
}
