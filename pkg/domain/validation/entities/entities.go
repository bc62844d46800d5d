// Package entities models the Validation Engine's in-flight polling state
// over matches whose result is still being confirmed against the external
// log table (spec §4.6).
package entities

import (
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// Mode is the polling cadence a match is in: monitoring while young,
// aggressive once it's old enough that a result is expected imminently.
type Mode string

const (
	ModeMonitoring Mode = "monitoring"
	ModeAggressive Mode = "aggressive"
)

const (
	MonitoringInterval = 30 * time.Second
	AggressiveInterval = 10 * time.Second
	AgeThreshold       = 10 * time.Minute
	MaxAttempts        = 100
	MaxElapsed         = 50 * time.Minute
)

// ActiveMatch is one match still awaiting settlement.
type ActiveMatch struct {
	MatchID   common.MatchID
	GameMode  string
	MapNumber int
	StartedAt int64 // unix millis
	Attempts  int
	Roster    []PlayerAssignment
}

// PlayerAssignment is one expected participant, carried so the engine can
// filter fetched logs and compute per-team counts without a second query.
type PlayerAssignment struct {
	PlayerID common.PlayerID
	Team     common.Team
}

// LogEntry is one row from the external results log.
type LogEntry struct {
	MatchID   common.MatchID
	PlayerID  common.PlayerID
	Team      common.Team
	IsWin     bool
	StartTime int64
	MapNumber int
}

// Classification is the outcome of `validateTeams` over one match's
// filtered logs.
type Classification struct {
	Valid         bool
	Winner        common.Team
	Abandonments  int
	DurationMs    int64
	TeamCounts    map[common.Team]int
}
