// Package entities models the Host Selector's in-flight assignment state.
package entities

import common "github.com/leetgaming/ranked-coordinator/pkg/domain"

// Candidate is one player eligible to host, carrying just enough to rank
// and skip cooled-down offenders (spec §4.5 step 2).
type Candidate struct {
	PlayerID common.PlayerID
	MMR      int
}

// Assignment is the `match:{id}:host` record: who was picked, when the
// 120s confirmation window opened and closes.
type Assignment struct {
	MatchID   common.MatchID
	HostID    common.PlayerID
	RoomID    string
	Password  string
	MapNumber int
	StartedAt int64
	ExpiresAt int64
}
