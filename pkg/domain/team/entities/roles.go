// Package entities defines the role/class vocabulary and the candidate/
// result shapes the Team Builder's backtracking solver operates over. Per
// spec §9 these are tagged variants (typed enums), not raw strings, with
// the wire mapping kept at the transport edge.
package entities

import common "github.com/leetgaming/ranked-coordinator/pkg/domain"

// Role is one of the five slots a team must fill exactly once each.
type Role string

const (
	RoleSniper Role = "SNIPER"
	RoleT1     Role = "T1"
	RoleT2     Role = "T2"
	RoleT3     Role = "T3"
	RoleT4     Role = "T4"
)

// Roles lists the five roles in the fixed slot order spec §4.2 describes:
// (ALPHA,SNIPER),(BRAVO,SNIPER),(ALPHA,T1)...(BRAVO,T4).
var Roles = [5]Role{RoleSniper, RoleT1, RoleT2, RoleT3, RoleT4}

// Class is a player's declared weapon-class profile. SMG is the universal
// flex for any Tn slot.
type Class string

const (
	ClassSniper Class = "SNIPER"
	ClassT1     Class = "T1"
	ClassT2     Class = "T2"
	ClassT3     Class = "T3"
	ClassT4     Class = "T4"
	ClassSMG    Class = "SMG"
)

// Candidate is one of the ten players the solver partitions, carrying the
// attributes the slot-ranking priority (§4.2) needs: (priority asc,
// queuedAt asc, mmr desc).
type Candidate struct {
	PlayerID  common.PlayerID
	MMR       int
	Primary   Class
	Secondary Class
	QueuedAt  int64 // monotonic ms, used as the solver's tiebreak
}

// Assignment is one solved (player, role) pair on a team.
type Assignment struct {
	PlayerID   common.PlayerID
	Role       Role
	WasAutofill bool
	WasFlex     bool
}

// Cohort is the Team Builder's output: ten players split into two five-
// vectors of (player, role), per spec §3.
type Cohort struct {
	Alpha []Assignment
	Bravo []Assignment
}

func (c Cohort) MMRSum(candidatesByID map[common.PlayerID]Candidate, team []Assignment) int {
	sum := 0
	for _, a := range team {
		sum += candidatesByID[a.PlayerID].MMR
	}
	return sum
}
