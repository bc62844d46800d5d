// Package entities holds the Queue Engine's data shapes, grounded on the
// teacher's matchmaking_session.go (a per-player queue entry carrying
// preferences and a queued timestamp) but narrowed to the fields spec §3
// actually names for QueueEntry.
package entities

import (
	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
)

// Classes is a player's declared class profile, reused from the Team
// Builder's vocabulary since both components speak of the same primary/
// secondary pair.
type Classes struct {
	Primary   team.Class `json:"primary"`
	Secondary team.Class `json:"secondary"`
}

// QueueEntry is created on Admit and destroyed on cohort selection,
// explicit leave, disconnect, or cooldown denial (spec §3).
type QueueEntry struct {
	PlayerID common.PlayerID `json:"player_id"`
	MMR      int             `json:"mmr"`
	Classes  Classes         `json:"classes"`
	QueuedAt int64           `json:"queued_at"` // monotonic ms
	PartyID  *string         `json:"party_id,omitempty"`
}

// TierBucket classifies a player's MMR into the dynamic-window base tier
// (spec §4.1 step 2).
type TierBucket string

const (
	TierHigh TierBucket = "high"
	TierMid  TierBucket = "mid"
	TierLow  TierBucket = "low"
)

func (q QueueEntry) Tier() TierBucket {
	switch {
	case q.MMR >= 2000:
		return TierHigh
	case q.MMR >= 1400:
		return TierMid
	default:
		return TierLow
	}
}
