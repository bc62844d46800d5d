// Package entities holds the Ready Check Coordinator's per-player and
// per-match state shapes, grounded on matchmaking/entities/lobby.go's
// ready-check fields but narrowed to the PENDING/READY/DECLINED machine
// spec §4.3 describes.
package entities

import common "github.com/leetgaming/ranked-coordinator/pkg/domain"

// PlayerStatus is one player's position in the ready-check state machine.
type PlayerStatus string

const (
	StatusPending  PlayerStatus = "PENDING"
	StatusReady    PlayerStatus = "READY"
	StatusDeclined PlayerStatus = "DECLINED"
)

// MatchStatus gates whether Accept/Decline calls still have an effect.
type MatchStatus string

const (
	MatchPending    MatchStatus = "PENDING"
	MatchCompleting MatchStatus = "COMPLETING"
)

// ReadyCheck is the full per-match hash persisted at `match:{id}:ready`.
type ReadyCheck struct {
	MatchID      common.MatchID
	Status       MatchStatus
	StartedAt    int64
	ExpiresAt    int64
	TotalPlayers int
	Players      map[common.PlayerID]PlayerStatus
}

// ReadyCount returns how many players have transitioned to READY.
func (r ReadyCheck) ReadyCount() int {
	n := 0
	for _, s := range r.Players {
		if s == StatusReady {
			n++
		}
	}
	return n
}

// CancelCause distinguishes why a ready check was torn down, used to
// decide whether the escalating decline cooldown applies.
type CancelCause string

const (
	CauseDecline    CancelCause = "DECLINE"
	CauseTimeout    CancelCause = "TIMEOUT"
	CauseDisconnect CancelCause = "DISCONNECT"
)
