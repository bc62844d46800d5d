package in

import (
	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
)

// AdmitCommand is the input contract for joining the queue (QUEUE_JOIN).
type AdmitCommand struct {
	Player   common.PlayerID
	MMR      int
	Classes  entities.Classes
	PartyID  *string
	SocialID string
}

// RemoveCommand is the input contract for leaving the queue (QUEUE_LEAVE).
type RemoveCommand struct {
	Player common.PlayerID
}
