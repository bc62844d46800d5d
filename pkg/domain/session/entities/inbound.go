package entities

import (
	queueentities "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
)

// Envelope is the inbound wire shape every AUTH/QUEUE_JOIN/.../CHAT_SEND
// message arrives as (spec §6's "Inbound" column); Payload is re-parsed
// per Type by the dispatcher.
type Envelope struct {
	Type    string `json:"type"`
	Payload []byte `json:"-"`
}

type AuthPayload struct {
	OIDUser   string  `json:"oidUser"`
	Token     string  `json:"token"`
	DiscordID *string `json:"discordId,omitempty"`
}

type QueueJoinPayload struct {
	Classes *queueentities.Classes `json:"classes,omitempty"`
}

type MatchPayload struct {
	MatchID string `json:"matchId"`
}

type MapVetoPayload struct {
	MatchID string `json:"matchId"`
	MapID   string `json:"mapId"`
}

type SwapPayload struct {
	MatchID string `json:"matchId"`
	Target  int64  `json:"target"`
}

type HostRoomCreatedPayload struct {
	MatchID   string `json:"matchId"`
	RoomID    string `json:"roomId"`
	MapNumber int    `json:"mapNumber"`
}

type HostFailedPayload struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}

type ChatSendPayload struct {
	Channel string `json:"channel"`
	MatchID string `json:"matchId"`
	Message string `json:"message"`
}
