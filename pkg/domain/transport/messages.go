// Package transport defines the outbound message vocabulary (spec §6) and
// the narrow Broadcaster port every pipeline stage uses to reach players,
// grounded on the teacher's websocket hub broadcasting JSON-tagged envelope
// structs rather than raw maps.
package transport

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// Broadcaster is the one thing every domain service needs from the
// transport layer: send a typed message to one player, or to a set.
// Implemented by the Session Router (pkg/domain/session/services.Router),
// which the container wraps in kafka.LifecycleBridge.
type Broadcaster interface {
	Send(ctx context.Context, player common.PlayerID, msg Message) error
	SendAll(ctx context.Context, players []common.PlayerID, msg Message) error
}

// Message is any outbound envelope. Type is the wire discriminant spec §6
// lists in the "Outbound" column; Payload is marshaled as the message body.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	TypeMatchFound        = "MATCH_FOUND"
	TypeReadyUpdate        = "READY_UPDATE"
	TypeReadyAccepted      = "READY_ACCEPTED"
	TypeReadyCheckFailed   = "READY_CHECK_FAILED"
	TypeCooldownSet        = "COOLDOWN_SET"
	TypeRequeue            = "REQUEUE"
	TypeVetoUpdate         = "VETO_UPDATE"
	TypeTurnChange         = "TURN_CHANGE"
	TypeMapSelected        = "MAP_SELECTED"
	TypeLobbySwapRequested = "LOBBY_SWAP_REQUESTED"
	TypeLobbySwapCompleted = "LOBBY_SWAP_COMPLETED"
	TypeLobbyData          = "LOBBY_DATA"
	TypeLobbyReady         = "LOBBY_READY"
	TypeChatMessage        = "CHAT_MESSAGE"
	TypeHostSelected       = "HOST_SELECTED"
	TypeHostWaiting        = "HOST_WAITING"
	TypeHostConfirmed      = "HOST_CONFIRMED"
	TypeHostFailed         = "HOST_FAILED"
	TypeMatchEnded         = "MATCH_ENDED"
	TypeMatchCancelled     = "MATCH_CANCELLED"
	TypeMatchInvalid       = "MATCH_INVALID"
	TypeServerShutdown     = "SERVER_SHUTDOWN"
	TypeQueueJoined        = "QUEUE_JOINED"
	TypeQueueFailed        = "QUEUE_FAILED"
	TypeQueueLeft          = "QUEUE_LEFT"
	TypeAuthSuccess        = "AUTH_SUCCESS"
	TypeAuthFailed         = "AUTH_FAILED"
)

// Inbound message types (spec §6's "Inbound" column), dispatched by the
// Session Router to the owning pipeline stage.
const (
	TypeAuth              = "AUTH"
	TypeQueueJoin          = "QUEUE_JOIN"
	TypeQueueLeave         = "QUEUE_LEAVE"
	TypeReadyAccept        = "READY_ACCEPT"
	TypeReadyDecline       = "READY_DECLINE"
	TypeMapVeto            = "MAP_VETO"
	TypeLobbyRequestSwap   = "LOBBY_REQUEST_SWAP"
	TypeLobbyAcceptSwap    = "LOBBY_ACCEPT_SWAP"
	TypeHostRoomCreated    = "HOST_ROOM_CREATED"
	TypeLobbyAbandon       = "LOBBY_ABANDON"
	TypeChatSend           = "CHAT_SEND"
)
