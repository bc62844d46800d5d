package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// TopicMatchLifecycle is the single outbound topic this service publishes
// to: terminal match events for stats/anti-cheat consumers that would
// otherwise have to poll the relational store.
const TopicMatchLifecycle = "match-lifecycle"

const (
	EventTypeMatchEnded     = "MATCH_ENDED"
	EventTypeMatchCancelled = "MATCH_CANCELLED"
	EventTypeMatchInvalid   = "MATCH_INVALID"
)

// EventPublisher publishes match lifecycle events to Kafka. It mirrors the
// teacher's websocket_bridge.go direction (Kafka -> WebSocket) run in
// reverse: this pipeline's own fan-out is the Session Router, and Kafka is
// purely an outbound republish for systems outside this service.
type EventPublisher struct {
	client *Client
}

func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// MatchLifecycleEvent is the wire shape for all three terminal outcomes;
// EventType distinguishes them rather than three separate structs, since
// the payload (match id, roster, reason) is identical across outcomes.
type MatchLifecycleEvent struct {
	EventID   uuid.UUID         `json:"event_id"`
	EventType string            `json:"event_type"`
	MatchID   common.MatchID    `json:"match_id"`
	PlayerIDs []common.PlayerID `json:"player_ids"`
	Reason    string            `json:"reason,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

func (p *EventPublisher) publish(ctx context.Context, event MatchLifecycleEvent) error {
	if p.client == nil {
		return nil
	}

	event.EventID = uuid.New()
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	msg := &Message{
		Key:       string(event.MatchID),
		Value:     event,
		Timestamp: time.Now(),
		Headers: map[string]string{
			"event_type": event.EventType,
		},
	}

	return p.client.Publish(ctx, TopicMatchLifecycle, msg)
}

// PublishMatchEnded republishes the Validation Engine's settled outcome
// (spec §4.6 "On valid").
func (p *EventPublisher) PublishMatchEnded(ctx context.Context, matchID common.MatchID, players []common.PlayerID) error {
	return p.publish(ctx, MatchLifecycleEvent{EventType: EventTypeMatchEnded, MatchID: matchID, PlayerIDs: players})
}

// PublishMatchCancelled republishes a MATCH_CANCELLED message that passes
// through LifecycleBridge. The Ready Check, Lobby and Host Selector
// cancellation paths send READY_CHECK_FAILED, REQUEUE and HOST_FAILED
// rather than MATCH_CANCELLED, so their cancellations are not published.
func (p *EventPublisher) PublishMatchCancelled(ctx context.Context, matchID common.MatchID, players []common.PlayerID, reason string) error {
	return p.publish(ctx, MatchLifecycleEvent{EventType: EventTypeMatchCancelled, MatchID: matchID, PlayerIDs: players, Reason: reason})
}

// PublishMatchInvalid republishes a Validation Engine "invalid" verdict
// (spec §4.6 "On invalid": no stats applied, no rank change).
func (p *EventPublisher) PublishMatchInvalid(ctx context.Context, matchID common.MatchID, players []common.PlayerID, reason string) error {
	return p.publish(ctx, MatchLifecycleEvent{EventType: EventTypeMatchInvalid, MatchID: matchID, PlayerIDs: players, Reason: reason})
}
