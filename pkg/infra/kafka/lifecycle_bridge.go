package kafka

import (
	"context"
	"encoding/json"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

// lifecyclePayload captures the one field every terminal payload struct
// across the pipeline stages names the same way (matchId, reason): enough
// to republish without each stage exporting its private payload type.
type lifecyclePayload struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}

func extractLifecycle(payload interface{}) lifecyclePayload {
	raw, err := json.Marshal(payload)
	if err != nil {
		return lifecyclePayload{}
	}
	var p lifecyclePayload
	_ = json.Unmarshal(raw, &p)
	return p
}

// LifecycleBridge wraps a transport.Broadcaster and republishes the three
// terminal match message types to Kafka before forwarding to the wrapped
// broadcaster, so every pipeline stage's existing SendAll call is the only
// thing that needs to trigger an outbound Kafka event — no stage needs a
// Kafka-specific dependency of its own.
type LifecycleBridge struct {
	inner     transport.Broadcaster
	publisher *EventPublisher
}

func NewLifecycleBridge(inner transport.Broadcaster, publisher *EventPublisher) *LifecycleBridge {
	return &LifecycleBridge{inner: inner, publisher: publisher}
}

func (b *LifecycleBridge) Send(ctx context.Context, player common.PlayerID, msg transport.Message) error {
	return b.inner.Send(ctx, player, msg)
}

func (b *LifecycleBridge) SendAll(ctx context.Context, players []common.PlayerID, msg transport.Message) error {
	switch msg.Type {
	case transport.TypeMatchEnded:
		p := extractLifecycle(msg.Payload)
		if err := b.publisher.PublishMatchEnded(ctx, common.MatchID(p.MatchID), players); err != nil {
			return err
		}
	case transport.TypeMatchCancelled:
		p := extractLifecycle(msg.Payload)
		if err := b.publisher.PublishMatchCancelled(ctx, common.MatchID(p.MatchID), players, p.Reason); err != nil {
			return err
		}
	case transport.TypeMatchInvalid:
		p := extractLifecycle(msg.Payload)
		if err := b.publisher.PublishMatchInvalid(ctx, common.MatchID(p.MatchID), players, p.Reason); err != nil {
			return err
		}
	}
	return b.inner.SendAll(ctx, players, msg)
}
