package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

type fakeInnerBroadcaster struct {
	sent []transport.Message
}

func (f *fakeInnerBroadcaster) Send(_ context.Context, _ common.PlayerID, msg transport.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeInnerBroadcaster) SendAll(_ context.Context, _ []common.PlayerID, msg transport.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func TestLifecycleBridge_ForwardsWithoutClientConfigured(t *testing.T) {
	inner := &fakeInnerBroadcaster{}
	bridge := NewLifecycleBridge(inner, NewEventPublisher(nil))

	err := bridge.SendAll(context.Background(), []common.PlayerID{1, 2}, transport.Message{
		Type:    transport.TypeMatchEnded,
		Payload: map[string]string{"matchId": "42"},
	})

	require.NoError(t, err)
	require.Len(t, inner.sent, 1)
	assert.Equal(t, transport.TypeMatchEnded, inner.sent[0].Type)
}

func TestLifecycleBridge_IgnoresNonTerminalMessages(t *testing.T) {
	inner := &fakeInnerBroadcaster{}
	bridge := NewLifecycleBridge(inner, NewEventPublisher(nil))

	err := bridge.SendAll(context.Background(), []common.PlayerID{1}, transport.Message{Type: transport.TypeMatchFound})

	require.NoError(t, err)
	require.Len(t, inner.sent, 1)
}
