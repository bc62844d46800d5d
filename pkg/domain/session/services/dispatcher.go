package services

import (
	"encoding/json"

	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	lobbyentities "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/entities"
	queuein "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/in"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/session/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/session/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

// Dispatcher translates one inbound Envelope into the owning stage's
// in-process call, per spec §4.7 ("translates inbound messages to
// component calls"). The sender's identity comes from the authenticated
// connection, never from the payload, so a client can never act as
// another player.
type Dispatcher struct {
	queueJoiner out.QueueJoiner
	queueLeaver out.QueueLeaver
	readyCheck  out.ReadyCheckPort
	lobby       out.LobbyPort
	host        out.HostPort
	broadcast   transport.Broadcaster
}

func NewDispatcher(
	queueJoiner out.QueueJoiner,
	queueLeaver out.QueueLeaver,
	readyCheck out.ReadyCheckPort,
	lobby out.LobbyPort,
	host out.HostPort,
	broadcast transport.Broadcaster,
) *Dispatcher {
	return &Dispatcher{
		queueJoiner: queueJoiner,
		queueLeaver: queueLeaver,
		readyCheck:  readyCheck,
		lobby:       lobby,
		host:        host,
		broadcast:   broadcast,
	}
}

// Dispatch routes one envelope to its owning stage. A rejected QUEUE_JOIN
// is answered with QUEUE_FAILED to the sender; errors from the other
// stages get no reply to the sender. Stage errors never close the
// transport: only an unrecognized message type returns an error, since
// that indicates a protocol mismatch rather than a business rule
// rejection.
func (d *Dispatcher) Dispatch(ctx context.Context, player common.PlayerID, envelope entities.Envelope) error {
	switch envelope.Type {
	case transport.TypeQueueJoin:
		return d.handleQueueJoin(ctx, player, envelope.Payload)
	case transport.TypeQueueLeave:
		if err := d.queueLeaver.Exec(ctx, player); err != nil {
			return nil
		}
		return d.broadcast.Send(ctx, player, transport.Message{Type: transport.TypeQueueLeft})

	case transport.TypeReadyAccept:
		matchID, ok := d.matchID(envelope.Payload)
		if !ok {
			return nil
		}
		_ = d.readyCheck.Accept(ctx, matchID, player)
		return nil
	case transport.TypeReadyDecline:
		matchID, ok := d.matchID(envelope.Payload)
		if !ok {
			return nil
		}
		_ = d.readyCheck.Decline(ctx, matchID, player)
		return nil

	case transport.TypeMapVeto:
		var p entities.MapVetoPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil
		}
		_ = d.lobby.Veto(ctx, common.MatchID(p.MatchID), player, p.MapID)
		return nil

	case transport.TypeLobbyRequestSwap:
		var p entities.SwapPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil
		}
		_ = d.lobby.RequestSwap(ctx, common.MatchID(p.MatchID), player, common.PlayerID(p.Target))
		return nil
	case transport.TypeLobbyAcceptSwap:
		var p entities.SwapPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil
		}
		// The accepting player is "to"; the payload's target names the
		// original requester ("from").
		_ = d.lobby.AcceptSwap(ctx, common.MatchID(p.MatchID), common.PlayerID(p.Target), player)
		return nil
	case transport.TypeLobbyAbandon:
		matchID, ok := d.matchID(envelope.Payload)
		if !ok {
			return nil
		}
		_ = d.lobby.Abandon(ctx, matchID, player)
		return nil
	case transport.TypeChatSend:
		var p entities.ChatSendPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil
		}
		_ = d.lobby.Chat(ctx, common.MatchID(p.MatchID), player, lobbyentities.ChatChannel(p.Channel), p.Message)
		return nil

	case transport.TypeHostRoomCreated:
		var p entities.HostRoomCreatedPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil
		}
		if err := d.host.ConfirmRoom(ctx, common.MatchID(p.MatchID), player, p.RoomID, p.MapNumber); err != nil {
			return nil
		}
		return d.broadcast.Send(ctx, player, transport.Message{Type: transport.TypeHostConfirmed})
	case transport.TypeHostFailed:
		var p entities.HostFailedPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			return nil
		}
		_ = d.host.ReportFailure(ctx, common.MatchID(p.MatchID), player)
		return nil

	default:
		return common.NewValidationError("UNKNOWN_MESSAGE_TYPE")
	}
}

func (d *Dispatcher) handleQueueJoin(ctx context.Context, player common.PlayerID, raw []byte) error {
	var p entities.QueueJoinPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return d.broadcast.Send(ctx, player, transport.Message{
				Type:    transport.TypeQueueFailed,
				Payload: map[string]string{"reason": "MALFORMED_PAYLOAD"},
			})
		}
	}
	cmd := queuein.AdmitCommand{Player: player}
	if p.Classes != nil {
		cmd.Classes = *p.Classes
	}
	result, err := d.queueJoiner.Exec(ctx, cmd)
	if err != nil {
		reason := err.Error()
		if pe, ok := err.(*common.PipelineError); ok {
			reason = pe.Reason
		}
		return d.broadcast.Send(ctx, player, transport.Message{
			Type:    transport.TypeQueueFailed,
			Payload: map[string]string{"reason": reason},
		})
	}
	return d.broadcast.Send(ctx, player, transport.Message{
		Type:    transport.TypeQueueJoined,
		Payload: result,
	})
}

func (d *Dispatcher) matchID(raw []byte) (common.MatchID, bool) {
	var p entities.MatchPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.MatchID == "" {
		return "", false
	}
	return common.MatchID(p.MatchID), true
}
