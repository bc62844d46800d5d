// Package out defines the Session Router's collaborators: the transport
// write surface plus the narrow slices of every other pipeline stage the
// disconnect cascade (spec §4.7) needs to reach into.
package out

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	hostentities "github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	lobbyentities "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/entities"
	queuein "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/in"
	queueusecases "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/usecases"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

// Transport is one open connection's write/close surface; the router
// holds one per authenticated identity, grounded on the teacher's
// per-Client Send channel (pkg/infra/websocket/hub.go's Client.Send)
// expressed as a port instead of a concrete channel so the router stays
// free of any websocket-specific type.
type Transport interface {
	Send(ctx context.Context, msg transport.Message) error
	Close(ctx context.Context) error
}

// MatchLookup answers "which match, if any, is this player currently
// part of", written once at cohort-publication time and read by the
// disconnect cascade.
type MatchLookup interface {
	MatchFor(ctx context.Context, player common.PlayerID) (common.MatchID, bool, error)
}

// HostReader is the narrow slice of the Host Selector's repository the
// router needs to decide whether a disconnecting player was the active
// host (spec §4.7 "host-attempt abort if the player was the active
// host").
type HostReader interface {
	Get(ctx context.Context, matchID common.MatchID) (hostentities.Assignment, bool, error)
}

// QueueJoiner/QueueLeaver are the Queue Engine's Admit/Remove use cases.
type QueueJoiner interface {
	Exec(ctx context.Context, cmd queuein.AdmitCommand) (*queueusecases.AdmitResult, error)
}

type QueueLeaver interface {
	Exec(ctx context.Context, player common.PlayerID) error
}

// ReadyCheckCanceller is the Ready Check Coordinator's disconnect path.
type ReadyCheckCanceller interface {
	Disconnect(ctx context.Context, matchID common.MatchID, player common.PlayerID) error
}

// HostAborter is the Host Selector's client-reported-failure path, reused
// unchanged for a disconnecting host.
type HostAborter interface {
	ReportFailure(ctx context.Context, matchID common.MatchID, host common.PlayerID) error
}

// ReadyCheckPort is the dispatcher's view of the Ready Check Coordinator:
// the two player-initiated transitions spec §6 lists for READY_ACCEPT and
// READY_DECLINE. Kept separate from ReadyCheckCanceller so the router's
// disconnect cascade and the dispatcher's inbound switch each import only
// what they call.
type ReadyCheckPort interface {
	Accept(ctx context.Context, matchID common.MatchID, player common.PlayerID) error
	Decline(ctx context.Context, matchID common.MatchID, player common.PlayerID) error
}

// LobbyPort is the dispatcher's view of the Lobby/Veto Engine: every
// player-initiated message spec §6 lists for the lobby stage.
type LobbyPort interface {
	Veto(ctx context.Context, matchID common.MatchID, player common.PlayerID, mapID string) error
	RequestSwap(ctx context.Context, matchID common.MatchID, from, to common.PlayerID) error
	AcceptSwap(ctx context.Context, matchID common.MatchID, from, to common.PlayerID) error
	Chat(ctx context.Context, matchID common.MatchID, sender common.PlayerID, channel lobbyentities.ChatChannel, message string) error
	Abandon(ctx context.Context, matchID common.MatchID, player common.PlayerID) error
}

// HostPort is the dispatcher's view of the Host Selector: the room
// confirmation and client-reported-failure messages.
type HostPort interface {
	ConfirmRoom(ctx context.Context, matchID common.MatchID, host common.PlayerID, roomID string, mapNumber int) error
	ReportFailure(ctx context.Context, matchID common.MatchID, host common.PlayerID) error
}
