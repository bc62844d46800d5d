// Package services implements the Session Router (spec §4.7): the single
// map from player identity to open transport, duplicate-auth rejection,
// the disconnect cascade into the Queue Engine / Ready Check / Host
// Selector, and the 30-second heartbeat sweep. Grounded on the teacher's
// WebSocketHub (pkg/infra/websocket/hub.go), whose clients/register/
// unregister map is reproduced here as domain logic behind a Transport
// port instead of a concrete *websocket.Conn, so the router itself stays
// free of any transport-library import.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/session/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/session/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

// Clock abstracts wall-clock reads so the heartbeat sweep is testable.
type Clock func() int64

func RealClock() int64 { return time.Now().UnixMilli() }

const (
	heartbeatInterval = 30 * time.Second
	staleAfter        = 2 * heartbeatInterval
)

// Router is the Session Router. It implements transport.Broadcaster
// directly: every pipeline stage's outbound Send/SendAll resolves through
// the same identity->transport map the router uses for inbound dispatch.
type Router struct {
	queueJoiner  out.QueueJoiner
	queueLeaver  out.QueueLeaver
	readyCheck   out.ReadyCheckCanceller
	hostAborter  out.HostAborter
	hostReader   out.HostReader
	matchLookup  out.MatchLookup
	clock        Clock

	mu          sync.RWMutex
	connections map[common.PlayerID]out.Transport
	state       map[common.PlayerID]entities.Connection
}

func NewRouter(
	queueJoiner out.QueueJoiner,
	queueLeaver out.QueueLeaver,
	readyCheck out.ReadyCheckCanceller,
	hostAborter out.HostAborter,
	hostReader out.HostReader,
	matchLookup out.MatchLookup,
	clock Clock,
) *Router {
	return &Router{
		queueJoiner: queueJoiner,
		queueLeaver: queueLeaver,
		readyCheck:  readyCheck,
		hostAborter: hostAborter,
		hostReader:  hostReader,
		matchLookup: matchLookup,
		clock:       clock,
		connections: make(map[common.PlayerID]out.Transport),
		state:       make(map[common.PlayerID]entities.Connection),
	}
}

// Authenticate binds a newly opened transport to a player identity. A
// second connection for an identity already bound is rejected with
// ALREADY_CONNECTED on the new transport, per spec §4.7; the existing
// connection is left untouched.
func (r *Router) Authenticate(ctx context.Context, player common.PlayerID, conn out.Transport) error {
	r.mu.Lock()
	if _, exists := r.connections[player]; exists {
		r.mu.Unlock()
		_ = conn.Send(ctx, transport.Message{
			Type:    transport.TypeAuthFailed,
			Payload: map[string]string{"reason": "ALREADY_CONNECTED"},
		})
		return common.NewValidationError("ALREADY_CONNECTED")
	}

	now := r.clock()
	r.connections[player] = conn
	r.state[player] = entities.Connection{PlayerID: player, ConnectedAt: now, LastHeartbeat: now}
	r.mu.Unlock()

	return conn.Send(ctx, transport.Message{Type: transport.TypeAuthSuccess})
}

// Heartbeat refreshes a connection's liveness timestamp.
func (r *Router) Heartbeat(player common.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.state[player]; ok {
		c.LastHeartbeat = r.clock()
		r.state[player] = c
	}
}

// SweepStale runs the 30-second heartbeat check (spec §4.7): any
// transport that hasn't heartbeat-ed in two intervals is terminated and
// put through the same disconnect cascade as an explicit close.
func (r *Router) SweepStale(ctx context.Context) {
	now := r.clock()
	var stale []common.PlayerID

	r.mu.RLock()
	for player, c := range r.state {
		if time.Duration(now-c.LastHeartbeat)*time.Millisecond > staleAfter {
			stale = append(stale, player)
		}
	}
	r.mu.RUnlock()

	for _, player := range stale {
		slog.WarnContext(ctx, "terminating stale session", "player", player)
		r.Disconnect(ctx, player)
	}
}

// Run drives the heartbeat sweep loop until ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SweepStale(ctx)
		}
	}
}

// Disconnect unbinds the identity's transport and cascades per spec
// §4.7: unconditional queue removal, a ready-check force-cancel if the
// player was mid-check, and a host-attempt abort if the player was the
// active host for their current match. Each leg is best-effort; a
// player who was in none of these states simply no-ops on all three.
func (r *Router) Disconnect(ctx context.Context, player common.PlayerID) {
	r.mu.Lock()
	conn, existed := r.connections[player]
	delete(r.connections, player)
	delete(r.state, player)
	r.mu.Unlock()

	if !existed {
		return
	}
	if err := conn.Close(ctx); err != nil {
		slog.WarnContext(ctx, "failed to close transport", "player", player, "error", err)
	}

	if err := r.queueLeaver.Exec(ctx, player); err != nil && !common.IsLogicalError(err) {
		slog.WarnContext(ctx, "disconnect queue removal failed", "player", player, "error", err)
	}

	matchID, inMatch, err := r.matchLookup.MatchFor(ctx, player)
	if err != nil {
		slog.WarnContext(ctx, "disconnect match lookup failed", "player", player, "error", err)
		return
	}
	if !inMatch {
		return
	}

	if err := r.readyCheck.Disconnect(ctx, matchID, player); err != nil && !common.IsLogicalError(err) {
		slog.WarnContext(ctx, "disconnect ready-check cancel failed", "match", matchID, "player", player, "error", err)
	}

	assignment, ok, err := r.hostReader.Get(ctx, matchID)
	if err != nil {
		slog.WarnContext(ctx, "disconnect host lookup failed", "match", matchID, "player", player, "error", err)
		return
	}
	if ok && assignment.HostID == player {
		if err := r.hostAborter.ReportFailure(ctx, matchID, player); err != nil {
			slog.WarnContext(ctx, "disconnect host abort failed", "match", matchID, "player", player, "error", err)
		}
	}
}

// Send implements transport.Broadcaster for a single player.
func (r *Router) Send(ctx context.Context, player common.PlayerID, msg transport.Message) error {
	r.mu.RLock()
	conn, ok := r.connections[player]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return conn.Send(ctx, msg)
}

// SendAll implements transport.Broadcaster for a player set.
func (r *Router) SendAll(ctx context.Context, players []common.PlayerID, msg transport.Message) error {
	var firstErr error
	for _, player := range players {
		if err := r.Send(ctx, player, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Shutdown implements spec §6's graceful-shutdown contract: broadcast
// SERVER_SHUTDOWN, then close every open transport.
func (r *Router) Shutdown(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for player, conn := range r.connections {
		if err := conn.Send(ctx, transport.Message{Type: transport.TypeServerShutdown}); err != nil {
			slog.WarnContext(ctx, "shutdown broadcast failed", "player", player, "error", err)
		}
		if err := conn.Close(ctx); err != nil {
			slog.WarnContext(ctx, "shutdown close failed", "player", player, "error", err)
		}
	}
	r.connections = make(map[common.PlayerID]out.Transport)
	r.state = make(map[common.PlayerID]entities.Connection)
}
