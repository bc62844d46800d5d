// Package websocket adapts gorilla/websocket connections onto the Session
// Router (spec §4.7), grounded on the teacher's per-client
// Send-channel/WritePump/ReadPump shape (Client, WritePump, ReadPump) but
// replacing the teacher's anonymous uuid.UUID client id and lobby-room
// subscription model with the domain's own common.PlayerID identity,
// bound only after a verified AUTH message.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	sessionentities "github.com/leetgaming/ranked-coordinator/pkg/domain/session/entities"
	sessionservices "github.com/leetgaming/ranked-coordinator/pkg/domain/session/services"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

const (
	readLimit  = 4096
	sendBuffer = 64
)

// authenticator verifies the AUTH message's token and returns the bound
// identity.
type authenticator interface {
	Verify(token string) (common.PlayerID, error)
}

// wireEnvelope is the raw inbound/outbound shape read off the socket;
// Payload stays undecoded until the dispatcher knows the Type.
type wireEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is one open socket. It implements session/ports/out.Transport, so
// the Session Router never imports gorilla/websocket directly.
type Conn struct {
	conn *websocket.Conn
	send chan transport.Message

	mu        sync.Mutex
	playerID  common.PlayerID
	authed    bool
	closeOnce sync.Once
}

// NewConn wraps a freshly upgraded socket. The connection has no bound
// identity until its first AUTH message succeeds.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn, send: make(chan transport.Message, sendBuffer)}
}

func (c *Conn) Send(_ context.Context, msg transport.Message) error {
	select {
	case c.send <- msg:
		return nil
	default:
		return common.NewTransientError("SESSION_SEND_BUFFER_FULL", nil)
	}
}

func (c *Conn) Close(_ context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// WritePump drains outbound messages onto the socket until Close.
func (c *Conn) WritePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			slog.Error("websocket write error", "error", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump reads typed envelopes until the socket closes. The first
// successful frame must be AUTH; every later frame is forwarded to the
// dispatcher under the now-bound identity. A HEARTBEAT frame only
// refreshes liveness (spec §4.7's 30-second heartbeat).
func (c *Conn) ReadPump(ctx context.Context, router *sessionservices.Router, dispatcher *sessionservices.Dispatcher, auth authenticator) {
	defer func() {
		c.mu.Lock()
		playerID, authed := c.playerID, c.authed
		c.mu.Unlock()
		if authed {
			router.Disconnect(ctx, playerID)
		} else {
			_ = c.Close(ctx)
		}
	}()

	c.conn.SetReadLimit(readLimit)

	for {
		var frame wireEnvelope
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", "error", err)
			}
			return
		}

		c.mu.Lock()
		authed := c.authed
		c.mu.Unlock()

		if !authed {
			if frame.Type != transport.TypeAuth {
				continue
			}
			if !c.authenticate(ctx, router, auth, frame.Payload) {
				return
			}
			continue
		}

		if frame.Type == "HEARTBEAT" {
			router.Heartbeat(c.playerID)
			continue
		}

		c.mu.Lock()
		playerID := c.playerID
		c.mu.Unlock()
		if err := dispatcher.Dispatch(ctx, playerID, sessionentities.Envelope{Type: frame.Type, Payload: frame.Payload}); err != nil {
			slog.WarnContext(ctx, "dispatch failed", "type", frame.Type, "error", err)
		}
	}
}

// authenticate returns false when the connection should be torn down
// (malformed token or ALREADY_CONNECTED).
func (c *Conn) authenticate(ctx context.Context, router *sessionservices.Router, auth authenticator, raw json.RawMessage) bool {
	var p sessionentities.AuthPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(ctx, transport.Message{Type: transport.TypeAuthFailed, Payload: map[string]string{"reason": "MALFORMED_AUTH"}})
		return false
	}
	playerID, err := auth.Verify(p.Token)
	if err != nil {
		_ = c.Send(ctx, transport.Message{Type: transport.TypeAuthFailed, Payload: map[string]string{"reason": "INVALID_TOKEN"}})
		return false
	}
	if err := router.Authenticate(ctx, playerID, c); err != nil {
		return false
	}
	c.mu.Lock()
	c.playerID, c.authed = playerID, true
	c.mu.Unlock()
	return true
}

// Upgrader centralizes the gorilla upgrade options; the HTTP handler that
// accepts new sockets lives in cmd/coordinator and calls Upgrade then
// spawns Conn.ReadPump/WritePump.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  readLimit,
	WriteBufferSize: readLimit,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
