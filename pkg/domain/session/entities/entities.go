// Package entities holds the Session Router's own state: nothing here is
// persisted to the shared keyspace, it is the process-local bookkeeping
// spec §5 allows ("no process-wide mutable state other than the transport
// map and matchmaking/validation timers").
package entities

import common "github.com/leetgaming/ranked-coordinator/pkg/domain"

// Connection tracks one authenticated identity's liveness for the
// heartbeat sweep.
type Connection struct {
	PlayerID      common.PlayerID
	ConnectedAt   int64
	LastHeartbeat int64
}
