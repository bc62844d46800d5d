// Package statestore is the narrow trait over the expiring key-value store
// that spec §9 requires: "do not leak the store's command surface into the
// pipeline." Every component reaches the store through this interface only,
// never through a raw Redis client.
package statestore

import (
	"context"
	"time"
)

// Store exposes exactly the primitives §6's key schema needs: scalar
// get/set with TTL, hash field access, an atomic counter, pub/sub, and
// pipelined multi-command batches for the atomic stage-handoff writes
// described in §3 ("the outgoing stage writes the new status key before
// the incoming stage reads it").
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	HDel(ctx context.Context, key string, fields ...string) error

	Incr(ctx context.Context, key string) (int64, error)

	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, func(), error)

	TTL(ctx context.Context, key string) (time.Duration, error)

	Pipeline() Pipeline
}

// Pipeline batches a stage handoff's writes into one Exec. Exec is not a
// transaction: the Redis implementation sends a plain (non-MULTI)
// pipeline, so a failure part-way can leave some of the writes applied.
type Pipeline interface {
	Set(key, value string, ttl time.Duration)
	HSet(key string, fields map[string]string, ttl time.Duration)
	Del(keys ...string)
	Incr(key string)
	Exec(ctx context.Context) error
}
