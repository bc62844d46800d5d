// Package queue adapts the Queue Engine's ports/out.Repository onto the
// state store facade, translating spec §6's queue/requeue/cooldown key
// patterns into Store calls. It maintains a side index hash so the tick
// loop can snapshot all active entries without the store exposing a
// pattern-scan primitive (spec §9: "do not leak the store's command
// surface into the pipeline").
package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const indexKey = "queue:ranked:index"

type Repository struct {
	store statestore.Store
}

func NewRepository(store statestore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Admit(ctx context.Context, entry entities.QueueEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	p := r.store.Pipeline()
	p.Set(statestore.QueueKey(entry.PlayerID), string(payload), time.Hour)
	p.HSet(indexKey, map[string]string{
		strconv.FormatInt(int64(entry.PlayerID), 10): strconv.FormatInt(entry.QueuedAt, 10),
	}, 0)
	return p.Exec(ctx)
}

func (r *Repository) Remove(ctx context.Context, player common.PlayerID) error {
	if err := r.store.Del(ctx, statestore.QueueKey(player)); err != nil {
		return err
	}
	return r.store.HDel(ctx, indexKey, strconv.FormatInt(int64(player), 10))
}

func (r *Repository) Exists(ctx context.Context, player common.PlayerID) (bool, error) {
	_, ok, err := r.store.Get(ctx, statestore.QueueKey(player))
	return ok, err
}

func (r *Repository) Snapshot(ctx context.Context) ([]entities.QueueEntry, error) {
	index, err := r.store.HGetAll(ctx, indexKey)
	if err != nil {
		return nil, err
	}

	out := make([]entities.QueueEntry, 0, len(index))
	for playerField := range index {
		playerID, err := strconv.ParseInt(playerField, 10, 64)
		if err != nil {
			continue
		}
		raw, ok, err := r.store.Get(ctx, statestore.QueueKey(common.PlayerID(playerID)))
		if err != nil {
			continue
		}
		if !ok {
			// Entry expired (TTL 1h) without an explicit leave: best-effort
			// stale-index cleanup, per spec §7's "missed key yields a
			// defined default" policy.
			_ = r.store.HDel(ctx, indexKey, playerField)
			continue
		}
		var entry entities.QueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *Repository) SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error {
	ttl := time.Until(time.UnixMilli(endsAt))
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, statestore.CooldownKey(player), strconv.FormatInt(endsAt, 10), ttl)
}

func (r *Repository) CooldownEndsAt(ctx context.Context, player common.PlayerID) (int64, bool, error) {
	raw, ok, err := r.store.Get(ctx, statestore.CooldownKey(player))
	if err != nil || !ok {
		return 0, false, err
	}
	endsAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return endsAt, true, nil
}

func (r *Repository) WriteRequeueHint(ctx context.Context, player common.PlayerID, queuedAt int64, classes entities.Classes) error {
	payload, err := json.Marshal(requeueHint{QueuedAt: queuedAt, Classes: classes})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, statestore.RequeueKey(player), string(payload), 10*time.Minute)
}

func (r *Repository) ConsumeRequeueHint(ctx context.Context, player common.PlayerID) (int64, bool, error) {
	raw, ok, err := r.store.Get(ctx, statestore.RequeueKey(player))
	if err != nil || !ok {
		return 0, false, err
	}
	var hint requeueHint
	if err := json.Unmarshal([]byte(raw), &hint); err != nil {
		return 0, false, nil
	}
	_ = r.store.Del(ctx, statestore.RequeueKey(player))
	return hint.QueuedAt, true, nil
}

type requeueHint struct {
	QueuedAt int64             `json:"queued_at"`
	Classes  entities.Classes `json:"classes"`
}
