// Package host adapts the Host Selector's ports onto the state store,
// translating spec §6's `match:{id}:host|hostPassword|room` keys and the
// `cooldown:host:{id}` penalty key.
package host

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/host/ports/out"
	queueentities "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const hostTTL = 2 * time.Hour

type Repository struct {
	store statestore.Store
}

func NewRepository(store statestore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Save(ctx context.Context, assignment entities.Assignment) error {
	raw, err := json.Marshal(assignment)
	if err != nil {
		return err
	}
	p := r.store.Pipeline()
	p.Set(statestore.MatchHostKey(assignment.MatchID), string(raw), hostTTL)
	p.Set(statestore.MatchHostPasswordKey(assignment.MatchID), assignment.Password, hostTTL)
	p.Set(statestore.MatchRoomKey(assignment.MatchID), assignment.RoomID, hostTTL)
	return p.Exec(ctx)
}

func (r *Repository) Get(ctx context.Context, matchID common.MatchID) (entities.Assignment, bool, error) {
	raw, ok, err := r.store.Get(ctx, statestore.MatchHostKey(matchID))
	if err != nil || !ok {
		return entities.Assignment{}, false, err
	}
	var assignment entities.Assignment
	if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
		return entities.Assignment{}, false, err
	}
	return assignment, true, nil
}

func (r *Repository) Delete(ctx context.Context, matchID common.MatchID) error {
	return r.store.Del(ctx,
		statestore.MatchHostKey(matchID),
		statestore.MatchHostPasswordKey(matchID),
		statestore.MatchRoomKey(matchID),
	)
}

// queueRepository is the narrow slice of the Queue Engine's repository
// this requeuer needs, reused so every stage writes the same wire format.
type queueRepository interface {
	WriteRequeueHint(ctx context.Context, player common.PlayerID, queuedAt int64, classes queueentities.Classes) error
}

type Requeuer struct {
	queue queueRepository
}

func NewRequeuer(queue queueRepository) *Requeuer {
	return &Requeuer{queue: queue}
}

func (r *Requeuer) WriteRequeueHint(ctx context.Context, hint out.RequeueHint) error {
	classes := queueentities.Classes{Primary: team.Class(hint.Primary), Secondary: team.Class(hint.Secondary)}
	return r.queue.WriteRequeueHint(ctx, hint.PlayerID, hint.QueuedAt, classes)
}

type CooldownTracker struct {
	store statestore.Store
}

func NewCooldownTracker(store statestore.Store) *CooldownTracker {
	return &CooldownTracker{store: store}
}

func (c *CooldownTracker) IsOnCooldown(ctx context.Context, player common.PlayerID) (bool, error) {
	ttl, err := c.store.TTL(ctx, statestore.HostCooldownKey(player))
	if err != nil {
		return false, err
	}
	return ttl > 0, nil
}

func (c *CooldownTracker) SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error {
	ttl := time.Until(time.UnixMilli(endsAt))
	if ttl <= 0 {
		return nil
	}
	return c.store.Set(ctx, statestore.HostCooldownKey(player), strconv.FormatInt(endsAt, 10), ttl)
}
