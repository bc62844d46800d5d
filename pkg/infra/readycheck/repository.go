// Package readycheck adapts the Ready Check Coordinator's ports onto the
// state store, translating spec §6's `match:{id}:ready` hash schema
// (per-player status plus the `_startedAt`/`_expiresAt`/`_totalPlayers`
// bookkeeping fields) and the `decline:count:{id}` rolling counter.
package readycheck

import (
	"context"
	"strconv"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	queueentities "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/entities"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const readyHashTTL = 120 * time.Second
const declineWindow = 24 * time.Hour

const (
	fieldStartedAt    = "_startedAt"
	fieldExpiresAt    = "_expiresAt"
	fieldTotalPlayers = "_totalPlayers"
	fieldMatchStatus  = "_matchStatus"
)

type Repository struct {
	store statestore.Store
}

func NewRepository(store statestore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Start(ctx context.Context, matchID common.MatchID, players []common.PlayerID, startedAt, expiresAt int64) error {
	fields := map[string]string{
		fieldStartedAt:    strconv.FormatInt(startedAt, 10),
		fieldExpiresAt:    strconv.FormatInt(expiresAt, 10),
		fieldTotalPlayers: strconv.Itoa(len(players)),
		fieldMatchStatus:  string(entities.MatchPending),
	}
	for _, p := range players {
		fields[playerField(p)] = string(entities.StatusPending)
	}
	return r.store.HSet(ctx, statestore.MatchReadyKey(matchID), fields, readyHashTTL)
}

func (r *Repository) Get(ctx context.Context, matchID common.MatchID) (entities.ReadyCheck, bool, error) {
	fields, err := r.store.HGetAll(ctx, statestore.MatchReadyKey(matchID))
	if err != nil {
		return entities.ReadyCheck{}, false, err
	}
	if len(fields) == 0 {
		return entities.ReadyCheck{}, false, nil
	}

	rc := entities.ReadyCheck{
		MatchID: matchID,
		Status:  entities.MatchPending,
		Players: make(map[common.PlayerID]entities.PlayerStatus),
	}
	for field, value := range fields {
		switch field {
		case fieldStartedAt:
			rc.StartedAt, _ = strconv.ParseInt(value, 10, 64)
		case fieldExpiresAt:
			rc.ExpiresAt, _ = strconv.ParseInt(value, 10, 64)
		case fieldTotalPlayers:
			rc.TotalPlayers, _ = strconv.Atoi(value)
		case fieldMatchStatus:
			rc.Status = entities.MatchStatus(value)
		default:
			playerID, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				continue
			}
			rc.Players[common.PlayerID(playerID)] = entities.PlayerStatus(value)
		}
	}
	return rc, true, nil
}

func (r *Repository) SetPlayerStatus(ctx context.Context, matchID common.MatchID, player common.PlayerID, status entities.PlayerStatus) error {
	return r.store.HSet(ctx, statestore.MatchReadyKey(matchID), map[string]string{playerField(player): string(status)}, readyHashTTL)
}

func (r *Repository) SetMatchStatus(ctx context.Context, matchID common.MatchID, status entities.MatchStatus) error {
	return r.store.HSet(ctx, statestore.MatchReadyKey(matchID), map[string]string{fieldMatchStatus: string(status)}, readyHashTTL)
}

func (r *Repository) Delete(ctx context.Context, matchID common.MatchID) error {
	return r.store.Del(ctx, statestore.MatchReadyKey(matchID), statestore.LobbyTempKey(matchID))
}

func playerField(p common.PlayerID) string {
	return strconv.FormatInt(int64(p), 10)
}

// queueRepository is the narrow slice of the Queue Engine's ports/out.Repository
// this adapter needs, kept local so pkg/infra/readycheck doesn't import the
// queue infra package, only its domain port.
type queueRepository interface {
	WriteRequeueHint(ctx context.Context, player common.PlayerID, queuedAt int64, classes queueentities.Classes) error
}

// Requeuer delegates to the Queue Engine's own requeue-hint writer so both
// stages agree on the `requeue:ranked:{id}` wire format.
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

// CooldownTracker owns the decline counter and the resulting cooldown key.
type CooldownTracker struct {
	store statestore.Store
}

func NewCooldownTracker(store statestore.Store) *CooldownTracker {
	return &CooldownTracker{store: store}
}

func (c *CooldownTracker) RecordDecline(ctx context.Context, player common.PlayerID) (int, error) {
	key := statestore.DeclineCountKey(player)
	n, err := c.store.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	// Incr has no TTL primitive; refresh the 24h window on every decline so
	// the counter self-cleans instead of growing unbounded.
	if err := c.store.Set(ctx, key, strconv.FormatInt(n, 10), declineWindow); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *CooldownTracker) SetCooldown(ctx context.Context, player common.PlayerID, endsAt int64) error {
	ttl := time.Until(time.UnixMilli(endsAt))
	if ttl <= 0 {
		return nil
	}
	return c.store.Set(ctx, statestore.CooldownKey(player), strconv.FormatInt(endsAt, 10), ttl)
}
