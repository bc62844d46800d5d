// Package lobby adapts the Lobby/Veto Engine's ports onto the state store,
// translating spec §6's `lobby:{id}:state|vetos|selectedMap` keys and the
// `abandon:count:{id}` rolling counter.
package lobby

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/entities"
	queueentities "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/ports/out"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const lobbyTTL = 2 * time.Hour
const abandonWindow = 24 * time.Hour

type Repository struct {
	store statestore.Store
}

func NewRepository(store statestore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Save(ctx context.Context, lobby entities.Lobby) error {
	stateRaw, err := json.Marshal(lobby)
	if err != nil {
		return err
	}
	vetosRaw, err := json.Marshal(lobby.Vetos)
	if err != nil {
		return err
	}

	p := r.store.Pipeline()
	p.Set(statestore.LobbyStateKey(lobby.MatchID), string(stateRaw), lobbyTTL)
	p.Set(statestore.LobbyVetosKey(lobby.MatchID), string(vetosRaw), lobbyTTL)
	if lobby.SelectedMap != nil {
		selectedRaw, err := json.Marshal(lobby.SelectedMap)
		if err != nil {
			return err
		}
		p.Set(statestore.LobbySelectedMapKey(lobby.MatchID), string(selectedRaw), lobbyTTL)
	}
	return p.Exec(ctx)
}

func (r *Repository) Get(ctx context.Context, matchID common.MatchID) (entities.Lobby, bool, error) {
	raw, ok, err := r.store.Get(ctx, statestore.LobbyStateKey(matchID))
	if err != nil || !ok {
		return entities.Lobby{}, false, err
	}
	var lobby entities.Lobby
	if err := json.Unmarshal([]byte(raw), &lobby); err != nil {
		return entities.Lobby{}, false, err
	}
	return lobby, true, nil
}

func (r *Repository) Delete(ctx context.Context, matchID common.MatchID) error {
	return r.store.Del(ctx,
		statestore.LobbyStateKey(matchID),
		statestore.LobbyVetosKey(matchID),
		statestore.LobbySelectedMapKey(matchID),
		statestore.LobbyTempKey(matchID),
	)
}

// queueRepository is the narrow slice of the Queue Engine's repository
// this requeuer needs, reused so both stages write the same wire format.
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

func (c *CooldownTracker) RecordAbandon(ctx context.Context, player common.PlayerID) (int, error) {
	key := statestore.AbandonCountKey(player)
	n, err := c.store.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := c.store.Set(ctx, key, strconv.FormatInt(n, 10), abandonWindow); err != nil {
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
