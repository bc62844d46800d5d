package matchstate

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	domain "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const matchTTL = 2 * time.Hour

type Repository struct {
	store statestore.Store
}

func NewRepository(store statestore.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) WriteCohortHandoff(ctx context.Context, matchID common.MatchID, classes []domain.ClassAssignment, snapshot []domain.QueueSnapshotEntry) error {
	classFields := make(map[string]string, len(classes))
	for _, c := range classes {
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		classFields[strconv.FormatInt(int64(c.PlayerID), 10)] = string(raw)
	}

	snapshotRaw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	p := r.store.Pipeline()
	p.HSet(statestore.MatchClassesKey(matchID), classFields, matchTTL)
	p.Set(statestore.MatchQueueSnapshotKey(matchID), string(snapshotRaw), matchTTL)
	p.Set(statestore.MatchStatusKey(matchID), string(domain.StatusReady), matchTTL)
	return p.Exec(ctx)
}

func (r *Repository) Classes(ctx context.Context, matchID common.MatchID) ([]domain.ClassAssignment, error) {
	fields, err := r.store.HGetAll(ctx, statestore.MatchClassesKey(matchID))
	if err != nil {
		return nil, err
	}
	out := make([]domain.ClassAssignment, 0, len(fields))
	for _, raw := range fields {
		var c domain.ClassAssignment
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repository) SetAssignedRole(ctx context.Context, matchID common.MatchID, player common.PlayerID, role string) error {
	fields, err := r.store.HGetAll(ctx, statestore.MatchClassesKey(matchID))
	if err != nil {
		return err
	}
	key := strconv.FormatInt(int64(player), 10)
	raw, ok := fields[key]
	if !ok {
		return common.NewLogicalError("PLAYER_NOT_IN_MATCH")
	}
	var c domain.ClassAssignment
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return err
	}
	c.AssignedRole = role
	updated, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.store.HSet(ctx, statestore.MatchClassesKey(matchID), map[string]string{key: string(updated)}, matchTTL)
}

func (r *Repository) QueueSnapshot(ctx context.Context, matchID common.MatchID) ([]domain.QueueSnapshotEntry, error) {
	raw, ok, err := r.store.Get(ctx, statestore.MatchQueueSnapshotKey(matchID))
	if err != nil || !ok {
		return nil, err
	}
	var out []domain.QueueSnapshotEntry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) SetStatus(ctx context.Context, matchID common.MatchID, status domain.Status) error {
	return r.store.Set(ctx, statestore.MatchStatusKey(matchID), string(status), matchTTL)
}

func (r *Repository) GetStatus(ctx context.Context, matchID common.MatchID) (domain.Status, bool, error) {
	raw, ok, err := r.store.Get(ctx, statestore.MatchStatusKey(matchID))
	if err != nil || !ok {
		return "", false, err
	}
	return domain.Status(raw), true, nil
}

func (r *Repository) DeleteMatch(ctx context.Context, matchID common.MatchID, extraKeys ...string) error {
	keys := []string{
		statestore.MatchStatusKey(matchID),
		statestore.MatchReadyKey(matchID),
		statestore.MatchClassesKey(matchID),
		statestore.MatchQueueSnapshotKey(matchID),
		statestore.MatchHostKey(matchID),
		statestore.MatchHostPasswordKey(matchID),
		statestore.MatchRoomKey(matchID),
		statestore.LobbyTempKey(matchID),
		statestore.LobbyStateKey(matchID),
		statestore.LobbyVetosKey(matchID),
		statestore.LobbySelectedMapKey(matchID),
	}
	keys = append(keys, extraKeys...)
	return r.store.Del(ctx, keys...)
}
