package validation

import (
	"context"
	"encoding/json"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/validation/entities"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const activeMatchTTL = 2 * time.Hour

func activeMatchKey(matchID common.MatchID) string {
	return "validation:active:" + string(matchID)
}

const activeIndexKey = "validation:active:index"

// ActiveMatchRepository tracks the polling set the same side-index way the
// Queue Engine's repository enumerates queue entries: the state store has
// no pattern-scan primitive, so a hash of matchID -> "1" is the index.
type ActiveMatchRepository struct {
	store statestore.Store
}

func NewActiveMatchRepository(store statestore.Store) *ActiveMatchRepository {
	return &ActiveMatchRepository{store: store}
}

func (r *ActiveMatchRepository) Add(ctx context.Context, match entities.ActiveMatch) error {
	raw, err := json.Marshal(match)
	if err != nil {
		return err
	}
	p := r.store.Pipeline()
	p.Set(activeMatchKey(match.MatchID), string(raw), activeMatchTTL)
	p.HSet(activeIndexKey, map[string]string{string(match.MatchID): "1"}, 0)
	return p.Exec(ctx)
}

func (r *ActiveMatchRepository) ListActive(ctx context.Context) ([]entities.ActiveMatch, error) {
	index, err := r.store.HGetAll(ctx, activeIndexKey)
	if err != nil {
		return nil, err
	}
	matches := make([]entities.ActiveMatch, 0, len(index))
	for matchID := range index {
		raw, ok, err := r.store.Get(ctx, activeMatchKey(common.MatchID(matchID)))
		if err != nil {
			return nil, err
		}
		if !ok {
			// Redis TTL expired the record before the index entry; drop it.
			_ = r.store.HDel(ctx, activeIndexKey, matchID)
			continue
		}
		var match entities.ActiveMatch
		if err := json.Unmarshal([]byte(raw), &match); err != nil {
			continue
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (r *ActiveMatchRepository) IncrementAttempts(ctx context.Context, matchID common.MatchID) (int, error) {
	raw, ok, err := r.store.Get(ctx, activeMatchKey(matchID))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, common.NewLogicalError("VALIDATION_MATCH_NOT_FOUND")
	}
	var match entities.ActiveMatch
	if err := json.Unmarshal([]byte(raw), &match); err != nil {
		return 0, err
	}
	match.Attempts++
	updated, err := json.Marshal(match)
	if err != nil {
		return 0, err
	}
	if err := r.store.Set(ctx, activeMatchKey(matchID), string(updated), activeMatchTTL); err != nil {
		return 0, err
	}
	return match.Attempts, nil
}

func (r *ActiveMatchRepository) Remove(ctx context.Context, matchID common.MatchID) error {
	if err := r.store.Del(ctx, activeMatchKey(matchID)); err != nil {
		return err
	}
	return r.store.HDel(ctx, activeIndexKey, string(matchID))
}
