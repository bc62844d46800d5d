// Package session adapts the Session Router's MatchLookup port onto the
// state store, and the websocket layer's raw connection onto the
// router's Transport port.
package session

import (
	"context"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

const matchIndexTTL = 2 * time.Hour

// MatchIndex is written once per player at cohort-publication time (via
// the readycheck.CohortSink adapter's optional indexer hook) and read by
// the Session Router's disconnect cascade.
type MatchIndex struct {
	store statestore.Store
}

func NewMatchIndex(store statestore.Store) *MatchIndex {
	return &MatchIndex{store: store}
}

// IndexPlayers implements readycheck.sessionIndexer.
func (m *MatchIndex) IndexPlayers(ctx context.Context, matchID common.MatchID, players []common.PlayerID) error {
	p := m.store.Pipeline()
	for _, player := range players {
		p.Set(statestore.SessionMatchKey(player), string(matchID), matchIndexTTL)
	}
	return p.Exec(ctx)
}

func (m *MatchIndex) MatchFor(ctx context.Context, player common.PlayerID) (common.MatchID, bool, error) {
	raw, ok, err := m.store.Get(ctx, statestore.SessionMatchKey(player))
	if err != nil || !ok {
		return "", false, err
	}
	return common.MatchID(raw), true, nil
}
