// Package services implements the Queue Engine's matchmaking tick: the
// dynamic MMR window, the role-contract picker and the periodic loop that
// ties them together, grounded on the teacher's pattern of a service
// wrapping a ports/out repository (matchmaking_pool_query_service.go) but
// built around spec §4.1's specific algorithm instead of the teacher's
// pool-based query.
package services

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/out"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	teamsvc "github.com/leetgaming/ranked-coordinator/pkg/domain/team/services"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
)

// Clock abstracts wall-clock reads so ticks are testable with a fake clock.
type Clock func() int64

func RealClock() int64 { return time.Now().UnixMilli() }

// MatchIDGenerator mints the spec §3 "monotonically increasing" match id
// from the state store's INCR-backed `match:counter` key.
type MatchIDGenerator struct {
	store statestore.Store
}

func NewMatchIDGenerator(store statestore.Store) *MatchIDGenerator {
	return &MatchIDGenerator{store: store}
}

func (g *MatchIDGenerator) Next(ctx context.Context) (common.MatchID, error) {
	n, err := g.store.Incr(ctx, statestore.MatchCounterKey)
	if err != nil {
		return "", err
	}
	return common.MatchID(strconv.FormatInt(n, 10)), nil
}

// TickService runs the periodic matchmaking loop described in spec §4.1.
type TickService struct {
	repo       out.Repository
	sink       out.CohortSink
	matchState matchstate.Repository
	matchIDs   *MatchIDGenerator
	clock      Clock
	rand       *rand.Rand
	group      singleflight.Group
}

func NewTickService(repo out.Repository, sink out.CohortSink, matchState matchstate.Repository, matchIDs *MatchIDGenerator, clock Clock) *TickService {
	return &TickService{
		repo:       repo,
		sink:       sink,
		matchState: matchState,
		matchIDs:   matchIDs,
		clock:      clock,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run drives the ≈3.5s tick loop until ctx is cancelled.
func (s *TickService) Run(ctx context.Context) {
	ticker := time.NewTicker(3500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				slog.WarnContext(ctx, "matchmaking tick failed", "error", err)
			}
		}
	}
}

// Tick is single-flight: reentry while a tick is in progress is dropped
// (spec §5 "matchmaking ticks are single-flight: reentry is dropped").
func (s *TickService) Tick(ctx context.Context) error {
	_, err, _ := s.group.Do("tick", func() (interface{}, error) {
		return nil, s.runOnce(ctx)
	})
	return err
}

func (s *TickService) runOnce(ctx context.Context) error {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return common.NewTransientError("QUEUE_SNAPSHOT_FAILED", err)
	}
	if len(snapshot) < 10 {
		return nil
	}

	sort.SliceStable(snapshot, func(i, j int) bool { return snapshot[i].QueuedAt < snapshot[j].QueuedAt })

	now := s.clock()

	for _, ref := range snapshot {
		waitMs := now - ref.QueuedAt
		window := MMRWindow(ref.Tier(), waitMs)
		pool := PoolWithin(snapshot, ref, window)
		if len(pool) < 10 {
			continue
		}

		selected, ok := PickRoleContract(pool, AllowHardAutofill(waitMs))
		if !ok {
			continue
		}

		if s.tryPublish(ctx, selected) {
			return nil
		}
	}

	oldest := snapshot[0]
	if EmergencyPassDue(now - oldest.QueuedAt) {
		selected, ok := PickRoleContract(snapshot, true)
		if ok {
			s.tryPublish(ctx, selected)
		}
	}

	return nil
}

func (s *TickService) tryPublish(ctx context.Context, selected []entities.QueueEntry) bool {
	candidates := make([]team.Candidate, 0, len(selected))
	for _, e := range selected {
		candidates = append(candidates, team.Candidate{
			PlayerID:  e.PlayerID,
			MMR:       e.MMR,
			Primary:   e.Classes.Primary,
			Secondary: e.Classes.Secondary,
			QueuedAt:  e.QueuedAt,
		})
	}

	cohort, ok := teamsvc.Build(candidates)
	if !ok {
		// Team Builder failure: re-insert all ten preserving queuedAt
		// (spec §4.1 "Cohort publication contract").
		for _, e := range selected {
			if err := s.repo.Admit(ctx, e); err != nil {
				slog.WarnContext(ctx, "failed to reinsert queue entry after solve failure", "player", e.PlayerID, "error", err)
			}
		}
		return false
	}

	teamsvc.ShuffleWithRand(&cohort, s.rand)

	matchID, err := s.matchIDs.Next(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mint match id", "error", err)
		for _, e := range selected {
			_ = s.repo.Admit(ctx, e)
		}
		return false
	}

	for _, e := range selected {
		if err := s.repo.Remove(ctx, e.PlayerID); err != nil {
			slog.WarnContext(ctx, "failed to remove queue entry on cohort publish", "player", e.PlayerID, "error", err)
		}
	}

	byID := make(map[common.PlayerID]entities.QueueEntry, len(selected))
	for _, e := range selected {
		byID[e.PlayerID] = e
	}

	classes := make([]matchstate.ClassAssignment, 0, 10)
	classes = append(classes, classAssignmentsFor(common.TeamAlpha, cohort.Alpha, byID)...)
	classes = append(classes, classAssignmentsFor(common.TeamBravo, cohort.Bravo, byID)...)

	snapshot := make([]matchstate.QueueSnapshotEntry, 0, len(selected))
	for _, e := range selected {
		snapshot = append(snapshot, matchstate.QueueSnapshotEntry{
			PlayerID:  e.PlayerID,
			MMR:       e.MMR,
			Primary:   string(e.Classes.Primary),
			Secondary: string(e.Classes.Secondary),
			QueuedAt:  e.QueuedAt,
		})
	}

	if err := s.matchState.WriteCohortHandoff(ctx, matchID, classes, snapshot); err != nil {
		slog.ErrorContext(ctx, "failed to persist cohort handoff", "match_id", matchID, "error", err)
		for _, e := range selected {
			_ = s.repo.Admit(ctx, e)
		}
		return false
	}

	alpha := toCohortAssignments(cohort.Alpha)
	bravo := toCohortAssignments(cohort.Bravo)

	if err := s.sink.OnCohortPublished(ctx, matchID, alpha, bravo); err != nil {
		slog.ErrorContext(ctx, "cohort sink rejected published cohort", "match_id", matchID, "error", err)
		return false
	}

	slog.InfoContext(ctx, "cohort published", "match_id", matchID)
	return true
}

func toCohortAssignments(assignments []team.Assignment) []out.CohortAssignment {
	result := make([]out.CohortAssignment, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, out.CohortAssignment{
			PlayerID:    a.PlayerID,
			Role:        string(a.Role),
			WasAutofill: a.WasAutofill,
		})
	}
	return result
}

func classAssignmentsFor(t common.Team, assignments []team.Assignment, byID map[common.PlayerID]entities.QueueEntry) []matchstate.ClassAssignment {
	out := make([]matchstate.ClassAssignment, 0, len(assignments))
	for _, a := range assignments {
		e := byID[a.PlayerID]
		out = append(out, matchstate.ClassAssignment{
			PlayerID:     a.PlayerID,
			Team:         t,
			Primary:      string(e.Classes.Primary),
			Secondary:    string(e.Classes.Secondary),
			AssignedRole: string(a.Role),
			WasAutofill:  a.WasAutofill,
		})
	}
	return out
}
