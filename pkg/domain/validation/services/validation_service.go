// Package services implements the Validation Engine's two-mode polling
// loop, grounded on the teacher's ticker-driven background job shape
// (pkg/app/jobs/prize_distribution_job.go's `Run(ctx)` /
// `processPendingDistributions` split) generalized from a fixed interval
// to spec §4.6's age-dependent monitoring/aggressive cadence.
package services

import (
	"context"
	"log/slog"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	matchentities "github.com/leetgaming/ranked-coordinator/pkg/domain/match/entities"
	matchout "github.com/leetgaming/ranked-coordinator/pkg/domain/match/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/rank"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/validation/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/validation/ports/out"
)

type Clock func() time.Time

func RealClock() time.Time { return time.Now() }

const gameMode = "ranked_5v5"

// canceller is the single method this service needs off the Host
// Selector's relational write port, kept narrow per the pipeline's
// interface-segregation convention.
type canceller interface {
	Cancel(ctx context.Context, matchID common.MatchID, endReason string) error
}

type Service struct {
	logs       out.LogReader
	active     out.ActiveMatches
	matchState matchstate.Repository
	records    matchout.Settler
	cancels    canceller
	broadcast  transport.Broadcaster
	clock      Clock

	lastGlobalCheck time.Time
}

func NewService(
	logs out.LogReader,
	active out.ActiveMatches,
	matchState matchstate.Repository,
	records matchout.Settler,
	cancels canceller,
	broadcast transport.Broadcaster,
	clock Clock,
) *Service {
	return &Service{
		logs:            logs,
		active:          active,
		matchState:      matchState,
		records:         records,
		cancels:         cancels,
		broadcast:       broadcast,
		clock:           clock,
		lastGlobalCheck: clock(),
	}
}

// StartValidation registers a newly room-confirmed match for polling
// (spec §4.5 "invokes Validation Engine start").
func (s *Service) StartValidation(ctx context.Context, matchID common.MatchID, roomID string, mapNumber int) error {
	classes, err := s.matchState.Classes(ctx, matchID)
	if err != nil {
		return common.NewTransientError("VALIDATION_CLASSES_READ_FAILED", err)
	}
	if len(classes) == 0 {
		return common.NewLogicalError("VALIDATION_NO_CLASSES")
	}

	roster := make([]entities.PlayerAssignment, 0, len(classes))
	for _, c := range classes {
		roster = append(roster, entities.PlayerAssignment{PlayerID: c.PlayerID, Team: c.Team})
	}

	match := entities.ActiveMatch{
		MatchID:   matchID,
		GameMode:  gameMode,
		MapNumber: mapNumber,
		StartedAt: s.clock().UnixMilli(),
		Roster:    roster,
	}
	return s.active.Add(ctx, match)
}

// Run drives the polling loop: the sleep interval adapts every iteration
// to whether any active match has aged past the 10-minute threshold
// (spec §4.6 "monitoring"/"aggressive").
func (s *Service) Run(ctx context.Context) {
	slog.InfoContext(ctx, "validation engine started")
	for {
		interval := s.nextInterval(ctx)
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "validation engine stopped")
			return
		case <-time.After(interval):
			s.pollOnce(ctx)
		}
	}
}

func (s *Service) nextInterval(ctx context.Context) time.Duration {
	matches, err := s.active.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list active matches", "error", err)
		return entities.MonitoringInterval
	}
	now := s.clock()
	for _, m := range matches {
		if now.Sub(time.UnixMilli(m.StartedAt)) > entities.AgeThreshold {
			return entities.AggressiveInterval
		}
	}
	return entities.MonitoringInterval
}

func (s *Service) pollOnce(ctx context.Context) {
	matches, err := s.active.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list active matches", "error", err)
		return
	}
	if len(matches) == 0 {
		return
	}

	now := s.clock()
	playerIDs := unionPlayerIDs(matches)
	logs, err := s.logs.FetchLogs(ctx, gameMode, true, s.lastGlobalCheck, now, playerIDs)
	s.lastGlobalCheck = now
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch validation logs", "error", err)
		return
	}

	for _, match := range matches {
		s.processMatch(ctx, match, logs, now)
	}
}

func (s *Service) processMatch(ctx context.Context, match entities.ActiveMatch, logs []entities.LogEntry, now time.Time) {
	expected := make(map[common.PlayerID]common.Team, len(match.Roster))
	for _, p := range match.Roster {
		expected[p.PlayerID] = p.Team
	}

	filtered := filterLogs(logs, match, expected)
	distinct := distinctPlayers(filtered)

	minExpected := len(expected)
	if minExpected > 6 {
		minExpected = 6
	}

	if len(distinct) >= minExpected && len(filtered) >= len(expected) {
		classification := validateTeams(filtered, expected)
		if classification.Valid {
			s.settle(ctx, match, classification, distinct)
			return
		}
	}

	attempts, err := s.active.IncrementAttempts(ctx, match.MatchID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to increment validation attempts", "match", match.MatchID, "error", err)
		return
	}

	elapsed := now.Sub(time.UnixMilli(match.StartedAt))
	if attempts >= entities.MaxAttempts || elapsed > entities.MaxElapsed {
		s.timeout(ctx, match)
	}
}

func filterLogs(logs []entities.LogEntry, match entities.ActiveMatch, expected map[common.PlayerID]common.Team) []entities.LogEntry {
	filtered := make([]entities.LogEntry, 0, len(logs))
	for _, l := range logs {
		if l.MatchID != match.MatchID {
			continue
		}
		if l.MapNumber != match.MapNumber {
			continue
		}
		if l.StartTime < match.StartedAt {
			continue
		}
		if _, ok := expected[l.PlayerID]; !ok {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}

func distinctPlayers(logs []entities.LogEntry) map[common.PlayerID]struct{} {
	seen := make(map[common.PlayerID]struct{}, len(logs))
	for _, l := range logs {
		seen[l.PlayerID] = struct{}{}
	}
	return seen
}

// validateTeams implements spec §4.6's classification: per-team counts
// must each be >= 3 and differ by <= 2, the winner is whichever team has
// more isWin=1 entries, and abandonments are the gap between expected and
// observed distinct players.
func validateTeams(logs []entities.LogEntry, expected map[common.PlayerID]common.Team) entities.Classification {
	counts := map[common.Team]int{}
	wins := map[common.Team]int{}
	seen := map[common.PlayerID]struct{}{}
	var earliest, latest int64

	for i, l := range logs {
		if _, dup := seen[l.PlayerID]; !dup {
			seen[l.PlayerID] = struct{}{}
			counts[l.Team]++
		}
		if l.IsWin {
			wins[l.Team]++
		}
		if i == 0 || l.StartTime < earliest {
			earliest = l.StartTime
		}
		if i == 0 || l.StartTime > latest {
			latest = l.StartTime
		}
	}

	alpha, bravo := counts[common.TeamAlpha], counts[common.TeamBravo]
	diff := alpha - bravo
	if diff < 0 {
		diff = -diff
	}
	if alpha < 3 || bravo < 3 || diff > 2 {
		return entities.Classification{Valid: false, TeamCounts: counts}
	}

	winner := common.TeamAlpha
	if wins[common.TeamBravo] > wins[common.TeamAlpha] {
		winner = common.TeamBravo
	}

	return entities.Classification{
		Valid:        true,
		Winner:       winner,
		Abandonments: len(expected) - len(seen),
		DurationMs:   latest - earliest,
		TeamCounts:   counts,
	}
}

func (s *Service) settle(ctx context.Context, match entities.ActiveMatch, classification entities.Classification, observed map[common.PlayerID]struct{}) {
	for _, p := range match.Roster {
		_, present := observed[p.PlayerID]
		abandoned := !present
		won := !abandoned && p.Team == classification.Winner
		delta := rank.Apply(rank.Outcome{Won: won, Abandoned: abandoned})
		if err := s.records.UpsertPlayerStat(ctx, matchentities.PlayerMatchStat{
			MatchID:   match.MatchID,
			PlayerID:  p.PlayerID,
			Team:      p.Team,
			Won:       won,
			Abandoned: abandoned,
			MMRChange: delta.MMRChange,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to upsert player stat", "player", p.PlayerID, "error", err)
		}
	}

	if err := s.records.Complete(ctx, match.MatchID); err != nil {
		slog.ErrorContext(ctx, "failed to complete match record", "match", match.MatchID, "error", err)
	}
	if err := s.broadcast.SendAll(ctx, playerIDsOf(match.Roster), transport.Message{
		Type: transport.TypeMatchEnded,
		Payload: matchEndedPayload{
			MatchID:      string(match.MatchID),
			Winner:       classification.Winner,
			Abandonments: classification.Abandonments,
			DurationMs:   classification.DurationMs,
		},
	}); err != nil {
		slog.WarnContext(ctx, "failed to broadcast MATCH_ENDED", "match", match.MatchID, "error", err)
	}

	if err := s.matchState.DeleteMatch(ctx, match.MatchID); err != nil {
		slog.WarnContext(ctx, "failed to clean up match keys", "match", match.MatchID, "error", err)
	}
	if err := s.active.Remove(ctx, match.MatchID); err != nil {
		slog.WarnContext(ctx, "failed to remove active match", "match", match.MatchID, "error", err)
	}
}

func (s *Service) timeout(ctx context.Context, match entities.ActiveMatch) {
	reason := "VALIDATION_TIMEOUT"
	if err := s.cancels.Cancel(ctx, match.MatchID, reason); err != nil {
		slog.ErrorContext(ctx, "failed to cancel match record", "match", match.MatchID, "error", err)
	}
	if err := s.broadcast.SendAll(ctx, playerIDsOf(match.Roster), transport.Message{
		Type:    transport.TypeMatchInvalid,
		Payload: matchInvalidPayload{MatchID: string(match.MatchID), Reason: reason},
	}); err != nil {
		slog.WarnContext(ctx, "failed to broadcast MATCH_INVALID", "match", match.MatchID, "error", err)
	}
	if err := s.matchState.DeleteMatch(ctx, match.MatchID); err != nil {
		slog.WarnContext(ctx, "failed to clean up match keys", "match", match.MatchID, "error", err)
	}
	if err := s.active.Remove(ctx, match.MatchID); err != nil {
		slog.WarnContext(ctx, "failed to remove active match", "match", match.MatchID, "error", err)
	}
}

func unionPlayerIDs(matches []entities.ActiveMatch) []common.PlayerID {
	seen := map[common.PlayerID]struct{}{}
	ids := make([]common.PlayerID, 0)
	for _, m := range matches {
		for _, p := range m.Roster {
			if _, ok := seen[p.PlayerID]; !ok {
				seen[p.PlayerID] = struct{}{}
				ids = append(ids, p.PlayerID)
			}
		}
	}
	return ids
}

func playerIDsOf(roster []entities.PlayerAssignment) []common.PlayerID {
	ids := make([]common.PlayerID, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

type matchEndedPayload struct {
	MatchID      string      `json:"matchId"`
	Winner       common.Team `json:"winner"`
	Abandonments int         `json:"abandonments"`
	DurationMs   int64       `json:"durationMs"`
}

type matchInvalidPayload struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}
