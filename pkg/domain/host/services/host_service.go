// Package services implements the Host Selector: candidate ranking,
// password/room reservation and the 120s confirmation window, grounded on
// the Ready Check Coordinator's single-dispatcher timer pattern
// (readycheck/services/coordinator.go) generalized to spec §4.5's
// MMR-desc cooldown-aware selection instead of a simple accept count.
package services

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/host/entities"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/host/ports/out"
	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"
	matchout "github.com/leetgaming/ranked-coordinator/pkg/domain/match/ports/out"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
)

type Clock func() int64

func RealClock() int64 { return time.Now().UnixMilli() }

const (
	confirmWindow   = 120 * time.Second
	hostCooldownDur = 5 * time.Minute
	passwordMin     = 1000
	passwordMax     = 9999
)

type Service struct {
	repo       out.Repository
	matchState matchstate.Repository
	records    matchout.HostAssignments
	cooldowns  out.CooldownTracker
	requeue    out.Requeuer
	validation out.ValidationStarter
	broadcast  transport.Broadcaster
	clock      Clock
	rand       *rand.Rand

	mu     sync.Mutex
	timers map[common.MatchID]*time.Timer
}

func NewService(
	repo out.Repository,
	matchState matchstate.Repository,
	records matchout.HostAssignments,
	cooldowns out.CooldownTracker,
	requeue out.Requeuer,
	validation out.ValidationStarter,
	broadcast transport.Broadcaster,
	clock Clock,
) *Service {
	return &Service{
		repo:       repo,
		matchState: matchState,
		records:    records,
		cooldowns:  cooldowns,
		requeue:    requeue,
		validation: validation,
		broadcast:  broadcast,
		clock:      clock,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		timers:     make(map[common.MatchID]*time.Timer),
	}
}

// Start ranks candidates by MMR desc, skipping any currently on host
// cooldown unless all of them are (spec §4.5 step 2), reserves a password
// and room id, arms the 120s timer and notifies every player.
func (s *Service) Start(ctx context.Context, matchID common.MatchID, candidates []entities.Candidate, mapNumber int) error {
	if len(candidates) == 0 {
		return common.NewLogicalError("HOST_NO_CANDIDATES")
	}

	ranked := make([]entities.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MMR > ranked[j].MMR })

	host := ranked[0]
	for _, c := range ranked {
		onCooldown, err := s.cooldowns.IsOnCooldown(ctx, c.PlayerID)
		if err != nil {
			return common.NewTransientError("HOST_COOLDOWN_CHECK_FAILED", err)
		}
		if !onCooldown {
			host = c
			break
		}
	}

	now := s.clock()
	assignment := entities.Assignment{
		MatchID:   matchID,
		HostID:    host.PlayerID,
		RoomID:    s.fourDigits(),
		Password:  s.fourDigits(),
		MapNumber: mapNumber,
		StartedAt: now,
		ExpiresAt: now + confirmWindow.Milliseconds(),
	}

	if err := s.repo.Save(ctx, assignment); err != nil {
		return common.NewTransientError("HOST_SAVE_FAILED", err)
	}
	if err := s.matchState.SetStatus(ctx, matchID, matchstate.StatusAwaitingHost); err != nil {
		return common.NewTransientError("HOST_STATUS_WRITE_FAILED", err)
	}
	if err := s.records.AssignHost(ctx, matchID, host.PlayerID); err != nil {
		return common.NewTransientError("HOST_RECORD_WRITE_FAILED", err)
	}

	for _, c := range ranked {
		msg := transport.Message{Type: transport.TypeHostWaiting, Payload: hostWaitingPayload{MatchID: string(matchID)}}
		if c.PlayerID == host.PlayerID {
			msg = transport.Message{Type: transport.TypeHostSelected, Payload: hostSelectedPayload{
				MatchID:  string(matchID),
				RoomID:   assignment.RoomID,
				Password: assignment.Password,
			}}
		}
		if err := s.broadcast.Send(ctx, c.PlayerID, msg); err != nil {
			slog.WarnContext(ctx, "failed to notify player of host selection", "player", c.PlayerID, "error", err)
		}
	}

	s.armTimer(matchID)
	return nil
}

// ConfirmRoom accepts only from the currently assigned host, cancels the
// timer, atomically transitions the MatchRecord and invokes the Validation
// Engine (spec §4.5 "ConfirmRoom").
func (s *Service) ConfirmRoom(ctx context.Context, matchID common.MatchID, host common.PlayerID, roomID string, mapNumber int) error {
	assignment, ok, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return common.NewTransientError("HOST_READ_FAILED", err)
	}
	if !ok {
		return common.NewLogicalError("HOST_NOT_FOUND")
	}
	if assignment.HostID != host {
		return common.NewValidationError("HOST_NOT_CURRENT_HOST")
	}

	s.stopTimer(matchID)

	if err := s.records.ConfirmRoom(ctx, matchID, roomID, mapNumber); err != nil {
		return common.NewTransientError("HOST_CONFIRM_RECORD_FAILED", err)
	}
	if err := s.repo.Delete(ctx, matchID); err != nil {
		return common.NewTransientError("HOST_DELETE_FAILED", err)
	}
	if err := s.matchState.SetStatus(ctx, matchID, matchstate.StatusInProgress); err != nil {
		return common.NewTransientError("HOST_STATUS_WRITE_FAILED", err)
	}

	return s.validation.StartValidation(ctx, matchID, roomID, mapNumber)
}

// ReportFailure is the host's own client reporting it could not open the
// room, treated identically to a timeout (spec §4.5 "client-reported
// failure").
func (s *Service) ReportFailure(ctx context.Context, matchID common.MatchID, host common.PlayerID) error {
	return s.cancel(ctx, matchID, host)
}

func (s *Service) onTimeout(ctx context.Context, matchID common.MatchID) {
	assignment, ok, err := s.repo.Get(ctx, matchID)
	if err != nil || !ok {
		return
	}
	if err := s.cancel(ctx, matchID, assignment.HostID); err != nil {
		slog.ErrorContext(ctx, "host timeout cancellation failed", "match", matchID, "error", err)
	}
}

func (s *Service) cancel(ctx context.Context, matchID common.MatchID, offender common.PlayerID) error {
	s.stopTimer(matchID)

	endsAt := s.clock() + hostCooldownDur.Milliseconds()
	if err := s.cooldowns.SetCooldown(ctx, offender, endsAt); err != nil {
		slog.WarnContext(ctx, "failed to set host cooldown", "player", offender, "error", err)
	}
	if err := s.records.Cancel(ctx, matchID, "HOST_TIMEOUT"); err != nil {
		slog.WarnContext(ctx, "failed to cancel match record", "match", matchID, "error", err)
	}

	snapshot, err := s.matchState.QueueSnapshot(ctx, matchID)
	if err != nil {
		slog.WarnContext(ctx, "failed to read queue snapshot for requeue", "match", matchID, "error", err)
	}
	classes, _ := s.matchState.Classes(ctx, matchID)
	classByPlayer := make(map[common.PlayerID]matchstate.ClassAssignment, len(classes))
	for _, c := range classes {
		classByPlayer[c.PlayerID] = c
	}

	for _, entry := range snapshot {
		if entry.PlayerID == offender {
			continue
		}
		hint := out.RequeueHint{
			PlayerID:  entry.PlayerID,
			QueuedAt:  entry.QueuedAt,
			Primary:   entry.Primary,
			Secondary: entry.Secondary,
		}
		if err := s.requeue.WriteRequeueHint(ctx, hint); err != nil {
			slog.WarnContext(ctx, "failed to requeue survivor", "player", entry.PlayerID, "error", err)
			continue
		}
		if err := s.broadcast.Send(ctx, entry.PlayerID, transport.Message{Type: transport.TypeRequeue}); err != nil {
			slog.WarnContext(ctx, "failed to notify requeued survivor", "player", entry.PlayerID, "error", err)
		}
	}

	if err := s.broadcast.SendAll(ctx, playerIDs(classes), transport.Message{Type: transport.TypeHostFailed}); err != nil {
		slog.WarnContext(ctx, "failed to broadcast HOST_FAILED", "match", matchID, "error", err)
	}

	if err := s.repo.Delete(ctx, matchID); err != nil {
		slog.WarnContext(ctx, "failed to delete host key", "match", matchID, "error", err)
	}
	return s.matchState.DeleteMatch(ctx, matchID)
}

func playerIDs(classes []matchstate.ClassAssignment) []common.PlayerID {
	ids := make([]common.PlayerID, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.PlayerID)
	}
	return ids
}

func (s *Service) armTimer(matchID common.MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[matchID]; ok {
		existing.Stop()
	}
	s.timers[matchID] = time.AfterFunc(confirmWindow, func() {
		s.onTimeout(context.Background(), matchID)
	})
}

func (s *Service) stopTimer(matchID common.MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[matchID]; ok {
		t.Stop()
		delete(s.timers, matchID)
	}
}

func (s *Service) fourDigits() string {
	n := passwordMin + s.rand.Intn(passwordMax-passwordMin+1)
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

type hostSelectedPayload struct {
	MatchID  string `json:"matchId"`
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
}

type hostWaitingPayload struct {
	MatchID string `json:"matchId"`
}
