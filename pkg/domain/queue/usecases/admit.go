// Package usecases holds the Queue Engine's command handlers, one file per
// use case, following the teacher's join_matchmaking_queue.go /
// leave_matchmaking_queue.go shape: a command struct in, a typed result or
// error out, repository ports injected at construction.
package usecases

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	in "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/in"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/out"
)

// AdmitResult is returned on a successful QUEUE_JOIN.
type AdmitResult struct {
	QueueSize int
	QueuedAt  int64
}

type AdmitUseCase struct {
	repo      out.Repository
	directory out.PlayerDirectory
	clock     func() int64
}

func NewAdmitUseCase(repo out.Repository, directory out.PlayerDirectory, clock func() int64) *AdmitUseCase {
	return &AdmitUseCase{repo: repo, directory: directory, clock: clock}
}

// Exec admits a player to the queue, or fails with one of the stable
// reason codes from spec §4.1: ALREADY_IN_QUEUE, COOLDOWN_ACTIVE,
// DUPLICATE_SOCIAL_ID, USER_NOT_FOUND, BANNED.
func (u *AdmitUseCase) Exec(ctx context.Context, cmd in.AdmitCommand) (*AdmitResult, error) {
	exists, err := u.directory.Exists(ctx, cmd.Player)
	if err != nil {
		return nil, common.NewTransientError("PLAYER_DIRECTORY_LOOKUP_FAILED", err)
	}
	if !exists {
		return nil, common.NewValidationError("USER_NOT_FOUND")
	}

	if until, banned, err := u.directory.BannedUntil(ctx, cmd.Player); err != nil {
		return nil, common.NewTransientError("PLAYER_DIRECTORY_LOOKUP_FAILED", err)
	} else if banned {
		return nil, &BannedError{Until: until}
	}

	if cmd.SocialID != "" {
		if existing, conflict, err := u.directory.SocialIDConflict(ctx, cmd.Player, cmd.SocialID); err != nil {
			return nil, common.NewTransientError("PLAYER_DIRECTORY_LOOKUP_FAILED", err)
		} else if conflict {
			return nil, &DuplicateSocialIDError{ExistingAccount: existing}
		}
	}

	inQueue, err := u.repo.Exists(ctx, cmd.Player)
	if err != nil {
		return nil, common.NewTransientError("QUEUE_LOOKUP_FAILED", err)
	}
	if inQueue {
		return nil, common.NewValidationError("ALREADY_IN_QUEUE")
	}

	if endsAt, active, err := u.repo.CooldownEndsAt(ctx, cmd.Player); err != nil {
		return nil, common.NewTransientError("COOLDOWN_LOOKUP_FAILED", err)
	} else if active {
		return nil, &CooldownActiveError{EndsAt: endsAt}
	}

	queuedAt := u.clock()
	if queuedAt2, ok, err := u.repo.ConsumeRequeueHint(ctx, cmd.Player); err == nil && ok {
		queuedAt = queuedAt2
	}

	entry := entities.QueueEntry{
		PlayerID: cmd.Player,
		MMR:      cmd.MMR,
		Classes:  cmd.Classes,
		QueuedAt: queuedAt,
		PartyID:  cmd.PartyID,
	}
	if err := u.repo.Admit(ctx, entry); err != nil {
		return nil, common.NewTransientError("QUEUE_ADMIT_FAILED", err)
	}

	snapshot, err := u.repo.Snapshot(ctx)
	size := 1
	if err == nil {
		size = len(snapshot)
	}

	return &AdmitResult{QueueSize: size, QueuedAt: queuedAt}, nil
}

// BannedError, CooldownActiveError and DuplicateSocialIDError carry the
// structured detail spec §4.1 names alongside each reason code
// (`{endsAt}`, `{existingAccount}`, `{until}`), not just a bare string.
type BannedError struct{ Until int64 }

func (e *BannedError) Error() string { return "BANNED" }

type CooldownActiveError struct{ EndsAt int64 }

func (e *CooldownActiveError) Error() string { return "COOLDOWN_ACTIVE" }

type DuplicateSocialIDError struct{ ExistingAccount common.PlayerID }

func (e *DuplicateSocialIDError) Error() string { return "DUPLICATE_SOCIAL_ID" }
