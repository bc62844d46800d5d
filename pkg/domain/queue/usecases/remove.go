package usecases

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	out "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/out"
)

// RemoveUseCase handles QUEUE_LEAVE. Idempotent per spec §4.1: removing a
// player not currently queued is not an error.
type RemoveUseCase struct {
	repo out.Repository
}

func NewRemoveUseCase(repo out.Repository) *RemoveUseCase {
	return &RemoveUseCase{repo: repo}
}

func (u *RemoveUseCase) Exec(ctx context.Context, player common.PlayerID) error {
	if err := u.repo.Remove(ctx, player); err != nil {
		return common.NewTransientError("QUEUE_REMOVE_FAILED", err)
	}
	return nil
}
