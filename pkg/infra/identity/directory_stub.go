// Package identity adapts the Queue Engine's PlayerDirectory port onto the
// boundary spec §1 explicitly keeps outside this core: authentication,
// ban status and social-account dedup are somebody else's system of
// record. Grounded on the teacher's NotificationStubHandler
// (cmd/rest-api/routing/notification_stub.go), which answers the same
// "the real backing service isn't part of this build" shape with a
// permissive stub rather than an error.
package identity

import (
	"context"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// DirectoryStub always reports a player as existing, never banned and
// never in social-id conflict. It exists so the Queue Engine's Admit path
// is exercisable without standing up the real identity service; swap it
// for a client of that service once one exists.
type DirectoryStub struct{}

func NewDirectoryStub() *DirectoryStub {
	return &DirectoryStub{}
}

func (DirectoryStub) Exists(_ context.Context, _ common.PlayerID) (bool, error) {
	return true, nil
}

func (DirectoryStub) BannedUntil(_ context.Context, _ common.PlayerID) (int64, bool, error) {
	return 0, false, nil
}

func (DirectoryStub) SocialIDConflict(_ context.Context, _ common.PlayerID, _ string) (common.PlayerID, bool, error) {
	return 0, false, nil
}
