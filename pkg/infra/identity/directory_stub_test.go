package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryStub_AlwaysPermissive(t *testing.T) {
	d := NewDirectoryStub()
	ctx := context.Background()

	exists, err := d.Exists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	_, banned, err := d.BannedUntil(ctx, 1)
	require.NoError(t, err)
	assert.False(t, banned)

	_, conflict, err := d.SocialIDConflict(ctx, 1, "steam:1")
	require.NoError(t, err)
	assert.False(t, conflict)
}
