package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

func TestVerifier_RoundTrip(t *testing.T) {
	token := Sign("shh", common.PlayerID(42), time.Now().Add(time.Hour))

	v := NewVerifier("shh")
	player, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, common.PlayerID(42), player)
}

func TestVerifier_RejectsBadSignature(t *testing.T) {
	token := Sign("shh", common.PlayerID(42), time.Now().Add(time.Hour))

	v := NewVerifier("different-secret")
	_, err := v.Verify(token)
	assert.True(t, common.IsValidationError(err))
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	token := Sign("shh", common.PlayerID(42), time.Now().Add(-time.Hour))

	v := NewVerifier("shh")
	_, err := v.Verify(token)
	assert.True(t, common.IsValidationError(err))
}
