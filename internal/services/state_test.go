package services

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateService_Issue(t *testing.T) {
	svc := NewStateService(5 * time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := svc.Issue()
		require.NoError(t, err)
		require.Len(t, state, 32)

		raw, err := hex.DecodeString(state)
		require.NoError(t, err)
		assert.Len(t, raw, 16)

		assert.False(t, seen[state], "state repeated")
		seen[state] = true
	}
}

func TestStateService_Validate(t *testing.T) {
	svc := NewStateService(0)

	assert.NoError(t, svc.Validate("abc123", "abc123"))
	assert.ErrorIs(t, svc.Validate("abc123", "abc124"), ErrStateMismatch)
	assert.ErrorIs(t, svc.Validate("", "abc123"), ErrStateMismatch)
	assert.ErrorIs(t, svc.Validate("abc123", ""), ErrStateMismatch)
	assert.ErrorIs(t, svc.Validate("", ""), ErrStateMismatch)
}

func TestStateService_CookieMaxAge(t *testing.T) {
	assert.Equal(t, 300, NewStateService(0).CookieMaxAge())
	assert.Equal(t, 600, NewStateService(10*time.Minute).CookieMaxAge())
}
