package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_MinuteLimit(t *testing.T) {
	rl := newRateLimiter(3, 0)

	for range 3 {
		require.NoError(t, rl.Allow("client-a", 0))
	}

	err := rl.Allow("client-a", 0)
	require.Error(t, err)

	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "minute", le.Scope)
	assert.Equal(t, int64(3), le.Limit)
	assert.Positive(t, le.RetryAfter)

	// Other clients are unaffected.
	assert.NoError(t, rl.Allow("client-b", 0))
}

func TestRateLimiter_DataQuota(t *testing.T) {
	rl := newRateLimiter(0, 1000)

	require.NoError(t, rl.Allow("client-a", 600))
	require.NoError(t, rl.Allow("client-a", 400))

	err := rl.Allow("client-a", 1)
	require.Error(t, err)

	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "data", le.Scope)
	assert.Equal(t, int64(1000), le.Limit)
}

func TestRateLimiter_DisabledLimits(t *testing.T) {
	rl := newRateLimiter(0, 0)

	for range 100 {
		assert.NoError(t, rl.Allow("client-a", 1<<20))
	}
}

func TestRateLimiter_RejectedRequestNotCounted(t *testing.T) {
	rl := newRateLimiter(0, 100)

	require.NoError(t, rl.Allow("client-a", 90))
	require.Error(t, rl.Allow("client-a", 20))
	// The rejected 20 bytes must not count against the quota.
	assert.NoError(t, rl.Allow("client-a", 10))
}

func TestLimitError_Message(t *testing.T) {
	err := rateLimitedError()
	assert.Contains(t, err.Error(), "minute")
	assert.Contains(t, err.Error(), "limit: 5")
}

func rateLimitedError() error {
	rl := newRateLimiter(5, 0)
	for range 5 {
		_ = rl.Allow("x", 0)
	}
	err := rl.Allow("x", 0)
	var le *LimitError
	if errors.As(err, &le) {
		return le
	}
	return err
}
