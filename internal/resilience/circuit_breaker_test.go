package resilience

import (
	"fmt"
	"testing"
	"time"

	"whitecarrot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestDisabledBreakerCallsThrough(t *testing.T) {
	cb := NewCircuitBreaker[string]("store", config.CircuitBreakerConfig{Enabled: false}, nil)
	assert.Nil(t, cb)

	value, err := cb.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, false, cb.GetStats()["enabled"])
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker[[]byte]("store-file", testBreakerConfig(), nil)
	require.NotNil(t, cb)

	failing := func() ([]byte, error) { return nil, fmt.Errorf("disk unavailable") }

	t.Run("trips after minimum requests", func(t *testing.T) {
		_, err := cb.Execute(failing)
		assert.Error(t, err)
		assert.True(t, cb.IsHealthy())

		_, err = cb.Execute(failing)
		assert.Error(t, err)
		assert.False(t, cb.IsHealthy())
	})

	t.Run("rejects while open", func(t *testing.T) {
		called := false
		_, err := cb.Execute(func() ([]byte, error) {
			called = true
			return nil, nil
		})
		assert.True(t, IsOpen(err))
		assert.False(t, called)
	})

	t.Run("stats", func(t *testing.T) {
		stats := cb.GetStats()
		assert.Equal(t, "store-file", stats["name"])
		assert.Equal(t, "open", stats["state"])
		assert.Equal(t, true, stats["enabled"])
	})
}
