package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "zero burst blocks everything", rps: 1, burst: 0, calls: 2, wantPass: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("203.0.113.7") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeysAreIndependent(t *testing.T) {
	rl := New(0.001, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())
}

func TestPerWindow(t *testing.T) {
	rl := PerWindow(200, 15*time.Minute)
	defer rl.Stop()

	for i := 0; i < 200; i++ {
		require.True(t, rl.Allow("client"), "request %d", i)
	}
	assert.False(t, rl.Allow("client"))
}

func TestPerWindowNonPositiveMax(t *testing.T) {
	for _, max := range []int{0, -3} {
		rl := PerWindow(max, 0)
		assert.True(t, rl.Allow("client"), "max %d", max)
		assert.False(t, rl.Allow("client"), "max %d", max)
		rl.Stop()
	}
}

func TestEvictIdle(t *testing.T) {
	rl := NewWithTTL(1, 1, time.Minute)
	defer rl.Stop()

	rl.Allow("old")
	rl.evictIdle(time.Now().Add(2 * time.Minute))
	assert.Zero(t, rl.Len())

	rl.Allow("fresh")
	rl.evictIdle(time.Now())
	assert.Equal(t, 1, rl.Len())
}

func TestWaitRespectsContext(t *testing.T) {
	rl := New(0.001, 1)
	defer rl.Stop()

	require.NoError(t, rl.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "k"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
