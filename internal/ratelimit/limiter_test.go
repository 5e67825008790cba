package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Unix(1000, 0)

	assert.True(t, l.Allow("s1", now))
	assert.True(t, l.Allow("s1", now))
	assert.False(t, l.Allow("s1", now), "burst exhausted")
	assert.True(t, l.Allow("s2", now), "keys are independent")

	assert.True(t, l.Allow("s1", now.Add(time.Second)), "one token refilled")
}

func TestLimiter_NilAllowsEverything(t *testing.T) {
	l := New(0, 0, 0)
	require.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("s1", time.Now()))
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_EmptyKeyUnlimited(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Unix(1000, 0)
	assert.True(t, l.Allow("  ", now))
	assert.True(t, l.Allow("", now))
	assert.Zero(t, l.Len())
}

func TestLimiter_EvictsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Minute)
	start := time.Unix(1000, 0)

	l.Allow("idle", start)
	later := start.Add(2 * time.Minute)
	for i := 0; i < sweepEvery; i++ {
		l.Allow(fmt.Sprintf("busy-%d", i%4), later)
	}

	l.mu.Lock()
	_, ok := l.byKey["idle"]
	l.mu.Unlock()
	assert.False(t, ok)
	assert.Equal(t, 4, l.Len())
}
