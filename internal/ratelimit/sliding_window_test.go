package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowSlidingWindow(t *testing.T) {
	l := NewLimiter()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	r := l.Allow("search:u1", 2, time.Minute, start)
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)
	assert.Equal(t, start.Add(time.Minute), r.ResetAt)

	r = l.Allow("search:u1", 2, time.Minute, start.Add(10*time.Second))
	assert.True(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)

	r = l.Allow("search:u1", 2, time.Minute, start.Add(20*time.Second))
	assert.False(t, r.Allowed)
	assert.Equal(t, 2, r.Limit)
	assert.Equal(t, start.Add(time.Minute), r.ResetAt)

	r = l.Allow("search:u2", 2, time.Minute, start.Add(20*time.Second))
	assert.True(t, r.Allowed, "keys are independent")

	r = l.Allow("search:u1", 2, time.Minute, start.Add(61*time.Second))
	assert.True(t, r.Allowed, "the first hit left the window")
	assert.Equal(t, 0, r.Remaining)
}

func TestAllowWithoutLimit(t *testing.T) {
	l := NewLimiter()
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("k", 0, time.Minute, time.Now()).Allowed)
	}
	assert.Equal(t, 0, l.Len())
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l := NewLimiter()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < sweepEvery-1; i++ {
		l.Allow(fmt.Sprintf("k%d", i), 10, time.Minute, start)
	}
	assert.Equal(t, sweepEvery-1, l.Len())

	l.Allow("fresh", 10, time.Minute, start.Add(2*time.Minute))
	assert.Equal(t, 1, l.Len())
}
