package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBuckets(t *testing.T) {
	limiter := newRateLimiter(1, 2)
	now := time.Now()

	assert.True(t, limiter.allow("join|1.2.3.4", now))
	assert.True(t, limiter.allow("join|1.2.3.4", now))
	assert.False(t, limiter.allow("join|1.2.3.4", now))
	assert.True(t, limiter.allow("join|5.6.7.8", now))
	assert.True(t, limiter.allow("join|1.2.3.4", now.Add(time.Second)))
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.allow("login|1.2.3.4", time.Now()))
	}
	assert.Empty(t, limiter.visitors)
}

func TestRateLimiterPrune(t *testing.T) {
	limiter := newRateLimiter(1, 1)
	now := time.Now()
	limiter.allow("old", now.Add(-time.Hour))
	limiter.allow("fresh", now)

	limiter.prune(now, 10*time.Minute)
	assert.NotContains(t, limiter.visitors, "old")
	assert.Contains(t, limiter.visitors, "fresh")
}
