package ratelimit

import (
	"sync"
	"time"
)

// sweepEvery is how many Allow calls pass between sweeps of idle buckets.
const sweepEvery = 1024

// Limiter is a sliding-window limiter keyed by caller. It is safe for
// concurrent use.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string][]time.Time
	calls     int
	maxWindow time.Duration
}

func NewLimiter() *Limiter {
	return &Limiter{
		buckets: map[string][]time.Time{},
	}
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allow records a hit for key at now if fewer than limit hits fall inside
// window. A non-positive limit always allows.
func (l *Limiter) Allow(key string, limit int, window time.Duration, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return Result{Allowed: true}
	}
	if window > l.maxWindow {
		l.maxWindow = window
	}
	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	cutoff := now.Add(-window)
	history := l.buckets[key]
	trimmed := history[:0]
	for _, ts := range history {
		if !ts.Before(cutoff) {
			trimmed = append(trimmed, ts)
		}
	}
	history = trimmed

	result := Result{
		Allowed: len(history) < limit,
		Limit:   limit,
	}
	if !result.Allowed {
		result.Remaining = 0
		result.ResetAt = history[0].Add(window)
		l.buckets[key] = history
		return result
	}

	history = append(history, now)
	l.buckets[key] = history
	result.Remaining = limit - len(history)
	result.ResetAt = history[0].Add(window)
	return result
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops keys whose newest hit is older than the widest window seen.
func (l *Limiter) sweep(now time.Time) {
	cutoff := now.Add(-l.maxWindow)
	for key, history := range l.buckets {
		if len(history) == 0 || history[len(history)-1].Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
