// Package security enforces the gate in front of every mail operation:
// per-operation rate limits, bulk and recipient caps, attachment
// policy, and an interactive confirmation step for destructive calls.
package security

import (
	"sync"
	"time"
)

// RateLimiter tracks a sliding window of admission timestamps per
// operation name. Operations never share budget.
type RateLimiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter returns an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check prunes timestamps older than the window, then admits the call
// and records it if fewer than max remain. A denied call records
// nothing.
func (r *RateLimiter) Check(operation string, window time.Duration, max int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-window)

	kept := r.history[operation][:0]
	for _, ts := range r.history[operation] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.history[operation] = kept

	if len(kept) >= max {
		return false
	}
	r.history[operation] = append(kept, now)
	return true
}

// Reset clears one operation's history.
func (r *RateLimiter) Reset(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.history, operation)
}

// ResetAll clears every operation's history.
func (r *RateLimiter) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = make(map[string][]time.Time)
}
