// Package ratelimit tracks API failure statistics for a run and derives the
// adaptive delay inserted between batches. The delay grows with consecutive
// failures so a struggling remote gets progressively more breathing room.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Stats holds the failure counters for one track run. All methods are safe for
// concurrent use; tracks normally get one instance each so backoff decisions
// stay track-local.
type Stats struct {
	mu                  sync.Mutex
	consecutiveFailures int
	totalAttempts       int
	totalSuccesses      int
	rateLimitEvents     int
}

// Snapshot is a point-in-time copy of the counters for reporting.
type Snapshot struct {
	ConsecutiveFailures int `json:"consecutive_failures"`
	TotalAttempts       int `json:"total_attempts"`
	TotalSuccesses      int `json:"total_successes"`
	RateLimitEvents     int `json:"rate_limit_events"`
}

func NewStats() *Stats {
	return &Stats{}
}

// RecordSuccess counts a successful attempt and resets the consecutive
// failure streak. This is the only place the streak resets.
func (s *Stats) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts++
	s.totalSuccesses++
	s.consecutiveFailures = 0
}

// RecordFailure counts a failed attempt and extends the streak.
func (s *Stats) RecordFailure(rateLimited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts++
	s.consecutiveFailures++
	if rateLimited {
		s.rateLimitEvents++
	}
}

func (s *Stats) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ConsecutiveFailures: s.consecutiveFailures,
		TotalAttempts:       s.totalAttempts,
		TotalSuccesses:      s.totalSuccesses,
		RateLimitEvents:     s.rateLimitEvents,
	}
}

const (
	baseDelayCalm     = 300 * time.Millisecond
	baseDelayStrained = 400 * time.Millisecond
	baseDelaySlow     = 600 * time.Millisecond

	gentlePenaltyStep     = 300 * time.Millisecond
	gentlePenaltyCap      = 2 * time.Second
	aggressivePenaltyStep = 800 * time.Millisecond
	penaltyCap            = 10 * time.Second

	maxJitter = 300 * time.Millisecond
)

// Controller computes the inter-batch delay from the current failure streak.
// It reads Stats but never mutates it.
type Controller struct {
	stats  *Stats
	jitter func(max time.Duration) time.Duration
}

func NewController(stats *Stats) *Controller {
	return &Controller{
		stats: stats,
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

// NextDelay returns base + failure penalty + jitter. The base steps up at 6
// and 11 consecutive failures; the penalty ramps gently up to 5 failures and
// aggressively after, capped at 10s.
func (c *Controller) NextDelay() time.Duration {
	failures := c.stats.ConsecutiveFailures()

	base := baseDelayCalm
	switch {
	case failures > 10:
		base = baseDelaySlow
	case failures > 5:
		base = baseDelayStrained
	}

	var penalty time.Duration
	if failures <= 5 {
		penalty = min(time.Duration(failures)*gentlePenaltyStep, gentlePenaltyCap)
	} else {
		penalty = min(time.Duration(failures)*aggressivePenaltyStep, penaltyCap)
	}

	return base + penalty + c.jitter(maxJitter)
}
