package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(stats *Stats) *Controller {
	c := NewController(stats)
	c.jitter = func(time.Duration) time.Duration { return 0 }
	return c
}

func failN(stats *Stats, n int) {
	for i := 0; i < n; i++ {
		stats.RecordFailure(false)
	}
}

func TestStats_ConsecutiveFailuresResetOnlyOnSuccess(t *testing.T) {
	stats := NewStats()

	failN(stats, 3)
	assert.Equal(t, 3, stats.ConsecutiveFailures())

	stats.RecordFailure(true)
	assert.Equal(t, 4, stats.ConsecutiveFailures())

	stats.RecordSuccess()
	assert.Equal(t, 0, stats.ConsecutiveFailures())

	stats.RecordFailure(false)
	assert.Equal(t, 1, stats.ConsecutiveFailures())
}

func TestStats_Snapshot(t *testing.T) {
	stats := NewStats()

	stats.RecordSuccess()
	stats.RecordFailure(true)
	stats.RecordFailure(false)
	stats.RecordSuccess()

	snap := stats.Snapshot()
	assert.Equal(t, 4, snap.TotalAttempts)
	assert.Equal(t, 2, snap.TotalSuccesses)
	assert.Equal(t, 1, snap.RateLimitEvents)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
}

func TestStats_ConcurrentUpdates(t *testing.T) {
	stats := NewStats()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.RecordFailure(true)
			}
		}()
	}
	wg.Wait()

	snap := stats.Snapshot()
	assert.Equal(t, 1000, snap.TotalAttempts)
	assert.Equal(t, 1000, snap.RateLimitEvents)
	assert.Equal(t, 1000, snap.ConsecutiveFailures)
}

func TestNextDelay_BaseTiers(t *testing.T) {
	tests := []struct {
		failures int
		base     time.Duration
	}{
		{failures: 0, base: 300 * time.Millisecond},
		{failures: 5, base: 300 * time.Millisecond},
		{failures: 6, base: 400 * time.Millisecond},
		{failures: 10, base: 400 * time.Millisecond},
		{failures: 11, base: 600 * time.Millisecond},
		{failures: 40, base: 600 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_failures", tt.failures), func(t *testing.T) {
			stats := NewStats()
			failN(stats, tt.failures)

			var penalty time.Duration
			if tt.failures <= 5 {
				penalty = min(time.Duration(tt.failures)*300*time.Millisecond, 2*time.Second)
			} else {
				penalty = min(time.Duration(tt.failures)*800*time.Millisecond, 10*time.Second)
			}

			delay := newTestController(stats).NextDelay()
			assert.Equal(t, tt.base+penalty, delay)
		})
	}
}

func TestNextDelay_PenaltyCappedAtTenSeconds(t *testing.T) {
	stats := NewStats()
	failN(stats, 500)

	delay := newTestController(stats).NextDelay()
	assert.Equal(t, 600*time.Millisecond+10*time.Second, delay)
}

func TestNextDelay_MonotonicInFailureCount(t *testing.T) {
	prev := time.Duration(0)
	for failures := 0; failures <= 30; failures++ {
		stats := NewStats()
		failN(stats, failures)

		delay := newTestController(stats).NextDelay()
		assert.GreaterOrEqual(t, delay, prev, "delay decreased at %d failures", failures)
		prev = delay
	}
}

func TestNextDelay_JitterBounded(t *testing.T) {
	stats := NewStats()
	c := NewController(stats)

	for i := 0; i < 50; i++ {
		delay := c.NextDelay()
		require.GreaterOrEqual(t, delay, 300*time.Millisecond)
		require.Less(t, delay, 600*time.Millisecond)
	}
}
