// Package retry wraps a single batch request with bounded, classified retries.
// Rate-limit failures back off hard (up to 60s), other transient failures back
// off gently (up to 30s), and fatal failures abort the batch immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/metrics"
	"github.com/nmorel/bvharvest/internal/query"
	"github.com/nmorel/bvharvest/internal/ratelimit"
)

type Kind string

const (
	KindSuccess     Kind = "success"
	KindRateLimited Kind = "rate_limited"
	KindTransient   Kind = "transient"
	KindFatal       Kind = "fatal"
)

// Outcome is the result of executing one batch through the engine. A
// non-success outcome after Attempts == max attempts is a permanent failure
// for that batch.
type Outcome struct {
	Kind     Kind
	Records  []feature.Record
	Err      error
	Attempts int
}

func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// Requester issues one batch request. Implementations return records in the
// order the remote service responded with them.
type Requester interface {
	FetchBatch(ctx context.Context, b query.Batch) ([]feature.Record, error)
}

// Sleeper suspends between attempts. Injected so backoff is testable without
// real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	DefaultMaxAttempts         = 8
	DefaultMaxRateLimitBackoff = 60 * time.Second
	DefaultMaxStandardBackoff  = 30 * time.Second

	rateLimitBackoffBase = 2 * time.Second
	standardBackoffBase  = time.Second
	rateLimitJitterMax   = 5 * time.Second
	standardJitterMax    = 2 * time.Second
)

type Engine struct {
	requester           Requester
	stats               *ratelimit.Stats
	track               string
	maxAttempts         int
	maxRateLimitBackoff time.Duration
	maxStandardBackoff  time.Duration
	sleeper             Sleeper
	jitter              func(max time.Duration) time.Duration
}

type Option func(*Engine)

func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

func WithBackoffCaps(rateLimit, standard time.Duration) Option {
	return func(e *Engine) {
		if rateLimit > 0 {
			e.maxRateLimitBackoff = rateLimit
		}
		if standard > 0 {
			e.maxStandardBackoff = standard
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		e.sleeper = s
	}
}

func WithJitter(f func(max time.Duration) time.Duration) Option {
	return func(e *Engine) {
		e.jitter = f
	}
}

func NewEngine(track string, requester Requester, stats *ratelimit.Stats, opts ...Option) *Engine {
	e := &Engine{
		requester:           requester,
		stats:               stats,
		track:               track,
		maxAttempts:         DefaultMaxAttempts,
		maxRateLimitBackoff: DefaultMaxRateLimitBackoff,
		maxStandardBackoff:  DefaultMaxStandardBackoff,
		sleeper:             realSleeper{},
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the batch request with up to maxAttempts attempts. Every
// attempt updates the failure statistics; only a fatal classification or a
// cancelled context cuts the attempt loop short.
func (e *Engine) Execute(ctx context.Context, b query.Batch) Outcome {
	var last Outcome

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		start := time.Now()
		records, err := e.requester.FetchBatch(ctx, b)
		elapsed := time.Since(start)

		if err == nil {
			e.stats.RecordSuccess()
			metrics.RecordAttemptSuccess(e.track, elapsed)
			return Outcome{Kind: KindSuccess, Records: records, Attempts: attempt}
		}

		kind := Classify(err)
		e.stats.RecordFailure(kind == KindRateLimited)
		metrics.RecordAttemptFailure(e.track, string(kind), elapsed)
		last = Outcome{Kind: kind, Err: err, Attempts: attempt}

		if kind == KindFatal {
			log.Printf("Batch %s (#%d): fatal error, not retrying: %v", b.ID, b.Seq, err)
			return last
		}
		if ctx.Err() != nil {
			return last
		}
		if attempt == e.maxAttempts {
			break
		}

		backoff := e.backoff(kind, attempt)
		log.Printf("Batch %s (#%d): attempt %d/%d failed (%s), retrying in %.1fs: %v",
			b.ID, b.Seq, attempt, e.maxAttempts, kind, backoff.Seconds(), err)
		metrics.RecordBackoff(e.track, backoff)
		if err := e.sleeper.Sleep(ctx, backoff); err != nil {
			return last
		}
	}

	last.Err = fmt.Errorf("batch failed after %d attempts: %w", last.Attempts, last.Err)
	return last
}

// backoff computes the delay before the retry following failed attempt number
// attempt (1-based). Rate-limit backoff doubles from 4s, standard backoff
// doubles from 2s; both are capped before jitter is added.
func (e *Engine) backoff(kind Kind, attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30 // keep the shift in range
	}
	if kind == KindRateLimited {
		d := min(rateLimitBackoffBase<<attempt, e.maxRateLimitBackoff)
		return d + e.jitter(rateLimitJitterMax)
	}
	d := min(standardBackoffBase<<attempt, e.maxStandardBackoff)
	return d + e.jitter(standardJitterMax)
}

// fatal is implemented by errors that must never be retried, such as a
// malformed request rejected by the API.
type fatal interface {
	Fatal() bool
}

// Classify maps a request error to its retry class. Rate-limit detection is
// text-based: the BV-BRC API reports throttling inconsistently, so any error
// mentioning rate, limit, or timeout gets the long backoff.
func Classify(err error) Kind {
	var f fatal
	if errors.As(err, &f) && f.Fatal() {
		return KindFatal
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{"rate", "limit", "timeout"} {
		if strings.Contains(msg, indicator) {
			return KindRateLimited
		}
	}
	return KindTransient
}
