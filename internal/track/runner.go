package track

import (
	"context"
	"log"
	"time"

	"github.com/nmorel/bvharvest/internal/executor"
	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/metrics"
	"github.com/nmorel/bvharvest/internal/query"
	"github.com/nmorel/bvharvest/internal/ratelimit"
	"github.com/nmorel/bvharvest/internal/repository"
	"github.com/nmorel/bvharvest/internal/retry"
)

// ResultCache is the per-unit cache consulted before querying and written
// through after every successful batch. Implemented by cache.Cache.
type ResultCache interface {
	Get(ctx context.Context, track string, u query.Unit) ([]feature.Record, bool, error)
	Put(ctx context.Context, track string, u query.Unit, records []feature.Record) error
}

// RequesterFactory builds the batch requester for one track. The runner
// creates one requester per track run so each carries its track label.
type RequesterFactory func(track string) retry.Requester

// Result is everything one track run produced.
type Result struct {
	Track     string
	Records   []feature.Record
	Failed    []executor.FailedBatch
	Stats     ratelimit.Snapshot
	CacheHits int
	Units     int
	Elapsed   time.Duration
}

type Runner struct {
	newRequester RequesterFactory
	runID        string
	batchSize    int
	maxAttempts  int
	rateLimitCap time.Duration
	standardCap  time.Duration
	cache        ResultCache
	repo         repository.FeatureRepository
	sleeper      retry.Sleeper
}

type RunnerOption func(*Runner)

func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithBackoffCaps(rateLimit, standard time.Duration) RunnerOption {
	return func(r *Runner) {
		r.rateLimitCap = rateLimit
		r.standardCap = standard
	}
}

func WithCache(c ResultCache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

func WithRepository(repo repository.FeatureRepository) RunnerOption {
	return func(r *Runner) {
		r.repo = repo
	}
}

// WithSleeper replaces the real sleeper in the retry engine and executor.
func WithSleeper(s retry.Sleeper) RunnerOption {
	return func(r *Runner) {
		r.sleeper = s
	}
}

func NewRunner(runID string, newRequester RequesterFactory, opts ...RunnerOption) *Runner {
	r := &Runner{
		newRequester: newRequester,
		runID:        runID,
		batchSize:    query.DefaultBatchSize,
		maxAttempts:  retry.DefaultMaxAttempts,
		rateLimitCap: retry.DefaultMaxRateLimitBackoff,
		standardCap:  retry.DefaultMaxStandardBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one track across the genome list. Each run gets fresh failure
// statistics; batches are issued sequentially in cross-product order. Cached
// units are emitted up front and excluded from querying. The returned error
// is non-nil only when the run context was cancelled.
func (r *Runner) Run(ctx context.Context, t Track, genomeIDs []string) (*Result, error) {
	start := time.Now()
	metrics.TrackStarted()
	defer metrics.TrackFinished()

	units := query.CrossProduct(t.Terms(), genomeIDs)
	result := &Result{Track: t.Name, Units: len(units)}

	pending := units
	if r.cache != nil {
		pending = r.filterCached(ctx, t.Name, units, result)
	}

	log.Printf("Track %s: starting with %d units (%d cached)",
		t.Name, len(units), result.CacheHits)

	stats := ratelimit.NewStats()
	requester := r.newRequester(t.Name)
	if r.cache != nil {
		requester = &cachingRequester{inner: requester, cache: r.cache, track: t.Name}
	}

	engineOpts := []retry.Option{
		retry.WithMaxAttempts(r.maxAttempts),
		retry.WithBackoffCaps(r.rateLimitCap, r.standardCap),
	}
	execOpts := []executor.Option{executor.WithBatchSize(r.batchSize)}
	if r.sleeper != nil {
		engineOpts = append(engineOpts, retry.WithSleeper(r.sleeper))
		execOpts = append(execOpts, executor.WithSleeper(r.sleeper))
	}

	engine := retry.NewEngine(t.Name, requester, stats, engineOpts...)
	exec := executor.New(t.Name, engine, ratelimit.NewController(stats), execOpts...)

	failed, err := exec.Run(ctx, pending, func(rec feature.Record) {
		r.emit(ctx, result, rec)
	})
	result.Failed = failed
	result.Stats = stats.Snapshot()
	result.Elapsed = time.Since(start)

	if r.repo != nil {
		for i := range failed {
			if saveErr := r.repo.SaveFailedBatch(ctx, r.runID, t.Name, &failed[i]); saveErr != nil {
				log.Printf("Track %s: failed to persist failed batch %s: %v", t.Name, failed[i].BatchID, saveErr)
			}
		}
	}

	log.Printf("Track %s: finished in %s — %d features, %d lost batches, %d attempts (%d rate-limited)",
		t.Name, result.Elapsed.Round(time.Second), len(result.Records), len(result.Failed),
		result.Stats.TotalAttempts, result.Stats.RateLimitEvents)

	return result, err
}

// filterCached emits records for cached units and returns the units still to
// be queried. Cache read errors degrade to a miss.
func (r *Runner) filterCached(ctx context.Context, trackName string, units []query.Unit, result *Result) []query.Unit {
	pending := make([]query.Unit, 0, len(units))
	for _, u := range units {
		records, ok, err := r.cache.Get(ctx, trackName, u)
		if err != nil {
			log.Printf("Track %s: cache read for %s/%q failed: %v", trackName, u.GenomeID, u.Term, err)
		}
		if !ok || err != nil {
			pending = append(pending, u)
			continue
		}
		result.CacheHits++
		for _, rec := range records {
			r.emit(ctx, result, rec)
		}
	}
	return pending
}

func (r *Runner) emit(ctx context.Context, result *Result, rec feature.Record) {
	result.Records = append(result.Records, rec)
	if r.repo != nil {
		if err := r.repo.SaveRecord(ctx, r.runID, &rec); err != nil {
			log.Printf("Track %s: failed to persist feature %s/%s: %v", result.Track, rec.GenomeID, rec.Role, err)
		}
	}
}

// cachingRequester writes every unit of a successful batch through to the
// cache, including units that matched nothing. Cache write failures never
// fail the batch.
type cachingRequester struct {
	inner retry.Requester
	cache ResultCache
	track string
}

func (c *cachingRequester) FetchBatch(ctx context.Context, b query.Batch) ([]feature.Record, error) {
	records, err := c.inner.FetchBatch(ctx, b)
	if err != nil {
		return nil, err
	}

	byUnit := make(map[query.Unit][]feature.Record, len(b.Units))
	for _, rec := range records {
		key := query.Unit{GenomeID: rec.GenomeID, Term: rec.Role, Kind: query.TermKind(rec.SearchKind)}
		byUnit[key] = append(byUnit[key], rec)
	}

	for _, u := range b.Units {
		if putErr := c.cache.Put(ctx, c.track, u, byUnit[u]); putErr != nil {
			log.Printf("Track %s: cache write for %s/%q failed: %v", c.track, u.GenomeID, u.Term, putErr)
		}
	}
	return records, nil
}
