// Package executor drives a track's query units through the retry engine in
// fixed-size batches, streaming feature records to the caller as each batch
// completes. A batch that exhausts its retries is logged and skipped; it never
// aborts the run.
package executor

import (
	"context"
	"log"
	"time"

	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/metrics"
	"github.com/nmorel/bvharvest/internal/query"
	"github.com/nmorel/bvharvest/internal/retry"
)

// Runner executes one batch to completion. Satisfied by *retry.Engine.
type Runner interface {
	Execute(ctx context.Context, b query.Batch) retry.Outcome
}

// Delayer computes the inter-batch delay. Satisfied by *ratelimit.Controller.
type Delayer interface {
	NextDelay() time.Duration
}

// FailedBatch identifies a batch lost after exhausting retries, with enough
// detail to re-run just its units.
type FailedBatch struct {
	BatchID  string       `json:"batch_id"`
	Seq      int          `json:"seq"`
	Units    []query.Unit `json:"units"`
	Attempts int          `json:"attempts"`
	Kind     retry.Kind   `json:"kind"`
	LastErr  string       `json:"last_error"`
}

type Executor struct {
	track     string
	runner    Runner
	delayer   Delayer
	sleeper   retry.Sleeper
	batchSize int
}

type Option func(*Executor)

func WithBatchSize(n int) Option {
	return func(x *Executor) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

func WithSleeper(s retry.Sleeper) Option {
	return func(x *Executor) {
		x.sleeper = s
	}
}

func New(track string, runner Runner, delayer Delayer, opts ...Option) *Executor {
	x := &Executor{
		track:     track,
		runner:    runner,
		delayer:   delayer,
		sleeper:   defaultSleeper{},
		batchSize: query.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

type defaultSleeper struct{}

func (defaultSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run partitions units, executes each batch in order, and calls emit for every
// collected record as soon as its batch succeeds. It returns the batches that
// failed permanently. The only error it returns is a context cancellation,
// checked before each batch.
func (x *Executor) Run(ctx context.Context, units []query.Unit, emit func(feature.Record)) ([]FailedBatch, error) {
	batches := query.Partition(units, x.batchSize)
	var failed []FailedBatch

	log.Printf("Track %s: %d query units in %d batches of up to %d",
		x.track, len(units), len(batches), x.batchSize)

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		if err := x.sleeper.Sleep(ctx, x.delayer.NextDelay()); err != nil {
			return failed, err
		}

		metrics.RecordBatch(x.track)
		out := x.runner.Execute(ctx, b)

		if out.Success() {
			for _, r := range out.Records {
				emit(r)
			}
			metrics.RecordFeatures(x.track, len(out.Records))
			continue
		}

		if err := ctx.Err(); err != nil {
			return failed, err
		}

		metrics.RecordBatchFailed(x.track)
		failed = append(failed, FailedBatch{
			BatchID:  b.ID,
			Seq:      b.Seq,
			Units:    b.Units,
			Attempts: out.Attempts,
			Kind:     out.Kind,
			LastErr:  out.Err.Error(),
		})
		log.Printf("Track %s: batch %s (#%d) lost after %d attempts: %v",
			x.track, b.ID, b.Seq, out.Attempts, out.Err)
	}

	return failed, nil
}
