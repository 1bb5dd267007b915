// Package repository provides PostgreSQL persistence for collected features
// and failed batches, so a long run survives process restarts and the failed
// subset can be re-driven later.
package repository

import (
	"context"

	"github.com/nmorel/bvharvest/internal/executor"
	"github.com/nmorel/bvharvest/internal/feature"
)

// FeatureRepository is the persistence sink the track runner writes through
// incrementally during a run.
type FeatureRepository interface {
	SaveRecord(ctx context.Context, runID string, r *feature.Record) error
	SaveFailedBatch(ctx context.Context, runID, track string, fb *executor.FailedBatch) error
	Close() error
}
