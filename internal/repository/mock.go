package repository

import (
	"context"
	"sync"

	"github.com/nmorel/bvharvest/internal/executor"
	"github.com/nmorel/bvharvest/internal/feature"
)

// MockFeatureRepository records calls in memory for tests.
type MockFeatureRepository struct {
	mu                   sync.Mutex
	Records              []feature.Record
	FailedBatches        []executor.FailedBatch
	SaveRecordError      error
	SaveFailedBatchError error
	Closed               bool
}

func NewMockFeatureRepository() *MockFeatureRepository {
	return &MockFeatureRepository{}
}

func (m *MockFeatureRepository) SaveRecord(ctx context.Context, runID string, r *feature.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveRecordError != nil {
		return m.SaveRecordError
	}
	m.Records = append(m.Records, *r)
	return nil
}

func (m *MockFeatureRepository) SaveFailedBatch(ctx context.Context, runID, track string, fb *executor.FailedBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveFailedBatchError != nil {
		return m.SaveFailedBatchError
	}
	m.FailedBatches = append(m.FailedBatches, *fb)
	return nil
}

func (m *MockFeatureRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockFeatureRepository) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}
