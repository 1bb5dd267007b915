package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nmorel/bvharvest/internal/executor"
	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/query"
	"github.com/nmorel/bvharvest/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresFeatureRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := &PostgresFeatureRepository{db: db}
	return db, mock, repo
}

func sampleRecord() *feature.Record {
	return &feature.Record{
		GenomeID:   "83333.111",
		GenomeName: "Escherichia coli K-12",
		Role:       "csgA",
		SearchKind: "gene",
		Track:      "amyloids",
		PatricID:   "fig|83333.111.peg.1",
		Gene:       "csgA",
		Product:    "Major curlin subunit",
		Start:      1103174,
		End:        1103629,
		Strand:     "+",
		TaxonID:    83333,
	}
}

func TestNewPostgresFeatureRepository_ConnectionFailure(t *testing.T) {
	_, err := NewPostgresFeatureRepository("invalid connection string")
	assert.Error(t, err)
}

func TestSaveRecord(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	t.Run("successful insert", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feature_records").
			WithArgs(
				"run-1", "amyloids", "83333.111", "Escherichia coli K-12", "csgA", "gene",
				"fig|83333.111.peg.1", "", "csgA", "Major curlin subunit", "",
				1103174, 1103629, "+", "", 83333,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveRecord(context.Background(), "run-1", sampleRecord())

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO feature_records").
			WillReturnError(errors.New("connection lost"))

		err := repo.SaveRecord(context.Background(), "run-1", sampleRecord())

		assert.Error(t, err)
	})
}

func TestSaveFailedBatch(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	fb := &executor.FailedBatch{
		BatchID:  "batch-uuid",
		Seq:      3,
		Units:    []query.Unit{{GenomeID: "83333.111", Term: "csgA", Kind: query.KindGene}},
		Attempts: 8,
		Kind:     retry.KindTransient,
		LastErr:  "batch failed after 8 attempts: server unavailable",
	}

	mock.ExpectExec("INSERT INTO failed_batches").
		WithArgs("run-1", "amyloids", "batch-uuid", 3, sqlmock.AnyArg(), 8, "transient", fb.LastErr).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveFailedBatch(context.Background(), "run-1", "amyloids", fb)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByTrack(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"track", "count"}).
		AddRow("amyloids", 120).
		AddRow("copper", 245)

	mock.ExpectQuery("SELECT track, COUNT").
		WithArgs("run-1").
		WillReturnRows(rows)

	counts, err := repo.CountByTrack(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"amyloids": 120, "copper": 245}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockFeatureRepository(t *testing.T) {
	m := NewMockFeatureRepository()

	require.NoError(t, m.SaveRecord(context.Background(), "run-1", sampleRecord()))
	require.NoError(t, m.SaveFailedBatch(context.Background(), "run-1", "amyloids", &executor.FailedBatch{BatchID: "b1"}))

	assert.Equal(t, 1, m.RecordCount())
	assert.Len(t, m.FailedBatches, 1)

	m.SaveRecordError = errors.New("sink failed")
	assert.Error(t, m.SaveRecord(context.Background(), "run-1", sampleRecord()))
	assert.Equal(t, 1, m.RecordCount())
}
