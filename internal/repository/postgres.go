package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/nmorel/bvharvest/internal/executor"
	"github.com/nmorel/bvharvest/internal/feature"
)

type PostgresFeatureRepository struct {
	db *sql.DB
}

func NewPostgresFeatureRepository(connectionString string) (*PostgresFeatureRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresFeatureRepository{db: db}, nil
}

// SaveRecord upserts one collected feature. The conflict key is the feature
// identity within a run: the same PATRIC feature matched by the same role
// twice (e.g. on a cache-assisted re-run) overwrites rather than duplicates.
func (r *PostgresFeatureRepository) SaveRecord(ctx context.Context, runID string, rec *feature.Record) error {
	query := `
		INSERT INTO feature_records (
			run_id, track, genome_id, genome_name, role, search_kind,
			patric_id, accession, gene, product, feature_type,
			start_pos, end_pos, strand, organism_name, taxon_id, collected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (run_id, role, patric_id) DO UPDATE SET
			product = EXCLUDED.product,
			collected_at = NOW()
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		runID,
		rec.Track,
		rec.GenomeID,
		rec.GenomeName,
		rec.Role,
		rec.SearchKind,
		rec.PatricID,
		rec.Accession,
		rec.Gene,
		rec.Product,
		rec.FeatureType,
		rec.Start,
		rec.End,
		rec.Strand,
		rec.OrganismName,
		rec.TaxonID,
	)

	return err
}

func (r *PostgresFeatureRepository) SaveFailedBatch(ctx context.Context, runID, track string, fb *executor.FailedBatch) error {
	units, err := json.Marshal(fb.Units)
	if err != nil {
		return fmt.Errorf("failed to marshal batch units: %w", err)
	}

	query := `
		INSERT INTO failed_batches (
			run_id, track, batch_id, seq, units, attempts, kind, last_error, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (batch_id) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			last_error = EXCLUDED.last_error,
			recorded_at = NOW()
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		runID,
		track,
		fb.BatchID,
		fb.Seq,
		units,
		fb.Attempts,
		string(fb.Kind),
		fb.LastErr,
	)

	return err
}

// CountByTrack returns how many features a run has persisted per track.
func (r *PostgresFeatureRepository) CountByTrack(ctx context.Context, runID string) (map[string]int, error) {
	query := `
		SELECT track, COUNT(*)
		FROM feature_records
		WHERE run_id = $1
		GROUP BY track
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var track string
		var count int
		if err := rows.Scan(&track, &count); err != nil {
			return nil, err
		}
		counts[track] = count
	}

	return counts, rows.Err()
}

func (r *PostgresFeatureRepository) Close() error {
	return r.db.Close()
}
