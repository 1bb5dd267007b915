// Package report writes the run artifacts: the flattened feature CSV, the
// binary genome×role matrix, the integrated dataset with subsystem states,
// the failed-batch re-run list and a plain-text summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/nmorel/bvharvest/internal/executor"
	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/genomes"
	"github.com/nmorel/bvharvest/internal/matrix"
	"github.com/nmorel/bvharvest/internal/track"
)

// Writer emits the run artifacts into one output directory. All files from a
// run share the same timestamp suffix so a run can be identified as a set.
type Writer struct {
	dir       string
	timestamp string
}

func NewWriter(dir string, at time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Writer{dir: dir, timestamp: at.Format("20060102_150405")}, nil
}

func (w *Writer) path(name, ext string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.%s", name, w.timestamp, ext))
}

// WriteFeatures writes every collected feature as one CSV row, ordered by
// (track, genome, role, start, patric id).
func (w *Writer) WriteFeatures(records []feature.Record) (string, error) {
	path := w.path("features", "csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create features file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{
		"track", "genome_id", "genome_name", "role", "search_kind",
		"gene", "product", "patric_id", "start", "end", "strand",
	}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write features header: %w", err)
	}

	for _, r := range matrix.FeatureTable(records) {
		row := []string{
			r.Track, r.GenomeID, r.GenomeName, r.Role, r.SearchKind,
			r.Gene, r.Product, r.PatricID,
			strconv.Itoa(r.Start), strconv.Itoa(r.End), r.Strand,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write feature row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush features file: %w", err)
	}
	return path, nil
}

// WriteMatrix writes the binary presence matrix as a TSV: one row per genome,
// one 0/1 column per role.
func (w *Writer) WriteMatrix(m matrix.Matrix) (string, error) {
	path := w.path("matrix", "tsv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create matrix file: %w", err)
	}
	defer f.Close()

	tw := csv.NewWriter(f)
	tw.Comma = '\t'

	header := append([]string{"genome_id"}, m.Roles...)
	if err := tw.Write(header); err != nil {
		return "", fmt.Errorf("write matrix header: %w", err)
	}
	for _, g := range m.Genomes {
		row := make([]string, 0, len(m.Roles)+1)
		row = append(row, g)
		for _, role := range m.Roles {
			row = append(row, presence(m.Has(g, role)))
		}
		if err := tw.Write(row); err != nil {
			return "", fmt.Errorf("write matrix row: %w", err)
		}
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		return "", fmt.Errorf("flush matrix file: %w", err)
	}
	return path, nil
}

// WriteDataset writes the integrated dataset TSV: one row per input genome
// with its subsystem state, representative genome columns, binary role
// columns and per-system counts. Genomes with no hits appear as inactive.
func (w *Writer) WriteDataset(m matrix.Matrix, list []genomes.Genome) (string, error) {
	path := w.path("dataset", "tsv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create dataset file: %w", err)
	}
	defer f.Close()

	tw := csv.NewWriter(f)
	tw.Comma = '\t'

	header := []string{"genome_id", "State", "genome_name", "RepGen.100", "RepGen.200"}
	header = append(header, m.Roles...)
	header = append(header, "amyloid_systems", "copper_systems", "sod_systems", "total_systems")
	if err := tw.Write(header); err != nil {
		return "", fmt.Errorf("write dataset header: %w", err)
	}

	for _, g := range list {
		roles := m.RolesFor(g.ID)
		counts := matrix.SystemCounts(roles)

		row := make([]string, 0, len(header))
		row = append(row, g.ID, string(matrix.Classify(roles)), g.Name, g.Rep100, g.Rep200)
		for _, role := range m.Roles {
			row = append(row, presence(m.Has(g.ID, role)))
		}
		row = append(row,
			strconv.Itoa(counts[matrix.SystemAmyloid]),
			strconv.Itoa(counts[matrix.SystemCopper]),
			strconv.Itoa(counts[matrix.SystemSOD]),
			strconv.Itoa(len(roles)),
		)
		if err := tw.Write(row); err != nil {
			return "", fmt.Errorf("write dataset row: %w", err)
		}
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		return "", fmt.Errorf("flush dataset file: %w", err)
	}
	return path, nil
}

// WriteFailedBatches writes the per-track failed batches as indented JSON.
// This file is the manual re-run list: every unit it names was never
// successfully collected.
func (w *Writer) WriteFailedBatches(failed map[string][]executor.FailedBatch) (string, error) {
	path := w.path("failed_batches", "json")
	data, err := json.MarshalIndent(failed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode failed batches: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write failed batches file: %w", err)
	}
	return path, nil
}

// WriteSummary writes the human-readable run summary.
func (w *Writer) WriteSummary(results []*track.Result) (string, error) {
	path := w.path("summary", "txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "=== BV-BRC Harvest Summary ===\n")
	fmt.Fprintf(f, "Generated: %s\n\n", w.timestamp)

	var totalFeatures, totalFailed, totalAttempts, totalRateLimited int
	for _, res := range results {
		fmt.Fprintf(f, "Track %s:\n", res.Track)
		fmt.Fprintf(f, "  Units searched: %d (cache hits: %d)\n", res.Units, res.CacheHits)
		fmt.Fprintf(f, "  Features collected: %d\n", len(res.Records))
		fmt.Fprintf(f, "  Attempts: %d (successes: %d, rate-limit events: %d)\n",
			res.Stats.TotalAttempts, res.Stats.TotalSuccesses, res.Stats.RateLimitEvents)
		fmt.Fprintf(f, "  Elapsed: %s\n", res.Elapsed.Round(time.Second))
		fmt.Fprintf(f, "  Failed batches: %d\n", len(res.Failed))
		for _, fb := range res.Failed {
			fmt.Fprintf(f, "    %s (#%d): %d units lost after %d attempts (%s)\n",
				fb.BatchID, fb.Seq, len(fb.Units), fb.Attempts, fb.Kind)
		}
		fmt.Fprintln(f)

		totalFeatures += len(res.Records)
		totalFailed += len(res.Failed)
		totalAttempts += res.Stats.TotalAttempts
		totalRateLimited += res.Stats.RateLimitEvents
	}

	fmt.Fprintf(f, "Totals:\n")
	fmt.Fprintf(f, "  Features: %d\n", totalFeatures)
	fmt.Fprintf(f, "  Attempts: %d (rate-limit events: %d)\n", totalAttempts, totalRateLimited)
	fmt.Fprintf(f, "  Failed batches: %d\n", totalFailed)
	if totalFailed > 0 {
		fmt.Fprintf(f, "  Re-run list: %s\n", filepath.Base(w.path("failed_batches", "json")))
	}
	return path, nil
}

// WriteAll emits every artifact and returns the written paths sorted by name.
func (w *Writer) WriteAll(results []*track.Result, list []genomes.Genome) ([]string, error) {
	var records []feature.Record
	failed := make(map[string][]executor.FailedBatch)
	for _, res := range results {
		records = append(records, res.Records...)
		if len(res.Failed) > 0 {
			failed[res.Track] = res.Failed
		}
	}
	m := matrix.Build(records)

	var paths []string
	writers := []func() (string, error){
		func() (string, error) { return w.WriteFeatures(records) },
		func() (string, error) { return w.WriteMatrix(m) },
		func() (string, error) { return w.WriteDataset(m, list) },
		func() (string, error) { return w.WriteFailedBatches(failed) },
		func() (string, error) { return w.WriteSummary(results) },
	}
	for _, write := range writers {
		p, err := write()
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func presence(present bool) string {
	if present {
		return "1"
	}
	return "0"
}
