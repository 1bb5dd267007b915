package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nmorel/bvharvest/internal/bvbrc"
	"github.com/nmorel/bvharvest/internal/cache"
	"github.com/nmorel/bvharvest/internal/config"
	"github.com/nmorel/bvharvest/internal/genomes"
	"github.com/nmorel/bvharvest/internal/notify"
	"github.com/nmorel/bvharvest/internal/report"
	"github.com/nmorel/bvharvest/internal/repository"
	"github.com/nmorel/bvharvest/internal/retry"
	"github.com/nmorel/bvharvest/internal/track"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	trackNames := flag.String("tracks", "amyloids,copper,sod", "comma-separated track names to run")
	genomesPath := flag.String("genomes", "reps_converted.tsv", "representative genomes TSV")
	limit := flag.Int("limit", 0, "cap the number of genomes (0 = all)")
	batchSize := flag.Int("batch-size", 0, "units per batch (0 = BVHARVEST_BATCH_SIZE or default)")
	outDir := flag.String("out", "results", "output directory for run artifacts")
	parallel := flag.Bool("parallel", false, "run tracks concurrently instead of sequentially")
	flag.Parse()

	cfg := config.Load()
	if *batchSize > 0 {
		cfg.API.BatchSize = *batchSize
	}

	tracks, err := resolveTracks(*trackNames)
	if err != nil {
		log.Fatal(err)
	}

	list, err := genomes.Load(*genomesPath, *limit)
	if err != nil {
		log.Fatal(err)
	}
	if len(list) == 0 {
		log.Fatalf("no genomes loaded from %s", *genomesPath)
	}
	genomeIDs := genomes.IDs(list)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	log.Printf("Run %s: %d tracks, %d genomes, batch size %d", runID, len(tracks), len(list), cfg.API.BatchSize)

	opts := []track.RunnerOption{
		track.WithBatchSize(cfg.API.BatchSize),
		track.WithMaxAttempts(cfg.Retry.MaxAttempts),
		track.WithBackoffCaps(cfg.Retry.MaxRateLimitBackoff, cfg.Retry.MaxStandardBackoff),
	}

	if cfg.Cache.Addr != "" {
		c, err := cache.New(cfg.Cache.Addr)
		if err != nil {
			log.Fatalf("result cache: %v", err)
		}
		defer func() {
			if err := c.Close(); err != nil {
				log.Printf("failed to close result cache: %v", err)
			}
		}()
		opts = append(opts, track.WithCache(c))
	}

	if cfg.Database.DSN != "" {
		repo, err := repository.NewPostgresFeatureRepository(cfg.Database.DSN)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.Printf("failed to close Postgres repository: %v", err)
			}
		}()
		opts = append(opts, track.WithRepository(repo))
	}

	if cfg.Metrics.Port != "" {
		go serveMetrics(cfg.Metrics.Port)
	}

	factory := func(trackName string) retry.Requester {
		return bvbrc.New(cfg.API.BaseURL, trackName, bvbrc.WithRequestTimeout(cfg.API.RequestTimeout))
	}

	results := runTracks(ctx, tracks, genomeIDs, runID, factory, opts, *parallel)
	if ctx.Err() != nil {
		log.Printf("Run %s interrupted, writing partial results", runID)
	}

	w, err := report.NewWriter(*outDir, time.Now())
	if err != nil {
		log.Fatal(err)
	}
	paths, err := w.WriteAll(results, list)
	if err != nil {
		log.Fatalf("failed to write run artifacts: %v", err)
	}
	for _, p := range paths {
		log.Printf("Wrote %s", p)
	}

	summary := buildSummary(runID, results)
	fmt.Print(summary)

	if cfg.Notify.APIKey != "" && cfg.Notify.ToEmail != "" {
		subject := fmt.Sprintf("bvharvest run %s finished", runID)
		if err := notify.SendRunSummary(cfg.Notify, subject, summary); err != nil {
			log.Printf("run summary email not sent: %v", err)
		}
	}
}

func resolveTracks(names string) ([]track.Track, error) {
	var tracks []track.Track
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, err := track.ByName(name)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks selected")
	}
	return tracks, nil
}

// runTracks executes every track and returns results in track order. In
// parallel mode each track gets its own runner, so failure statistics and
// backoff state never leak between tracks.
func runTracks(ctx context.Context, tracks []track.Track, genomeIDs []string, runID string,
	factory track.RequesterFactory, opts []track.RunnerOption, parallel bool) []*track.Result {

	results := make([]*track.Result, len(tracks))

	if !parallel {
		for i, t := range tracks {
			if ctx.Err() != nil {
				results[i] = &track.Result{Track: t.Name}
				continue
			}
			results[i] = runOne(ctx, t, genomeIDs, runID, factory, opts)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, t := range tracks {
		wg.Add(1)
		go func(i int, t track.Track) {
			defer wg.Done()
			results[i] = runOne(ctx, t, genomeIDs, runID, factory, opts)
		}(i, t)
	}
	wg.Wait()
	return results
}

func runOne(ctx context.Context, t track.Track, genomeIDs []string, runID string,
	factory track.RequesterFactory, opts []track.RunnerOption) *track.Result {

	runner := track.NewRunner(runID, factory, opts...)
	result, err := runner.Run(ctx, t, genomeIDs)
	if err != nil {
		log.Printf("Track %s: stopped early: %v", t.Name, err)
	}
	return result
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + port
	log.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}

func buildSummary(runID string, results []*track.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nRun %s finished at %s\n", runID, time.Now().Format(time.RFC3339))

	var features, failed, attempts, rateLimited int
	for _, res := range results {
		fmt.Fprintf(&b, "  %s: %d features, %d failed batches, %d attempts, %s elapsed\n",
			res.Track, len(res.Records), len(res.Failed), res.Stats.TotalAttempts,
			res.Elapsed.Round(time.Second))
		features += len(res.Records)
		failed += len(res.Failed)
		attempts += res.Stats.TotalAttempts
		rateLimited += res.Stats.RateLimitEvents
	}
	fmt.Fprintf(&b, "  total: %d features, %d failed batches, %d attempts (%d rate-limited)\n",
		features, failed, attempts, rateLimited)

	if failed > 0 {
		fmt.Fprintf(&b, "  re-run the failed batches listed in the failed_batches JSON artifact\n")
	}
	return b.String()
}
