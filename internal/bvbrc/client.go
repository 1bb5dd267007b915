// Package bvbrc implements the HTTP boundary with the BV-BRC genomic feature
// database. A batch is fetched as one request cycle: each unit in the batch
// becomes a genome_feature query, and the first failing unit fails the whole
// batch so the retry engine can re-run it as one.
package bvbrc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nmorel/bvharvest/internal/feature"
	"github.com/nmorel/bvharvest/internal/query"
)

const (
	DefaultBaseURL        = "https://www.bv-brc.org/api"
	DefaultRequestTimeout = 30 * time.Second

	// Fields requested from the genome_feature collection, and the per-query
	// result cap. Kept in sync with what the aggregation layer consumes.
	selectFields = "select(genome_id,genome_name,accession,feature_type,patric_id,refseq_locus_tag,start,end,strand,na_length,gene,product,organism_name,taxon_id)"
	resultLimit  = "limit(200)"
)

// APIError is a non-2xx response from BV-BRC.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return fmt.Sprintf("HTTP 429: rate limit exceeded: %s", e.Body)
	case e.StatusCode == http.StatusGatewayTimeout:
		return fmt.Sprintf("HTTP 504: gateway timeout: %s", e.Body)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
}

// Fatal reports whether the error must not be retried. BV-BRC answers 400 to
// malformed queries; retrying those can never succeed.
func (e *APIError) Fatal() bool {
	return e.StatusCode == http.StatusBadRequest
}

type Client struct {
	baseURL        string
	track          string
	requestTimeout time.Duration
	httpClient     *http.Client
}

type Option func(*Client)

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client bound to a base URL. track is recorded on every
// returned feature so the aggregator knows which campaign produced it.
func New(baseURL, track string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        baseURL,
		track:          track,
		requestTimeout: DefaultRequestTimeout,
		httpClient:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// featureJSON mirrors the BV-BRC genome_feature document.
type featureJSON struct {
	GenomeID     string `json:"genome_id"`
	GenomeName   string `json:"genome_name"`
	Accession    string `json:"accession"`
	FeatureType  string `json:"feature_type"`
	PatricID     string `json:"patric_id"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Strand       string `json:"strand"`
	Gene         string `json:"gene"`
	Product      string `json:"product"`
	OrganismName string `json:"organism_name"`
	TaxonID      int    `json:"taxon_id"`
}

// FetchBatch queries every unit in the batch and returns the matched features
// in response order. The first unit error aborts the batch; partial results
// are discarded so the retry engine never emits records from an incomplete
// cycle.
func (c *Client) FetchBatch(ctx context.Context, b query.Batch) ([]feature.Record, error) {
	var records []feature.Record
	for _, u := range b.Units {
		matches, err := c.fetchUnit(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("unit %s/%q: %w", u.GenomeID, u.Term, err)
		}
		records = append(records, matches...)
	}
	return records, nil
}

func (c *Client) fetchUnit(ctx context.Context, u query.Unit) ([]feature.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.unitURL(u), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "bvharvest/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("request timeout after %s: %w", c.requestTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	}

	var docs []featureJSON
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("decode genome_feature response: %w", err)
	}

	records := make([]feature.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, feature.Record{
			GenomeID:     d.GenomeID,
			GenomeName:   d.GenomeName,
			Role:         u.Term,
			SearchKind:   string(u.Kind),
			Track:        c.track,
			PatricID:     d.PatricID,
			Accession:    d.Accession,
			Gene:         d.Gene,
			Product:      d.Product,
			FeatureType:  d.FeatureType,
			Start:        d.Start,
			End:          d.End,
			Strand:       d.Strand,
			OrganismName: d.OrganismName,
			TaxonID:      d.TaxonID,
		})
	}
	return records, nil
}

// unitURL builds the RQL query for one unit. Gene terms match the gene name
// field exactly; functional terms are keyword searches over the document.
func (c *Client) unitURL(u query.Unit) string {
	var q string
	if u.Kind == query.KindFunctional {
		q = fmt.Sprintf(`and(eq(genome_id,%s),keyword(%s))`, u.GenomeID, rqlQuote(u.Term))
	} else {
		q = fmt.Sprintf(`and(eq(genome_id,%s),eq(gene,%s))`, u.GenomeID, rqlQuote(u.Term))
	}
	return fmt.Sprintf("%s/genome_feature/?%s&%s&%s", c.baseURL, q, selectFields, resultLimit)
}

// rqlQuote wraps a term in quotes and escapes it for the query string, so
// RQL control characters inside a term cannot break the query.
func rqlQuote(term string) string {
	return url.QueryEscape(fmt.Sprintf("%q", term))
}
