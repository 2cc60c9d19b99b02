// Package agvd provides the client for the AGVD variant search service.
package agvd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/h3abionet/agvd-cli/internal/variant"
)

// DefaultEndpoint is the production AGVD query endpoint.
const DefaultEndpoint = "https://agvd-rps.h3abionet.org/devo/"

// searchMutation is the GraphQL mutation used for every batch query.
// The variable payload carries the identifier list under a key named
// after the identifier kind ("rsID" or "variantID") plus the threshold.
const searchMutation = `mutation($input:VCFQueryInput) {
    cliVariantSearch(input:$input) {
        variantID
        rsID
        mafThreshold
        agvdThresholdStatus
        usedThreshold
        clusters {
            name
            maf
        }
    }
}`

// Cluster is a per-population allele frequency reported by the service.
type Cluster struct {
	Name string
	MAF  float64
}

// Result is one variant's record from a batch query response.
// MAFThreshold and UsedThreshold are nil when the service omits them.
type Result struct {
	VariantID     string
	RSID          string
	MAFThreshold  *float64
	Status        string
	UsedThreshold *float64
	Clusters      []Cluster
}

// Client submits identifier batches to the AGVD query endpoint.
// A single HTTP request is made per batch; no retries are attempted.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
	cache      Cache
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables result memoization on the given cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the logger for query debug messages.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given endpoint and API key.
// An empty endpoint selects DefaultEndpoint.
func NewClient(endpoint, key string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		key:      key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends one batch of same-kind identifiers with the given
// threshold and returns the per-variant results. Non-2xx responses
// yield a *QueryError, network failures a *TransportError.
func (c *Client) Submit(ctx context.Context, ids []string, threshold float64, kind variant.Kind) ([]Result, error) {
	var key string
	if c.cache != nil {
		key = cacheKey(c.key, ids, threshold, kind)
		if results, ok := c.cache.Get(key); ok {
			c.logger.Debug("query cache hit",
				zap.String("kind", string(kind)),
				zap.Int("identifiers", len(ids)))
			return results, nil
		}
	}

	body, err := json.Marshal(map[string]any{
		"query": searchMutation,
		"variables": map[string]any{
			"input": map[string]any{
				string(kind): ids,
				"threshold":  threshold,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}

	c.logger.Debug("submitting batch",
		zap.String("kind", string(kind)),
		zap.Int("identifiers", len(ids)),
		zap.Float64("threshold", threshold))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &QueryError{Status: resp.StatusCode, Message: statusMessage(resp.StatusCode)}
	}

	var payload struct {
		Data struct {
			CLIVariantSearch []resultRecord `json:"cliVariantSearch"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("remote query rejected: %s", payload.Errors[0].Message)
	}

	results := make([]Result, 0, len(payload.Data.CLIVariantSearch))
	for _, rec := range payload.Data.CLIVariantSearch {
		results = append(results, rec.toResult())
	}

	if c.cache != nil {
		c.cache.Put(key, results)
	}

	return results, nil
}

// resultRecord is the raw JSON shape returned by the service.
type resultRecord struct {
	VariantID     string   `json:"variantID"`
	RSID          string   `json:"rsID"`
	MAFThreshold  *float64 `json:"mafThreshold"`
	Status        string   `json:"agvdThresholdStatus"`
	UsedThreshold *float64 `json:"usedThreshold"`
	Clusters      []struct {
		Name string  `json:"name"`
		MAF  float64 `json:"maf"`
	} `json:"clusters"`
}

func (r resultRecord) toResult() Result {
	res := Result{
		VariantID:     r.VariantID,
		RSID:          r.RSID,
		MAFThreshold:  r.MAFThreshold,
		Status:        r.Status,
		UsedThreshold: r.UsedThreshold,
	}
	for _, cl := range r.Clusters {
		res.Clusters = append(res.Clusters, Cluster{Name: cl.Name, MAF: cl.MAF})
	}
	return res
}
