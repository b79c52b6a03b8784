// Package backend talks to the story backend: search returns raw story
// batches, summary turns a list of story ids into generated text.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/story-map-service/internal/config"
	"github.com/couchcryptid/story-map-service/internal/domain"
	"github.com/couchcryptid/story-map-service/internal/observability"
)

const (
	endpointSearch  = "search"
	endpointSummary = "summary"

	searchPath  = "/api/search"
	summaryPath = "/api/generate-melo-summary"

	maxErrorBody = 512
)

// ErrUpstream marks a failed or rejected backend call.
var ErrUpstream = errors.New("backend unavailable")

// ErrSummaryFailed is returned when the backend answers but reports a non-success status.
var ErrSummaryFailed = errors.New("summary generation failed")

// SummaryResponse is the backend's summary result.
type SummaryResponse struct {
	Status       string    `json:"status"`
	Summary      string    `json:"summary"`
	StoriesCount int       `json:"stories_count"`
	Service      string    `json:"service"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// summaryRequest carries producer ids (domain.SourceID values). Without ids
// the backend summarises every story it holds.
type summaryRequest struct {
	StoryIDs []any `json:"story_ids,omitempty"`
}

// Client is a rate-limited HTTP client for the story backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a backend client from the BACKEND_* settings.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BackendURL, "/"),
		token:      cfg.BackendToken,
		httpClient: &http.Client{Timeout: cfg.BackendTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.BackendRateLimit), cfg.BackendBurst),
		metrics:    metrics,
		logger:     logger,
	}
}

// Search runs a search and decodes the response as a story batch.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]domain.RawStory, error) {
	body, err := c.post(ctx, endpointSearch, searchPath, BuildSearchRequest(params))
	if err != nil {
		return nil, err
	}
	batch, err := domain.ParseBatch(body)
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpointSearch, "error").Inc()
		return nil, fmt.Errorf("%w: search response: %w", ErrUpstream, err)
	}
	c.metrics.BackendRequests.WithLabelValues(endpointSearch, "success").Inc()
	return batch, nil
}

// Summarize asks the backend to summarise the stories with the given producer
// ids. An empty ids summarises every story.
func (c *Client) Summarize(ctx context.Context, ids []any) (SummaryResponse, error) {
	body, err := c.post(ctx, endpointSummary, summaryPath, summaryRequest{StoryIDs: ids})
	if err != nil {
		return SummaryResponse{}, err
	}

	var resp SummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpointSummary, "error").Inc()
		return SummaryResponse{}, fmt.Errorf("%w: summary response: %w", ErrUpstream, err)
	}
	if resp.Status != "success" {
		c.metrics.BackendRequests.WithLabelValues(endpointSummary, "error").Inc()
		return resp, fmt.Errorf("%w: status %q", ErrSummaryFailed, resp.Status)
	}
	c.metrics.BackendRequests.WithLabelValues(endpointSummary, "success").Inc()
	return resp, nil
}

// post sends payload as JSON and returns the response body of a 2xx answer.
// Transport and status failures are counted here; decode failures by the caller.
func (c *Client) post(ctx context.Context, endpoint, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrUpstream, err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: %s request: %w", ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: read %s response: %w", ErrUpstream, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("backend request rejected",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrUpstream, endpoint, resp.StatusCode, body)
	}

	c.logger.Debug("backend request done",
		"endpoint", endpoint,
		"request_id", requestID,
		"duration", time.Since(start),
	)
	return body, nil
}
