// Package kairos talks to the upstream Kairos scoring service.
package kairos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/besfeng23/kairos-github-gateway/internal/models"
)

const (
	defaultIngestPath    = "/functions/kairosIngestEvent"
	defaultRecomputePath = "/functions/kairosRecompute"

	// maxErrorBody bounds how much of an upstream error response is kept
	// in the error message.
	maxErrorBody = 1200
)

// UpstreamError is a non-2xx answer from Kairos. The gateway maps it to a
// 502 so GitHub's own redelivery acts as the retry mechanism.
type UpstreamError struct {
	URL    string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("kairos request failed: status %d url=%s body=%s", e.Status, e.URL, e.Body)
}

// Config for the forwarding client. BaseURL is required; the two endpoint
// URLs default to the standard function paths under it. Secret, when set, is
// sent as a bearer credential and never logged.
type Config struct {
	BaseURL        string
	IngestEventURL string
	RecomputeURL   string
	Secret         string
	// Timeout of 0 leaves upstream calls without a deadline.
	Timeout time.Duration
}

// Client forwards evidence events and recompute triggers to Kairos.
type Client struct {
	ingestURL    string
	recomputeURL string
	secret       string
	httpClient   *http.Client
}

// New validates the config and builds a Client. It fails fast when no base
// URL is configured so a misdeployed gateway dies at startup, not on the
// first delivery.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("kairos base URL is required")
	}

	ingestURL := strings.TrimSpace(cfg.IngestEventURL)
	if ingestURL == "" {
		ingestURL = base + defaultIngestPath
	}
	recomputeURL := strings.TrimSpace(cfg.RecomputeURL)
	if recomputeURL == "" {
		recomputeURL = base + defaultRecomputePath
	}

	return &Client{
		ingestURL:    ingestURL,
		recomputeURL: recomputeURL,
		secret:       strings.TrimSpace(cfg.Secret),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// IngestEvent forwards one evidence event.
func (c *Client) IngestEvent(ctx context.Context, event *models.EvidenceEvent) error {
	return c.postJSON(ctx, c.ingestURL, event)
}

// RecomputeFull asks Kairos to recompute aggregate state. Called at most once
// per delivery, after all forwards for that delivery have completed.
func (c *Client) RecomputeFull(ctx context.Context) error {
	return c.postJSON(ctx, c.recomputeURL, map[string]bool{"full": true})
}

func (c *Client) postJSON(ctx context.Context, url string, body interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		request.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{URL: url, Status: resp.StatusCode, Body: string(raw)}
	}
	return nil
}
