package kairos

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Publish error codes. The publish CLI surfaces these verbatim.
const (
	ErrCodeInvalidBaseURL      = "INVALID_BASE_URL"
	ErrCodeContractNotFound    = "CONTRACT_NOT_FOUND"
	ErrCodeContractEmpty       = "CONTRACT_EMPTY"
	ErrCodeContractParseFailed = "CONTRACT_PARSE_FAILED"
	ErrCodeContractInvalid     = "CONTRACT_INVALID"
	ErrCodeHTTPError           = "HTTP_ERROR"
	ErrCodeNetworkError        = "NETWORK_ERROR"
)

// PublishError is a classified failure of the publish workflow.
type PublishError struct {
	Code    string
	Message string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const defaultRegisterPath = "/functions/kairosStabilizationRegister"

// PublishOptions configures one stabilization-register publish.
type PublishOptions struct {
	BaseURL      string
	RegisterURL  string // optional override
	ContractPath string
	IngestKey    string
	Source       string
	DryRun       bool
	Retries      int           // attempts = 1 + Retries; default 3
	MinDelay     time.Duration // backoff base, doubling per attempt; default 250ms
}

// Diagnostics describes what a publish would (or did) send. Logged in full on
// dry runs; never includes the ingest key.
type Diagnostics struct {
	ResolvedBaseURL   string
	ResolvedEndpoint  string
	ContractPath      string
	ContractSizeBytes int64
	ContractSHA256    string
	PayloadKeys       int
	DryRun            bool
}

// Publisher is the stricter forwarding variant used by the registration
// workflow: it validates everything up front, retries transient upstream
// failures with exponential backoff, and supports a no-network dry-run mode.
type Publisher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// PublishStabilizationRegister validates the contract file and posts it to
// the register endpoint. On dry runs it performs every validation and logs
// the diagnostics but never touches the network.
func (p *Publisher) PublishStabilizationRegister(ctx context.Context, opts PublishOptions) (*Diagnostics, error) {
	base, err := validateBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(opts.RegisterURL)
	if endpoint == "" {
		endpoint = strings.TrimRight(base.String(), "/") + defaultRegisterPath
	}

	raw, size, sum, err := readContract(opts.ContractPath)
	if err != nil {
		return nil, err
	}

	plan, err := validateContract(raw)
	if err != nil {
		return nil, err
	}

	source := opts.Source
	if source == "" {
		source = "kairos-publish"
	}
	plan["registeredAt"] = time.Now().UTC().Format(time.RFC3339)
	plan["source"] = source

	diag := &Diagnostics{
		ResolvedBaseURL:   strings.TrimRight(base.String(), "/"),
		ResolvedEndpoint:  endpoint,
		ContractPath:      opts.ContractPath,
		ContractSizeBytes: size,
		ContractSHA256:    sum,
		PayloadKeys:       len(plan),
		DryRun:            opts.DryRun,
	}

	p.logger.Info("publish diagnostics",
		slog.String("endpoint", diag.ResolvedEndpoint),
		slog.String("contract", diag.ContractPath),
		slog.Int64("contract_bytes", diag.ContractSizeBytes),
		slog.String("contract_sha256", diag.ContractSHA256),
		slog.Int("payload_keys", diag.PayloadKeys),
		slog.Bool("dry_run", diag.DryRun),
	)

	if opts.DryRun {
		return diag, nil
	}

	body, err := json.Marshal(plan)
	if err != nil {
		return diag, &PublishError{Code: ErrCodeContractInvalid, Message: err.Error()}
	}

	if err := p.postWithRetry(ctx, endpoint, body, opts); err != nil {
		return diag, err
	}
	return diag, nil
}

func validateBaseURL(input string) (*url.URL, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &PublishError{Code: ErrCodeInvalidBaseURL, Message: "base URL is empty"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &PublishError{Code: ErrCodeInvalidBaseURL, Message: fmt.Sprintf("invalid base URL %q", trimmed)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &PublishError{Code: ErrCodeInvalidBaseURL, Message: fmt.Sprintf("invalid base URL scheme %q (must be http/https)", u.Scheme)}
	}
	return u, nil
}

func readContract(path string) ([]byte, int64, string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, 0, "", &PublishError{Code: ErrCodeContractNotFound, Message: fmt.Sprintf("contract file not found: %s", path)}
	}
	if info.Size() <= 0 {
		return nil, 0, "", &PublishError{Code: ErrCodeContractEmpty, Message: fmt.Sprintf("contract file is empty: %s", path)}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, "", &PublishError{Code: ErrCodeContractNotFound, Message: err.Error()}
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, 0, "", &PublishError{Code: ErrCodeContractEmpty, Message: fmt.Sprintf("contract file is blank: %s", path)}
	}
	sum := sha256.Sum256(raw)
	return raw, info.Size(), hex.EncodeToString(sum[:]), nil
}

func validateContract(raw []byte) (map[string]interface{}, error) {
	var plan map[string]interface{}
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, &PublishError{Code: ErrCodeContractParseFailed, Message: err.Error()}
	}

	name, ok := plan["sprintName"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, &PublishError{Code: ErrCodeContractInvalid, Message: `contract field "sprintName" must be a non-empty string`}
	}
	for _, field := range []string{"bugClusters", "fixSequence", "gatingRules"} {
		v, ok := plan[field]
		if !ok {
			return nil, &PublishError{Code: ErrCodeContractInvalid, Message: fmt.Sprintf("contract missing required field: %s", field)}
		}
		if _, ok := v.([]interface{}); !ok {
			return nil, &PublishError{Code: ErrCodeContractInvalid, Message: fmt.Sprintf("contract field %q must be an array", field)}
		}
	}
	if _, ok := plan["regressionChecklist"]; !ok {
		plan["regressionChecklist"] = []interface{}{}
	}
	if _, ok := plan["rollbackStrategy"]; !ok {
		plan["rollbackStrategy"] = nil
	}
	return plan, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func (p *Publisher) postWithRetry(ctx context.Context, endpoint string, body []byte, opts PublishOptions) error {
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	minDelay := opts.MinDelay
	if minDelay <= 0 {
		minDelay = 250 * time.Millisecond
	}
	totalAttempts := 1 + retries

	var lastErr error
	for attempt := 1; attempt <= totalAttempts; attempt++ {
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return &PublishError{Code: ErrCodeNetworkError, Message: err.Error()}
		}
		request.Header.Set("Content-Type", "application/json")
		if key := strings.TrimSpace(opts.IngestKey); key != "" {
			request.Header.Set("Authorization", "Bearer "+key)
		}

		resp, err := p.httpClient.Do(request)
		if err == nil {
			status := resp.StatusCode
			if status >= 200 && status <= 299 {
				resp.Body.Close()
				return nil
			}

			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()

			// 4xx other than 429 will not improve on retry.
			if !retryableStatus(status) || attempt >= totalAttempts {
				return &PublishError{
					Code:    ErrCodeHTTPError,
					Message: fmt.Sprintf("HTTP %d url=%s body=%s", status, endpoint, string(raw)),
				}
			}
			lastErr = fmt.Errorf("HTTP %d", status)
		} else {
			lastErr = err
		}

		if attempt < totalAttempts {
			p.logger.Warn("publish attempt failed; retrying",
				slog.Int("attempt", attempt),
				slog.Int("total_attempts", totalAttempts),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-time.After(minDelay << (attempt - 1)):
			case <-ctx.Done():
				return &PublishError{Code: ErrCodeNetworkError, Message: ctx.Err().Error()}
			}
		}
	}

	return &PublishError{Code: ErrCodeNetworkError, Message: fmt.Sprintf("request failed after retries: %v", lastErr)}
}
