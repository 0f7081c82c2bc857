// Package zyte forwards page-content extraction requests to the Zyte API and
// returns the raw response body.
//
// A single client serves concurrent calls; its only mutable state is the
// mutex-guarded outcome counters. Each call issues at most one POST and is
// never retried. Response status codes are counted but not interpreted;
// whatever body the API returns is handed back verbatim.
package zyte

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"mcp-zyte-fetch-service/internal/models"
	"mcp-zyte-fetch-service/pkg/config"
	"mcp-zyte-fetch-service/pkg/errors"
	"mcp-zyte-fetch-service/pkg/logging"
)

// Extractor is the extraction operation the tools depend on
type Extractor interface {
	Extract(ctx context.Context, pageURL string, mode models.ExtractFrom) (string, error)
}

// Client issues extraction requests against the configured endpoint
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	logger     *logging.StructuredLogger

	mu       sync.Mutex
	statuses map[string]int64
}

// Labels for requests that produced no HTTP status
const (
	StatusMissingCredential = "missing_credential"
	StatusTransportFailure  = "transport_failure"
)

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *logging.StructuredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for cfg
func NewClient(cfg config.Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultEndpoint
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewStructuredLogger("zyte"),
		statuses:   make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the bound applied to each outbound request
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// Extract requests page content for pageURL using mode.
//
// Without a configured credential it returns the config_error payload text
// and a nil error, and makes no network call. Transport failures (including
// timeouts) are returned as errors; any HTTP response is returned as text.
func (c *Client) Extract(ctx context.Context, pageURL string, mode models.ExtractFrom) (string, error) {
	if !c.cfg.HasCredential() {
		configErr := errors.NewConfigError(errors.ErrCodeMissingCredential,
			models.MissingCredentialMessage, nil).
			WithContext("mode", string(mode))
		c.logger.WithError(configErr).Warn("Extraction skipped without credential")
		c.countStatus(StatusMissingCredential)
		return configErr.ToPayload().Text(), nil
	}

	if !mode.Valid() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidMode,
			"unsupported extraction mode", nil).WithContext("mode", string(mode))
	}

	body, err := models.NewExtractionRequest(pageURL, mode).Encode()
	if err != nil {
		return "", errors.NewSystemError(errors.ErrCodeSerializationFailed,
			"failed to encode extraction request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"failed to build extraction request", err)
	}
	req.SetBasicAuth(c.cfg.APIKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	start := time.Now()
	logger := c.logger.WithContext("mode", string(mode))
	logger.Debug("Sending extraction request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		transportErr := errors.NewTransportError("extraction request failed", err).
			WithContext("mode", string(mode))
		logger.WithError(transportErr).
			WithContext("duration_ms", time.Since(start).Milliseconds()).
			Error("Extraction request failed")
		c.countStatus(StatusTransportFailure)
		return "", transportErr
	}
	defer resp.Body.Close()

	text, err := readBody(resp)
	if err != nil {
		transportErr := errors.NewTransportError("failed to read extraction response", err).
			WithContext("mode", string(mode)).
			WithContext("status", resp.StatusCode)
		logger.WithError(transportErr).Error("Reading extraction response failed")
		c.countStatus(StatusTransportFailure)
		return "", transportErr
	}

	c.countStatus(statusClass(resp.StatusCode))

	logger = logger.
		WithContext("status", resp.StatusCode).
		WithContext("response_bytes", len(text)).
		WithContext("duration_ms", time.Since(start).Milliseconds())
	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warn("Extraction API returned an error status")
	} else {
		logger.Info("Extraction request completed")
	}

	return text, nil
}

// StatusCounts returns how many requests ended in each outcome: an HTTP
// status class such as "2xx" or "4xx", StatusMissingCredential, or
// StatusTransportFailure.
func (c *Client) StatusCounts() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[string]int64, len(c.statuses))
	for class, n := range c.statuses {
		counts[class] = n
	}
	return counts
}

func (c *Client) countStatus(class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[class]++
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// readBody returns the decoded response body. Accept-Encoding is set
// explicitly, so the transport leaves gzip bodies compressed.
func readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body

	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
