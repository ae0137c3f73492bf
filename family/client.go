package family

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ClientOption configures FuzzyClient.
type ClientOption func(*FuzzyClient)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *FuzzyClient) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *FuzzyClient) { c.client = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *FuzzyClient) { c.logger = l }
}

// FuzzyClient is a FuzzyBackend speaking JSON over HTTP.
type FuzzyClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewFuzzyClient creates a client posting to url.
func NewFuzzyClient(url string, opts ...ClientOption) *FuzzyClient {
	c := &FuzzyClient{
		url:     url,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Forecast posts req and decodes the response document.
func (c *FuzzyClient) Forecast(ctx context.Context, req *FuzzyPayload) (*FuzzyPayload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode fuzzy request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("fuzzy backend call",
		zap.String("url", c.url),
		zap.Int("order", req.Order),
		zap.Int("rows", len(req.Rows)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}

	var out FuzzyPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return &out, nil
}
