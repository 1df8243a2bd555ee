// Package upstream issues single parameterized requests against the
// financial-data API and classifies each outcome.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/index-back/pkg/config"
)

// Request describes one logical upstream query.
type Request struct {
	Function   string
	Symbol     string
	Interval   string
	OutputSize string
	FromSymbol string
	ToSymbol   string

	// Extra carries endpoint-specific parameters (series_type, market, ...).
	Extra map[string]string
}

// Client issues exactly one upstream request per Query call.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxBodySize int64
	logger      *logrus.Entry

	// Rate limiting: tokens drip in at the configured interval.
	limiter chan struct{}
}

// envelope catches the in-band error signaling the upstream uses alongside
// HTTP 200 responses.
type envelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// NewClient creates an upstream API client.
func NewClient(cfg *config.UpstreamConfig, logger *logrus.Logger) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxBodySize: cfg.MaxBodySize,
		logger:      logger.WithField("component", "upstream"),
	}

	if cfg.RateLimit > 0 {
		c.limiter = make(chan struct{}, 1)
		c.limiter <- struct{}{}
		go c.refillLoop(cfg.RateLimit)
	}

	return c
}

// refillLoop drips one token per interval so a burst of concurrent fetches
// cannot exhaust the upstream quota.
func (c *Client) refillLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		select {
		case c.limiter <- struct{}{}:
		default:
		}
	}
}

// Query issues the request and returns the raw JSON body on success. Failures
// come back as *TransportError, *APIError or *RateLimitError; the caller owns
// cache bookkeeping and fallback selection.
func (c *Client) Query(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.limiter != nil {
		select {
		case <-c.limiter:
		case <-ctx.Done():
			return nil, &TransportError{Err: ctx.Err()}
		}
	}

	u, err := c.buildURL(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, &TransportError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read body: %w", err)}
	}

	if err := classifyBody(body); err != nil {
		c.logger.WithFields(logrus.Fields{
			"function": req.Function,
			"symbol":   req.Symbol,
		}).WithError(err).Debug("Upstream signaled in-band error")
		return nil, err
	}

	return json.RawMessage(body), nil
}

// buildURL assembles the query string, always injecting the API key.
func (c *Client) buildURL(req Request) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	q := url.Values{}
	q.Set("function", req.Function)
	if req.Symbol != "" {
		q.Set("symbol", req.Symbol)
	}
	if req.Interval != "" {
		q.Set("interval", req.Interval)
	}
	if req.OutputSize != "" {
		q.Set("outputsize", req.OutputSize)
	}
	if req.FromSymbol != "" {
		q.Set("from_currency", req.FromSymbol)
	}
	if req.ToSymbol != "" {
		q.Set("to_currency", req.ToSymbol)
	}
	for k, v := range req.Extra {
		q.Set(k, v)
	}
	q.Set("apikey", c.apiKey)

	base.RawQuery = q.Encode()
	return base.String(), nil
}

// classifyBody inspects the body for in-band error signaling.
func classifyBody(body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Not an object (or not JSON at all); let normalization decide.
		return nil
	}

	if env.ErrorMessage != "" {
		return &APIError{Message: env.ErrorMessage}
	}
	if env.Note != "" {
		return &RateLimitError{Note: env.Note}
	}
	if env.Information != "" {
		return &RateLimitError{Note: env.Information}
	}

	return nil
}
