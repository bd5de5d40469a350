// Package api holds the HTTP clients for the pools and vote-optimization APIs. Responses are
// decoded into partial records here and converted to model types before leaving the package.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig configures the shared JSON client.
type ClientConfig struct {
	Timeout         time.Duration
	BearerToken     string
	RequestInterval time.Duration
	UserAgent       string
}

// Client performs JSON GET requests.
type Client struct {
	http    *http.Client
	token   string
	agent   string
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		token:   cfg.BearerToken,
		agent:   cfg.UserAgent,
		limiter: limiter,
		logger:  logger,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.http = client
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &FetchError{URL: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("http get",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("body: %s", truncate(body, 256))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse JSON: %w", err)}
	}
	return nil
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
