// Package raindrop talks to the Raindrop.io REST API. Every request passes
// through a shared RateLimiter and is retried a bounded number of times.
package raindrop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/nikbrunner/rainmd/internal/logging"
	"github.com/nikbrunner/rainmd/internal/metrics"
)

const (
	DefaultBaseURL    = "https://api.raindrop.io/rest/v1"
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second

	defaultTimeout = 30 * time.Second
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientParams configures a Client. Only Token is required.
type ClientParams struct {
	Token      string
	BaseURL    string
	HTTP       Doer
	Limiter    *RateLimiter
	MaxRetries int
	RetryDelay time.Duration
	Logger     logging.Logger
	Metrics    *metrics.Metrics
}

// Client is an authenticated Raindrop.io API client.
type Client struct {
	token      string
	baseURL    string
	http       Doer
	limiter    *RateLimiter
	maxRetries int
	retryDelay time.Duration
	log        logging.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a client. Returns ErrMissingToken if the token is blank.
func NewClient(p ClientParams) (*Client, error) {
	token := strings.TrimSpace(p.Token)
	if token == "" {
		return nil, ErrMissingToken
	}

	c := &Client{
		token:      token,
		baseURL:    strings.TrimRight(p.BaseURL, "/"),
		http:       p.HTTP,
		limiter:    p.Limiter,
		maxRetries: p.MaxRetries,
		retryDelay: p.RetryDelay,
		log:        p.Logger,
		metrics:    p.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(DefaultRequestsPerMinute, DefaultRequestDelay)
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	return c, nil
}

// Limiter returns the rate limiter shared by all requests of this client.
func (c *Client) Limiter() *RateLimiter { return c.limiter }

// getJSON fetches path and decodes the body into out. Every attempt first
// waits on the rate limiter. A rate-limit rejection resets the limiter and
// doubles the wait before the next attempt.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rateLimited bool
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if rateLimited {
			return 2 * c.retryDelay, false
		}
		return c.retryDelay, false
	})

	attempt := 0
	return retry.Do(ctx, retry.WithMaxRetries(uint64(c.maxRetries-1), backoff), func(ctx context.Context) error {
		attempt++
		rateLimited = false

		if err := c.limiter.CheckLimit(ctx); err != nil {
			return err
		}

		err := c.do(ctx, endpoint, u, out)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return err
		}

		reason := "error"
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimit() {
			rateLimited = true
			reason = "rate_limit"
			c.limiter.ResetCounter()
		}
		c.metrics.ObserveRetry(reason)
		c.log.Warn(ctx, "raindrop request failed",
			"endpoint", endpoint,
			"attempt", attempt,
			"max_attempts", c.maxRetries,
			"reason", reason,
			"error", err,
		)
		return retry.RetryableError(err)
	})
}

func (c *Client) do(ctx context.Context, endpoint, u string, out any) error {
	apiErr := &APIError{Method: http.MethodGet, URL: u}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		apiErr.Err = fmt.Errorf("create request: %w", err)
		return apiErr
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		apiErr.Err = err
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))

	apiErr.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr.Err = fmt.Errorf("read response: %w", err)
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr.Body = string(body)
		apiErr.Err = errors.New(http.StatusText(resp.StatusCode))
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		apiErr.Body = string(body)
		apiErr.Err = fmt.Errorf("decode response: %w", err)
		return apiErr
	}
	return nil
}
