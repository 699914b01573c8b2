// Package infoapi is a client for the DEX analytics GraphQL endpoint.
package infoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dex-info-search/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRateLimit   = 10 // requests per second
	DefaultFirst       = 100
)

// ErrRateLimited is wrapped by APIError when the endpoint kept answering 429.
var ErrRateLimited = errors.New("rate limited")

// APIError is a non-transport failure reported by the endpoint.
type APIError struct {
	StatusCode int      // HTTP status; 200 for GraphQL errors
	Messages   []string // GraphQL error messages or response body
	Err        error    // optional cause
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.StatusCode != http.StatusOK {
		return fmt.Sprintf("info api status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("info api: %s", msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client queries the analytics endpoint with retries and client-side rate limiting.
type Client struct {
	endpoint    string
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	first       int
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithRateLimit sets requests per second and burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithFirst sets how many entities each search requests.
func WithFirst(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.first = n
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new info API client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		first:       DefaultFirst,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// gqlRequest is a GraphQL POST body.
type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// gqlResponse is a GraphQL response envelope.
type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// query performs a GraphQL request with retries and exponential backoff.
// Transport failures, 429 and 5xx are retried; GraphQL errors are not.
func (c *Client) query(ctx context.Context, operation, document string, vars map[string]interface{}, result interface{}) (err error) {
	defer func(start time.Time) {
		observability.RecordInfoAPICall(operation, time.Since(start).Seconds(), err)
	}(time.Now())

	body, err := json.Marshal(gqlRequest{Query: document, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = &APIError{StatusCode: resp.StatusCode, Messages: []string{"too many requests"}, Err: ErrRateLimited}
			continue
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = &APIError{StatusCode: resp.StatusCode, Messages: []string{string(respBody)}}
			continue
		case resp.StatusCode != http.StatusOK:
			return &APIError{StatusCode: resp.StatusCode, Messages: []string{string(respBody)}}
		}

		var gqlResp gqlResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if len(gqlResp.Errors) > 0 {
			apiErr := &APIError{StatusCode: http.StatusOK}
			for _, e := range gqlResp.Errors {
				apiErr.Messages = append(apiErr.Messages, e.Message)
			}
			return apiErr
		}

		if result != nil && gqlResp.Data != nil {
			if err := json.Unmarshal(gqlResp.Data, result); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
