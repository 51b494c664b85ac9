// Package httpclient provides an HTTP client with status-aware retries
// for agents calling external endpoints.
package httpclient

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

type RetryStrategy int

const (
	NoRetry RetryStrategy = iota
	ConservativeRetry
	HeaderAwareRetry
)

// RetryStrategyFunc maps a response status code to a retry strategy
type RetryStrategyFunc func(int) RetryStrategy

type Client struct {
	client       *http.Client
	maxRetries   int
	baseDelay    time.Duration
	strategyFunc RetryStrategyFunc
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithMaxRetries(max int) Option {
	return func(c *Client) {
		c.maxRetries = max
	}
}

func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

func WithRetryStrategy(strategyFunc RetryStrategyFunc) Option {
	return func(c *Client) {
		c.strategyFunc = strategyFunc
	}
}

func New(opts ...Option) *Client {
	client := &Client{
		client:       &http.Client{Timeout: 60 * time.Second},
		maxRetries:   3,
		baseDelay:    time.Second,
		strategyFunc: DefaultRetryStrategy,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func DefaultRetryStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return HeaderAwareRetry
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Do executes the request, retrying retryable status codes with
// exponential backoff. A Retry-After header, when present, overrides the
// computed delay. The request body must be replayable via GetBody for
// retries to work.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, fmt.Errorf("failed to recreate request body for retry: %w", berr)
			}
			req.Body = body
		}

		resp, err = c.client.Do(req.WithContext(req.Context()))
		if err != nil {
			return nil, err
		}

		strategy := c.strategyFunc(resp.StatusCode)
		if strategy == NoRetry {
			return resp, nil
		}

		if attempt >= c.maxRetries {
			resp.Body.Close()
			return nil, &RetryableError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("max HTTP retries (%d) exceeded", c.maxRetries),
			}
		}

		delay := c.calculateDelay(strategy, attempt, resp.Header)
		resp.Body.Close()

		slog.Debug("retrying HTTP request",
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"delay", delay)

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}

	return resp, err
}

func (c *Client) calculateDelay(strategy RetryStrategy, attempt int, headers http.Header) time.Duration {
	if strategy == HeaderAwareRetry {
		if retryAfter := parseRetryAfter(headers); retryAfter > 0 {
			return retryAfter
		}
	}
	return time.Duration(float64(c.baseDelay) * math.Pow(2, float64(attempt)))
}

func parseRetryAfter(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
