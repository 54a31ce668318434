// Package sources implements the per-vendor threat-intel lookups §4.4
// aggregates: one Query per (ioc, ioc_type), each wrapped in the same
// circuit-breaker-plus-backoff shape the teacher uses for its LLM calls.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// ResilientConfig mirrors the teacher's ResilientClientConfig, generalized
// with a breaker Name so each source gets its own independent breaker.
type ResilientConfig struct {
	Name                 string
	EnableCircuitBreaker bool
	MaxFailures          uint32
	CircuitTimeout       time.Duration

	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ResilientClient wraps an *http.Client with a per-source circuit breaker
// and exponential backoff retry, grounded on the teacher's
// internal/adapter/llm/resilient_client.go.
type ResilientClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	config  ResilientConfig
}

func NewResilientClient(timeout time.Duration, cfg ResilientConfig) *ResilientClient {
	client := &http.Client{Timeout: timeout}

	var breaker *gobreaker.CircuitBreaker
	if cfg.EnableCircuitBreaker {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 1,
			Interval:    cfg.CircuitTimeout,
			Timeout:     cfg.CircuitTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
		})
	}

	return &ResilientClient{client: client, breaker: breaker, config: cfg}
}

func (c *ResilientClient) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.doWithRetry(req)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("%s: circuit breaker open: %w", c.config.Name, err)
		}
		return nil, err
	}
	return result.(*http.Response), nil
}

func (c *ResilientClient) doWithRetry(req *http.Request) (*http.Response, error) {
	if c.config.MaxRetries == 0 {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("%s: http %d", c.config.Name, resp.StatusCode)
		}
		return resp, nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.config.InitialInterval
	expBackoff.MaxInterval = c.config.MaxInterval
	expBackoff.Multiplier = 2.0
	expBackoff.MaxElapsedTime = 0

	retryBackoff := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.config.MaxRetries)), req.Context())

	var resp *http.Response
	var lastErr error
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	operation := func() error {
		if len(bodyBytes) > 0 {
			req.Body = io.NopCloser(strings.NewReader(string(bodyBytes)))
		}

		var err error
		resp, err = c.client.Do(req)
		if err != nil {
			lastErr = err
			if c.shouldRetry(err, nil) {
				return err
			}
			return backoff.Permanent(err)
		}

		if c.shouldRetry(nil, resp) {
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			resp.Body.Close()
			return lastErr
		}

		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			return backoff.Permanent(lastErr)
		}
		return nil
	}

	if err := backoff.Retry(operation, retryBackoff); err != nil {
		return nil, fmt.Errorf("%s: request failed after retries: %w", c.config.Name, lastErr)
	}
	return resp, nil
}

func (c *ResilientClient) shouldRetry(err error, resp *http.Response) bool {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		return strings.Contains(err.Error(), "connection refused") ||
			strings.Contains(err.Error(), "connection reset") ||
			strings.Contains(err.Error(), "EOF")
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusBadGateway, http.StatusInternalServerError:
			return true
		}
	}
	return false
}
