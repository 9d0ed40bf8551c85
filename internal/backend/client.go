// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package backend is the HTTP client for the external trading data API,
// which owns persistence for trades, screening results, access records,
// and access requests. All calls are circuit-breaker protected so a
// slow or dead backend degrades this service instead of hanging it.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tradewatch/tradewatch/internal/logging"
)

var (
	// ErrNotFound is returned when the backend has no such resource.
	ErrNotFound = errors.New("backend: not found")

	// ErrUnavailable is returned when the backend cannot be reached or
	// the circuit breaker is open.
	ErrUnavailable = errors.New("backend: unavailable")
)

// Config configures the backend client.
type Config struct {
	// BaseURL is the data API's base URL, without a trailing slash.
	BaseURL string

	// ServiceToken authenticates this service to the data API.
	ServiceToken string

	// Timeout bounds each request.
	Timeout time.Duration

	// BreakerMaxFailures opens the circuit after this many consecutive
	// failures.
	BreakerMaxFailures uint32

	// BreakerOpenTimeout is how long the circuit stays open before
	// probing again.
	BreakerOpenTimeout time.Duration
}

// Client is the data API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a backend client with circuit breaker protection.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	cbName := "trading-data-api"
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("backend circuit breaker state change")
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// Only transport failures and 5xx trip the breaker. A 404 for a
		// principal with no access record is a routine answer.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.ServiceToken,
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
	}
}

// do performs one request through the circuit breaker and returns the
// response body. Client errors (4xx) do not trip the breaker; only
// transport failures and 5xx responses count against it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	start := time.Now()

	data, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, query, body)
	})

	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
		err = fmt.Errorf("%w: %s %s: circuit open", ErrUnavailable, method, path)
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "failure"
	}
	requestsTotal.WithLabelValues(method, outcome).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	return data, err
}

// roundTrip is the single uninstrumented request path.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("backend: %s %s: status %d: %s", method, path, resp.StatusCode, truncate(respBody, 256))
	}

	return respBody, nil
}

// getJSON performs a GET and decodes the response into T.
func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return decode[T](data)
}

// sendJSON performs a write request and decodes the response into T.
func sendJSON[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	data, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	return decode[T](data)
}

func decode[T any](data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
