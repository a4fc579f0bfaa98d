// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpx provides an HTTP client with retry, backoff, and rate limit
// handling, shared by every outbound collaborator the kernel talks to: LLM
// providers, the sandbox, the browser driver, and the search client.
package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
)

// RetryStrategy defines how to handle a failed response.
type RetryStrategy int

const (
	NoRetry RetryStrategy = iota
	ConservativeRetry
	SmartRetry
)

// RateLimitInfo carries rate-limit hints parsed from response headers.
type RateLimitInfo struct {
	RetryAfter      time.Duration
	ResetTime       int64
	TokensRemaining int
}

// HeaderParser extracts rate limit info from response headers.
type HeaderParser func(http.Header) RateLimitInfo

// StrategyFunc decides the retry strategy for a status code.
type StrategyFunc func(int) RetryStrategy

// Client wraps http.Client with retry and backoff.
type Client struct {
	client       *http.Client
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	headerParser HeaderParser
	strategyFunc StrategyFunc

	// inflight bounds concurrent in-flight requests across every caller
	// sharing this Client, e.g. all of one agent's sandbox tool calls going
	// through that agent's sandboxclient. Nil (the default) means unbounded.
	inflight *semaphore.Weighted
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

func WithMaxRetries(max int) Option {
	return func(c *Client) { c.maxRetries = max }
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Client) { c.maxDelay = d }
}

func WithHeaderParser(p HeaderParser) Option {
	return func(c *Client) { c.headerParser = p }
}

func WithRetryStrategy(f StrategyFunc) Option {
	return func(c *Client) { c.strategyFunc = f }
}

// WithConcurrencyLimit bounds the number of requests this Client will
// have in flight at once; callers beyond the limit block in Do until a
// slot frees up or their request's context is cancelled.
func WithConcurrencyLimit(n int) Option {
	return func(c *Client) { c.inflight = semaphore.NewWeighted(int64(n)) }
}

// New builds a Client with sane defaults, overridable via Option.
func New(opts ...Option) *Client {
	c := &Client{
		client:       &http.Client{Timeout: 120 * time.Second},
		maxRetries:   5,
		baseDelay:    2 * time.Second,
		maxDelay:     60 * time.Second,
		strategyFunc: DefaultStrategy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultStrategy maps common status codes to a retry strategy.
func DefaultStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return SmartRetry
	case http.StatusRequestTimeout, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Do executes req, retrying on transient failures per the configured
// strategy. If a concurrency limit is set, Do blocks until a slot is free
// or req's context is cancelled.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.inflight != nil {
		if err := c.inflight.Acquire(req.Context(), 1); err != nil {
			return nil, fmt.Errorf("httpx: acquire concurrency slot: %w", err)
		}
		defer c.inflight.Release(1)
	}

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, strategy, info, err := c.attempt(req)
		if err == nil {
			return resp, nil
		}
		if strategy == NoRetry {
			// A non-retryable status is handed back as a response so the
			// caller can read its body; only transport failures are errors.
			if resp != nil {
				return resp, nil
			}
			return nil, err
		}
		if attempt >= c.maxRetries {
			return resp, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, err)
		}

		delay := c.calculateDelay(strategy, attempt, info)
		if delay <= 0 {
			return resp, err
		}
		slog.Info("retrying http request", "url", req.URL.String(), "attempt", attempt+1, "delay", delay)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("max retries exceeded")
}

func (c *Client) attempt(req *http.Request) (*http.Response, RetryStrategy, RateLimitInfo, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NoRetry, RateLimitInfo{}, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, NoRetry, RateLimitInfo{}, nil
	}
	var info RateLimitInfo
	if c.headerParser != nil {
		info = c.headerParser(resp.Header)
	}
	return resp, c.strategyFunc(resp.StatusCode), info, fmt.Errorf("http %d", resp.StatusCode)
}

func (c *Client) calculateDelay(strategy RetryStrategy, attempt int, info RateLimitInfo) time.Duration {
	switch strategy {
	case SmartRetry:
		if info.RetryAfter > 0 {
			return info.RetryAfter
		}
		if info.ResetTime > 0 {
			if d := time.Until(time.Unix(info.ResetTime, 0)); d > 0 {
				return min(d, c.maxDelay)
			}
		}
		delay := time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
		jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
		return min(delay+jitter, c.maxDelay)
	case ConservativeRetry:
		if attempt >= 2 {
			return 0
		}
		return time.Duration(2+attempt) * time.Second
	default:
		return 0
	}
}

// DecodeJSONError attempts to pull a human-readable message out of a
// non-2xx JSON response body, falling back to a truncated raw dump.
func DecodeJSONError(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return ""
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
