// Copyright 2025 walteh LLC
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

// Package request issues HTTP GET calls with bounded retry and exponential
// backoff. Transient server errors (502, 503, 504) and transport failures are
// retried; every other status is returned to the caller as-is for
// interpretation. The backoff is bare exponential (base^attempt seconds) with
// no jitter and no ceiling, kept for compatibility with the backends this was
// tuned against.
package request

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultMaxRetries is the number of attempts before giving up.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the base of the exponential backoff in seconds.
	DefaultBackoffBase = 2
)

// ErrMaxRetries is returned when every attempt was consumed without a
// returnable outcome.
var ErrMaxRetries = errors.New("max retries exceeded")

// Outcome is the result of a single completed HTTP call. The body is fully
// read and the connection released before the outcome is returned.
type Outcome struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Signer attaches credentials to an outgoing request.
type Signer interface {
	Sign(req *http.Request)
}

// HTTPClient is the subset of http.Client the executor needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Executor performs GET requests with retry. The zero value is not usable,
// construct with NewExecutor.
type Executor struct {
	client      HTTPClient
	maxRetries  int
	backoffBase float64
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(e *Executor) {
		e.client = c
	}
}

// WithMaxRetries overrides the attempt budget.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		e.maxRetries = n
	}
}

// WithBackoffBase overrides the exponential backoff base (seconds).
func WithBackoffBase(base float64) Option {
	return func(e *Executor) {
		e.backoffBase = base
	}
}

// WithSleep replaces the backoff sleep, used by tests to observe delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// NewExecutor creates an executor with the default retry policy.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		client:      http.DefaultClient,
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get issues a GET request to url, signing every attempt with signer. It
// returns the outcome of the first attempt that either succeeds (200) or fails
// permanently (any status outside 502/503/504). Transient statuses and
// transport errors are retried with exponential backoff until the attempt
// budget runs out, at which point the error wraps ErrMaxRetries.
func (e *Executor) Get(ctx context.Context, url string, signer Signer) (*Outcome, error) {
	logger := zerolog.Ctx(ctx)

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Errorf("creating request: %w", err)
		}
		if signer != nil {
			signer.Sign(req)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Errorf("request cancelled: %w", ctx.Err())
			}
			logger.Warn().Err(err).Int("attempt", attempt).Str("url", url).Msg("request failed, backing off")
			if err := e.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		outcome, err := drain(resp)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("url", url).Msg("reading response failed, backing off")
			if err := e.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		switch outcome.StatusCode {
		case http.StatusOK:
			return outcome, nil
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			logger.Warn().Int("status", outcome.StatusCode).Int("attempt", attempt).Str("url", url).Msg("transient server error, backing off")
			if err := e.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		default:
			// Permanent statuses (403, 404, ...) are the caller's problem.
			return outcome, nil
		}
	}

	logger.Error().Str("url", url).Int("max_retries", e.maxRetries).Msg("retry budget exhausted")
	return nil, errors.Errorf("requesting %s: %w", url, ErrMaxRetries)
}

// backoff sleeps base^attempt seconds, unless this was the final attempt.
func (e *Executor) backoff(ctx context.Context, attempt int) error {
	if attempt >= e.maxRetries-1 {
		return nil
	}
	d := time.Duration(math.Pow(e.backoffBase, float64(attempt)) * float64(time.Second))
	return e.sleep(ctx, d)
}

func drain(resp *http.Response) (*Outcome, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("reading response body: %w", err)
	}
	return &Outcome{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return errors.Errorf("backoff interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
