// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"time"
)

// RetryPolicy describes how many times a request is attempted and how long
// to wait between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// Delay returns the wait before the attempt that follows attempt
	// (1-based). A nil Delay doesn't wait.
	Delay func(attempt int) time.Duration

	// Retryable reports whether a response status deserves another attempt.
	Retryable func(status int) bool
}

// LinearBackoff waits base, 2*base, 3*base, … between attempts.
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// RetryOnStatus is a Retryable predicate matching the given statuses.
func RetryOnStatus(statuses ...int) func(int) bool {
	return func(status int) bool {
		return slices.Contains(statuses, status)
	}
}

// NoRetry attempts requests exactly once.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// Exhausted reports whether resp is the last answer of a request that kept
// failing with retryable statuses.
func (p RetryPolicy) Exhausted(resp *http.Response) bool {
	return resp != nil && p.Retryable != nil && p.Retryable(resp.StatusCode)
}

// RetryRoundTripper replays requests according to Policy. Network errors
// are returned as they are: only retryable statuses are replayed. When the
// attempts are exhausted the last response is returned to the caller.
type RetryRoundTripper struct {
	Transport http.RoundTripper
	Policy    RetryPolicy

	// AttemptTimeout bounds each attempt, reading the body of the returned
	// response included. The waits between attempts are not counted.
	AttemptTimeout time.Duration
}

// Releases the attempt context once the caller is done with the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	defer b.cancel()

	return b.ReadCloser.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *RetryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	maxAttempts := max(t.Policy.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		r := req
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}

			r = req.Clone(req.Context())
			r.Body = body
		}

		cancel := context.CancelFunc(func() {})
		if t.AttemptTimeout > 0 {
			var ctx context.Context

			ctx, cancel = context.WithTimeout(req.Context(), t.AttemptTimeout)
			r = r.WithContext(ctx)
		}

		resp, err := t.Transport.RoundTrip(r)
		if err != nil {
			cancel()

			return nil, err
		}

		if attempt >= maxAttempts || !t.Policy.Exhausted(resp) {
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

			return resp, nil
		}

		// the connection can only be reused once the body is consumed
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		cancel()

		var delay time.Duration
		if t.Policy.Delay != nil {
			delay = t.Policy.Delay(attempt)
		}

		log.Printf(
			"%s %s: status %d, retrying in %v (%d/%d)",
			req.Method, req.URL.Host, resp.StatusCode, delay, attempt, maxAttempts,
		)

		if err := sleep(req.Context(), delay); err != nil {
			return nil, err
		}
	}
}
