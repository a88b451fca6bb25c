// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientOptions configures the RoundTripper chain built by NewClient.
type ClientOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Accept header, defaults to */*
	Accept string

	// Timeout of the whole exchange: every attempt, the waits between them
	// and reading the body
	Timeout time.Duration

	// AttemptTimeout bounds each attempt. Unlike Timeout it leaves out the
	// waits between attempts.
	AttemptTimeout time.Duration

	// Retry policy for retryable statuses. Zero value means a single attempt.
	Retry RetryPolicy

	// Limiter paces every attempt, retries included
	Limiter *rate.Limiter

	// TraceWriter receives request/response dumps when not nil
	TraceWriter io.Writer

	// TraceBody also dumps bodies
	TraceBody bool

	// Transport is the innermost RoundTripper. Defaults to a pooled transport.
	Transport http.RoundTripper
}

// NewClient builds an http.Client whose requests go through, from the
// outside in: header injection, retries, rate limiting and tracing.
func NewClient(options ClientOptions) *http.Client {
	transport := options.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		}
	}

	loggingTransport := &LoggingRoundTripper{
		Writer:    options.TraceWriter,
		DumpBody:  options.TraceBody,
		Transport: transport,
	}

	limitTransport := &RateLimitRoundTripper{
		Limiter:   options.Limiter,
		Transport: loggingTransport,
	}

	retryTransport := &RetryRoundTripper{
		Policy:         options.Retry,
		AttemptTimeout: options.AttemptTimeout,
		Transport:      limitTransport,
	}

	accept := options.Accept
	if accept == "" {
		accept = "*/*"
	}

	headers := map[string]string{"Accept": accept}
	if options.UserAgent != "" {
		headers["User-Agent"] = options.UserAgent
	}

	return &http.Client{
		Timeout: options.Timeout,
		Transport: &AppendRequestHeadersRoundTripper{
			Headers:   headers,
			Transport: retryTransport,
		},
	}
}
