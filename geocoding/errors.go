// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError represents a query that the geocoding service could not
// complete.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown unknown error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound endpoint answered 404.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest invalid request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network or upstream availability error.
	ErrorTypeNetworkError
	// ErrorTypeInvalidResponse the response body could not be decoded.
	ErrorTypeInvalidResponse
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:         "unknown",
	ErrorTypeRateLimit:       "rate_limit",
	ErrorTypeQuotaExceeded:   "quota_exceeded",
	ErrorTypeTimeout:         "timeout",
	ErrorTypeNotFound:        "not_found",
	ErrorTypeInvalidRequest:  "invalid_request",
	ErrorTypeNetworkError:    "network",
	ErrorTypeInvalidResponse: "invalid_response",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err comes from the service's rate limit.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError maps an unexpected HTTP status to a GeocodingError.
// body is an excerpt of the response, attached to the message when present.
func ClassifyHTTPError(statusCode int, body string) *GeocodingError {
	var geoErr *GeocodingError

	switch statusCode {
	case http.StatusTooManyRequests:
		geoErr = &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit reached"}
	case http.StatusForbidden:
		geoErr = &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded or access denied"}
	case http.StatusBadRequest:
		geoErr = &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "invalid request"}
	case http.StatusNotFound:
		geoErr = &GeocodingError{Type: ErrorTypeNotFound, Message: "endpoint not found"}
	case http.StatusInternalServerError, http.StatusServiceUnavailable,
		http.StatusBadGateway, http.StatusGatewayTimeout:
		geoErr = &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		geoErr = &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}

	if body = strings.TrimSpace(body); body != "" {
		geoErr.Message += ": " + body
	}

	return geoErr
}
