// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/footballde/stadiums/spatial"
	"github.com/footballde/stadiums/utils/httputils"
	"golang.org/x/time/rate"
)

const (
	// DefaultNominatimEndpoint is the public OpenStreetMap search endpoint.
	DefaultNominatimEndpoint = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies the client, as required by the Nominatim
	// usage policy.
	DefaultUserAgent = "FootballDataEngineering/1.0"
	// DefaultRetryDelay is the base of the linear backoff between attempts.
	DefaultRetryDelay = 2 * time.Second
	// DefaultMaxAttempts bounds the attempts of a single query.
	DefaultMaxAttempts = 3
)

// DefaultRetryPolicy retries rate limited and busy answers with a linear
// backoff of base, 2*base, …
func DefaultRetryPolicy(base time.Duration) httputils.RetryPolicy {
	return httputils.RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       httputils.LinearBackoff(base),
		Retryable: httputils.RetryOnStatus(
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusServiceUnavailable,
		),
	}
}

// NominatimOptions configures a NominatimGeocoder. Zero values take the
// defaults.
type NominatimOptions struct {
	Endpoint  string
	UserAgent string

	// Timeout of each attempt of a query. The waits of the retry policy
	// come on top of it.
	Timeout time.Duration

	// Retry defaults to DefaultRetryPolicy(DefaultRetryDelay).
	Retry *httputils.RetryPolicy

	// RequestsPerSecond paces outgoing requests; <= 0 disables pacing.
	RequestsPerSecond float64

	TraceWriter io.Writer
	TraceBody   bool

	// Transport overrides the base transport (tests).
	Transport http.RoundTripper
}

// NominatimGeocoder queries an OpenStreetMap Nominatim instance.
type NominatimGeocoder struct {
	endpoint   string
	retry      httputils.RetryPolicy
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(options NominatimOptions) *NominatimGeocoder {
	endpoint := options.Endpoint
	if endpoint == "" {
		endpoint = DefaultNominatimEndpoint
	}

	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retry := DefaultRetryPolicy(DefaultRetryDelay)
	if options.Retry != nil {
		retry = *options.Retry
	}

	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}

	return &NominatimGeocoder{
		endpoint: endpoint,
		retry:    retry,
		httpClient: httputils.NewClient(httputils.ClientOptions{
			UserAgent:      userAgent,
			Accept:         "application/json",
			AttemptTimeout: timeout,
			Retry:          retry,
			Limiter:        limiter,
			TraceWriter:    options.TraceWriter,
			TraceBody:      options.TraceBody,
			Transport:      options.Transport,
		}),
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*spatial.Coordinate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
		}

		return nil, &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
	}

	defer resp.Body.Close()

	if g.retry.Exhausted(resp) {
		log.Printf("nominatim: giving up on %q after status %d", query, resp.StatusCode)

		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))

		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidResponse, Message: "decoding response", Err: err}
	}

	if len(places) == 0 {
		return nil, nil
	}

	return parsePlace(places[0])
}

func parsePlace(place nominatimPlace) (*spatial.Coordinate, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidResponse,
			Message: fmt.Sprintf("latitude of %q", place.DisplayName),
			Err:     err,
		}
	}

	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidResponse,
			Message: fmt.Sprintf("longitude of %q", place.DisplayName),
			Err:     err,
		}
	}

	return &spatial.Coordinate{Lat: lat, Lon: lon}, nil
}
