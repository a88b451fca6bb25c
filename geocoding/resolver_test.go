// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/footballde/stadiums/spatial"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariants(t *testing.T) {
	tests := []struct {
		name     string
		city     string
		expected []string
	}{
		{
			name: "without city",
			expected: []string{
				"Wembley, England",
				"Wembley stadium, England",
				"Wembley arena, England",
				"Wembley field, England",
			},
		},
		{
			name: "plain city",
			city: "London",
			expected: []string{
				"Wembley, England",
				"Wembley stadium, England",
				"Wembley arena, England",
				"Wembley field, England",
				"Wembley, London, England",
				"Wembley stadium, London, England",
				"Wembley arena, London, England",
				"London, England",
				"London, England",
			},
		},
		{
			name: "city with region",
			city: "London, Greater London",
			expected: []string{
				"Wembley, England",
				"Wembley stadium, England",
				"Wembley arena, England",
				"Wembley field, England",
				"Wembley, London, England",
				"Wembley stadium, London, England",
				"Wembley arena, London, England",
				"Wembley, London, Greater London, England",
				"Wembley stadium, London, Greater London, England",
				"London, Greater London, England",
				"London, England",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variants("England", "Wembley", tt.city)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Variants() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_ShortCircuitsOnFirstResult(t *testing.T) {
	stub := newCountingGeocoder()
	stub.answers["Old Trafford stadium, England"] = &spatial.Coordinate{Lat: 53.46, Lon: -2.29}

	r := NewResolver(stub)

	coord, err := r.Resolve(context.Background(), "England", "Old Trafford", "Manchester, Greater Manchester")
	require.NoError(t, err)
	require.NotNil(t, coord)

	assert.Equal(t, []string{"Old Trafford, England", "Old Trafford stadium, England"}, stub.order)
	assert.Equal(t, ResolverMetrics{Queries: 2, Hits: 1, Misses: 1}, r.Metrics())
}

func TestResolver_ContinuesPastFailingVariants(t *testing.T) {
	stub := newCountingGeocoder()
	stub.errs["Anfield, England"] = &GeocodingError{Type: ErrorTypeNetworkError, Message: "connection reset"}
	stub.errs["Anfield stadium, England"] = ClassifyHTTPError(400, "")
	stub.answers["Anfield arena, England"] = &spatial.Coordinate{Lat: 53.43, Lon: -2.96}

	r := NewResolver(stub)

	coord, err := r.Resolve(context.Background(), "England", "Anfield", "")
	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.Equal(t, 53.43, coord.Lat)
	assert.Equal(t, 2, r.Metrics().Failures)
}

func TestResolver_ClassifiesFailures(t *testing.T) {
	stub := newCountingGeocoder()
	stub.errs["Anfield, England"] = ClassifyHTTPError(429, "")
	stub.errs["Anfield stadium, England"] = &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out"}
	stub.errs["Anfield arena, England"] = ClassifyHTTPError(400, "")

	r := NewResolver(stub)

	coord, err := r.Resolve(context.Background(), "England", "Anfield", "")
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, ResolverMetrics{Queries: 4, Misses: 1, Failures: 3, RateLimited: 1, Timeouts: 1}, r.Metrics())
}

func TestResolver_ConcurrentUse(t *testing.T) {
	r := NewResolver(GeocoderFunc(func(_ context.Context, query string) (*spatial.Coordinate, error) {
		if query == "Anfield arena, England" {
			return &spatial.Coordinate{Lat: 53.43, Lon: -2.96}, nil
		}

		return nil, nil
	}))

	const workers = 16

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			coord, err := r.Resolve(context.Background(), "England", "Anfield", "")
			assert.NoError(t, err)
			assert.NotNil(t, coord)
		}()
	}

	wg.Wait()
	assert.Equal(t, ResolverMetrics{Queries: 3 * workers, Hits: workers, Misses: 2 * workers}, r.Metrics())
}

func TestResolver_FallsBackToCity(t *testing.T) {
	stub := newCountingGeocoder()
	stub.answers["Manchester, England"] = &spatial.Coordinate{Lat: 53.48, Lon: -2.24}

	r := NewResolver(stub)

	coord, err := r.Resolve(context.Background(), "England", "Old Trafford", "Manchester, Greater Manchester")
	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.Equal(t, "Manchester, England", stub.order[len(stub.order)-1])
	assert.Len(t, stub.order, 11)
}

func TestResolver_Exhausted(t *testing.T) {
	stub := newCountingGeocoder()
	r := NewResolver(stub)

	coord, err := r.Resolve(context.Background(), "England", "Old Trafford", "")
	require.NoError(t, err)
	assert.Nil(t, coord)
	assert.Equal(t, 4, r.Metrics().Misses)
}

func TestResolver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := NewResolver(GeocoderFunc(func(ctx context.Context, _ string) (*spatial.Coordinate, error) {
		cancel()

		return nil, ctx.Err()
	}))

	_, err := r.Resolve(ctx, "England", "Old Trafford", "")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, r.Metrics().Queries)
}
