// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/footballde/stadiums/spatial"
)

// ResolverMetrics counts the queries issued by a Resolver. RateLimited and
// Timeouts break down Failures.
type ResolverMetrics struct {
	Queries     int
	Hits        int
	Misses      int
	Failures    int
	RateLimited int
	Timeouts    int
}

func (m ResolverMetrics) String() string {
	return fmt.Sprintf("queries=%d hits=%d misses=%d failures=%d (rate limited=%d timeouts=%d)",
		m.Queries, m.Hits, m.Misses, m.Failures, m.RateLimited, m.Timeouts)
}

// Resolver tries a prioritized list of query variants for a stadium and
// keeps the first coordinate returned. It is safe for concurrent use when
// its Geocoder is.
type Resolver struct {
	Geocoder Geocoder

	mu      sync.Mutex
	metrics ResolverMetrics
}

// NewResolver returns a Resolver that queries g.
func NewResolver(g Geocoder) *Resolver {
	return &Resolver{Geocoder: g}
}

// Metrics returns a snapshot of the counters.
func (r *Resolver) Metrics() ResolverMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.metrics
}

func (r *Resolver) count(f func(m *ResolverMetrics)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f(&r.metrics)
}

// Counts a failed query and logs it.
func (r *Resolver) failed(query string, err error) {
	rateLimited, timeout := IsRateLimitError(err), IsTimeoutError(err)

	r.count(func(m *ResolverMetrics) {
		m.Failures++

		switch {
		case rateLimited:
			m.RateLimited++
		case timeout:
			m.Timeouts++
		}
	})

	switch {
	case rateLimited:
		log.Printf("geocoding %q: rate limited: %v", query, err)
	case timeout:
		log.Printf("geocoding %q: timed out: %v", query, err)
	default:
		log.Printf("geocoding %q: %v", query, err)
	}
}

// Variants returns the queries tried for a stadium, most specific first.
// city may embed a region after a comma ("Manchester, Greater Manchester").
// The last variants only name the city: they are tried once every
// stadium-based query failed.
func Variants(country, stadiumName, city string) []string {
	queries := []string{
		fmt.Sprintf("%s, %s", stadiumName, country),
		fmt.Sprintf("%s stadium, %s", stadiumName, country),
		fmt.Sprintf("%s arena, %s", stadiumName, country),
		fmt.Sprintf("%s field, %s", stadiumName, country),
	}

	city = strings.TrimSpace(city)
	if city == "" {
		return queries
	}

	cityParts := strings.Split(city, ",")
	mainCity := strings.TrimSpace(cityParts[0])

	queries = append(queries,
		fmt.Sprintf("%s, %s, %s", stadiumName, mainCity, country),
		fmt.Sprintf("%s stadium, %s, %s", stadiumName, mainCity, country),
		fmt.Sprintf("%s arena, %s, %s", stadiumName, mainCity, country),
	)

	if len(cityParts) > 1 {
		queries = append(queries,
			fmt.Sprintf("%s, %s, %s", stadiumName, city, country),
			fmt.Sprintf("%s stadium, %s, %s", stadiumName, city, country),
		)
	}

	return append(queries,
		fmt.Sprintf("%s, %s", city, country),
		fmt.Sprintf("%s, %s", mainCity, country),
	)
}

// Resolve returns the coordinate of the first variant the geocoder answers.
// A query that fails is logged and the next variant is tried. A nil
// coordinate means that every variant was exhausted; the only error returned
// is the cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, country, stadiumName, city string) (*spatial.Coordinate, error) {
	for _, query := range Variants(country, stadiumName, city) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.count(func(m *ResolverMetrics) { m.Queries++ })

		coord, err := r.Geocoder.Geocode(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			r.failed(query, err)

			continue
		}

		if coord != nil {
			r.count(func(m *ResolverMetrics) { m.Hits++ })

			return coord, nil
		}

		r.count(func(m *ResolverMetrics) { m.Misses++ })
	}

	return nil, nil
}
