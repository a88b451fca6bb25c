// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding turns free-text place descriptions into coordinates.
package geocoding

import (
	"context"

	"github.com/footballde/stadiums/spatial"
)

// Geocoder resolves a single query string.
//
// A nil coordinate with a nil error means the service had no result for the
// query. Errors are reserved for queries that could not be completed.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*spatial.Coordinate, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, query string) (*spatial.Coordinate, error)

// Geocode calls f(ctx, query).
func (f GeocoderFunc) Geocode(ctx context.Context, query string) (*spatial.Coordinate, error) {
	return f(ctx, query)
}
