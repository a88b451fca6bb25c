// Copyright 2025 The Stadiums Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the coordinate type shared by the geocoder, the
// archive and the HTTP API.
package spatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadius = 6371e3 // meters

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String returns the coordinate as "(lat, lon)" using the shortest
// representation that parses back to the same floats.
func (c Coordinate) String() string {
	return "(" + strconv.FormatFloat(c.Lat, 'f', -1, 64) +
		", " + strconv.FormatFloat(c.Lon, 'f', -1, 64) + ")"
}

// ParseCoordinate parses the "(lat, lon)" form produced by String.
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return Coordinate{}, fmt.Errorf("spatial: malformed coordinate %q", s)
	}

	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("spatial: malformed coordinate %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("spatial: parsing latitude in %q: %w", s, err)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("spatial: parsing longitude in %q: %w", s, err)
	}

	return Coordinate{Lat: lat, Lon: lon}, nil
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (c Coordinate) HaversineDistance(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	b := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * b
}
