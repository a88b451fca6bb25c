// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

// Package stadiums extracts football stadiums from a web page, enriches them
// with coordinates and archives the results.
package stadiums

import (
	"fmt"

	"github.com/footballde/stadiums/spatial"
)

// RawStadiumRow is a table entry as scraped. Optional fields are empty
// strings when absent.
type RawStadiumRow struct {
	StadiumName  string `json:"stadium_name"`
	CapacityText string `json:"capacity_text"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	City         string `json:"city"`
}

// complete reports whether the row carries the fields every later stage
// depends on.
func (r *RawStadiumRow) complete() bool {
	return r.StadiumName != "" && r.CapacityText != "" && r.Country != ""
}

// LocationState tells apart the outcomes of geocoding a record.
type LocationState int

const (
	// Unattempted records were never geocoded.
	Unattempted LocationState = iota
	// Resolved records carry a coordinate.
	Resolved
	// NotFound records were geocoded without success.
	NotFound
)

// NotFoundSentinel is the text form of a NotFound location.
const NotFoundSentinel = "Location not found"

// Location is the geocoding outcome of a record.
type Location struct {
	State      LocationState
	Coordinate spatial.Coordinate
}

// LocationAt returns a Resolved location.
func LocationAt(c spatial.Coordinate) Location {
	return Location{State: Resolved, Coordinate: c}
}

// LocationNotFound is the outcome of a record that every geocoding attempt
// missed.
var LocationNotFound = Location{State: NotFound}

// String returns "", "(lat, lon)" or NotFoundSentinel.
func (l Location) String() string {
	switch l.State {
	case Resolved:
		return l.Coordinate.String()
	case NotFound:
		return NotFoundSentinel
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Location) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case "":
		*l = Location{}
	case NotFoundSentinel:
		*l = LocationNotFound
	default:
		c, err := spatial.ParseCoordinate(s)
		if err != nil {
			return fmt.Errorf("parsing location: %w", err)
		}

		*l = LocationAt(c)
	}

	return nil
}

// ResolutionPass names the geocoding pass that resolved a record.
type ResolutionPass string

// Resolution passes.
const (
	ResolvedByPrimary  ResolutionPass = "primary"
	ResolvedByFallback ResolutionPass = "fallback"
)

// StadiumRecord is a normalized, geocoded stadium.
type StadiumRecord struct {
	RawStadiumRow

	Capacity            int            `json:"capacity"`
	OriginalStadiumName string         `json:"original_stadium_name"`
	Location            Location       `json:"location"`
	Lat                 *float64       `json:"lat"`
	Lon                 *float64       `json:"lon"`
	ResolvedBy          ResolutionPass `json:"resolved_by,omitempty"`
}

// SetLocation updates Location and keeps Lat/Lon consistent with it.
func (r *StadiumRecord) SetLocation(l Location) {
	r.Location = l
	r.Lat, r.Lon = nil, nil

	if l.State == Resolved {
		lat, lon := l.Coordinate.Lat, l.Coordinate.Lon
		r.Lat, r.Lon = &lat, &lon
	}
}

// Validate checks that Lat/Lon are populated iff Location is resolved.
func (r *StadiumRecord) Validate() error {
	hasCoords := r.Lat != nil && r.Lon != nil
	if (r.Lat == nil) != (r.Lon == nil) {
		return fmt.Errorf("%s: %w: only one of lat/lon is set", r.StadiumName, ErrInconsistentLocation)
	}

	if hasCoords != (r.Location.State == Resolved) {
		return fmt.Errorf("%s: %w: location %q with lat/lon set=%v",
			r.StadiumName, ErrInconsistentLocation, r.Location, hasCoords)
	}

	return nil
}
