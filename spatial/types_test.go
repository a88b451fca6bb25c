// Copyright 2025 The Stadiums Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"
)

func TestCoordinateStringRoundTrip(t *testing.T) {
	tests := []Coordinate{
		{Lat: 53.4630589, Lon: -2.2913401},
		{Lat: 0, Lon: 0},
		{Lat: -34.8941, Lon: -56.1527},
	}

	for _, c := range tests {
		s := c.String()

		got, err := ParseCoordinate(s)
		if err != nil {
			t.Fatalf("parsing %q: %s", s, err)
		}

		if got != c {
			t.Errorf("%q: expected %v got %v", s, c, got)
		}
	}

	if expected, got := "(53.4630589, -2.2913401)", (Coordinate{53.4630589, -2.2913401}).String(); expected != got {
		t.Errorf("expected %q got %q", expected, got)
	}
}

func TestParseCoordinate_Malformed(t *testing.T) {
	for _, s := range []string{"", "53.4, -2.2", "(53.4)", "(a, b)", "(1, 2, 3)", "Location not found"} {
		if _, err := ParseCoordinate(s); err == nil {
			t.Errorf("%q: expected an error", s)
		}
	}
}

func TestHaversineDistance(t *testing.T) {
	oldTrafford := Coordinate{Lat: 53.4631, Lon: -2.2913}
	etihad := Coordinate{Lat: 53.4831, Lon: -2.2004}

	d := oldTrafford.HaversineDistance(etihad)
	// about 6.4km between both grounds
	if d < 6000 || d > 7000 {
		t.Errorf("unexpected distance %f", d)
	}

	if d := oldTrafford.HaversineDistance(oldTrafford); math.Abs(d) > 1e-9 {
		t.Errorf("distance to itself should be zero, got %f", d)
	}
}

func TestH3Cells(t *testing.T) {
	cells, err := Coordinate{Lat: 53.4631, Lon: -2.2913}.H3Cells()
	if err != nil {
		t.Fatal(err)
	}

	if len(cells) != len(H3Resolutions) {
		t.Fatalf("expected %d cells, got %d", len(H3Resolutions), len(cells))
	}

	for i, cell := range cells {
		if cell == 0 {
			t.Errorf("resolution %d: empty cell", H3Resolutions[i])
		}
	}
}
