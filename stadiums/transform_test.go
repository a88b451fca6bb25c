// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package stadiums

import (
	"context"
	"errors"
	"testing"

	"github.com/footballde/stadiums/geocoding"
	"github.com/footballde/stadiums/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		fail     bool
	}{
		{"61,000", 61000, false},
		{"74,310", 74310, false},
		{"1 000", 1000, false},
		{"99 354", 99354, false},
		{" 500 ", 500, false},
		{"N/A", 0, true},
		{"", 0, true},
		{"-5", 0, true},
		{"60.000", 0, true},
	}

	for _, test := range tests {
		got, err := ParseCapacity(test.input)
		if test.fail {
			assert.ErrorIs(t, err, ErrInvalidCapacity, "input %q", test.input)

			continue
		}

		require.NoError(t, err, "input %q", test.input)
		assert.Equal(t, test.expected, got, "input %q", test.input)
	}
}

func TestFormatCity(t *testing.T) {
	assert.Equal(t, "Manchester - Greater Manchester", FormatCity("Manchester, Greater Manchester"))
	assert.Equal(t, "Barcelona", FormatCity("Barcelona"))
	assert.Empty(t, FormatCity(""))
}

func TestSimplifyName(t *testing.T) {
	tests := map[string]string{
		"Etihad Stadium":              "Etihad",
		"Estadio Azteca":              "Estadio Azteca",
		"Stadium Australia":           "Stadium Australia",
		"Villa Park":                  "Villa",
		"Olympic Park Sports Complex": "Olympic Sports",
		"Wembley":                     "Wembley",
		"Parkhead":                    "Parkhead",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, SimplifyName(input), "input %q", input)
	}
}

// answeringGeocoder answers only the listed queries and records every query.
type answeringGeocoder struct {
	answers map[string]spatial.Coordinate
	queries []string
}

func (g *answeringGeocoder) Geocode(_ context.Context, query string) (*spatial.Coordinate, error) {
	g.queries = append(g.queries, query)

	if c, ok := g.answers[query]; ok {
		return &c, nil
	}

	return nil, nil
}

func newTestTransformer(answers map[string]spatial.Coordinate) (*Transformer, *answeringGeocoder) {
	g := &answeringGeocoder{answers: answers}

	return NewTransformer(geocoding.NewResolver(g)), g
}

var oldTrafford = RawStadiumRow{
	StadiumName:  "Old Trafford",
	CapacityText: "74,310",
	Region:       "North West",
	Country:      "England",
	City:         "Manchester, Greater Manchester",
}

func TestTransform_PrimaryPass(t *testing.T) {
	tr, g := newTestTransformer(map[string]spatial.Coordinate{
		"Old Trafford, England": {Lat: 53.4631, Lon: -2.2913},
	})

	records, metrics, err := tr.Transform(context.Background(), []RawStadiumRow{oldTrafford})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 74310, r.Capacity)
	assert.Equal(t, "Manchester - Greater Manchester", r.City)
	assert.Equal(t, "Old Trafford", r.OriginalStadiumName)
	assert.Equal(t, LocationAt(spatial.Coordinate{Lat: 53.4631, Lon: -2.2913}), r.Location)
	require.NotNil(t, r.Lat)
	require.NotNil(t, r.Lon)
	assert.Equal(t, 53.4631, *r.Lat)
	assert.Equal(t, -2.2913, *r.Lon)
	assert.Equal(t, ResolvedByPrimary, r.ResolvedBy)
	require.NoError(t, r.Validate())

	assert.Equal(t, []string{"Old Trafford, England"}, g.queries)
	assert.Equal(t, &TransformMetrics{Total: 1, Primary: 1}, metrics)
}

func TestTransform_FallbackPassWithRegion(t *testing.T) {
	tr, _ := newTestTransformer(map[string]spatial.Coordinate{
		"Manchester, Greater Manchester, North West": {Lat: 53.48, Lon: -2.24},
	})

	records, metrics, err := tr.Transform(context.Background(), []RawStadiumRow{oldTrafford})
	require.NoError(t, err)

	r := records[0]
	assert.Equal(t, Resolved, r.Location.State)
	assert.Equal(t, ResolvedByFallback, r.ResolvedBy)
	require.NotNil(t, r.Lat)
	assert.Equal(t, 53.48, *r.Lat)
	assert.Equal(t, 1, metrics.Fallback)
	assert.Zero(t, metrics.Primary)
}

func TestTransform_FallbackPassWithSimplifiedName(t *testing.T) {
	tr, g := newTestTransformer(map[string]spatial.Coordinate{
		"Etihad, England": {Lat: 53.4831, Lon: -2.2004},
	})

	row := RawStadiumRow{StadiumName: "Etihad Stadium", CapacityText: "53,400", Country: "England"}

	records, _, err := tr.Transform(context.Background(), []RawStadiumRow{row})
	require.NoError(t, err)

	r := records[0]
	assert.Equal(t, ResolvedByFallback, r.ResolvedBy)
	assert.Equal(t, "Etihad Stadium", r.StadiumName)
	assert.Equal(t, "Etihad Stadium", r.OriginalStadiumName)
	assert.Equal(t, "Etihad, England", g.queries[len(g.queries)-1])
}

func TestTransform_TotalMiss(t *testing.T) {
	tr, _ := newTestTransformer(nil)

	records, metrics, err := tr.Transform(context.Background(), []RawStadiumRow{oldTrafford})
	require.NoError(t, err)

	r := records[0]
	assert.Equal(t, LocationNotFound, r.Location)
	assert.Equal(t, NotFoundSentinel, r.Location.String())
	assert.Nil(t, r.Lat)
	assert.Nil(t, r.Lon)
	assert.Empty(t, r.ResolvedBy)
	assert.Equal(t, 1, metrics.NotFound)
}

func TestTransform_EveryRecordIsAttempted(t *testing.T) {
	tr, _ := newTestTransformer(map[string]spatial.Coordinate{
		"Camp Nou, Spain": {Lat: 41.38, Lon: 2.12},
	})

	rows := []RawStadiumRow{
		oldTrafford,
		{StadiumName: "Camp Nou", CapacityText: "99,354", Country: "Spain", City: "Barcelona"},
		{StadiumName: "Nowhere", CapacityText: "1", Country: "Atlantis"},
	}

	records, _, err := tr.Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, r := range records {
		assert.NotEqual(t, Unattempted, r.Location.State, r.StadiumName)
		assert.NoError(t, r.Validate())
	}
}

func TestTransform_InvalidCapacitiesAbortBeforeGeocoding(t *testing.T) {
	tr, g := newTestTransformer(nil)

	rows := []RawStadiumRow{
		oldTrafford,
		{StadiumName: "A", CapacityText: "N/A", Country: "Peru"},
		{StadiumName: "B", CapacityText: "TBD", Country: "Chile"},
	}

	records, _, err := tr.Transform(context.Background(), rows)
	require.ErrorIs(t, err, ErrInvalidCapacity)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), `"N/A"`)
	assert.Contains(t, err.Error(), `"TBD"`)
	assert.Empty(t, g.queries)
}

func TestTransform_EmptyInput(t *testing.T) {
	tr, _ := newTestTransformer(nil)

	_, _, err := tr.Transform(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

// failingResolver fails for one stadium.
type failingResolver struct {
	failFor string
}

func (r *failingResolver) Resolve(_ context.Context, _, name, _ string) (*spatial.Coordinate, error) {
	if name == r.failFor {
		return nil, errors.New("unexpected answer")
	}

	return &spatial.Coordinate{Lat: 1, Lon: 2}, nil
}

func TestTransform_ResolverErrorsAreIsolated(t *testing.T) {
	tr := NewTransformer(&failingResolver{failFor: "Old Trafford"})

	rows := []RawStadiumRow{
		oldTrafford,
		{StadiumName: "Camp Nou", CapacityText: "99,354", Country: "Spain"},
	}

	records, metrics, err := tr.Transform(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, LocationNotFound, records[0].Location)
	assert.Equal(t, ResolvedByPrimary, records[1].ResolvedBy)
	// primary pass and fallback with region; the name has nothing to simplify
	assert.Equal(t, 2, metrics.Errors)
	assert.Equal(t, 1, metrics.NotFound)
}

func TestTransform_Cancelled(t *testing.T) {
	tr, _ := newTestTransformer(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := tr.Transform(ctx, []RawStadiumRow{oldTrafford})
	assert.ErrorIs(t, err, context.Canceled)
}
