// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"testing"

	"github.com/footballde/stadiums/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingGeocoder answers from a fixed table and counts the calls per query.
type countingGeocoder struct {
	answers map[string]*spatial.Coordinate
	errs    map[string]error
	calls   map[string]int
	order   []string
}

func newCountingGeocoder() *countingGeocoder {
	return &countingGeocoder{
		answers: map[string]*spatial.Coordinate{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (g *countingGeocoder) Geocode(_ context.Context, query string) (*spatial.Coordinate, error) {
	g.calls[query]++
	g.order = append(g.order, query)

	if err, ok := g.errs[query]; ok {
		return nil, err
	}

	return g.answers[query], nil
}

func TestCachedGeocoder_SameQueryHitsNetworkOnce(t *testing.T) {
	stub := newCountingGeocoder()
	stub.answers["Old Trafford, England"] = &spatial.Coordinate{Lat: 53.46, Lon: -2.29}

	g, err := NewCachedGeocoder(stub, DefaultCacheSize)
	require.NoError(t, err)

	for range 2 {
		coord, err := g.Geocode(context.Background(), "Old Trafford, England")
		require.NoError(t, err)
		require.NotNil(t, coord)
		assert.Equal(t, 53.46, coord.Lat)
	}

	for range 2 {
		coord, err := g.Geocode(context.Background(), "Nowhere, England")
		require.NoError(t, err)
		assert.Nil(t, coord)
	}

	assert.Equal(t, 1, stub.calls["Old Trafford, England"])
	assert.Equal(t, 1, stub.calls["Nowhere, England"])
}

func TestCachedGeocoder_ErrorsAreNotCached(t *testing.T) {
	stub := newCountingGeocoder()
	stub.errs["q"] = errors.New("boom")

	g, err := NewCachedGeocoder(stub, DefaultCacheSize)
	require.NoError(t, err)

	for range 2 {
		_, err := g.Geocode(context.Background(), "q")
		require.Error(t, err)
	}

	assert.Equal(t, 2, stub.calls["q"])
	assert.Equal(t, 0, g.Cache.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	cache.Add("a", &spatial.Coordinate{Lat: 1})
	cache.Add("b", nil)

	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Add("c", &spatial.Coordinate{Lat: 3})

	_, ok = cache.Get("b")
	assert.False(t, ok, "b was the least recently used entry")

	coord, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, coord.Lat)
	assert.Equal(t, 2, cache.Len())
}

func TestCache_ReturnsCopies(t *testing.T) {
	cache, err := NewCache(1)
	require.NoError(t, err)

	cache.Add("a", &spatial.Coordinate{Lat: 1})

	coord, _ := cache.Get("a")
	coord.Lat = 42

	again, _ := cache.Get("a")
	assert.Equal(t, 1.0, again.Lat)
}

func TestNewCache_InvalidSize(t *testing.T) {
	_, err := NewCache(0)
	assert.Error(t, err)
}
