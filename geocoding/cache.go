// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"

	"github.com/footballde/stadiums/spatial"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of distinct queries remembered.
const DefaultCacheSize = 128

type cacheEntry struct {
	coord spatial.Coordinate
	found bool
}

// Cache remembers the answers of exact query strings. The least recently used
// entry is evicted once the bound is reached. "No result" answers are cached
// too; errors never are.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
}

// NewCache creates a cache holding up to size queries.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating geocoding cache of size %d: %w", size, err)
	}

	return &Cache{entries: entries}, nil
}

// Get returns the cached answer for query. ok is false on a miss; a hit may
// still carry a nil coordinate when the service had no result.
func (c *Cache) Get(query string) (coord *spatial.Coordinate, ok bool) {
	entry, ok := c.entries.Get(query)
	if !ok || !entry.found {
		return nil, ok
	}

	ret := entry.coord

	return &ret, true
}

// Add stores the answer for query. A nil coord records "no result".
func (c *Cache) Add(query string, coord *spatial.Coordinate) {
	entry := cacheEntry{}
	if coord != nil {
		entry = cacheEntry{coord: *coord, found: true}
	}

	c.entries.Add(query, entry)
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// CachedGeocoder serves repeated queries from Cache.
type CachedGeocoder struct {
	Geocoder Geocoder
	Cache    *Cache
}

// NewCachedGeocoder wraps g with a cache of the given size.
func NewCachedGeocoder(g Geocoder, size int) (*CachedGeocoder, error) {
	cache, err := NewCache(size)
	if err != nil {
		return nil, err
	}

	return &CachedGeocoder{Geocoder: g, Cache: cache}, nil
}

// Geocode implements Geocoder.
func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (*spatial.Coordinate, error) {
	if coord, ok := g.Cache.Get(query); ok {
		return coord, nil
	}

	coord, err := g.Geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	g.Cache.Add(query, coord)

	return coord, nil
}
