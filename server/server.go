// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the archived stadiums over HTTP.
package server

import (
	"cmp"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/footballde/stadiums/spatial"
	"github.com/footballde/stadiums/stadiums"
	"github.com/footballde/stadiums/utils/textutils"
	"github.com/gin-gonic/gin"
)

const defaultRadiusKm = 10.0

// Server serves the records of the archived runs.
type Server struct {
	repo     stadiums.Repository
	resolver stadiums.Resolver
}

// NewServer creates a Server. resolver may be nil, which disables the
// geocoding endpoint.
func NewServer(repo stadiums.Repository, resolver stadiums.Resolver) *Server {
	return &Server{repo: repo, resolver: resolver}
}

// Router returns the engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/runs/latest", s.latestRun)
	r.GET("/api/stadiums", s.listStadiums)
	r.GET("/api/stadiums/near", s.nearStadiums)
	r.GET("/api/summary", s.summary)
	r.GET("/api/geocode", s.geocode)

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("Serving stadiums API on http://%s", addr)

	return s.Router().Run(addr)
}

// Loads the records of the run named by ?run=, the latest one by default.
// It writes the error response and returns false on failure.
func (s *Server) loadRun(ctx *gin.Context) (string, []*stadiums.StadiumRecord, bool) {
	runID := ctx.Query("run")
	if runID == "" {
		var err error

		runID, err = s.repo.LatestRun()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

			return "", nil, false
		}
	}

	if runID == "" {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no run has been archived"})

		return "", nil, false
	}

	records, err := s.repo.ListRecords(runID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return "", nil, false
	}

	if len(records) == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown run " + runID})

		return "", nil, false
	}

	return runID, records, true
}

func (s *Server) latestRun(ctx *gin.Context) {
	runID, err := s.repo.LatestRun()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"run_id": runID})
}

var statusFilters = map[string]stadiums.LocationState{
	"resolved":  stadiums.Resolved,
	"not_found": stadiums.NotFound,
}

func matches(r *stadiums.StadiumRecord, q string) bool {
	for _, field := range []string{r.StadiumName, r.OriginalStadiumName, r.City, r.Country} {
		if strings.Contains(textutils.LowerASCIIFolding(field), q) {
			return true
		}
	}

	return false
}

func (s *Server) listStadiums(ctx *gin.Context) {
	status := ctx.Query("status")

	state, ok := statusFilters[status]
	if status != "" && !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "status must be resolved or not_found"})

		return
	}

	_, records, ok := s.loadRun(ctx)
	if !ok {
		return
	}

	q := textutils.LowerASCIIFolding(strings.TrimSpace(ctx.Query("q")))
	ret := []*stadiums.StadiumRecord{}

	for _, r := range records {
		if status != "" && r.Location.State != state {
			continue
		}

		if q != "" && !matches(r, q) {
			continue
		}

		ret = append(ret, r)
	}

	ctx.JSON(http.StatusOK, ret)
}

// NearbyStadium is a record with its distance to the query point.
type NearbyStadium struct {
	*stadiums.StadiumRecord

	DistanceKm float64 `json:"distance_km"`
}

func queryFloat(ctx *gin.Context, name string, required bool, fallback float64) (float64, bool) {
	v := ctx.Query(name)
	if v == "" && !required {
		return fallback, true
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

		return 0, false
	}

	return f, true
}

func (s *Server) nearStadiums(ctx *gin.Context) {
	lat, ok := queryFloat(ctx, "lat", true, 0)
	if !ok {
		return
	}

	lon, ok := queryFloat(ctx, "lon", true, 0)
	if !ok {
		return
	}

	radius, ok := queryFloat(ctx, "radius_km", false, defaultRadiusKm)
	if !ok {
		return
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 || radius <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "coordinates or radius out of range"})

		return
	}

	_, records, ok := s.loadRun(ctx)
	if !ok {
		return
	}

	origin := spatial.Coordinate{Lat: lat, Lon: lon}
	ret := []NearbyStadium{}

	for _, r := range records {
		if r.Location.State != stadiums.Resolved {
			continue
		}

		d := origin.HaversineDistance(r.Location.Coordinate) / 1000
		if d <= radius {
			ret = append(ret, NearbyStadium{StadiumRecord: r, DistanceKm: d})
		}
	}

	slices.SortFunc(ret, func(a, b NearbyStadium) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})

	ctx.JSON(http.StatusOK, ret)
}

// Summary counts the records of a run.
type Summary struct {
	RunID         string `json:"run_id"`
	Total         int    `json:"total"`
	Resolved      int    `json:"resolved"`
	NotFound      int    `json:"not_found"`
	Primary       int    `json:"primary"`
	Fallback      int    `json:"fallback"`
	TotalCapacity int    `json:"total_capacity"`
}

func (s *Server) summary(ctx *gin.Context) {
	runID, records, ok := s.loadRun(ctx)
	if !ok {
		return
	}

	ret := Summary{RunID: runID, Total: len(records)}

	for _, r := range records {
		ret.TotalCapacity += r.Capacity

		switch r.Location.State {
		case stadiums.Resolved:
			ret.Resolved++
		case stadiums.NotFound:
			ret.NotFound++
		}

		switch r.ResolvedBy {
		case stadiums.ResolvedByPrimary:
			ret.Primary++
		case stadiums.ResolvedByFallback:
			ret.Fallback++
		}
	}

	ctx.JSON(http.StatusOK, ret)
}

func (s *Server) geocode(ctx *gin.Context) {
	if s.resolver == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding is disabled"})

		return
	}

	stadium, country := ctx.Query("stadium"), ctx.Query("country")
	if stadium == "" || country == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "stadium and country query parameters are required"})

		return
	}

	coord, err := s.resolver.Resolve(ctx.Request.Context(), country, stadium, ctx.Query("city"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if coord == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no location found"})

		return
	}

	ctx.JSON(http.StatusOK, coord)
}
