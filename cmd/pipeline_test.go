// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/footballde/stadiums/stadiums"
	"github.com/footballde/stadiums/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var pipelineRows = []stadiums.RawStadiumRow{
	{
		StadiumName:  "Old Trafford",
		CapacityText: "74,310",
		Region:       "North West",
		Country:      "England",
		City:         "Manchester, Greater Manchester",
	},
	{
		StadiumName:  "Nowhere Park",
		CapacityText: "1 000",
		Country:      "Atlantis",
	},
}

// Answers Old Trafford queries and misses everything else.
func fakeNominatim(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("q") == "Old Trafford, England" {
			fmt.Fprint(w, `[{"lat":"53.4630589","lon":"-2.2913401","display_name":"Old Trafford"}]`)

			return
		}

		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(ts.Close)

	return ts
}

func TestPipeline(t *testing.T) {
	ts := fakeNominatim(t)

	saved := *geocodingOptions
	t.Cleanup(func() { *geocodingOptions = saved })
	*geocodingOptions = GeocodingOptions{Endpoint: ts.URL, CacheSize: 16}

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := stadiums.NewSQLRepository(db)
	require.NoError(t, repo.CreateSchema())

	root := t.TempDir()
	sink := storage.NewDirSink(root)
	ctx := context.Background()
	id := "20250301_120000"

	require.NoError(t, archiveRaw(ctx, repo, sink, id, pipelineRows))
	_, err = os.Stat(filepath.Join(root, "raw_stadiums_data_20250301_120000.csv"))
	require.NoError(t, err)

	records, err := transform(ctx, pipelineRows)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, stadiums.Resolved, records[0].Location.State)
	assert.Equal(t, "Manchester - Greater Manchester", records[0].City)
	assert.Equal(t, stadiums.NotFound, records[1].Location.State)

	require.NoError(t, load(ctx, repo, sink, id, records))

	published, err := readRecords(filepath.Join(root, "cleaned_stadiums_data_20250301_120000.csv"))
	require.NoError(t, err)
	assert.Equal(t, records, published)

	compressed := storage.NewDirSink(filepath.Join(root, "gz"))
	compressed.Compress = true
	require.NoError(t, load(ctx, repo, compressed, id, published))

	republished, err := readRecords(filepath.Join(root, "gz", "cleaned_stadiums_data_20250301_120000.csv.gz"))
	require.NoError(t, err)
	assert.Equal(t, records, republished)

	enriched := filepath.Join(root, "enriched.json")
	require.NoError(t, writeOutput(enriched, records))

	fromJSON, err := readRecords(enriched)
	require.NoError(t, err)
	assert.Equal(t, records, fromJSON)

	latest, err := repo.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, id, latest)
}

const twoTablesPage = `<html><body>
<table class="wikitable">
<tr><th>Stadium</th><th>Capacity</th><th>Region</th><th>Country</th><th>City</th></tr>
<tr><td><a href="/wiki/A">First Ground</a></td><td>1,000</td><td></td><td>Peru</td><td>Lima</td></tr>
</table>
<table class="wikitable">
<tr><th>Stadium</th><th>Capacity</th><th>Region</th><th>Country</th><th>City</th></tr>
<tr><td><a href="/wiki/B">Second Ground</a></td><td>2,000</td><td></td><td>Chile</td><td>Santiago</td></tr>
</table>
</body></html>`

func TestTableSelector(t *testing.T) {
	saved := *pageOptions
	t.Cleanup(func() { *pageOptions = saved })

	node, err := html.Parse(strings.NewReader(twoTablesPage))
	require.NoError(t, err)

	for index, want := range map[int]string{1: "First Ground", 2: "Second Ground"} {
		*pageOptions = PageOptions{TableIndex: index}

		selector, err := tableSelector()
		require.NoError(t, err)

		rows, _, err := stadiums.ExtractDocument(node, selector)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, want, rows[0].StadiumName, "--table-index %d", index)
	}

	for _, index := range []int{0, -1} {
		*pageOptions = PageOptions{TableIndex: index}

		_, err := tableSelector()
		require.Error(t, err, "--table-index %d", index)
		assert.Contains(t, err.Error(), "must be at least 1")
	}

	*pageOptions = PageOptions{TableIndex: -1, Caption: "anything"}
	_, err = tableSelector()
	assert.NoError(t, err, "the caption takes precedence over the index")
}
