// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/footballde/stadiums/geocoding"
	"github.com/footballde/stadiums/stadiums"
	"github.com/footballde/stadiums/storage"
	"github.com/spf13/pflag"
)

const dbFile = "stadiums.duckdb"

// PageOptions selects the page and the table to extract.
type PageOptions struct {
	URL        string
	TableIndex int
	Caption    string
	Timeout    time.Duration
}

// GeocodingOptions configures the geocoder chain.
type GeocodingOptions struct {
	Endpoint          string
	RequestsPerSecond float64
	CacheSize         int
	RetryDelay        time.Duration
	Timeout           time.Duration
}

// SinkOptions selects where the CSV files are published.
type SinkOptions struct {
	OutDir       string
	ContainerURL string
	SASToken     string
	Prefix       string
	Compress     bool
}

var (
	pageOptions      = &PageOptions{}
	geocodingOptions = &GeocodingOptions{}
	sinkOptions      = &SinkOptions{}
)

func addPageFlags(flags *pflag.FlagSet) {
	flags.StringVar(&pageOptions.URL, "url", stadiums.DefaultPageURL, "Page listing the stadiums")
	flags.IntVar(&pageOptions.TableIndex, "table-index", 2, "1-based index of the wikitable holding the stadiums")
	flags.StringVar(&pageOptions.Caption, "caption", "", "Select the table by caption or section heading instead of by index")
	flags.DurationVar(&pageOptions.Timeout, "page-timeout", 10*time.Second, "Timeout of the page fetch")
}

func addGeocodingFlags(flags *pflag.FlagSet) {
	flags.StringVar(&geocodingOptions.Endpoint, "geocoder-url", geocoding.DefaultNominatimEndpoint, "Nominatim search endpoint")
	flags.Float64Var(&geocodingOptions.RequestsPerSecond, "rps", 1, "Maximum geocoding requests per second, 0 disables pacing")
	flags.IntVar(&geocodingOptions.CacheSize, "cache-size", geocoding.DefaultCacheSize, "Number of geocoding queries to remember")
	flags.DurationVar(&geocodingOptions.RetryDelay, "retry-delay", geocoding.DefaultRetryDelay, "Base delay between geocoding retries")
	flags.DurationVar(&geocodingOptions.Timeout, "geocoder-timeout", 30*time.Second, "Timeout of a geocoding query")
}

func addSinkFlags(flags *pflag.FlagSet) {
	flags.StringVar(&sinkOptions.OutDir, "out-dir", "out", "Local directory receiving the CSV files")
	flags.StringVar(&sinkOptions.ContainerURL, "container-url", "",
		"Azure blob container URL, e.g. https://account.blob.core.windows.net/container. Overrides --out-dir")
	flags.StringVar(&sinkOptions.SASToken, "sas-token", "",
		fmt.Sprintf("Shared access signature of the container. Defaults to $%s", storage.SASTokenEnv))
	flags.StringVar(&sinkOptions.Prefix, "prefix", "Data", "Path prefix of the published files")
	flags.BoolVar(&sinkOptions.Compress, "compress", false, "Gzip the files written to --out-dir")
}

func tableSelector() (stadiums.TableSelector, error) {
	if pageOptions.Caption != "" {
		return stadiums.CaptionTable(stadiums.WikitableSelector, pageOptions.Caption), nil
	}

	if pageOptions.TableIndex < 1 {
		return nil, fmt.Errorf("--table-index must be at least 1, got %d", pageOptions.TableIndex)
	}

	return stadiums.NthTable(stadiums.WikitableSelector, pageOptions.TableIndex-1), nil
}

func newExtractor() (*stadiums.Extractor, error) {
	selector, err := tableSelector()
	if err != nil {
		return nil, err
	}

	return stadiums.NewExtractor(&stadiums.ExtractorOptions{
		Timeout:             pageOptions.Timeout,
		Selector:            selector,
		EnableHTTPTrace:     rootOptions.EnableHTTPTrace,
		EnableHTTPBodyTrace: rootOptions.EnableHTTPBodyTrace,
	}), nil
}

func newResolver() (*geocoding.Resolver, error) {
	var traceWriter io.Writer
	if rootOptions.EnableHTTPTrace {
		traceWriter = os.Stderr
	}

	retry := geocoding.DefaultRetryPolicy(geocodingOptions.RetryDelay)
	nominatim := geocoding.NewNominatimGeocoder(geocoding.NominatimOptions{
		Endpoint:          geocodingOptions.Endpoint,
		Timeout:           geocodingOptions.Timeout,
		Retry:             &retry,
		RequestsPerSecond: geocodingOptions.RequestsPerSecond,
		TraceWriter:       traceWriter,
		TraceBody:         rootOptions.EnableHTTPBodyTrace,
	})

	cached, err := geocoding.NewCachedGeocoder(nominatim, geocodingOptions.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating geocoding cache: %w", err)
	}

	return geocoding.NewResolver(cached), nil
}

func newSink() (storage.Sink, error) {
	if sinkOptions.ContainerURL != "" {
		token := sinkOptions.SASToken
		if token == "" {
			token = os.Getenv(storage.SASTokenEnv)
		}

		sink, err := storage.NewAzureBlobSink(storage.AzureBlobOptions{
			ContainerURL: sinkOptions.ContainerURL,
			SASToken:     token,
			Prefix:       sinkOptions.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring blob sink: %w", err)
		}

		return sink, nil
	}

	sink := storage.NewDirSink(filepath.Join(sinkOptions.OutDir, sinkOptions.Prefix))
	sink.Compress = sinkOptions.Compress

	return sink, nil
}

// openRepository opens (creating it when missing) the archive database.
func openRepository() (*sql.DB, stadiums.Repository, error) {
	if err := os.MkdirAll(rootOptions.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(rootOptions.DbPath, dbFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := stadiums.NewSQLRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

// archiveRaw stores the scraped rows of a run in the database and publishes
// them as CSV.
func archiveRaw(
	ctx context.Context,
	repo stadiums.Repository,
	sink storage.Sink,
	runID string,
	rows []stadiums.RawStadiumRow,
) error {
	if err := repo.SaveRawRows(runID, rows); err != nil {
		return fmt.Errorf("archiving raw rows: %w", err)
	}

	var buf bytes.Buffer
	if err := stadiums.WriteRawCSV(&buf, rows); err != nil {
		return fmt.Errorf("encoding raw rows: %w", err)
	}

	name := stadiums.ObjectName(stadiums.RawObjectPrefix, runID)
	if err := sink.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("publishing raw rows: %w", err)
	}

	log.Printf("Saved %d raw rows as %s", len(rows), name)

	return nil
}

func transform(ctx context.Context, rows []stadiums.RawStadiumRow) ([]*stadiums.StadiumRecord, error) {
	resolver, err := newResolver()
	if err != nil {
		return nil, err
	}

	records, metrics, err := stadiums.NewTransformer(resolver).Transform(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("transforming: %w", err)
	}

	log.Printf(
		"Transformation metrics - %d primary, %d fallback, %d not found, %d errors",
		metrics.Primary,
		metrics.Fallback,
		metrics.NotFound,
		metrics.Errors,
	)
	log.Printf("Geocoder metrics - %s", resolver.Metrics())

	return records, nil
}

// load archives the enriched records of a run and publishes them as CSV.
func load(
	ctx context.Context,
	repo stadiums.Repository,
	sink storage.Sink,
	runID string,
	records []*stadiums.StadiumRecord,
) error {
	if err := repo.SaveRecords(runID, records); err != nil {
		return fmt.Errorf("archiving records: %w", err)
	}

	var buf bytes.Buffer
	if err := stadiums.WriteRecordsCSV(&buf, records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	name := stadiums.ObjectName(stadiums.CleanedObjectPrefix, runID)
	if err := sink.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("publishing records: %w", err)
	}

	log.Printf("Successfully published %d records as %s", len(records), name)

	return nil
}

// openInput returns stdin for "-". Gzipped files are uncompressed.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	return storage.OpenFile(path)
}

// readRecords reads the JSON written by transform or, for a .csv path, a
// cleaned file published by a previous load.
func readRecords(path string) ([]*stadiums.StadiumRecord, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if filepath.Ext(strings.TrimSuffix(path, ".gz")) == ".csv" {
		return stadiums.ReadRecordsCSV(in)
	}

	return stadiums.ReadRecords(in)
}

// writeOutput writes items as JSON to path, or stdout for "-".
func writeOutput[T any](path string, items []T) error {
	if path == "-" {
		return stadiums.WriteJSON(os.Stdout, items)
	}

	var buf bytes.Buffer
	if err := stadiums.WriteJSON(&buf, items); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	fmt.Println(string(out))

	return nil
}
