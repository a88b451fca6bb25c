// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/footballde/stadiums/stadiums"
	"github.com/spf13/cobra"
)

var (
	inPath  string
	outPath string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Scrapes the stadiums table and archives the raw rows",
	Long: `Scrapes the stadiums table, archives and publishes the raw rows and
writes them as JSON for the transform step.

Example:
  stadiums extract --run-id 20250301_120000 --out raw.json`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := interruptible()
		defer cancel()

		sink, err := newSink()
		if err != nil {
			return err
		}

		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		extractor, err := newExtractor()
		if err != nil {
			return err
		}

		rows, err := extractor.Extract(ctx, pageOptions.URL)
		if err != nil {
			return fmt.Errorf("extracting: %w", err)
		}

		if err := archiveRaw(ctx, repo, sink, currentRunID(), rows); err != nil {
			return err
		}

		return writeOutput(outPath, rows)
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Normalizes and geocodes the rows written by extract",
	Long: `Reads the raw rows written by extract, normalizes capacities and
cities, resolves the coordinates of every stadium and writes the enriched
records as JSON for the load step.

Example:
  stadiums transform --in raw.json --out enriched.json`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := interruptible()
		defer cancel()

		in, err := openInput(inPath)
		if err != nil {
			return err
		}
		defer in.Close()

		rows, err := stadiums.ReadRawRows(in)
		if err != nil {
			return err
		}

		records, err := transform(ctx, rows)
		if err != nil {
			return err
		}

		return writeOutput(outPath, records)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Archives and publishes the records written by transform",
	Long: `Reads the enriched records written by transform, archives them and
publishes them as cleaned_stadiums_data_<run>.csv. A cleaned CSV of an
earlier run, gzipped or not, is accepted as well.

Examples:
  stadiums load --run-id 20250301_120000 --in enriched.json --container-url ...
  stadiums load --in out/Data/cleaned_stadiums_data_20250301_120000.csv.gz --container-url ...`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := interruptible()
		defer cancel()

		records, err := readRecords(inPath)
		if err != nil {
			return err
		}

		sink, err := newSink()
		if err != nil {
			return err
		}

		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		id := currentRunID()
		if err := load(ctx, repo, sink, id, records); err != nil {
			return err
		}

		log.Printf("Run %s loaded", id)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addRunIDFlag(extractCmd)
	addPageFlags(extractCmd.Flags())
	addSinkFlags(extractCmd.Flags())
	extractCmd.Flags().StringVar(&outPath, "out", "-", "File receiving the raw rows as JSON, - for stdout")

	rootCmd.AddCommand(transformCmd)
	addGeocodingFlags(transformCmd.Flags())
	transformCmd.Flags().StringVar(&inPath, "in", "-", "JSON file written by extract, - for stdin")
	transformCmd.Flags().StringVar(&outPath, "out", "-", "File receiving the records as JSON, - for stdout")

	rootCmd.AddCommand(loadCmd)
	addRunIDFlag(loadCmd)
	addSinkFlags(loadCmd.Flags())
	loadCmd.Flags().StringVar(&inPath, "in", "-", "JSON file written by transform or a cleaned CSV, - for stdin")
}
