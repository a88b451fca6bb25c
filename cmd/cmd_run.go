// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/footballde/stadiums/stadiums"
	"github.com/spf13/cobra"
)

// interruptible returns a context cancelled on Ctrl-C.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var runID string

func addRunIDFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&runID,
		"run-id",
		"",
		"Identifier of the run, YYYYMMDD_HHMMSS. Defaults to the current time",
	)
}

func currentRunID() string {
	if runID == "" {
		runID = stadiums.RunID(time.Now())
	}

	return runID
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extracts, geocodes and publishes the stadiums in a single pass",
	Long: `Runs the whole pipeline: the stadiums table is scraped and its rows
archived and published as raw_stadiums_data_<run>.csv, then every stadium is
geocoded and the enriched table is archived and published as
cleaned_stadiums_data_<run>.csv.

Examples:
  stadiums run --out-dir out
  AZURE_SAS_KEY=... stadiums run --container-url https://footballstorage.blob.core.windows.net/footballde`,
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

		id := currentRunID()
		log.Printf("Starting run %s", id)

		extractor, err := newExtractor()
		if err != nil {
			return err
		}

		rows, err := extractor.Extract(ctx, pageOptions.URL)
		if err != nil {
			return fmt.Errorf("extracting: %w", err)
		}

		if err := archiveRaw(ctx, repo, sink, id, rows); err != nil {
			return err
		}

		records, err := transform(ctx, rows)
		if err != nil {
			return err
		}

		if err := load(ctx, repo, sink, id, records); err != nil {
			return err
		}

		log.Printf("Run %s complete", id)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunIDFlag(runCmd)
	addPageFlags(runCmd.Flags())
	addGeocodingFlags(runCmd.Flags())
	addSinkFlags(runCmd.Flags())
}
