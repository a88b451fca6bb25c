// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/footballde/stadiums/stadiums"
	"github.com/footballde/stadiums/utils/htmlutils"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugTableFromURL bool

var debugTableCmd = &cobra.Command{
	Use:   "table [file]",
	Short: "Extracts the stadiums table of an HTML document as JSON",
	Long: `Reads an HTML document from a file, the standard input or, with
--fetch, from --url and prints the extracted rows as JSON.

Examples:
  stadiums debug table --fetch
  curl -s https://en.wikipedia.org/wiki/List_of_association_football_stadiums_by_capacity | stadiums debug table
  stadiums debug table --caption Europe page.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if debugTableFromURL {
			ctx, cancel := interruptible()
			defer cancel()

			extractor, err := newExtractor()
			if err != nil {
				return err
			}

			rows, err := extractor.Extract(ctx, pageOptions.URL)
			if err != nil {
				return err
			}

			return printJSON(rows)
		}

		selector, err := tableSelector()
		if err != nil {
			return err
		}

		var r io.Reader

		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening file: %w", err)
			}
			defer f.Close()

			r = f
		} else {
			r = os.Stdin
			if isatty.IsTerminal(os.Stdin.Fd()) {
				fmt.Fprintln(os.Stderr, "Reading from stdin. Paste HTML and press Ctrl+D to finish.")
			}
		}

		node, err := htmlutils.AsNode(r)
		if err != nil {
			return fmt.Errorf("error parsing html: %w", err)
		}

		rows, metrics, err := stadiums.ExtractDocument(node, selector)
		if err != nil {
			return fmt.Errorf("error extracting table: %w", err)
		}

		log.Printf("%d rows, %d skipped, %d dropped", metrics.Rows, metrics.Skipped, metrics.Dropped)

		return printJSON(rows)
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugTableCmd)
	addPageFlags(debugTableCmd.Flags())
	debugTableCmd.Flags().BoolVar(&debugTableFromURL, "fetch", false, "Fetch the document from --url")
}
