// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/footballde/stadiums/geocoding"
	"github.com/spf13/cobra"
)

var geocodeOptions struct {
	Country string
	City    string
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <stadium>",
	Short: "Resolves the coordinates of a single stadium",
	Long: `Tries the query variants of a stadium against the geocoder, in order,
and prints the first coordinate found.

Example:
  stadiums geocode "Old Trafford" --country England --city "Manchester, Greater Manchester"`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if geocodeOptions.Country == "" {
			return errors.New("--country is required")
		}

		ctx, cancel := interruptible()
		defer cancel()

		for i, q := range geocoding.Variants(geocodeOptions.Country, args[0], geocodeOptions.City) {
			log.Printf("variant %2d: %s", i+1, q)
		}

		resolver, err := newResolver()
		if err != nil {
			return err
		}

		coord, err := resolver.Resolve(ctx, geocodeOptions.Country, args[0], geocodeOptions.City)
		if err != nil {
			return err
		}

		log.Printf("Geocoder metrics - %s", resolver.Metrics())

		if coord == nil {
			return fmt.Errorf("no location found for %s", args[0])
		}

		return printJSON(coord)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	addGeocodingFlags(geocodeCmd.Flags())
	geocodeCmd.Flags().StringVar(&geocodeOptions.Country, "country", "", "Country of the stadium")
	geocodeCmd.Flags().StringVar(&geocodeOptions.City, "city", "", "City of the stadium, as listed in the table")
}
