// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/footballde/stadiums/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveGeocoding bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the archived stadiums over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		dbpath := filepath.Join(rootOptions.DbPath, dbFile)
		if _, err := os.Stat(dbpath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database not found at %s - run 'run' or 'load' first", dbpath)
		}

		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		var s *server.Server

		if serveGeocoding {
			resolver, err := newResolver()
			if err != nil {
				return err
			}

			s = server.NewServer(repo, resolver)
		} else {
			s = server.NewServer(repo, nil)
		}

		return s.Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addGeocodingFlags(serveCmd.Flags())
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveGeocoding, "geocoding", true, "Enable the /api/geocode endpoint")
}
