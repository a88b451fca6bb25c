// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "stadiums",
	Short: "football stadiums extraction, geocoding and publishing",
	Long: `
stadiums scrapes the list of football stadiums by capacity, resolves the
coordinates of every stadium through a Nominatim geocoder and publishes the
enriched table as CSV to a local directory or an Azure blob container.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if rootOptions.ConfigPath == "" {
			return nil
		}

		return applyConfig(cmd.Flags(), commandFlags(cmd.Root()), rootOptions.ConfigPath)
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigPath          string
	DbPath              string
	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}

var rootOptions = &RootOptions{}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.ConfigPath,
		"config",
		"",
		"YAML file with default values for the command line flags",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.DbPath,
		"db-path",
		"db",
		"Directory holding the archive database",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
