// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// applyConfig reads a YAML mapping of flag names to values and sets the
// flags that were not given on the command line. The same file serves every
// command: options of other commands, as told by known, are skipped.
//
//	url: https://en.wikipedia.org/wiki/List_of_association_football_stadiums_by_capacity
//	out-dir: out
//	rps: 1
//	addr: localhost:8080
func applyConfig(flags *pflag.FlagSet, known map[string]bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	var errs []error

	for _, name := range slices.Sorted(maps.Keys(values)) {
		f := flags.Lookup(name)
		if f == nil {
			if !known[name] {
				errs = append(errs, fmt.Errorf("%s: unknown option %q", path, name))
			}

			continue
		}

		if f.Changed {
			continue
		}

		switch v := values[name].(type) {
		case map[string]any, []any:
			errs = append(errs, fmt.Errorf("%s: option %q must be a scalar", path, name))
		case nil:
		default:
			if err := flags.Set(name, fmt.Sprint(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s: option %q: %w", path, name, err))
			}
		}
	}

	return errors.Join(errs...)
}

// commandFlags returns the names of the flags defined by any command of the
// tree rooted at root.
func commandFlags(root *cobra.Command) map[string]bool {
	names := map[string]bool{}
	add := func(f *pflag.Flag) { names[f.Name] = true }

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(add)
		c.PersistentFlags().VisitAll(add)

		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(root)

	return names
}
