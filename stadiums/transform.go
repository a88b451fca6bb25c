// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package stadiums

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/footballde/stadiums/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Resolver geocodes a stadium. A nil coordinate with a nil error means that
// every query missed.
type Resolver interface {
	Resolve(ctx context.Context, country, stadiumName, city string) (*spatial.Coordinate, error)
}

// grouping separators found in capacities: "61,000", "61 000".
var capacitySeparators = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"\u2009", "",
)

// ParseCapacity parses a capacity written with thousands separators.
func ParseCapacity(s string) (int, error) {
	n, err := strconv.Atoi(capacitySeparators.Replace(strings.TrimSpace(s)))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w %q", ErrInvalidCapacity, s)
	}

	return n, nil
}

// FormatCity turns "Manchester, Greater Manchester" into
// "Manchester - Greater Manchester".
func FormatCity(city string) string {
	return strings.ReplaceAll(city, ", ", " - ")
}

// GenericNameWords are dropped from stadium names by SimplifyName.
var GenericNameWords = []string{"Stadium", "Arena", "Park", "Complex", "Centre", "Center"}

// SimplifyName removes the generic words that follow the first word of a
// stadium name: "Etihad Stadium" becomes "Etihad".
func SimplifyName(name string) string {
	words := strings.Fields(name)
	if len(words) < 2 {
		return name
	}

	ret := words[:1]
	for _, w := range words[1:] {
		if !slices.Contains(GenericNameWords, w) {
			ret = append(ret, w)
		}
	}

	return strings.Join(ret, " ")
}

// TransformMetrics tracks statistics about the transformation.
type TransformMetrics struct {
	Total    int
	Primary  int
	Fallback int
	NotFound int
	Errors   int
}

// Resolved returns the number of records with coordinates.
func (m *TransformMetrics) Resolved() int {
	return m.Primary + m.Fallback
}

// Transformer normalizes rows and geocodes them.
type Transformer struct {
	resolver Resolver
}

// NewTransformer creates a Transformer geocoding with r.
func NewTransformer(r Resolver) *Transformer {
	return &Transformer{resolver: r}
}

type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(n int, description string) *progress {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return &progress{}
	}

	return &progress{
		bar: progressbar.NewOptions(n,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *progress) step(format string, args ...any) {
	if p.bar == nil {
		log.Printf(format, args...)

		return
	}

	if err := p.bar.Add(1); err != nil {
		log.Printf("updating progress bar: %s", err)
	}
}

// Normalizes capacities and cities. Every invalid capacity is reported.
func normalize(rows []RawStadiumRow) ([]*StadiumRecord, error) {
	var errs []error

	records := make([]*StadiumRecord, 0, len(rows))

	for i, row := range rows {
		capacity, err := ParseCapacity(row.CapacityText)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d (%s): %w", i+1, row.StadiumName, err))

			continue
		}

		record := &StadiumRecord{
			RawStadiumRow:       row,
			Capacity:            capacity,
			OriginalStadiumName: row.StadiumName,
		}
		record.City = FormatCity(row.City)
		records = append(records, record)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return records, nil
}

// Only the cancellation of ctx is returned; other resolver errors are
// logged and counted.
func (t *Transformer) resolve(
	ctx context.Context,
	metrics *TransformMetrics,
	country, name, city string,
) (*spatial.Coordinate, error) {
	coord, err := t.resolver.Resolve(ctx, country, name, city)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		metrics.Errors++
		log.Printf("Error geocoding %s: %s", name, err)

		return nil, nil
	}

	return coord, nil
}

// Transform normalizes rows and resolves their coordinates, first with the
// scraped fields and then with the region and a simplified name for the
// records still unresolved. Records that every attempt missed end with
// LocationNotFound. Invalid capacities abort the transformation before any
// geocoding.
func (t *Transformer) Transform(
	ctx context.Context,
	rows []RawStadiumRow,
) ([]*StadiumRecord, *TransformMetrics, error) {
	metrics := &TransformMetrics{Total: len(rows)}
	if len(rows) == 0 {
		return nil, metrics, ErrEmptyResult
	}

	log.Printf("Starting transformation of %d stadium records", len(rows))

	records, err := normalize(rows)
	if err != nil {
		return nil, metrics, fmt.Errorf("normalizing records: %w", err)
	}

	// the resolver splits the city on commas, so it gets the scraped form
	rawCity := func(i int) string { return rows[i].City }

	bar := newProgress(len(records), "Geocoding")

	for i, r := range records {
		coord, err := t.resolve(ctx, metrics, r.Country, r.StadiumName, rawCity(i))
		if err != nil {
			return nil, metrics, err
		}

		if coord != nil {
			r.SetLocation(LocationAt(*coord))
			r.ResolvedBy = ResolvedByPrimary
			metrics.Primary++

			bar.step("Found location for %s", r.StadiumName)
		} else {
			bar.step("No location found for %s in %s", r.StadiumName, r.Country)
		}
	}

	if missing := len(records) - metrics.Primary; missing > 0 {
		log.Printf("Attempting alternative geocoding for %d stadiums...", missing)

		bar = newProgress(missing, "Alternative geocoding")

		for i, r := range records {
			if r.Location.State == Resolved {
				continue
			}

			coord, err := t.fallback(ctx, metrics, r, rawCity(i))
			if err != nil {
				return nil, metrics, err
			}

			if coord != nil {
				r.SetLocation(LocationAt(*coord))
				r.ResolvedBy = ResolvedByFallback
				metrics.Fallback++

				bar.step("Found location for %s using alternative method", r.StadiumName)
			} else {
				bar.step("No alternative location found for %s", r.StadiumName)
			}
		}
	}

	for _, r := range records {
		if r.Location.State != Resolved {
			r.SetLocation(LocationNotFound)
			metrics.NotFound++
		}
	}

	log.Printf(
		"Geocoding complete: %d/%d locations found (%.1f%%)",
		metrics.Resolved(),
		len(records),
		float64(metrics.Resolved())/float64(len(records))*100,
	)

	return records, metrics, nil
}

func (t *Transformer) fallback(
	ctx context.Context,
	metrics *TransformMetrics,
	r *StadiumRecord,
	city string,
) (*spatial.Coordinate, error) {
	area := r.Region
	if area == "" {
		area = r.Country
	}

	coord, err := t.resolve(ctx, metrics, area, r.StadiumName, city)
	if err != nil || coord != nil {
		return coord, err
	}

	if !strings.Contains(r.StadiumName, " ") {
		return nil, nil
	}

	simplified := SimplifyName(r.StadiumName)
	if simplified == r.StadiumName {
		return nil, nil
	}

	return t.resolve(ctx, metrics, r.Country, simplified, city)
}
