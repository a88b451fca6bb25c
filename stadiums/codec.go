// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package stadiums

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Object name prefixes of the published files.
const (
	RawObjectPrefix     = "raw_stadiums_data"
	CleanedObjectPrefix = "cleaned_stadiums_data"
)

// ObjectName returns the name the file of a run is published under, for
// example cleaned_stadiums_data_20250301_120000.csv.
func ObjectName(prefix, runID string) string {
	return prefix + "_" + runID + ".csv"
}

// WriteJSON writes items as an indented JSON list.
func WriteJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// ReadRawRows reads the list written by WriteJSON for extracted rows.
func ReadRawRows(r io.Reader) ([]RawStadiumRow, error) {
	var rows []RawStadiumRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding raw rows: %w", err)
	}

	return rows, nil
}

// ReadRecords reads the list written by WriteJSON for transformed records.
func ReadRecords(r io.Reader) ([]*StadiumRecord, error) {
	var records []*StadiumRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	for _, record := range records {
		if err := record.Validate(); err != nil {
			return nil, err
		}
	}

	return records, nil
}

var (
	rawHeader    = []string{"stadium_name", "capacity_text", "region", "country", "city"}
	recordHeader = append(append([]string{}, rawHeader...),
		"capacity", "original_stadium_name", "location", "lat", "lon", "resolved_by")
)

func (r *RawStadiumRow) fields() []string {
	return []string{r.StadiumName, r.CapacityText, r.Region, r.Country, r.City}
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}

	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func writeCSV(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range n {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteRawCSV writes rows as comma separated values with a header.
func WriteRawCSV(w io.Writer, rows []RawStadiumRow) error {
	return writeCSV(w, rawHeader, len(rows), func(i int) []string {
		return rows[i].fields()
	})
}

// WriteRecordsCSV writes records as comma separated values with a header.
func WriteRecordsCSV(w io.Writer, records []*StadiumRecord) error {
	return writeCSV(w, recordHeader, len(records), func(i int) []string {
		r := records[i]

		return append(r.fields(),
			strconv.Itoa(r.Capacity),
			r.OriginalStadiumName,
			r.Location.String(),
			formatOptionalFloat(r.Lat),
			formatOptionalFloat(r.Lon),
			string(r.ResolvedBy),
		)
	})
}

// ReadRecordsCSV reads the output of WriteRecordsCSV.
func ReadRecordsCSV(r io.Reader) ([]*StadiumRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(recordHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	for i, name := range recordHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected CSV column %d: %q instead of %q", i+1, header[i], name)
		}
	}

	var records []*StadiumRecord

	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}

		record, err := parseRecordFields(fields)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}

		records = append(records, record)
	}

	return records, nil
}

func parseRecordFields(fields []string) (*StadiumRecord, error) {
	record := &StadiumRecord{
		RawStadiumRow: RawStadiumRow{
			StadiumName:  fields[0],
			CapacityText: fields[1],
			Region:       fields[2],
			Country:      fields[3],
			City:         fields[4],
		},
		OriginalStadiumName: fields[6],
		ResolvedBy:          ResolutionPass(fields[10]),
	}

	var err error

	if record.Capacity, err = strconv.Atoi(fields[5]); err != nil {
		return nil, fmt.Errorf("capacity: %w", err)
	}

	if err = record.Location.UnmarshalText([]byte(fields[7])); err != nil {
		return nil, err
	}

	if record.Lat, err = parseOptionalFloat(fields[8]); err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}

	if record.Lon, err = parseOptionalFloat(fields[9]); err != nil {
		return nil, fmt.Errorf("lon: %w", err)
	}

	return record, record.Validate()
}
