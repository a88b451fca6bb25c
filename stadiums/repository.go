// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package stadiums

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/footballde/stadiums/spatial"
)

// Repository archives the rows and records of every run.
type Repository interface {
	// CreateSchema creates the database schema.
	CreateSchema() error
	// SaveRawRows replaces the extracted rows of a run.
	SaveRawRows(runID string, rows []RawStadiumRow) error
	// SaveRecords replaces the transformed records of a run.
	SaveRecords(runID string, records []*StadiumRecord) error
	// LatestRun returns the most recent run with records, "" if none.
	LatestRun() (string, error)
	// ListRecords returns the records of a run in table order.
	ListRecords(runID string) ([]*StadiumRecord, error)
}

const runIDLayout = "20060102_150405"

// RunID identifies the run started at t. Run IDs sort chronologically.
func RunID(t time.Time) string {
	return t.UTC().Format(runIDLayout)
}

type sqlRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a Repository backed by a duckdb database.
func NewSQLRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS raw_stadiums (
			run_id VARCHAR NOT NULL,
			row_no INTEGER NOT NULL,
			stadium_name VARCHAR NOT NULL,
			capacity_text VARCHAR,
			region VARCHAR,
			country VARCHAR,
			city VARCHAR
		);

		CREATE TABLE IF NOT EXISTS stadiums (
			run_id VARCHAR NOT NULL,
			row_no INTEGER NOT NULL,
			stadium_name VARCHAR NOT NULL,
			capacity_text VARCHAR,
			region VARCHAR,
			country VARCHAR,
			city VARCHAR,
			capacity INTEGER,
			original_stadium_name VARCHAR,
			location VARCHAR,
			lat DOUBLE,
			lon DOUBLE,
			resolved_by VARCHAR,
			h3_res4 UBIGINT,
			h3_res6 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func nz(v uint64) any {
	if v == 0 {
		return nil
	}

	return v
}

func nf(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}

// replaceRun deletes the rows of runID in table and inserts new ones with
// insert, inside a transaction.
func (r *sqlRepository) replaceRun(table, runID string, insert func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction for %s: %w", runID, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction for %s: %v", runID, err)
		}
	}()

	if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("deleting %s of %s: %w", table, runID, err)
	}

	if err := insert(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *sqlRepository) SaveRawRows(runID string, rows []RawStadiumRow) error {
	return r.replaceRun("raw_stadiums", runID, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO raw_stadiums (run_id, row_no, stadium_name, capacity_text, region, country, city)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range rows {
			if _, err := stmt.Exec(
				runID, i, row.StadiumName, row.CapacityText, row.Region, row.Country, row.City,
			); err != nil {
				return fmt.Errorf("inserting raw row %s: %w", row.StadiumName, err)
			}
		}

		return nil
	})
}

func (r *sqlRepository) SaveRecords(runID string, records []*StadiumRecord) error {
	return r.replaceRun("stadiums", runID, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO stadiums (
				run_id, row_no, stadium_name, capacity_text, region, country, city,
				capacity, original_stadium_name, location, lat, lon, resolved_by,
				h3_res4, h3_res6, h3_res8
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for i, record := range records {
			if err := record.Validate(); err != nil {
				return err
			}

			cells := make([]uint64, len(spatial.H3Resolutions))
			if record.Location.State == Resolved {
				if cells, err = record.Location.Coordinate.H3Cells(); err != nil {
					return fmt.Errorf("indexing %s: %w", record.StadiumName, err)
				}
			}

			if _, err := stmt.Exec(
				runID,
				i,
				record.StadiumName,
				record.CapacityText,
				record.Region,
				record.Country,
				record.City,
				record.Capacity,
				record.OriginalStadiumName,
				record.Location.String(),
				nf(record.Lat),
				nf(record.Lon),
				string(record.ResolvedBy),
				nz(cells[0]),
				nz(cells[1]),
				nz(cells[2]),
			); err != nil {
				return fmt.Errorf("inserting record %s: %w", record.StadiumName, err)
			}
		}

		return nil
	})
}

func (r *sqlRepository) LatestRun() (string, error) {
	var runID sql.NullString
	if err := r.db.QueryRow("SELECT max(run_id) FROM stadiums").Scan(&runID); err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}

	return runID.String, nil
}

func (r *sqlRepository) ListRecords(runID string) ([]*StadiumRecord, error) {
	rows, err := r.db.Query(`
		SELECT
			stadium_name, capacity_text, region, country, city,
			capacity, original_stadium_name, location, lat, lon, resolved_by
		FROM stadiums
		WHERE run_id = ?
		ORDER BY row_no
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying records of %s: %w", runID, err)
	}
	defer rows.Close()

	var ret []*StadiumRecord

	for rows.Next() {
		var record StadiumRecord

		var location, resolvedBy string

		var lat, lon sql.NullFloat64

		if err := rows.Scan(
			&record.StadiumName, &record.CapacityText, &record.Region, &record.Country, &record.City,
			&record.Capacity, &record.OriginalStadiumName, &location, &lat, &lon, &resolvedBy,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		if err := record.Location.UnmarshalText([]byte(location)); err != nil {
			return nil, fmt.Errorf("record %s: %w", record.StadiumName, err)
		}

		if lat.Valid && lon.Valid {
			record.Lat, record.Lon = &lat.Float64, &lon.Float64
		}

		record.ResolvedBy = ResolutionPass(resolvedBy)
		ret = append(ret, &record)
	}

	return ret, rows.Err()
}
