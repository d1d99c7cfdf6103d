/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db pkg/db/db.go provides the SQLite record store for LineRadar.
package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dbOperationTimeout = 5 * time.Second

	// timeFormat is fixed width so stored times sort as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z"

	// SQL statements for database initialization.
	createTablesSQL = `
	-- Raw station measurements, one row per device test pass
	CREATE TABLE IF NOT EXISTS measurements (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		device_code TEXT NOT NULL DEFAULT '',
		motor_type TEXT NOT NULL DEFAULT '',
		test_fail BOOLEAN NOT NULL DEFAULT 0,
		time TEXT NOT NULL DEFAULT '',
		created TEXT NOT NULL,
		updated TEXT NOT NULL,
		data TEXT NOT NULL
	);

	-- Min/max bounds per station and motor type
	CREATE TABLE IF NOT EXISTS station_limits (
		id TEXT PRIMARY KEY,
		station TEXT NOT NULL,
		motor_type TEXT NOT NULL,
		bounds TEXT NOT NULL,
		updated TEXT NOT NULL
	);

	-- Breaching failures, append only
	CREATE TABLE IF NOT EXISTS live_errors (
		id TEXT PRIMARY KEY,
		station_name TEXT NOT NULL,
		motor_type TEXT NOT NULL DEFAULT '',
		device_code TEXT NOT NULL,
		device_id TEXT NOT NULL DEFAULT '',
		time TEXT NOT NULL,
		errors TEXT NOT NULL,
		created TEXT NOT NULL
	);

	-- Progress of change feed consumers through the measurements
	CREATE TABLE IF NOT EXISTS feed_cursors (
		name TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		updated TEXT NOT NULL
	);

	-- Last measurement time per station
	CREATE TABLE IF NOT EXISTS station_updates (
		station_id TEXT PRIMARY KEY,
		update_time TEXT NOT NULL
	);

	-- Indexes for better query performance
	CREATE INDEX IF NOT EXISTS idx_measurements_collection_time
		ON measurements(collection, time);
	CREATE INDEX IF NOT EXISTS idx_measurements_device
		ON measurements(device_code, collection, time);
	CREATE INDEX IF NOT EXISTS idx_station_limits_station
		ON station_limits(station, motor_type);
	CREATE INDEX IF NOT EXISTS idx_live_errors_created
		ON live_errors(created);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_live_errors_device_id
		ON live_errors(device_id) WHERE device_id != '';
	CREATE INDEX IF NOT EXISTS idx_measurements_failing
		ON measurements(test_fail, rowid);
	`
)

// DB represents the database connection and operations.
type DB struct {
	*sql.DB
	feed Publisher
	now  func() time.Time
}

type Option func(*DB)

// WithPublisher makes InsertRecord announce new records on p.
func WithPublisher(p Publisher) Option {
	return func(db *DB) {
		db.feed = p
	}
}

// WithClock overrides the clock used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// New creates a new database connection and initializes the schema.
func New(dbPath string, opts ...Option) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("%w: %w", ErrFailedToEnableWAL, err)
	}

	db := NewFromDB(sqlDB, opts...)
	if err := db.initSchema(); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return db, nil
}

// NewFromDB wraps an open connection without touching the schema.
func NewFromDB(sqlDB *sql.DB, opts ...Option) *DB {
	db := &DB{DB: sqlDB, now: time.Now}

	for _, opt := range opts {
		opt(db)
	}

	return db
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	_, err := db.Exec(createTablesSQL)

	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w time %q: %w", ErrFailedToDecode, s, err)
	}

	return t, nil
}

func rollbackOnError(tx *sql.Tx, err error) {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("Error rolling back transaction: %v", rbErr)
		}
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("failed to close rows: %v", err)
	}
}
