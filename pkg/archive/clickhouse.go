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

// Package archive copies live error breaches into ClickHouse for long-term
// analysis outside the dashboard.
package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
)

const createBreachesSQL = `
    CREATE TABLE IF NOT EXISTS live_error_breaches (
        created        DateTime64(3, 'UTC'),
        time           DateTime64(3, 'UTC'),
        event_id       String,
        station        LowCardinality(String),
        motor_type     LowCardinality(String),
        device_code    String,
        test           LowCardinality(String),
        value          Float64,
        classification LowCardinality(String),
        offset         Float64
    ) ENGINE = MergeTree
    ORDER BY (station, test, created)`

const insertBreachSQL = `
    INSERT INTO live_error_breaches
        (created, time, event_id, station, motor_type, device_code, test, value, classification, offset)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Config locates the ClickHouse server.
type Config struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Addr     string `json:"addr" yaml:"addr"` // e.g., localhost:9000
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Conn is the part of a ClickHouse connection the archive writes through.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

// Archive is a live error sink writing one row per breached test.
type Archive struct {
	conn Conn
}

// Open connects to ClickHouse and creates the breach table.
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: dialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConnect, err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("%w: %w", errConnect, err)
	}

	a, err := New(ctx, conn)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	log.Printf("Archiving live errors to ClickHouse at %s", cfg.Addr)

	return a, nil
}

// New wraps an open connection and ensures the schema exists.
func New(ctx context.Context, conn Conn) (*Archive, error) {
	if err := conn.Exec(ctx, createBreachesSQL); err != nil {
		return nil, fmt.Errorf("%w: %w", errInitSchema, err)
	}

	return &Archive{conn: conn}, nil
}

// Notify archives every breach of ev.
func (a *Archive) Notify(ctx context.Context, ev *models.LiveErrorEvent) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	for _, r := range ev.Errors {
		err := a.conn.Exec(ctx, insertBreachSQL,
			ev.Created.UTC(),
			ev.Time.UTC(),
			ev.ID,
			ev.StationName,
			string(ev.MotorType),
			ev.DeviceCode,
			r.Test,
			r.Value,
			string(r.Classification),
			r.Offset,
		)
		if err != nil {
			return fmt.Errorf("%w %s/%s: %w", errInsertBreach, ev.ID, r.Test, err)
		}
	}

	return nil
}

func (a *Archive) Close() error {
	return a.conn.Close()
}
