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

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mfreeman451/lineradar/pkg/models"
)

// ListLimits returns the limit rows of station in insertion order. A nil
// motorType returns the rows of every motor type.
func (db *DB) ListLimits(ctx context.Context, station string, motorType *models.MotorType) ([]*models.LimitEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	query := `
        SELECT id, station, motor_type, bounds
        FROM station_limits
        WHERE station = ?`
	args := []interface{}{strings.ToUpper(station)}

	if motorType != nil {
		query += " AND motor_type = ?"
		args = append(args, string(*motorType))
	}

	query += " ORDER BY rowid"

	rows, err := db.QueryContext(ctx, query, args...) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w %s limits: %w", ErrFailedToQuery, station, err)
	}
	defer closeRows(rows)

	var entries []*models.LimitEntry

	for rows.Next() {
		var (
			entry     models.LimitEntry
			motor     string
			boundsRaw string
		)

		if err := rows.Scan(&entry.ID, &entry.Station, &motor, &boundsRaw); err != nil {
			return nil, fmt.Errorf("%w limit row: %w", ErrFailedToScan, err)
		}

		entry.MotorType = models.MotorType(motor)

		if err := json.Unmarshal([]byte(boundsRaw), &entry.Bounds); err != nil {
			return nil, fmt.Errorf("%w bounds of %s: %w", ErrFailedToDecode, entry.ID, err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w %s limits: %w", ErrFailedToQuery, station, err)
	}

	return entries, nil
}

// UpsertLimits replaces the bounds of (station, motor type), creating the
// row when it does not exist yet.
func (db *DB) UpsertLimits(ctx context.Context, entry *models.LimitEntry) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	entry.Station = strings.ToUpper(entry.Station)

	bounds, err := json.Marshal(entry.Bounds)
	if err != nil {
		return fmt.Errorf("%w bounds: %w", ErrFailedToEncode, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}
	defer func() { rollbackOnError(tx, err) }()

	updated := formatTime(db.now())

	err = updateExistingLimits(ctx, tx, entry, string(bounds), updated)
	if errors.Is(err, sql.ErrNoRows) {
		err = insertNewLimits(ctx, tx, entry, string(bounds), updated)
	}

	if err != nil {
		return err
	}

	err = tx.Commit()

	return err
}

func updateExistingLimits(ctx context.Context, tx *sql.Tx, entry *models.LimitEntry, bounds, updated string) error {
	result, err := tx.ExecContext(ctx, `
        UPDATE station_limits
        SET bounds = ?,
            updated = ?
        WHERE station = ? AND motor_type = ?`,
		bounds, updated, entry.Station, string(entry.MotorType))
	if err != nil {
		return fmt.Errorf("%w limits: %w", ErrFailedToUpdate, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func insertNewLimits(ctx context.Context, tx *sql.Tx, entry *models.LimitEntry, bounds, updated string) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := tx.ExecContext(ctx, `
        INSERT INTO station_limits (id, station, motor_type, bounds, updated)
        VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Station, string(entry.MotorType), bounds, updated)
	if err != nil {
		return fmt.Errorf("%w limits: %w", ErrFailedToInsert, err)
	}

	return nil
}
