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
	"errors"
	"fmt"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// ListFailingRecords returns up to limit failing measurements of every
// station stored after seq, in insertion order.
func (db *DB) ListFailingRecords(ctx context.Context, afterSeq int64, limit int) ([]*models.MeasurementRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	const querySQL = `
        SELECT rowid, id, collection, device_code, motor_type, test_fail, time, created, updated, data
        FROM measurements
        WHERE test_fail = 1 AND rowid > ?
        ORDER BY rowid
        LIMIT ?`

	rows, err := db.QueryContext(ctx, querySQL, afterSeq, limit) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w failing records: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var records []*models.MeasurementRecord

	for rows.Next() {
		var seq int64

		rec, err := scanRecord(seqScanner{row: rows, seq: &seq})
		if err != nil {
			return nil, err
		}

		rec.Seq = seq
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w failing records: %w", ErrFailedToQuery, err)
	}

	return records, nil
}

// seqScanner reads the leading rowid column before the record columns.
type seqScanner struct {
	row scanner
	seq *int64
}

func (s seqScanner) Scan(dest ...interface{}) error {
	return s.row.Scan(append([]interface{}{s.seq}, dest...)...)
}

// GetFeedCursor returns the last sequence consumer name has finished, or
// zero when it never saved one.
func (db *DB) GetFeedCursor(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	var seq int64

	err := db.QueryRowContext(ctx, "SELECT seq FROM feed_cursors WHERE name = ?", name).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("%w cursor %s: %w", ErrFailedToQuery, name, err)
	}

	return seq, nil
}

// SetFeedCursor saves the progress of consumer name. A cursor never moves
// backwards.
func (db *DB) SetFeedCursor(ctx context.Context, name string, seq int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	const upsertSQL = `
        INSERT INTO feed_cursors (name, seq, updated)
        VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            seq = MAX(seq, excluded.seq),
            updated = excluded.updated`

	if _, err := db.ExecContext(ctx, upsertSQL, name, seq, formatTime(db.now())); err != nil {
		return fmt.Errorf("%w cursor %s: %w", ErrFailedToUpdate, name, err)
	}

	return nil
}
