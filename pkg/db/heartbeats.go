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
	"fmt"
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// UpsertHeartbeat records at as the last update of stationID. Concurrent
// writers converge: the last write wins.
func (db *DB) UpsertHeartbeat(ctx context.Context, stationID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	const query = `
        INSERT INTO station_updates (station_id, update_time)
        VALUES (?, ?)
        ON CONFLICT(station_id) DO UPDATE SET
            update_time = excluded.update_time`

	if _, err := db.ExecContext(ctx, query, stationID, formatTime(at)); err != nil {
		return fmt.Errorf("%w heartbeat %s: %w", ErrFailedToInsert, stationID, err)
	}

	return nil
}

// ListHeartbeats returns every station heartbeat ordered by station id.
func (db *DB) ListHeartbeats(ctx context.Context) ([]models.StationHeartbeat, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
        SELECT station_id, update_time
        FROM station_updates
        ORDER BY station_id`) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w heartbeats: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var beats []models.StationHeartbeat

	for rows.Next() {
		var (
			hb models.StationHeartbeat
			at string
		)

		if err := rows.Scan(&hb.StationID, &at); err != nil {
			return nil, fmt.Errorf("%w heartbeat: %w", ErrFailedToScan, err)
		}

		if hb.UpdateTime, err = parseTime(at); err != nil {
			return nil, err
		}

		beats = append(beats, hb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w heartbeats: %w", ErrFailedToQuery, err)
	}

	return beats, nil
}
