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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfreeman451/lineradar/pkg/models"
)

// storedResult is a FieldResult as persisted. Severity is a display hint
// derived from the classification on read.
type storedResult struct {
	Test           string                `json:"test"`
	Value          float64               `json:"value"`
	Limit          *float64              `json:"limit,omitempty"`
	Classification models.Classification `json:"type"`
	Offset         float64               `json:"offset"`
}

func encodeResults(results []models.FieldResult) ([]byte, error) {
	stored := make([]storedResult, len(results))

	for i, r := range results {
		stored[i] = storedResult{
			Test:           r.Test,
			Value:          r.Value,
			Limit:          r.Limit,
			Classification: r.Classification,
			Offset:         r.Offset,
		}
	}

	return json.Marshal(stored)
}

func decodeResults(data []byte) ([]models.FieldResult, error) {
	var stored []storedResult
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	results := make([]models.FieldResult, len(stored))

	for i, r := range stored {
		results[i] = models.FieldResult{
			Test:           r.Test,
			Value:          r.Value,
			Limit:          r.Limit,
			Classification: r.Classification,
			Severity:       r.Classification.Severity(),
			Offset:         r.Offset,
		}
	}

	return results, nil
}

// InsertLiveError appends one live error event. A second event for the
// same measurement is rejected with models.ErrDuplicateLiveError.
func (db *DB) InsertLiveError(ctx context.Context, ev *models.LiveErrorEvent) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	if ev.Created.IsZero() {
		ev.Created = db.now().UTC()
	}

	errs, err := encodeResults(ev.Errors)
	if err != nil {
		return fmt.Errorf("%w errors: %w", ErrFailedToEncode, err)
	}

	const insertSQL = `
        INSERT INTO live_errors
            (id, station_name, motor_type, device_code, device_id, time, errors, created)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT DO NOTHING`

	result, err := db.ExecContext(ctx, insertSQL,
		ev.ID,
		ev.StationName,
		string(ev.MotorType),
		ev.DeviceCode,
		ev.DeviceID,
		formatTime(ev.Time),
		string(errs),
		formatTime(ev.Created),
	)
	if err != nil {
		return fmt.Errorf("%w live error: %w", ErrFailedToInsert, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w live error: %w", ErrFailedToInsert, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: measurement %s", models.ErrDuplicateLiveError, ev.DeviceID)
	}

	return nil
}

// ListLiveErrors returns up to limit events, newest first.
func (db *DB) ListLiveErrors(ctx context.Context, limit int) ([]*models.LiveErrorEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	if limit <= 0 {
		limit = models.MaxLiveErrorHistory
	}

	const querySQL = `
        SELECT id, station_name, motor_type, device_code, device_id, time, errors, created
        FROM live_errors
        ORDER BY created DESC, time DESC
        LIMIT ?`

	rows, err := db.QueryContext(ctx, querySQL, limit) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w live errors: %w", ErrFailedToQuery, err)
	}
	defer closeRows(rows)

	var events []*models.LiveErrorEvent

	for rows.Next() {
		var (
			ev           models.LiveErrorEvent
			motorType    string
			at, created  string
			errorsColumn string
		)

		if err := rows.Scan(&ev.ID, &ev.StationName, &motorType, &ev.DeviceCode, &ev.DeviceID,
			&at, &errorsColumn, &created); err != nil {
			return nil, fmt.Errorf("%w live error: %w", ErrFailedToScan, err)
		}

		ev.MotorType = models.MotorType(motorType)

		if ev.Time, err = parseTime(at); err != nil {
			return nil, err
		}

		if ev.Created, err = parseTime(created); err != nil {
			return nil, err
		}

		if ev.Errors, err = decodeResults([]byte(errorsColumn)); err != nil {
			return nil, fmt.Errorf("%w errors of %s: %w", ErrFailedToDecode, ev.ID, err)
		}

		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w live errors: %w", ErrFailedToQuery, err)
	}

	return events, nil
}

// PruneLiveErrors deletes events created before olderThan.
func (db *DB) PruneLiveErrors(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	result, err := db.ExecContext(ctx, "DELETE FROM live_errors WHERE created < ?", formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("%w live errors: %w", ErrFailedToClean, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w live errors: %w", ErrFailedToClean, err)
	}

	return n, nil
}
