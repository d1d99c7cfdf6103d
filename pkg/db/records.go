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

	"github.com/google/uuid"
	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const selectRecordSQL = `
        SELECT id, collection, device_code, motor_type, test_fail, time, created, updated, data
        FROM measurements
        WHERE collection = ?`

// InsertRecord stores a measurement and announces it on the change feed.
// The feed is told after the row is written; it never blocks the insert.
func (db *DB) InsertRecord(ctx context.Context, rec *models.MeasurementRecord) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	now := db.now().UTC()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if rec.Created.IsZero() {
		rec.Created = now
	}

	rec.Updated = now

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("%w data: %w", ErrFailedToEncode, err)
	}

	const insertSQL = `
        INSERT INTO measurements
            (id, collection, device_code, motor_type, test_fail, time, created, updated, data)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := db.ExecContext(ctx, insertSQL,
		rec.ID,
		rec.Collection,
		rec.DeviceCode,
		string(rec.MotorType),
		rec.TestFail,
		formatTime(rec.Time),
		formatTime(rec.Created),
		formatTime(rec.Updated),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("%w measurement: %w", ErrFailedToInsert, err)
	}

	if seq, err := result.LastInsertId(); err == nil {
		rec.Seq = seq
	}

	if db.feed != nil {
		db.feed.Publish(feed.Event{
			Action:     feed.ActionCreate,
			Collection: rec.Collection,
			Record:     rec,
			At:         now,
		})
	}

	return nil
}

// queryBuilder helps construct SQL queries with parameters.
type queryBuilder struct {
	query string
	args  []interface{}
}

func newQueryBuilder(collection string) *queryBuilder {
	return &queryBuilder{
		query: selectRecordSQL,
		args:  []interface{}{collection},
	}
}

func (qb *queryBuilder) addDeviceFilter(deviceCode string) {
	if deviceCode != "" {
		qb.query += " AND device_code = ?"
		qb.args = append(qb.args, deviceCode)
	}
}

func (qb *queryBuilder) addMotorTypeFilter(motorType models.MotorType) {
	if motorType != "" {
		qb.query += " AND motor_type = ?"
		qb.args = append(qb.args, string(motorType))
	}
}

func (qb *queryBuilder) addTestFailFilter(testFail *bool) {
	if testFail != nil {
		qb.query += " AND test_fail = ?"
		qb.args = append(qb.args, *testFail)
	}
}

func (qb *queryBuilder) addTimeRangeFilter(filter *RecordFilter) {
	if !filter.Since.IsZero() {
		qb.query += " AND time >= ?"
		qb.args = append(qb.args, formatTime(filter.Since))
	}

	if !filter.Until.IsZero() {
		qb.query += " AND time < ?"
		qb.args = append(qb.args, formatTime(filter.Until))
	}
}

// finalize adds ordering and limit and returns the complete query and args.
func (qb *queryBuilder) finalize(ascending bool, limit int) (queryString string, queryArgs []interface{}) {
	if ascending {
		qb.query += " ORDER BY time ASC, created ASC"
	} else {
		qb.query += " ORDER BY time DESC, created DESC"
	}

	if limit > 0 {
		qb.query += " LIMIT ?"
		qb.args = append(qb.args, limit)
	}

	return qb.query, qb.args
}

// ListRecords returns the measurements of collection matching filter.
// A nil filter lists everything, newest first.
func (db *DB) ListRecords(ctx context.Context, collection string, filter *RecordFilter) ([]*models.MeasurementRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	if filter == nil {
		filter = &RecordFilter{}
	}

	qb := newQueryBuilder(collection)
	qb.addDeviceFilter(filter.DeviceCode)
	qb.addMotorTypeFilter(filter.MotorType)
	qb.addTestFailFilter(filter.TestFail)
	qb.addTimeRangeFilter(filter)
	query, args := qb.finalize(filter.Ascending, filter.Limit)

	rows, err := db.QueryContext(ctx, query, args...) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w %s records: %w", ErrFailedToQuery, collection, err)
	}
	defer closeRows(rows)

	var records []*models.MeasurementRecord

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w %s records: %w", ErrFailedToQuery, collection, err)
	}

	return records, nil
}

// GetLatestRecord returns the newest measurement of deviceCode in collection.
func (db *DB) GetLatestRecord(ctx context.Context, collection, deviceCode string) (*models.MeasurementRecord, error) {
	records, err := db.ListRecords(ctx, collection, &RecordFilter{DeviceCode: deviceCode, Limit: 1})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, deviceCode, collection)
	}

	return records[0], nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*models.MeasurementRecord, error) {
	var (
		rec                  models.MeasurementRecord
		motorType            string
		at, created, updated string
		data                 string
	)

	err := row.Scan(
		&rec.ID,
		&rec.Collection,
		&rec.DeviceCode,
		&motorType,
		&rec.TestFail,
		&at,
		&created,
		&updated,
		&data,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w measurement: %w", ErrFailedToScan, err)
	}

	rec.MotorType = models.MotorType(motorType)

	if rec.Time, err = parseTime(at); err != nil {
		return nil, err
	}

	if rec.Created, err = parseTime(created); err != nil {
		return nil, err
	}

	if rec.Updated, err = parseTime(updated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("%w data of %s: %w", ErrFailedToDecode, rec.ID, err)
	}

	return &rec, nil
}
