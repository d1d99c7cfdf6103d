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
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)

var recordColumns = []string{"id", "collection", "device_code", "motor_type", "test_fail", "time", "created", "updated", "data"}

func newMockDB(t *testing.T, opts ...Option) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqlDB.Close() })

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)

	return NewFromDB(sqlDB, opts...), mock
}

func TestTimeFormatSortsAsText(t *testing.T) {
	a := formatTime(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2025, 1, 1, 10, 0, 0, 500, time.UTC))
	c := formatTime(time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("x", 3*60*60)))

	assert.Equal(t, "2025-01-01T10:00:00.000000000Z", a)
	assert.Less(t, a, b)
	assert.Less(t, c, a, "zoned times are stored in UTC")

	parsed, err := parseTime(b)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2025, 1, 1, 10, 0, 0, 500, time.UTC)))

	_, err = parseTime("yesterday")
	require.ErrorIs(t, err, ErrFailedToDecode)
}

func TestInsertRecordPublishes(t *testing.T) {
	broker := feed.NewBroker()
	sub, err := broker.Subscribe("station_a26", 1)
	require.NoError(t, err)

	db, mock := newMockDB(t, WithPublisher(broker))

	at := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	rec := &models.MeasurementRecord{
		ID:         "r1",
		Collection: "station_a26",
		DeviceCode: "P1",
		MotorType:  models.MotorEFAD,
		TestFail:   true,
		Time:       at,
		Data:       models.RawRecord{{Key: "Un_UV", Value: 2.5}},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO measurements")).
		WithArgs("r1", "station_a26", "P1", "EFAD", true,
			"2025-02-03T09:00:00.000000000Z",
			"2025-02-03T10:00:00.000000000Z",
			"2025-02-03T10:00:00.000000000Z",
			`{"Un_UV":2.5}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.InsertRecord(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())

	ev := <-sub.C()
	assert.Equal(t, feed.ActionCreate, ev.Action)
	assert.Same(t, rec, ev.Record)
	assert.Equal(t, fixedNow, rec.Created)
	assert.Equal(t, int64(1), rec.Seq)
}

func TestInsertRecordFailureDoesNotPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := NewMockPublisher(ctrl)
	db, mock := newMockDB(t, WithPublisher(pub))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO measurements")).
		WillReturnError(errors.New("disk full"))

	err := db.InsertRecord(context.Background(), &models.MeasurementRecord{Collection: "station_a20"})
	require.ErrorIs(t, err, ErrFailedToInsert)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsBuildsFilter(t *testing.T) {
	db, mock := newMockDB(t)

	window := models.TimeWindow{
		Start: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC),
	}
	filter := Failing(window)
	filter.DeviceCode = "P1"
	filter.MotorType = models.MotorERAD
	filter.Limit = 10

	query := "SELECT id, collection, device_code, motor_type, test_fail, time, created, updated, data " +
		"FROM measurements WHERE collection = ? AND device_code = ? AND motor_type = ? AND test_fail = ? " +
		"AND time >= ? AND time < ? ORDER BY time DESC, created DESC LIMIT ?"

	rows := sqlmock.NewRows(recordColumns).
		AddRow("r1", "station_a20", "P1", "ERAD", true,
			"2025-02-03T08:00:00.000000000Z", "2025-02-03T08:00:01.000000000Z", "2025-02-03T08:00:01.000000000Z",
			`{"id":"r1","NTC1_Res":9.5,"device_code":"P1"}`)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("station_a20", "P1", "ERAD", true,
			"2025-02-03T00:00:00.000000000Z", "2025-02-04T00:00:00.000000000Z", 10).
		WillReturnRows(rows)

	records, err := db.ListRecords(context.Background(), "station_a20", filter)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NoError(t, mock.ExpectationsWereMet())

	rec := records[0]
	assert.Equal(t, models.MotorERAD, rec.MotorType)
	assert.True(t, rec.TestFail)
	assert.Equal(t, time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC), rec.Time)
	assert.Equal(t, "id", rec.Data[0].Key)
	assert.Equal(t, "NTC1_Res", rec.Data[1].Key)
}

func TestGetLatestRecordNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY time DESC, created DESC LIMIT ?")).
		WithArgs("station_nvh", "P9", 1).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := db.GetLatestRecord(context.Background(), "station_nvh", "P9")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsQueryError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM measurements")).WillReturnError(errors.New("locked"))

	_, err := db.ListRecords(context.Background(), "station_a20", nil)
	require.ErrorIs(t, err, ErrFailedToQuery)
}

func TestListLimits(t *testing.T) {
	db, mock := newMockDB(t)
	efad := models.MotorEFAD

	mock.ExpectQuery(regexp.QuoteMeta("FROM station_limits WHERE station = ? AND motor_type = ? ORDER BY rowid")).
		WithArgs("A26", "EFAD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "station", "motor_type", "bounds"}).
			AddRow("l1", "A26", "EFAD", `{"Un_UV_MIN":2,"Un_UV_MAX":2.2}`))

	entries, err := db.ListLimits(context.Background(), "a26", &efad)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	high, ok := entries[0].Max("Un_UV")
	require.True(t, ok)
	assert.InDelta(t, 2.2, high, 1e-9)

	mock.ExpectQuery(regexp.QuoteMeta("FROM station_limits WHERE station = ? ORDER BY rowid")).
		WithArgs("A26").
		WillReturnRows(sqlmock.NewRows([]string{"id", "station", "motor_type", "bounds"}))

	entries, err = db.ListLimits(context.Background(), "A26", nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertLimits(t *testing.T) {
	t.Run("updates existing row", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE station_limits")).
			WithArgs(`{"THD_MAX":1}`, "2025-02-03T10:00:00.000000000Z", "A26", "EFAD").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry := &models.LimitEntry{Station: "a26", MotorType: models.MotorEFAD, Bounds: map[string]float64{"THD_MAX": 1}}
		require.NoError(t, db.UpsertLimits(context.Background(), entry))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inserts missing row", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE station_limits")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO station_limits")).
			WithArgs("l9", "A26", "ERAD", `{"THD_MAX":1}`, "2025-02-03T10:00:00.000000000Z").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		entry := &models.LimitEntry{ID: "l9", Station: "A26", MotorType: models.MotorERAD, Bounds: map[string]float64{"THD_MAX": 1}}
		require.NoError(t, db.UpsertLimits(context.Background(), entry))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE station_limits")).WillReturnError(errors.New("locked"))
		mock.ExpectRollback()

		entry := &models.LimitEntry{Station: "A26", MotorType: models.MotorERAD}
		require.ErrorIs(t, db.UpsertLimits(context.Background(), entry), ErrFailedToUpdate)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLiveErrors(t *testing.T) {
	db, mock := newMockDB(t)

	limit := 2.2
	ev := &models.LiveErrorEvent{
		ID:          "e1",
		StationName: "A26",
		MotorType:   models.MotorEFAD,
		DeviceCode:  "P1",
		DeviceID:    "r1",
		Time:        time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC),
		Errors: []models.FieldResult{
			{Test: "Un_UV", Value: 2.5, Limit: &limit, Classification: models.ClassAbove, Severity: models.SeverityHigh, Offset: 0.3},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO live_errors")).
		WithArgs("e1", "A26", "EFAD", "P1", "r1", "2025-02-03T09:00:00.000000000Z",
			storedErrors(`[{"test":"Un_UV","value":2.5,"limit":2.2,"type":"above","offset":0.3}]`),
			"2025-02-03T10:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.InsertLiveError(context.Background(), ev))

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.InsertLiveError(context.Background(), ev)
	require.ErrorIs(t, err, models.ErrDuplicateLiveError)

	mock.ExpectQuery(regexp.QuoteMeta("FROM live_errors ORDER BY created DESC, time DESC LIMIT ?")).
		WithArgs(models.MaxLiveErrorHistory).
		WillReturnRows(sqlmock.NewRows([]string{"id", "station_name", "motor_type", "device_code", "device_id", "time", "errors", "created"}).
			AddRow("e1", "A26", "EFAD", "P1", "r1", "2025-02-03T09:00:00.000000000Z",
				`[{"test":"Un_UV","value":2.5,"limit":2.2,"type":"above","severity":"high","offset":0.3}]`,
				"2025-02-03T10:00:00.000000000Z"))

	// Rows written before severity was derived still carry it; it is ignored.
	events, err := db.ListLiveErrors(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ev.Errors, events[0].Errors)
	assert.Equal(t, models.SeverityHigh, events[0].Errors[0].Severity)
	assert.Equal(t, fixedNow, events[0].Created)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM live_errors WHERE created < ?")).
		WithArgs("2025-01-01T00:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := db.PruneLiveErrors(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

// storedErrors matches the errors column against its exact JSON.
type storedErrors string

func (s storedErrors) Match(v driver.Value) bool {
	got, ok := v.(string)

	return ok && got == string(s)
}

func TestHeartbeats(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT(station_id) DO UPDATE SET update_time = excluded.update_time")).
		WithArgs("station_a20", "2025-02-03T10:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.UpsertHeartbeat(context.Background(), "station_a20", fixedNow))

	mock.ExpectQuery(regexp.QuoteMeta("FROM station_updates ORDER BY station_id")).
		WillReturnRows(sqlmock.NewRows([]string{"station_id", "update_time"}).
			AddRow("station_a20", "2025-02-03T10:00:00.000000000Z"))

	beats, err := db.ListHeartbeats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.StationHeartbeat{{StationID: "station_a20", UpdateTime: fixedNow}}, beats)
	require.NoError(t, mock.ExpectationsWereMet())
}
