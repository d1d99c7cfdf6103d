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

package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	errStoreDown = errors.New("store down")
	testWindow   = models.TimeWindow{
		Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
	}
)

func limitEntry(station string, mt models.MotorType, ranges map[string][2]float64) *models.LimitEntry {
	e := &models.LimitEntry{ID: station + string(mt), Station: station, MotorType: mt}
	for test, r := range ranges {
		e.SetRange(test, r[0], r[1])
	}

	return e
}

func record(collection, device string, mt models.MotorType, minute int, fields ...any) *models.MeasurementRecord {
	data := models.RawRecord{{Key: "device_code", Value: device}}
	for i := 0; i+1 < len(fields); i += 2 {
		data = append(data, models.RawField{Key: fields[i].(string), Value: fields[i+1]})
	}

	return &models.MeasurementRecord{
		ID:         collection + device,
		Collection: collection,
		DeviceCode: device,
		MotorType:  mt,
		TestFail:   true,
		Time:       testWindow.Start.Add(time.Duration(minute) * time.Minute),
		Data:       data,
	}
}

func stubLimits(store *db.MockService, entries map[string][]*models.LimitEntry, errs map[string]error) {
	store.EXPECT().ListLimits(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, station string, mt *models.MotorType) ([]*models.LimitEntry, error) {
			if err := errs[station]; err != nil {
				return nil, err
			}

			var out []*models.LimitEntry

			for _, e := range entries[station] {
				if mt == nil || e.MotorType == *mt {
					out = append(out, e)
				}
			}

			return out, nil
		}).AnyTimes()
}

func stubLatest(store *db.MockService, records map[string]*models.MeasurementRecord, errs map[string]error) {
	store.EXPECT().GetLatestRecord(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, collection, _ string) (*models.MeasurementRecord, error) {
			if err := errs[collection]; err != nil {
				return nil, err
			}

			if rec, ok := records[collection]; ok {
				return rec, nil
			}

			return nil, db.ErrNotFound
		}).Times(len(models.Stations))
}

func TestDeviceTimelineUnknownDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	stubLatest(store, nil, nil)

	tl, err := NewService(store).DeviceTimeline(context.Background(), "NOPE")
	require.NoError(t, err)

	require.Len(t, tl.Stations, len(models.Stations))
	assert.Equal(t, "NOPE", tl.Code)
	assert.Empty(t, tl.CurrentStation)
	assert.Empty(t, tl.Type)

	for i, st := range tl.Stations {
		assert.Equal(t, models.Stations[i].Name, st.Name)
		assert.Equal(t, models.StatusPending, st.Status)
		assert.Empty(t, st.Tests)
	}
}

func TestDeviceTimeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)

	stubLatest(store, map[string]*models.MeasurementRecord{
		"station_a20": record("station_a20", "P1", models.MotorEFAD, 1, "HiPot_1_UVW_G_NTC", 12.0, "IR_1_UVW_G_NTC", 500.0),
		"station_a26": record("station_a26", "P1", models.MotorERAD, 2, "Un_UV", 2.5, "Un_VW", 2.1),
	}, map[string]error{"station_a25": errStoreDown})

	stubLimits(store, map[string][]*models.LimitEntry{
		"A20": {limitEntry("A20", models.MotorEFAD, map[string][2]float64{"HiPot_1_UVW_G_NTC": {0, 10}, "IR_1_UVW_G_NTC": {100, 1000}})},
		"A26": {
			limitEntry("A26", models.MotorEFAD, map[string][2]float64{"Un_UV": {0, 1}}),
			limitEntry("A26", models.MotorERAD, map[string][2]float64{"Un_UV": {2.0, 2.2}, "Un_VW": {2.0, 2.2}}),
		},
	}, nil)

	tl, err := NewService(store).DeviceTimeline(context.Background(), " P1 ")
	require.NoError(t, err)

	assert.Equal(t, "P1", tl.Code)
	assert.Equal(t, models.MotorERAD, tl.Type)
	assert.Equal(t, "A26", tl.CurrentStation)
	require.Len(t, tl.Stations, len(models.Stations))

	a20 := tl.Stations[0]
	assert.Equal(t, models.StatusFailed, a20.Status)
	assert.Equal(t, []models.TimelineTest{
		{Name: "HiPot_1_UVW_G_NTC", Result: "failed", MeasuredValue: "12", OffsetFromLimit: "+2.000"},
		{Name: "IR_1_UVW_G_NTC", Result: "passed", MeasuredValue: "500"},
	}, a20.Tests)

	assert.Equal(t, models.StatusPending, tl.Stations[1].Status)

	a26 := tl.Stations[2]
	assert.Equal(t, models.StatusFailed, a26.Status)
	assert.Equal(t, []models.TimelineTest{
		{Name: "Un_UV", Result: "failed", MeasuredValue: "2.5", OffsetFromLimit: "+0.300"},
		{Name: "Un_VW", Result: "passed", MeasuredValue: "2.1"},
	}, a26.Tests)

	for _, st := range tl.Stations[3:] {
		assert.Equal(t, models.StatusPending, st.Status)
	}
}

func TestDeviceTimelineWithoutLimitsPasses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	stubLatest(store, map[string]*models.MeasurementRecord{
		"station_a20": record("station_a20", "P1", "", 1, "HiPot_1_UVW_G_NTC", -3.0),
	}, nil)
	stubLimits(store, nil, map[string]error{"A20": errStoreDown})

	tl, err := NewService(store).DeviceTimeline(context.Background(), "P1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPassed, tl.Stations[0].Status)
	assert.Equal(t, "passed", tl.Stations[0].Tests[0].Result)
	assert.Empty(t, tl.Type)
}

func TestDeviceTimelineErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	svc := NewService(store)

	_, err := svc.DeviceTimeline(context.Background(), "  ")
	require.ErrorIs(t, err, ErrMissingDeviceCode)

	store.EXPECT().GetLatestRecord(gomock.Any(), gomock.Any(), "P1").
		Return(nil, errStoreDown).Times(len(models.Stations))

	_, err = svc.DeviceTimeline(context.Background(), "P1")
	require.ErrorIs(t, err, ErrRecordFetchFailed)
}

// failingFixture stubs one day of failing records across the line:
// A20 has 2 breaching records, A25 cannot be read, A26 has 4, S02 has
// no limits, NVH only has ERAD limits and R23 has 3, one without a
// device code.
func failingFixture(store *db.MockService) {
	records := map[string][]*models.MeasurementRecord{
		"station_a20": {
			record("station_a20", "D1", models.MotorEFAD, 1, "HiPot_1_UVW_G_NTC", 12.0, "IR_1_UVW_G_NTC", 50.0),
			record("station_a20", "D2", models.MotorEFAD, 2, "HiPot_1_UVW_G_NTC", 11.0),
			record("station_a20", "D3", models.MotorEFAD, 3, "HiPot_1_UVW_G_NTC", 5.0),
		},
		"station_a26": {
			record("station_a26", "D4", models.MotorEFAD, 1, "Un_VW", 2.5),
			record("station_a26", "D5", models.MotorEFAD, 2, "Un_UV", 1.0),
			record("station_a26", "D6", models.MotorEFAD, 3, "Un_WU", 3.0),
			record("station_a26", "D7", models.MotorEFAD, 4, "THD", 7.0),
		},
		"station_s02": {
			record("station_s02", "D8", models.MotorEFAD, 1, "Un_UV", 100.0),
		},
		"station_nvh": {
			record("station_nvh", "D9", models.MotorEFAD, 1, "Vibration", 100.0),
		},
		"station_r23": {
			record("station_r23", "D10", models.MotorEFAD, 1, "THD", 6.0),
			record("station_r23", "D11", models.MotorEFAD, 2, "THD", 6.5),
			record("station_r23", "", models.MotorEFAD, 3, "THD", 9.0),
		},
	}

	store.EXPECT().ListRecords(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, collection string, f *db.RecordFilter) ([]*models.MeasurementRecord, error) {
			if f.TestFail == nil || !*f.TestFail || !f.Since.Equal(testWindow.Start) || !f.Until.Equal(testWindow.End) {
				return nil, errors.New("unexpected filter")
			}

			if collection == "station_a25" {
				return nil, errStoreDown
			}

			return records[collection], nil
		}).Times(len(models.Stations))

	stubLimits(store, map[string][]*models.LimitEntry{
		"A20": {limitEntry("A20", models.MotorEFAD, map[string][2]float64{"HiPot_1_UVW_G_NTC": {0, 10}, "IR_1_UVW_G_NTC": {100, 1000}})},
		"A26": {limitEntry("A26", models.MotorEFAD, map[string][2]float64{
			"Un_UV": {2.0, 2.2}, "Un_VW": {2.0, 2.2}, "Un_WU": {2.0, 2.2}, "THD": {0, 5},
		})},
		"NVH": {limitEntry("NVH", models.MotorERAD, map[string][2]float64{"Vibration": {0, 1}})},
		"R23": {limitEntry("R23", models.MotorEFAD, map[string][2]float64{"THD": {0, 5}})},
	}, nil)
}

func TestTopFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	failingFixture(store)

	top, err := NewService(store).TopFails(context.Background(), testWindow)
	require.NoError(t, err)

	assert.Equal(t, []models.StationFails{
		{Station: "A26", Value: 4, TopTests: []models.TestCount{
			{Name: "Un_VW", Count: 1}, {Name: "Un_UV", Count: 1}, {Name: "Un_WU", Count: 1},
		}},
		{Station: "R23", Value: 3, TopTests: []models.TestCount{{Name: "THD", Count: 3}}},
		{Station: "A20", Value: 2, TopTests: []models.TestCount{
			{Name: "HiPot_1_UVW_G_NTC", Count: 2}, {Name: "IR_1_UVW_G_NTC", Count: 1},
		}},
	}, top.Stations)

	require.Len(t, top.Partial, 1)
	assert.Equal(t, "A25", top.Partial[0].Station)
}

func TestTopFailsTiesKeepStationOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)

	store.EXPECT().ListRecords(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, collection string, _ *db.RecordFilter) ([]*models.MeasurementRecord, error) {
			switch collection {
			case "station_r23", "station_a25":
				return []*models.MeasurementRecord{record(collection, "D1", models.MotorEFAD, 1, "THD", 9.0, "Offset_NTC1_Res", 9.0)}, nil
			default:
				return nil, nil
			}
		}).Times(len(models.Stations))

	stubLimits(store, map[string][]*models.LimitEntry{
		"A25": {limitEntry("A25", models.MotorEFAD, map[string][2]float64{"Offset_NTC1_Res": {0, 1}})},
		"R23": {limitEntry("R23", models.MotorEFAD, map[string][2]float64{"THD": {0, 1}})},
	}, nil)

	top, err := NewService(store).TopFails(context.Background(), testWindow)
	require.NoError(t, err)

	require.Len(t, top.Stations, 2)
	assert.Equal(t, "A25", top.Stations[0].Station)
	assert.Equal(t, "R23", top.Stations[1].Station)
	assert.Empty(t, top.Partial)
}

func TestTopFailsAllStationsFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	store.EXPECT().ListRecords(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errStoreDown).Times(len(models.Stations))

	_, err := NewService(store).TopFails(context.Background(), testWindow)
	require.ErrorIs(t, err, ErrRecordFetchFailed)
}

func TestFailDetail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	failingFixture(store)

	detail, err := NewService(store).FailDetail(context.Background(), testWindow)
	require.NoError(t, err)

	require.Len(t, detail.Stations, 3)
	assert.Equal(t, "A26", detail.Stations[0].Station)
	assert.Equal(t, "A20", detail.Stations[1].Station)
	assert.Equal(t, "R23", detail.Stations[2].Station)

	a20 := detail.Stations[1]
	assert.Equal(t, 3, a20.Total())
	assert.Equal(t, []models.TestFailures{
		{Test: "HiPot_1_UVW_G_NTC", Records: []models.FailedRecord{
			{DeviceCode: "D1", MeasuredValue: 12, Limit: 10, Difference: 2, Timestamp: testWindow.Start.Add(time.Minute)},
			{DeviceCode: "D2", MeasuredValue: 11, Limit: 10, Difference: 1, Timestamp: testWindow.Start.Add(2 * time.Minute)},
		}},
		{Test: "IR_1_UVW_G_NTC", Records: []models.FailedRecord{
			{DeviceCode: "D1", MeasuredValue: 50, Limit: 100, Difference: -50, Timestamp: testWindow.Start.Add(time.Minute)},
		}},
	}, a20.Tests)

	r23 := detail.Stations[2]
	assert.Equal(t, 2, r23.Total())

	require.Len(t, detail.Partial, 1)
	assert.Equal(t, "A25", detail.Partial[0].Station)
}

func TestDefaultMotorTypeOption(t *testing.T) {
	svc := NewService(nil, WithDefaultMotorType(models.MotorShort))
	assert.Equal(t, models.MotorShort, svc.DefaultMotorType())

	svc = NewService(nil, WithDefaultMotorType("bogus"))
	assert.Equal(t, models.MotorEFAD, svc.DefaultMotorType())
}
