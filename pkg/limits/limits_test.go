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

package limits

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func unUVLimits() *models.LimitEntry {
	entry := &models.LimitEntry{ID: "l1", Station: "A26", MotorType: models.MotorEFAD}
	entry.SetRange("Un_UV", 2.0, 2.2)

	return entry
}

func TestClassifyScenarios(t *testing.T) {
	entry := unUVLimits()

	above := Classify("Un_UV", 2.5, entry)
	assert.Equal(t, models.ClassAbove, above.Classification)
	assert.Equal(t, models.SeverityHigh, above.Severity)
	assert.InDelta(t, 0.3, above.Offset, 1e-9)
	require.NotNil(t, above.Limit)
	assert.InDelta(t, 2.2, *above.Limit, 1e-9)
	assert.Equal(t, "+0.300", FormatOffset(above))

	below := Classify("Un_UV", 1.5, entry)
	assert.Equal(t, models.ClassBelow, below.Classification)
	assert.Equal(t, models.SeverityLow, below.Severity)
	assert.InDelta(t, -0.5, below.Offset, 1e-9)
	require.NotNil(t, below.Limit)
	assert.InDelta(t, 2.0, *below.Limit, 1e-9)
	assert.Equal(t, "-0.500", FormatOffset(below))

	pass := Classify("Un_UV", 2.1, entry)
	assert.Equal(t, models.ClassPass, pass.Classification)
	assert.Nil(t, pass.Limit)
	assert.Empty(t, FormatOffset(pass))
}

func TestClassifyTruthTable(t *testing.T) {
	values := []float64{-10, -1, 0, 0.5, 1, 1.5, 2, 10}
	type bound struct {
		v  float64
		ok bool
	}
	bounds := []bound{{0, false}, {-1, true}, {0.5, true}, {1.5, true}, {2, true}}

	for _, value := range values {
		for _, lo := range bounds {
			for _, hi := range bounds {
				entry := &models.LimitEntry{Bounds: map[string]float64{}}
				if lo.ok {
					entry.Bounds["T_MIN"] = lo.v
				}

				if hi.ok {
					entry.Bounds["T_MAX"] = hi.v
				}

				r := Classify("T", value, entry)

				wantBelow := lo.ok && value < lo.v
				wantAbove := !wantBelow && hi.ok && value > hi.v

				switch {
				case wantBelow:
					assert.Equal(t, models.ClassBelow, r.Classification)
					assert.Less(t, r.Offset, 0.0)
					assert.InDelta(t, math.Abs(value-lo.v), math.Abs(r.Offset), 1e-9)
				case wantAbove:
					assert.Equal(t, models.ClassAbove, r.Classification)
					assert.Greater(t, r.Offset, 0.0)
					assert.InDelta(t, math.Abs(value-hi.v), math.Abs(r.Offset), 1e-9)
				default:
					assert.Equal(t, models.ClassPass, r.Classification)
					assert.Zero(t, r.Offset)
				}

				assert.NotEqual(t, models.SeverityMedium, r.Severity)
			}
		}
	}
}

func TestClassifyEdgeCases(t *testing.T) {
	entry := unUVLimits()

	assert.Equal(t, models.ClassPass, Classify("Un_UV", 2.0, entry).Classification, "min is inclusive")
	assert.Equal(t, models.ClassPass, Classify("Un_UV", 2.2, entry).Classification, "max is inclusive")
	assert.Equal(t, models.ClassPass, Classify("Un_UV", math.NaN(), entry).Classification)
	assert.Equal(t, models.ClassAbove, Classify("Un_UV", math.Inf(1), entry).Classification)
	assert.Equal(t, models.ClassPass, Classify("THD", 99, entry).Classification, "unbounded test")
	assert.Equal(t, models.ClassPass, Classify("Un_UV", 99, nil).Classification, "no entry")

	// inverted bounds: the lower bound wins
	inverted := &models.LimitEntry{Bounds: map[string]float64{"T_MIN": 5, "T_MAX": 1}}
	assert.Equal(t, models.ClassBelow, Classify("T", 3, inverted).Classification)
}

func TestRoundOffset(t *testing.T) {
	assert.InDelta(t, 0.3, RoundOffset(2.5-2.2), 1e-12)
	assert.InDelta(t, -0.123, RoundOffset(-0.12345), 1e-12)
	assert.InDelta(t, 1.0, RoundOffset(0.9996), 1e-12)
}

func TestSanitize(t *testing.T) {
	data := models.RawRecord{
		{Key: "id", Value: "r1"},
		{Key: "collectionId", Value: "c1"},
		{Key: "collectionName", Value: "station_a26"},
		{Key: "created", Value: "2025-01-01"},
		{Key: "updated", Value: "2025-01-01"},
		{Key: "Un_WU", Value: 1.0},
		{Key: "device_code", Value: "P1"},
		{Key: "motor_type", Value: "EFAD"},
		{Key: "test_fail", Value: true},
		{Key: "time", Value: "2025-01-01"},
		{Key: "Un_UV", Value: 2.5},
		{Key: "operator", Value: "jo"},
		{Key: "Bogus", Value: 7.0},
	}
	before := append(models.RawRecord(nil), data...)

	t.Run("known station keeps schema tests in record order", func(t *testing.T) {
		fields := Sanitize("A26", data)
		assert.Equal(t, models.Fields{{Name: "Un_WU", Value: 1.0}, {Name: "Un_UV", Value: 2.5}}, fields)
	})

	t.Run("unknown station falls back to every numeric key", func(t *testing.T) {
		fields := Sanitize("Z99", data)
		assert.Equal(t, []string{"Un_WU", "Un_UV", "Bogus"}, fields.Names())
	})

	t.Run("never leaks excluded keys", func(t *testing.T) {
		for _, station := range []string{"A26", "Z99"} {
			for _, f := range Sanitize(station, data) {
				assert.False(t, IsExcluded(f.Name), f.Name)
			}
		}
	})

	assert.Equal(t, before, data, "input untouched")
}

func TestStationSchema(t *testing.T) {
	assert.Contains(t, StationSchema("A26"), "Un_UV")
	assert.Contains(t, StationSchema("station_nvh"), "Vibration")
	assert.Nil(t, StationSchema("Z99"))
}

func TestEvaluate(t *testing.T) {
	entry := &models.LimitEntry{Bounds: map[string]float64{}}
	entry.SetRange("Un_UV", 2.0, 2.2)
	entry.SetRange("Un_VW", 2.0, 2.2)
	entry.SetRange("THD", 0, 1)

	fields := models.Fields{
		{Name: "Un_VW", Value: 1.5},
		{Name: "THD", Value: 0.5},
		{Name: "Un_UV", Value: 2.5},
	}

	breaches := EvaluateBreaches(fields, entry)
	require.Len(t, breaches, 2)
	assert.Equal(t, "Un_VW", breaches[0].Test)
	assert.Equal(t, "Un_UV", breaches[1].Test)
	assert.Equal(t, breaches, EvaluateBreaches(fields, entry), "idempotent")

	all := EvaluateAll(fields, entry)
	require.Len(t, all, 3)
	assert.Equal(t, models.ClassPass, all[1].Classification)
	assert.True(t, AnyBreach(all))

	assert.Empty(t, EvaluateBreaches(fields, nil))
	assert.False(t, AnyBreach(EvaluateAll(fields, nil)))
}

func TestResolver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	efad := models.MotorEFAD

	tests := []struct {
		name    string
		setup   func(store *MockStore)
		want    *models.LimitEntry
		wantErr error
	}{
		{
			name: "single entry",
			setup: func(store *MockStore) {
				store.EXPECT().ListLimits(ctx, "A26", &efad).Return([]*models.LimitEntry{unUVLimits()}, nil)
			},
			want: unUVLimits(),
		},
		{
			name: "no entry",
			setup: func(store *MockStore) {
				store.EXPECT().ListLimits(ctx, "A26", &efad).Return(nil, nil)
			},
		},
		{
			name: "duplicates",
			setup: func(store *MockStore) {
				store.EXPECT().ListLimits(ctx, "A26", &efad).
					Return([]*models.LimitEntry{unUVLimits(), unUVLimits()}, nil)
			},
			wantErr: ErrDuplicateLimits,
		},
		{
			name: "store failure",
			setup: func(store *MockStore) {
				store.EXPECT().ListLimits(ctx, "A26", &efad).Return(nil, errors.New("db closed"))
			},
			wantErr: ErrLimitsUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockStore(ctrl)
			tt.setup(store)

			got, err := NewResolver(store).Resolve(ctx, "A26", models.MotorEFAD)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := NewMockStore(ctrl)

	erad := &models.LimitEntry{ID: "l2", Station: "A26", MotorType: models.MotorERAD}

	store.EXPECT().ListLimits(ctx, "A26", nil).Return([]*models.LimitEntry{unUVLimits(), erad}, nil)

	got, err := NewResolver(store).ResolveAll(ctx, "A26")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, erad, got[models.MotorERAD])

	store.EXPECT().ListLimits(ctx, "A26", nil).Return([]*models.LimitEntry{erad, erad}, nil)

	_, err = NewResolver(store).ResolveAll(ctx, "A26")
	require.ErrorIs(t, err, ErrDuplicateLimits)
}

func TestForStations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := NewMockStore(ctrl)

	store.EXPECT().ListLimits(ctx, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, station string, _ *models.MotorType) ([]*models.LimitEntry, error) {
			if station == "NVH" {
				return nil, errors.New("boom")
			}

			return []*models.LimitEntry{{Station: station, MotorType: models.MotorEFAD}}, nil
		}).Times(len(models.Stations))

	got, err := NewResolver(store).ForStations(ctx, models.MotorEFAD)
	require.ErrorIs(t, err, ErrLimitsUnavailable)
	assert.Len(t, got, len(models.Stations)-1)
	assert.NotContains(t, got, "NVH")
	assert.Equal(t, "A20", got["A20"].Station)
}
