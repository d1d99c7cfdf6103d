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

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gopcua/opcua/ua"
	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeReader struct {
	values []any
	status ua.StatusCode
	err    error
	reads  int
}

func (r *fakeReader) Read(_ context.Context, req *ua.ReadRequest) (*ua.ReadResponse, error) {
	r.reads++

	if r.err != nil {
		return nil, r.err
	}

	resp := &ua.ReadResponse{}

	for i := range req.NodesToRead {
		dv := &ua.DataValue{Value: ua.MustVariant(r.values[i]), Status: ua.StatusOK}
		if i == len(req.NodesToRead)-1 && r.status != ua.StatusOK {
			dv.Status = r.status
		}

		resp.Results = append(resp.Results, dv)
	}

	return resp, nil
}

func stationConfig() OPCUAConfig {
	return OPCUAConfig{
		Station:        "A26",
		Endpoint:       "opc.tcp://plc-a26:4840",
		ReadyNode:      "ns=2;s=A26.Ready",
		DeviceCodeNode: "ns=2;s=A26.DeviceCode",
		MotorTypeNode:  "ns=2;s=A26.MotorType",
		TestFailNode:   "ns=2;s=A26.TestFail",
		Tests: []TagConfig{
			{Name: "Un_UV", NodeID: "ns=2;s=A26.Un_UV"},
			{Name: "Un_VW", NodeID: "ns=2;i=1042"},
		},
	}
}

func newTestPoller(t *testing.T, store *db.MockService, reader *fakeReader) *StationPoller {
	t.Helper()

	p, err := NewStationPoller(stationConfig(), NewRecorder(store))
	require.NoError(t, err)

	p.reader = reader
	p.now = func() time.Time { return arrival }

	return p
}

func TestStationPollerRecordsOncePerDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockService(ctrl)

	reader := &fakeReader{values: []any{true, "P77", "ERAD", 2.5, 1.75, true}}
	p := newTestPoller(t, store, reader)

	var stored *models.MeasurementRecord

	store.EXPECT().InsertRecord(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *models.MeasurementRecord) error {
			stored = rec
			return nil
		})

	ok, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	require.NotNil(t, stored)
	assert.Equal(t, "station_a26", stored.Collection)
	assert.Equal(t, "P77", stored.DeviceCode)
	assert.Equal(t, models.MotorERAD, stored.MotorType)
	assert.True(t, stored.TestFail)
	assert.True(t, stored.Time.Equal(arrival))

	v, found := stored.Data.Get("Un_UV")
	require.True(t, found)
	assert.InDelta(t, 2.5, v, 1e-9)

	ok, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "same device is recorded once")
	assert.Equal(t, 2, reader.reads)
}

func TestStationPollerWaitsForReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockService(ctrl)

	p := newTestPoller(t, store, &fakeReader{values: []any{false, "P1", "EFAD", 1.0, 1.0, false}})

	ok, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStationPollerReadErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockService(ctrl)

	p := newTestPoller(t, store, &fakeReader{err: errors.New("session closed")})

	_, err := p.Poll(context.Background())
	require.ErrorIs(t, err, errOPCUARead)

	p.reader = &fakeReader{
		values: []any{true, "P1", "EFAD", 1.0, 1.0, false},
		status: ua.StatusBadNodeIDUnknown,
	}

	_, err = p.Poll(context.Background())
	require.ErrorIs(t, err, errOPCUARead)
}

func TestStationPollerRetriesAfterStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockService(ctrl)

	p := newTestPoller(t, store, &fakeReader{values: []any{true, "P5", "EFAD", 1.0, 1.0, "false"}})

	gomock.InOrder(
		store.EXPECT().InsertRecord(gomock.Any(), gomock.Any()).Return(errors.New("locked")),
		store.EXPECT().InsertRecord(gomock.Any(), gomock.Any()).Return(nil),
	)

	_, err := p.Poll(context.Background())
	require.Error(t, err)

	ok, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOPCUAConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*OPCUAConfig)
		want   error
	}{
		{"unknown station", func(c *OPCUAConfig) { c.Station = "Z99" }, models.ErrUnknownStation},
		{"no endpoint", func(c *OPCUAConfig) { c.Endpoint = "" }, errMissingTag},
		{"no ready node", func(c *OPCUAConfig) { c.ReadyNode = "" }, errMissingTag},
		{"unnamed test", func(c *OPCUAConfig) { c.Tests[0].Name = "" }, errMissingTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := stationConfig()
			tt.modify(&cfg)

			_, err := NewStationPoller(cfg, nil)
			require.ErrorIs(t, err, tt.want)
		})
	}

	cfg := stationConfig()
	cfg.Tests[1].NodeID = "bogus"

	_, err := NewStationPoller(cfg, nil)
	require.ErrorIs(t, err, errInvalidNodeID)
}

func TestFailFlag(t *testing.T) {
	assert.Equal(t, "true", failFlag(true))
	assert.Equal(t, "false", failFlag("false"))
	assert.Equal(t, "1", failFlag(int32(1)))
}
