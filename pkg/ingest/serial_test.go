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
	"strings"
	"testing"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSerialReaderConsume(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockService(ctrl)

	r, err := NewSerialReader(SerialConfig{Station: "A20", Port: "/dev/ttyUSB0"}, NewRecorder(store))
	require.NoError(t, err)
	assert.Equal(t, defaultBaudRate, r.config.BaudRate)

	var codes []string

	store.EXPECT().InsertRecord(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *models.MeasurementRecord) error {
			codes = append(codes, rec.DeviceCode)
			return nil
		}).Times(2)

	input := strings.Join([]string{
		`{"device_code":"P1","motor_type":"EFAD","test_fail":"false","Un_UV":1.2}`,
		"",
		`not json`,
		`{"device_code":"P2","motor_type":"ERAD","test_fail":"true","Un_UV":9.9}`,
	}, "\n")

	n, err := r.Consume(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"P1", "P2"}, codes)
}

func TestSerialReaderStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := db.NewMockService(ctrl)

	r, err := NewSerialReader(SerialConfig{Station: "A20", Port: "COM3", BaudRate: 9600}, NewRecorder(store))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := r.Consume(ctx, strings.NewReader(`{"device_code":"P1"}`+"\n"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestNewSerialReaderValidates(t *testing.T) {
	_, err := NewSerialReader(SerialConfig{Station: "Q1", Port: "COM1"}, nil)
	require.ErrorIs(t, err, models.ErrUnknownStation)

	_, err = NewSerialReader(SerialConfig{Station: "A20"}, nil)
	require.ErrorIs(t, err, errMissingSerialPort)

	_, err = NewSerialReader(SerialConfig{Station: "A20", Port: "COM1", BaudRate: -1}, nil)
	require.ErrorIs(t, err, errInvalidBaudRate)

	r, err := NewSerialReader(SerialConfig{Station: "A20", Port: "COM1"}, nil)
	require.NoError(t, err)

	r.Stop()
	r.Run(context.Background())
}
