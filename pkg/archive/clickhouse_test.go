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

package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	query string
	args  []any
}

type fakeConn struct {
	calls  []execCall
	failAt int // 1-based call number to fail, zero never
	closed bool
}

func (c *fakeConn) Exec(_ context.Context, query string, args ...any) error {
	c.calls = append(c.calls, execCall{query: query, args: args})

	if c.failAt == len(c.calls) {
		return errors.New("code: 241, memory limit exceeded")
	}

	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestNewCreatesSchema(t *testing.T) {
	conn := &fakeConn{}

	_, err := New(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, conn.calls, 1)
	assert.Contains(t, conn.calls[0].query, "CREATE TABLE IF NOT EXISTS live_error_breaches")

	_, err = New(context.Background(), &fakeConn{failAt: 1})
	require.ErrorIs(t, err, errInitSchema)
}

func TestNotifyWritesOneRowPerBreach(t *testing.T) {
	conn := &fakeConn{}

	a, err := New(context.Background(), conn)
	require.NoError(t, err)

	created := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	ev := &models.LiveErrorEvent{
		ID:          "ev-9",
		StationName: "R23",
		MotorType:   models.MotorERAD,
		DeviceCode:  "P42",
		Time:        created.Add(-time.Minute),
		Created:     created,
		Errors: []models.FieldResult{
			{Test: "Un_UV", Value: 2.5, Classification: models.ClassAbove, Offset: 0.3},
			{Test: "Ub_W", Value: -0.2, Classification: models.ClassBelow, Offset: -0.2},
		},
	}

	require.NoError(t, a.Notify(context.Background(), ev))
	require.Len(t, conn.calls, 3)

	row := conn.calls[2].args
	require.Len(t, row, 10)
	assert.Equal(t, created, row[0])
	assert.Equal(t, "ev-9", row[2])
	assert.Equal(t, "R23", row[3])
	assert.Equal(t, "ERAD", row[4])
	assert.Equal(t, "Ub_W", row[6])
	assert.Equal(t, "below", row[8])

	require.NoError(t, a.Close())
	assert.True(t, conn.closed)
}

func TestNotifyStopsOnFailure(t *testing.T) {
	conn := &fakeConn{failAt: 2}

	a, err := New(context.Background(), conn)
	require.NoError(t, err)

	err = a.Notify(context.Background(), &models.LiveErrorEvent{
		ID:     "ev-1",
		Errors: []models.FieldResult{{Test: "A"}, {Test: "B"}},
	})
	require.ErrorIs(t, err, errInsertBreach)
	assert.Len(t, conn.calls, 2)
}
