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

package liveerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func failingRecord(collection string, data models.RawRecord) *models.MeasurementRecord {
	return &models.MeasurementRecord{
		ID:         "rec-1",
		Collection: collection,
		DeviceCode: "P123",
		MotorType:  models.MotorEFAD,
		TestFail:   true,
		Time:       testNow.Add(-time.Minute),
		Data:       data,
	}
}

func a26Limits() []*models.LimitEntry {
	entry := &models.LimitEntry{ID: "l1", Station: "A26", MotorType: models.MotorEFAD}
	entry.SetRange("Un_UV", 2.0, 2.2)
	entry.SetRange("Un_VW", 2.0, 2.2)

	return []*models.LimitEntry{entry}
}

func newTestPublisher(store Store, sinks ...Sink) *Publisher {
	return NewPublisher(store, feed.NewBroker(), Config{}, WithSinks(sinks...),
		WithClock(func() time.Time { return testNow }))
}

func TestHandleCreatesLiveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	sink := NewMockSink(ctrl)
	recent := NewRecent(10)
	p := newTestPublisher(store, sink, recent)

	rec := failingRecord("station_a26", models.RawRecord{
		{Key: "Un_VW", Value: 2.1},
		{Key: "Un_UV", Value: 2.5},
		{Key: "device_code", Value: "P123"},
	})

	var stored *models.LiveErrorEvent

	gomock.InOrder(
		store.EXPECT().UpsertHeartbeat(gomock.Any(), "station_a26", testNow).Return(nil),
		store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).Return(a26Limits(), nil),
		store.EXPECT().InsertLiveError(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, ev *models.LiveErrorEvent) error {
				stored = ev
				return nil
			}),
		sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil),
	)

	p.Handle(context.Background(), feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec})

	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "A26", stored.StationName)
	assert.Equal(t, "P123", stored.DeviceCode)
	assert.Equal(t, "rec-1", stored.DeviceID)
	assert.Equal(t, rec.Time, stored.Time)
	require.Len(t, stored.Errors, 1)
	assert.Equal(t, "Un_UV", stored.Errors[0].Test)
	assert.Equal(t, models.ClassAbove, stored.Errors[0].Classification)
	assert.InDelta(t, 0.3, stored.Errors[0].Offset, 1e-12)

	assert.Equal(t, []*models.LiveErrorEvent{stored}, recent.Snapshot(0))
}

func TestHandleWithoutLimitsStillUpdatesHeartbeat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	sink := NewMockSink(ctrl)
	p := newTestPublisher(store, sink)

	store.EXPECT().UpsertHeartbeat(gomock.Any(), "station_a26", testNow).Return(nil)
	store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).Return(nil, nil)

	rec := failingRecord("station_a26", models.RawRecord{{Key: "Un_UV", Value: 99.0}})

	assert.NotPanics(t, func() {
		p.Handle(context.Background(), feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec})
	})
}

func TestHandleSkips(t *testing.T) {
	tests := []struct {
		name  string
		event func() feed.Event
		setup func(store *db.MockService)
	}{
		{
			name: "passing record",
			event: func() feed.Event {
				rec := failingRecord("station_a26", nil)
				rec.TestFail = false

				return feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec}
			},
		},
		{
			name: "limits collection",
			event: func() feed.Event {
				return feed.Event{Action: feed.ActionCreate, Collection: "station_a26_limits", Record: failingRecord("station_a26_limits", nil)}
			},
		},
		{
			name: "heartbeat collection",
			event: func() feed.Event {
				return feed.Event{Action: feed.ActionCreate, Collection: "station_updates", Record: failingRecord("station_updates", nil)}
			},
		},
		{
			name: "update event",
			event: func() feed.Event {
				return feed.Event{Action: feed.ActionUpdate, Collection: "station_a26", Record: failingRecord("station_a26", nil)}
			},
		},
		{
			name: "malformed record",
			event: func() feed.Event {
				rec := failingRecord("station_a26", nil)
				rec.DeviceCode = ""

				return feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec}
			},
			setup: func(store *db.MockService) {
				store.EXPECT().UpsertHeartbeat(gomock.Any(), "station_a26", testNow).Return(nil)
			},
		},
		{
			name: "duplicate limits",
			event: func() feed.Event {
				return feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: failingRecord("station_a26", nil)}
			},
			setup: func(store *db.MockService) {
				store.EXPECT().UpsertHeartbeat(gomock.Any(), "station_a26", testNow).Return(nil)
				store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).
					Return(append(a26Limits(), a26Limits()...), nil)
			},
		},
		{
			name: "no breach",
			event: func() feed.Event {
				return feed.Event{Action: feed.ActionCreate, Collection: "station_a26",
					Record: failingRecord("station_a26", models.RawRecord{{Key: "Un_UV", Value: 2.1}})}
			},
			setup: func(store *db.MockService) {
				store.EXPECT().UpsertHeartbeat(gomock.Any(), "station_a26", testNow).Return(nil)
				store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).Return(a26Limits(), nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := db.NewMockService(ctrl)
			if tt.setup != nil {
				tt.setup(store)
			}

			p := newTestPublisher(store, NewMockSink(ctrl))
			p.Handle(context.Background(), tt.event())
		})
	}
}

func TestHandleSwallowsStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	sink := NewMockSink(ctrl)
	p := newTestPublisher(store, sink)

	rec := failingRecord("station_a26", models.RawRecord{{Key: "Un_UV", Value: 2.5}})

	store.EXPECT().UpsertHeartbeat(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("locked"))
	store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).Return(a26Limits(), nil)
	store.EXPECT().InsertLiveError(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	p.Handle(context.Background(), feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec})
}

func TestHandleRecoversFromSinkPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	panicky := NewMockSink(ctrl)
	after := NewMockSink(ctrl)
	p := newTestPublisher(store, panicky, after)

	rec := failingRecord("station_a26", models.RawRecord{{Key: "Un_UV", Value: 1.5}})

	store.EXPECT().UpsertHeartbeat(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).Return(a26Limits(), nil)
	store.EXPECT().InsertLiveError(gomock.Any(), gomock.Any()).Return(nil)
	panicky.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *models.LiveErrorEvent) error { panic("boom") })
	after.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(fmt.Errorf("closed"))

	assert.NotPanics(t, func() {
		p.Handle(context.Background(), feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec})
	})
}

func TestRunConsumesFeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	broker := feed.NewBroker()
	notified := make(chan *models.LiveErrorEvent, 1)

	sink := NewMockSink(ctrl)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ev *models.LiveErrorEvent) error {
			notified <- ev
			return nil
		})

	store.EXPECT().UpsertHeartbeat(gomock.Any(), "station_a26", gomock.Any()).Return(nil)
	store.EXPECT().ListLimits(gomock.Any(), "A26", gomock.Any()).Return(a26Limits(), nil)
	store.EXPECT().InsertLiveError(gomock.Any(), gomock.Any()).Return(nil)

	p := NewPublisher(store, broker, Config{Workers: 2, Buffer: 4}, WithSinks(sink))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	rec := failingRecord("station_a26", models.RawRecord{{Key: "Un_UV", Value: 2.5}})
	broker.Publish(feed.Event{Action: feed.ActionCreate, Collection: "station_a26", Record: rec})

	select {
	case ev := <-notified:
		assert.Equal(t, "A26", ev.StationName)
	case <-time.After(2 * time.Second):
		t.Fatal("live error was not published")
	}

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestRunStopsWhenBrokerClosed(t *testing.T) {
	broker := feed.NewBroker()
	broker.Close()

	p := NewPublisher(nil, broker, Config{})

	err := p.Run(context.Background())
	require.ErrorIs(t, err, feed.ErrBrokerClosed)
}

func TestRecentRing(t *testing.T) {
	r := NewRecent(3)
	assert.Empty(t, r.Snapshot(0))

	events := make([]*models.LiveErrorEvent, 5)
	for i := range events {
		events[i] = &models.LiveErrorEvent{ID: fmt.Sprintf("e%d", i)}
		r.Add(events[i])
	}

	assert.Equal(t, []*models.LiveErrorEvent{events[4], events[3], events[2]}, r.Snapshot(0))
	assert.Equal(t, []*models.LiveErrorEvent{events[4]}, r.Snapshot(1))

	primed := NewRecent(0)
	primed.Prime([]*models.LiveErrorEvent{events[2], events[1], events[0]})
	assert.Equal(t, []*models.LiveErrorEvent{events[2], events[1], events[0]}, primed.Snapshot(10))
	assert.Len(t, primed.slots, models.MaxLiveErrorHistory)
}
