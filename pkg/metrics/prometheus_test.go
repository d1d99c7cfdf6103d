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

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromCounters(t *testing.T) {
	p := NewProm()

	p.RecordIngested("station_a20")
	p.RecordIngested("station_a20")
	p.RecordLiveError("A20", 3)
	p.RecordSkipped("A20", "no_limits")
	p.RecordHandlerError("heartbeat")
	p.RecordFeedDrop("station_nvh")
	p.SetSubscribers("websocket", 4)
	p.ObserveAggregation("top_fails", 20*time.Millisecond)

	assert.InDelta(t, 2.0, testutil.ToFloat64(p.ingested.WithLabelValues("station_a20")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(p.liveErrors.WithLabelValues("A20")), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(p.breaches.WithLabelValues("A20")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(p.skipped.WithLabelValues("A20", "no_limits")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(p.handlerErrs.WithLabelValues("heartbeat")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(p.feedDrops.WithLabelValues("station_nvh")), 1e-9)
	assert.InDelta(t, 4.0, testutil.ToFloat64(p.subscribers.WithLabelValues("websocket")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(p.aggregation))
}

func TestPromHandler(t *testing.T) {
	p := NewProm()
	p.RecordIngested("station_s02")

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `lineradar_measurements_ingested_total{collection="station_s02"} 1`)
}

func TestNoopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}

	r.RecordLiveError("A20", 1)
	r.ObserveAggregation("x", time.Second)
}
