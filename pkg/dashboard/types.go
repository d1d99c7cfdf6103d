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

// Package dashboard wires the record store, live error pipeline, alerting
// and HTTP API into one long-running service.
package dashboard

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mfreeman451/lineradar/pkg/alerts"
	"github.com/mfreeman451/lineradar/pkg/api"
	"github.com/mfreeman451/lineradar/pkg/archive"
	"github.com/mfreeman451/lineradar/pkg/config"
	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/ingest"
	"github.com/mfreeman451/lineradar/pkg/liveerrors"
	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/stream"
)

// MQTTDialer connects to the measurement broker.
type MQTTDialer func(cfg ingest.ClientConfig) (mqtt.Client, error)

type Server struct {
	mu         sync.Mutex
	config     *config.DashboardConfig
	db         db.Service
	feed       *feed.Broker
	metrics    *metrics.Prom
	recent     *liveerrors.Recent
	hub        *api.Hub
	stream     *stream.Broker
	webhooks   []alerts.AlertService
	publisher  *liveerrors.Publisher
	recorder   *ingest.Recorder
	apiServer  *api.APIServer
	subscriber *ingest.Subscriber
	pollers    []*ingest.StationPoller
	serial     []*ingest.SerialReader
	archive    *archive.Archive
	dialMQTT   MQTTDialer
	now        func() time.Time
	cancel     func()
	wg         sync.WaitGroup
	started    bool
	stopped    bool
}

type Option func(*Server)

// WithClock overrides the clock used for retention and API windows.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithMQTTDialer replaces the broker connection used for measurement ingest.
func WithMQTTDialer(dial MQTTDialer) Option {
	return func(s *Server) {
		s.dialMQTT = dial
	}
}
