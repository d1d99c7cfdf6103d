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

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mfreeman451/lineradar/pkg/aggregate"
	"github.com/mfreeman451/lineradar/pkg/alerts"
	"github.com/mfreeman451/lineradar/pkg/api"
	"github.com/mfreeman451/lineradar/pkg/archive"
	"github.com/mfreeman451/lineradar/pkg/config"
	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/grpc"
	"github.com/mfreeman451/lineradar/pkg/ingest"
	"github.com/mfreeman451/lineradar/pkg/liveerrors"
	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/stream"
)

// NewServer opens the record store at cfg.DBPath and assembles the
// pipeline. Nothing runs until Start.
func NewServer(cfg *config.DashboardConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errInvalidConfig
	}

	prom := metrics.NewProm()
	broker := feed.NewBroker(feed.WithDropHook(prom.RecordFeedDrop))

	store, err := db.New(cfg.DBPath, db.WithPublisher(broker))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStoreOpen, err)
	}

	s, err := newServer(cfg, store, broker, prom, opts...)
	if err != nil {
		_ = store.Close()

		return nil, err
	}

	return s, nil
}

func newServer(cfg *config.DashboardConfig, store db.Service, broker *feed.Broker, prom *metrics.Prom, opts ...Option) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	s := &Server{
		config:   cfg,
		db:       store,
		feed:     broker,
		metrics:  prom,
		dialMQTT: ingest.NewClient,
		now:      time.Now,
		webhooks: buildWebhooks(cfg),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.recent = liveerrors.NewRecent(cfg.LiveErrorHistory)
	s.hub = api.NewHub(s.recent, prom)
	s.stream = stream.NewBroker(stream.WithRecent(s.recent), stream.WithMetrics(prom))

	sinks := []liveerrors.Sink{s.recent, s.hub, s.stream}
	if len(s.webhooks) > 0 {
		sinks = append(sinks, alerts.NewNotifier(s.webhooks...))
	}

	s.publisher = liveerrors.NewPublisher(store, broker,
		liveerrors.Config{Workers: cfg.Workers, Debug: cfg.Debug},
		liveerrors.WithSinks(sinks...),
		liveerrors.WithMetrics(prom),
		liveerrors.WithClock(s.now),
		liveerrors.WithOutbox(store),
	)

	s.recorder = ingest.NewRecorder(store, ingest.WithMetrics(prom), ingest.WithClock(s.now))

	for i := range cfg.OPCUA {
		poller, err := ingest.NewStationPoller(cfg.OPCUA[i].Poller(), s.recorder)
		if err != nil {
			return nil, fmt.Errorf("%w: opcua[%d]: %w", errInvalidConfig, i, err)
		}

		s.pollers = append(s.pollers, poller)
	}

	for i, sc := range cfg.Serial {
		reader, err := ingest.NewSerialReader(sc, s.recorder)
		if err != nil {
			return nil, fmt.Errorf("%w: serial[%d]: %w", errInvalidConfig, i, err)
		}

		s.serial = append(s.serial, reader)
	}

	apiOpts := []api.Option{
		api.WithHub(s.hub),
		api.WithIngester(s.recorder),
		api.WithMetricsHandler(prom.Handler()),
		api.WithLocation(loc),
		api.WithClock(s.now),
		api.WithMaxConnections(cfg.MaxConnections),
		api.WithDebug(cfg.Debug),
	}

	if cfg.RateLimit.RPS > 0 {
		apiOpts = append(apiOpts, api.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	aggregates := aggregate.NewService(store,
		aggregate.WithMetrics(prom),
		aggregate.WithDefaultMotorType(cfg.DefaultMotorType),
	)

	s.apiServer = api.NewAPIServer(aggregates, store, apiOpts...)

	return s, nil
}

func buildWebhooks(cfg *config.DashboardConfig) []alerts.AlertService {
	var out []alerts.AlertService

	for _, wh := range cfg.Webhooks {
		out = append(out, alerts.NewWebhookAlerter(wh))
	}

	for _, d := range cfg.Discord {
		out = append(out, alerts.NewDiscordWebhook(d.URL, d.Cooldown.Std()))
	}

	return out
}

// Start primes the live error history, launches the pipeline and serves
// the HTTP API until Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.started {
		s.mu.Unlock()

		return errAlreadyStarted
	}

	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.primeHistory(ctx)

	if s.config.Archive.Enabled {
		a, err := archive.Open(ctx, s.config.Archive)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.archive = a
		s.mu.Unlock()

		s.publisher.AddSink(a)
	}

	s.goRun(func() { s.hub.Run(ctx) })
	s.goRun(func() {
		if err := s.publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Live error publisher stopped: %v", err)
		}
	})

	if s.config.Retention.LiveErrors > 0 {
		s.goRun(func() { s.runRetention(ctx) })
	}

	if s.config.MQTT.Enabled {
		if err := s.startIngest(ctx); err != nil {
			return err
		}
	}

	for _, p := range s.pollers {
		if err := p.Start(ctx); err != nil {
			return err
		}

		s.goRun(func() { p.Run(ctx) })
	}

	for _, r := range s.serial {
		if err := r.Start(); err != nil {
			return err
		}

		s.goRun(func() { r.Run(ctx) })
	}

	return s.apiServer.Start(s.config.ListenAddr)
}

func (s *Server) goRun(fn func()) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Server) primeHistory(ctx context.Context) {
	events, err := s.db.ListLiveErrors(ctx, s.config.LiveErrorHistory)
	if err != nil {
		log.Printf("Failed to load live error history: %v", err)
		return
	}

	s.recent.Prime(events)

	log.Printf("Loaded %d live errors into history", len(events))
}

func (s *Server) startIngest(ctx context.Context) error {
	client, err := s.dialMQTT(ingest.ClientConfig{
		Broker:   s.config.MQTT.Broker,
		ClientID: s.config.MQTT.ClientID,
		Username: s.config.MQTT.Username,
		Password: s.config.MQTT.Password,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errMQTTConnect, err)
	}

	sub := ingest.NewSubscriber(client, s.recorder, s.config.MQTT.Topic)
	if err := sub.Start(ctx); err != nil {
		sub.Stop()

		return err
	}

	s.mu.Lock()
	s.subscriber = sub
	s.mu.Unlock()

	return nil
}

func (s *Server) runRetention(ctx context.Context) {
	ticker := time.NewTicker(s.config.Retention.Interval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneLiveErrors(ctx)
		}
	}
}

func (s *Server) pruneLiveErrors(ctx context.Context) {
	cutoff := s.now().Add(-s.config.Retention.LiveErrors.Std())

	n, err := s.db.PruneLiveErrors(ctx, cutoff)
	if err != nil {
		log.Printf("Failed to prune live errors: %v", err)
		return
	}

	if n > 0 {
		log.Printf("Pruned %d live errors created before %s", n, cutoff.Format(time.RFC3339))
	}
}

// RegisterGRPC exposes the live error stream on srv.
func (s *Server) RegisterGRPC(srv *grpc.Server) error {
	srv.RegisterService(&stream.ServiceDesc, s.stream)

	return nil
}

// Stop shuts inputs down first, then drains the pipeline and closes the
// store.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()

	if s.stopped {
		s.mu.Unlock()

		return nil
	}

	s.stopped = true
	sub := s.subscriber
	cancel := s.cancel
	s.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}

	if cancel != nil {
		if err := s.apiServer.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}

		cancel()
	}

	s.stream.Close()

	// Closing the ports unblocks the serial readers.
	for _, r := range s.serial {
		r.Stop()
	}

	var errs []error

	if err := s.wait(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, p := range s.pollers {
		p.Stop()
	}

	s.mu.Lock()
	a := s.archive
	s.mu.Unlock()

	if a != nil {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
	}

	s.feed.Close()

	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close record store: %w", err))
	}

	return errors.Join(errs...)
}

func (s *Server) wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errShutdownTimeout
	}
}
