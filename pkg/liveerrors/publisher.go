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
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/limits"
	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	defaultWorkers         = 4
	defaultBuffer          = 256
	defaultCatchUpInterval = 5 * time.Second
	defaultCatchUpMaxAge   = 24 * time.Hour
)

// Config tunes the publisher's consumption of the change feed.
type Config struct {
	Workers int
	Buffer  int
	Debug   bool
	// CatchUpInterval is how often the outbox is scanned for failing
	// records the feed did not deliver.
	CatchUpInterval time.Duration
	// CatchUpMaxAge bounds how old a missed record may be and still raise
	// a live error.
	CatchUpMaxAge time.Duration
}

// Publisher consumes the change feed and persists a live error for every
// failing measurement that breaches its limits. Nothing it does is ever
// reported back to the writer of the measurement.
type Publisher struct {
	store    Store
	feed     Subscriber
	resolver *limits.Resolver
	sinks    []Sink
	metrics  metrics.Recorder
	now      func() time.Time
	config   Config
	mu       sync.RWMutex

	outbox Outbox
	cursor cursorState
}

type Option func(*Publisher)

func WithSinks(sinks ...Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sinks...)
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(p *Publisher) {
		p.metrics = r
	}
}

// WithOutbox makes the publisher recover failing records the change feed
// dropped, tracking its progress in the store.
func WithOutbox(o Outbox) Option {
	return func(p *Publisher) {
		p.outbox = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, sub Subscriber, cfg Config, opts ...Option) *Publisher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}

	if cfg.CatchUpInterval <= 0 {
		cfg.CatchUpInterval = defaultCatchUpInterval
	}

	if cfg.CatchUpMaxAge <= 0 {
		cfg.CatchUpMaxAge = defaultCatchUpMaxAge
	}

	p := &Publisher{
		store:    store,
		feed:     sub,
		resolver: limits.NewResolver(store),
		metrics:  metrics.Noop{},
		now:      time.Now,
		config:   cfg,
		cursor:   cursorState{done: make(map[int64]struct{})},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// AddSink registers another receiver of live errors.
func (p *Publisher) AddSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sinks = append(p.sinks, s)
}

// Run consumes the change feed until ctx is done. A subscription closed
// from under it is replaced.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		sub, err := p.feed.Subscribe(feed.AllCollections, p.config.Buffer)
		if err != nil {
			return fmt.Errorf("subscribe to change feed: %w", err)
		}

		stopCatchUp := p.startCatchUp(ctx, sub)

		p.consume(ctx, sub)
		stopCatchUp()
		p.feed.Unsubscribe(sub)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("Change feed subscription closed, resubscribing")
	}
}

func (p *Publisher) consume(ctx context.Context, sub *feed.Subscription) {
	var wg sync.WaitGroup

	for i := 0; i < p.config.Workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-sub.C():
					if !ok {
						return
					}

					p.Handle(ctx, ev)
				}
			}
		}()
	}

	wg.Wait()
}

// Handle processes one change feed event. It never fails: every error is
// logged and the event is dropped. A record dropped on a transient failure
// is picked up again by the outbox catch-up when one is configured.
func (p *Publisher) Handle(ctx context.Context, ev feed.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Live error handler for %s: %v: %v", ev.Collection, errPanicRecovered, r)
			p.metrics.RecordHandlerError("panic")
		}
	}()

	if ev.Action != feed.ActionCreate || ev.Record == nil || !models.IsMeasurementCollection(ev.Collection) {
		return
	}

	rec := ev.Record
	if !rec.TestFail {
		return
	}

	p.touchHeartbeat(ctx, ev.Collection, models.StationNameFromCollection(ev.Collection))

	if _, err := p.process(ctx, ev.Collection, rec); err != nil {
		return
	}

	p.markDone(rec.Seq)
}

// process evaluates one failing record and persists its live error. It
// reports whether a new live error was created. The error is non-nil only
// when the record should be tried again later.
func (p *Publisher) process(ctx context.Context, collection string, rec *models.MeasurementRecord) (bool, error) {
	station := models.StationNameFromCollection(collection)

	if err := rec.Validate(); err != nil {
		log.Printf("Skipping %s record %s: %v", station, rec.ID, err)
		p.metrics.RecordSkipped(station, "malformed")

		return false, nil
	}

	entry, err := p.resolver.Resolve(ctx, station, rec.MotorType)
	if err != nil {
		log.Printf("Failed to get limits for %s(%s): %v", station, collection, err)
		p.metrics.RecordSkipped(station, skipReason(err))

		if errors.Is(err, limits.ErrDuplicateLimits) {
			return false, nil
		}

		return false, err
	}

	if entry == nil {
		log.Printf("Skipping %s(%s) motor type %q: %v", station, collection, rec.MotorType, errNoLimits)
		p.metrics.RecordSkipped(station, "no_limits")

		return false, nil
	}

	breaches := limits.EvaluateBreaches(limits.Sanitize(station, rec.Data), entry)
	if len(breaches) == 0 {
		if p.config.Debug {
			log.Printf("No errors found for %s(%s), skipping record creation", station, collection)
		}

		return false, nil
	}

	event := p.buildEvent(station, rec, breaches)

	if err := p.store.InsertLiveError(ctx, event); err != nil {
		if errors.Is(err, models.ErrDuplicateLiveError) {
			return false, nil
		}

		log.Printf("Failed to store live error for %s(%s): %v", station, collection, err)
		p.metrics.RecordHandlerError("persist")

		return false, err
	}

	p.metrics.RecordLiveError(station, len(breaches))

	if p.config.Debug {
		log.Printf("Created live error %s with %d errors for %s(%s)", event.ID, len(breaches), station, collection)
	}

	p.fanOut(ctx, event)

	return true, nil
}

func (p *Publisher) touchHeartbeat(ctx context.Context, collection, station string) {
	if err := p.store.UpsertHeartbeat(ctx, collection, p.now().UTC()); err != nil {
		log.Printf("Failed to update heartbeat for %s(%s): %v", station, collection, err)
		p.metrics.RecordHandlerError("heartbeat")
	}
}

func (p *Publisher) buildEvent(station string, rec *models.MeasurementRecord, breaches []models.FieldResult) *models.LiveErrorEvent {
	errs := make([]models.FieldResult, len(breaches))

	for i, b := range breaches {
		b.Value = limits.RoundOffset(b.Value)
		b.Offset = limits.RoundOffset(b.Offset)
		errs[i] = b
	}

	return &models.LiveErrorEvent{
		ID:          uuid.NewString(),
		StationName: station,
		MotorType:   rec.MotorType,
		DeviceCode:  rec.DeviceCode,
		DeviceID:    rec.ID,
		Time:        rec.Time,
		Errors:      errs,
		Created:     p.now().UTC(),
	}
}

func (p *Publisher) fanOut(ctx context.Context, ev *models.LiveErrorEvent) {
	p.mu.RLock()
	sinks := append([]Sink(nil), p.sinks...)
	p.mu.RUnlock()

	for _, s := range sinks {
		p.notify(ctx, s, ev)
	}
}

func (p *Publisher) notify(ctx context.Context, s Sink, ev *models.LiveErrorEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Live error sink %T: %v: %v", s, errPanicRecovered, r)
			p.metrics.RecordHandlerError("sink_panic")
		}
	}()

	if err := s.Notify(ctx, ev); err != nil {
		log.Printf("Live error sink %T failed for %s: %v", s, ev.ID, err)
		p.metrics.RecordHandlerError("sink")
	}
}

func skipReason(err error) string {
	if errors.Is(err, limits.ErrDuplicateLimits) {
		return "duplicate_limits"
	}

	return "limits_unavailable"
}
