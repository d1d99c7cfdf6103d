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
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	// CursorName is the feed cursor the publisher saves its progress under.
	CursorName = "live_errors"

	catchUpPageSize = 500
)

// cursorState tracks the saved outbox position and the records past it the
// live path already handled.
type cursorState struct {
	mu     sync.Mutex
	loaded bool
	seq    int64
	done   map[int64]struct{}
}

func (p *Publisher) markDone(seq int64) {
	if p.outbox == nil || seq <= 0 {
		return
	}

	p.cursor.mu.Lock()
	defer p.cursor.mu.Unlock()

	if seq > p.cursor.seq {
		p.cursor.done[seq] = struct{}{}
	}
}

// takeDone reports whether the live path handled seq, forgetting it.
func (p *Publisher) takeDone(seq int64) bool {
	p.cursor.mu.Lock()
	defer p.cursor.mu.Unlock()

	if _, ok := p.cursor.done[seq]; ok {
		delete(p.cursor.done, seq)

		return true
	}

	return false
}

func (p *Publisher) loadCursor(ctx context.Context) (int64, error) {
	p.cursor.mu.Lock()
	defer p.cursor.mu.Unlock()

	if p.cursor.loaded {
		return p.cursor.seq, nil
	}

	seq, err := p.outbox.GetFeedCursor(ctx, CursorName)
	if err != nil {
		return 0, err
	}

	p.cursor.seq = seq
	p.cursor.loaded = true

	return seq, nil
}

func (p *Publisher) advanceCursor(seq int64) {
	p.cursor.mu.Lock()
	defer p.cursor.mu.Unlock()

	if seq <= p.cursor.seq {
		return
	}

	p.cursor.seq = seq

	for done := range p.cursor.done {
		if done <= seq {
			delete(p.cursor.done, done)
		}
	}
}

// startCatchUp scans the outbox now, on every interval and whenever sub
// reports a dropped event. The returned func stops the loop and waits for it.
func (p *Publisher) startCatchUp(ctx context.Context, sub *feed.Subscription) func() {
	if p.outbox == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(p.config.CatchUpInterval)
		defer ticker.Stop()

		for {
			p.runCatchUp(ctx)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-sub.Missed():
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (p *Publisher) runCatchUp(ctx context.Context) {
	recovered, err := p.CatchUp(ctx)
	if err != nil && ctx.Err() == nil {
		log.Printf("Live error catch-up stopped: %v", err)
		p.metrics.RecordHandlerError("catch_up")
	}

	if recovered > 0 {
		log.Printf("Recovered %d failing records missed by the change feed", recovered)
	}
}

// CatchUp handles every failing record stored after the saved cursor that
// the live path has not handled, then saves the new position. It returns
// the number of live errors it created. A record that fails transiently
// stops the scan so the next pass retries it.
func (p *Publisher) CatchUp(ctx context.Context) (int, error) {
	if p.outbox == nil {
		return 0, nil
	}

	cursor, err := p.loadCursor(ctx)
	if err != nil {
		return 0, fmt.Errorf("load feed cursor: %w", err)
	}

	recovered := 0

	for {
		recs, err := p.outbox.ListFailingRecords(ctx, cursor, catchUpPageSize)
		if err != nil {
			return recovered, fmt.Errorf("list failing records: %w", err)
		}

		last := cursor

		var stalled error

		for _, rec := range recs {
			if !p.takeDone(rec.Seq) {
				created, err := p.recoverRecord(ctx, rec)
				if err != nil {
					stalled = fmt.Errorf("record %d: %w", rec.Seq, err)

					break
				}

				if created {
					recovered++
				}
			}

			last = rec.Seq
		}

		if last > cursor {
			if err := p.outbox.SetFeedCursor(ctx, CursorName, last); err != nil {
				return recovered, fmt.Errorf("save feed cursor: %w", err)
			}

			p.advanceCursor(last)
			cursor = last
		}

		if stalled != nil {
			return recovered, stalled
		}

		if len(recs) < catchUpPageSize {
			return recovered, nil
		}
	}
}

// recoverRecord handles one record found by the scan. Records older than the
// catch-up window are passed over.
func (p *Publisher) recoverRecord(ctx context.Context, rec *models.MeasurementRecord) (created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Live error catch-up for %s: %v: %v", rec.Collection, errPanicRecovered, r)
			p.metrics.RecordHandlerError("panic")

			created, err = false, nil
		}
	}()

	if !rec.Time.IsZero() && p.now().Sub(rec.Time) > p.config.CatchUpMaxAge {
		p.metrics.RecordSkipped(rec.StationName(), "stale")

		return false, nil
	}

	return p.process(ctx, rec.Collection, rec)
}
