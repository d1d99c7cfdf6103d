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

// Package ingest turns raw station documents into stored measurements,
// whether they arrive over MQTT, OPC-UA, a serial line or the HTTP API.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/models"
)

// Store is the write side of the record store.
type Store interface {
	InsertRecord(ctx context.Context, rec *models.MeasurementRecord) error
}

// Recorder validates and stores measurement documents.
type Recorder struct {
	store   Store
	metrics metrics.Recorder
	now     func() time.Time
}

type RecorderOption func(*Recorder)

func WithMetrics(r metrics.Recorder) RecorderOption {
	return func(rec *Recorder) {
		rec.metrics = r
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(rec *Recorder) {
		rec.now = now
	}
}

func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		metrics: metrics.Noop{},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record stores one JSON document for station, given by name or
// collection. Documents without a time are stamped with the arrival time.
func (r *Recorder) Record(ctx context.Context, station string, payload []byte) (*models.MeasurementRecord, error) {
	st, err := models.LookupStation(station)
	if err != nil {
		return nil, err
	}

	var data models.RawRecord
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}

	rec, err := models.NewMeasurementRecord(st.Collection, data)
	if err != nil {
		return nil, err
	}

	if rec.Time.IsZero() {
		rec.Time = r.now().UTC()
	}

	if err := r.store.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}

	r.metrics.RecordIngested(st.Collection)

	return rec, nil
}
