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

// Package simulator drives the line with synthetic devices: every device
// passes each station in order and the measurements are published the way
// station PCs publish them.
package simulator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// Publisher sends one measurement document for a station.
type Publisher interface {
	Publish(station string, doc models.RawRecord) error
}

// LimitStore receives the seeded limit rows.
type LimitStore interface {
	UpsertLimits(ctx context.Context, entry *models.LimitEntry) error
}

type Config struct {
	Interval time.Duration
	Count    int // devices to run; zero runs until ctx is done
	Stations []string
}

type Simulator struct {
	publisher Publisher
	gen       *Generator
	config    Config
	now       func() time.Time
}

type Option func(*Simulator)

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

func New(publisher Publisher, gen *Generator, cfg Config, opts ...Option) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	if len(cfg.Stations) == 0 {
		for _, st := range models.Stations {
			cfg.Stations = append(cfg.Stations, st.Name)
		}
	}

	s := &Simulator{
		publisher: publisher,
		gen:       gen,
		config:    cfg,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SeedLimits writes every limit row to store.
func SeedLimits(ctx context.Context, store LimitStore) error {
	for _, entry := range LimitEntries() {
		if err := store.UpsertLimits(ctx, entry); err != nil {
			return fmt.Errorf("seed %s/%s limits: %w", entry.Station, entry.MotorType, err)
		}
	}

	return nil
}

// Run sends one device down the line per interval.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for sent := 1; ; sent++ {
		s.RunDevice()

		if s.config.Count > 0 && sent >= s.config.Count {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunDevice publishes one device's measurements at every station, two
// minutes apart. It returns how many were marked failing.
func (s *Simulator) RunDevice() int {
	code := s.gen.DeviceCode()
	start := s.now()
	failed := 0

	mt := s.gen.MotorType()

	for i, station := range s.config.Stations {
		at := start.Add(time.Duration(i) * stationSpacing)

		doc, fail := s.gen.Measurement(station, mt, code, at)
		if fail {
			failed++
		}

		if err := s.publisher.Publish(station, doc); err != nil {
			log.Printf("Failed to publish %s measurement for %s: %v", station, code, err)
			continue
		}

		log.Printf("time: %s, device_code: %s, station: %s, test_fail: %t", at.Format(time.RFC3339), code, station, fail)
	}

	return failed
}
