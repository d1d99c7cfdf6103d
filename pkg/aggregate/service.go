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

// Package aggregate computes the dashboard's read-path views over the
// record store: device timelines, top fails and fail detail.
package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/mfreeman451/lineradar/pkg/limits"
	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/models"
)

// Service is stateless and safe for concurrent use.
type Service struct {
	store            Store
	resolver         *limits.Resolver
	metrics          metrics.Recorder
	defaultMotorType models.MotorType
}

type Option func(*Service)

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

// WithDefaultMotorType sets the motor type whose limits apply to the
// daily aggregates.
func WithDefaultMotorType(mt models.MotorType) Option {
	return func(s *Service) {
		if mt.Valid() {
			s.defaultMotorType = mt
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		resolver:         limits.NewResolver(store),
		metrics:          metrics.Noop{},
		defaultMotorType: models.MotorEFAD,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DefaultMotorType reports the motor type used by TopFails and FailDetail.
func (s *Service) DefaultMotorType() models.MotorType {
	return s.defaultMotorType
}

// forEachStation runs fn once per fixed station concurrently and returns
// the results in station enumeration order.
func forEachStation[T any](ctx context.Context, fn func(context.Context, models.Station) T) []T {
	out := make([]T, len(models.Stations))

	var wg sync.WaitGroup

	for i, st := range models.Stations {
		wg.Add(1)

		go func(i int, st models.Station) {
			defer wg.Done()

			out[i] = fn(ctx, st)
		}(i, st)
	}

	wg.Wait()

	return out
}

func (s *Service) observe(name string, start time.Time) {
	s.metrics.ObserveAggregation(name, time.Since(start))
}
