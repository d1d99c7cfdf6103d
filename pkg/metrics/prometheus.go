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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lineradar"

// Prom records pipeline metrics in a Prometheus registry.
type Prom struct {
	registry    *prometheus.Registry
	ingested    *prometheus.CounterVec
	liveErrors  *prometheus.CounterVec
	breaches    *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	handlerErrs *prometheus.CounterVec
	feedDrops   *prometheus.CounterVec
	aggregation *prometheus.HistogramVec
	subscribers *prometheus.GaugeVec
}

// NewProm registers the pipeline collectors on a fresh registry.
func NewProm() *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_ingested_total",
			Help:      "Measurements written to the record store.",
		}, []string{"collection"}),
		liveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_errors_total",
			Help:      "Live error events created per station.",
		}, []string{"station"}),
		breaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_breaches_total",
			Help:      "Individual test breaches carried by live errors.",
		}, []string{"station"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_skipped_total",
			Help:      "Failing measurements that produced no live error.",
		}, []string{"station", "reason"}),
		handlerErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publisher_errors_total",
			Help:      "Errors swallowed by the live error publisher.",
		}, []string{"stage"}),
		feedDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_dropped_total",
			Help:      "Change feed events dropped for slow subscribers.",
		}, []string{"collection"}),
		aggregation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent computing dashboard aggregates.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"aggregate"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_error_subscribers",
			Help:      "Connected live error subscribers.",
		}, []string{"transport"}),
	}

	p.registry.MustRegister(
		p.ingested, p.liveErrors, p.breaches, p.skipped,
		p.handlerErrs, p.feedDrops, p.aggregation, p.subscribers,
	)

	return p
}

// Registry returns the registry backing p.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prom) RecordIngested(collection string) {
	p.ingested.WithLabelValues(collection).Inc()
}

func (p *Prom) RecordLiveError(station string, breaches int) {
	p.liveErrors.WithLabelValues(station).Inc()
	p.breaches.WithLabelValues(station).Add(float64(breaches))
}

func (p *Prom) RecordSkipped(station, reason string) {
	p.skipped.WithLabelValues(station, reason).Inc()
}

func (p *Prom) RecordHandlerError(stage string) {
	p.handlerErrs.WithLabelValues(stage).Inc()
}

func (p *Prom) RecordFeedDrop(collection string) {
	p.feedDrops.WithLabelValues(collection).Inc()
}

func (p *Prom) ObserveAggregation(name string, elapsed time.Duration) {
	p.aggregation.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (p *Prom) SetSubscribers(transport string, n int) {
	p.subscribers.WithLabelValues(transport).Set(float64(n))
}
