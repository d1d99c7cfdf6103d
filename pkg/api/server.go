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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	httpx "github.com/mfreeman451/lineradar/pkg/http"
	"github.com/mfreeman451/lineradar/pkg/limits"
	"golang.org/x/net/netutil"
)

const (
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// APIServer serves the dashboard HTTP API.
type APIServer struct {
	router         *mux.Router
	aggregates     Aggregator
	store          Store
	ingester       Ingester
	hub            *Hub
	resolver       *limits.Resolver
	metricsHandler http.Handler
	location       *time.Location
	now            func() time.Time
	rateLimit      float64
	rateBurst      int
	maxConns       int
	debug          bool

	mu     sync.Mutex
	server *http.Server
	closed bool
}

type Option func(*APIServer)

func WithHub(h *Hub) Option {
	return func(s *APIServer) {
		s.hub = h
	}
}

func WithIngester(i Ingester) Option {
	return func(s *APIServer) {
		s.ingester = i
	}
}

// WithMetricsHandler exposes h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *APIServer) {
		s.metricsHandler = h
	}
}

// WithLocation sets the zone whose calendar day "today" means.
func WithLocation(loc *time.Location) Option {
	return func(s *APIServer) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *APIServer) {
		s.now = now
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(s *APIServer) {
		s.rateLimit = rps
		s.rateBurst = burst
	}
}

// WithMaxConnections caps concurrently accepted connections. Zero means
// no cap.
func WithMaxConnections(n int) Option {
	return func(s *APIServer) {
		s.maxConns = n
	}
}

func WithDebug(debug bool) Option {
	return func(s *APIServer) {
		s.debug = debug
	}
}

func NewAPIServer(aggregates Aggregator, store Store, opts ...Option) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		aggregates: aggregates,
		store:      store,
		resolver:   limits.NewResolver(store),
		location:   time.Local,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	return s
}

func (s *APIServer) setupRoutes() {
	s.router.Use(httpx.CommonMiddleware)
	s.router.Use(httpx.LoggingMiddleware(s.debug))
	s.router.Use(httpx.RateLimitMiddleware(s.rateLimit, s.rateBurst))

	s.router.HandleFunc("/api", s.getIndex).Methods(http.MethodGet)

	s.router.HandleFunc("/api/devices/{deviceCode}", s.getDeviceTimeline).Methods(http.MethodGet)
	s.router.HandleFunc("/api/device", s.getDeviceTimeline).Methods(http.MethodGet)

	s.router.HandleFunc("/api/tests/top", s.getTopFails).Methods(http.MethodGet)
	s.router.HandleFunc("/api/tests/failed", s.getFailDetail).Methods(http.MethodGet)

	s.router.HandleFunc("/api/errors", s.getLiveErrors).Methods(http.MethodGet)

	s.router.HandleFunc("/api/stations/limits", s.getStationLimits).Methods(http.MethodGet)
	s.router.HandleFunc("/api/stations/updates", s.getStationUpdates).Methods(http.MethodGet)
	s.router.HandleFunc("/api/stations/{station}/limits/{motorType}", s.putStationLimits).Methods(http.MethodPut)
	s.router.HandleFunc("/api/stations/{station}/records", s.postRecord).Methods(http.MethodPost)
	s.router.HandleFunc("/api/stations/{station}/tests", s.getStationTests).Methods(http.MethodGet)
	s.router.HandleFunc("/api/stations/{station}/tests/{test}/series", s.getTestSeries).Methods(http.MethodGet)

	if s.hub != nil {
		s.router.HandleFunc("/api/ws/errors", s.hub.ServeWS).Methods(http.MethodGet)
	}

	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
}

// Handler returns the routed handler, for embedding or tests.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start serves the API on addr until Shutdown is called.
func (s *APIServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w %s: %w", errListen, addr, err)
	}

	return s.Serve(ln)
}

// Serve serves the API on ln until Shutdown is called.
func (s *APIServer) Serve(ln net.Listener) error {
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		if err := ln.Close(); err != nil {
			log.Printf("Error closing listener of stopped API server: %v", err)
		}

		return nil
	}

	s.server = srv
	s.mu.Unlock()

	log.Printf("Dashboard API listening on %s", ln.Addr())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the server. Called before Serve, it makes a later Serve
// return at once.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
