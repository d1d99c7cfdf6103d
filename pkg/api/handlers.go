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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mfreeman451/lineradar/pkg/aggregate"
	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/limits"
	"github.com/mfreeman451/lineradar/pkg/models"
)

type endpoint struct {
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Methods     []string `json:"methods"`
}

type indexResponse struct {
	Message   string     `json:"message"`
	Endpoints []endpoint `json:"endpoints"`
}

var endpoints = []endpoint{
	{Path: "/api/devices/{deviceCode}", Description: "Timeline of one device across every station", Methods: []string{http.MethodGet}},
	{Path: "/api/device?deviceCode=", Description: "Timeline of one device across every station", Methods: []string{http.MethodGet}},
	{Path: "/api/tests/top?date=", Description: "Stations ranked by failing devices with their top failing tests", Methods: []string{http.MethodGet}},
	{Path: "/api/tests/failed?date=", Description: "Failing device records per station and test", Methods: []string{http.MethodGet}},
	{Path: "/api/errors?limit=", Description: "Most recent live errors", Methods: []string{http.MethodGet}},
	{Path: "/api/stations/limits?motorType=", Description: "Limit tables per station", Methods: []string{http.MethodGet}},
	{Path: "/api/stations/updates", Description: "Last failing measurement time per station", Methods: []string{http.MethodGet}},
	{Path: "/api/stations/{station}/limits/{motorType}", Description: "Replace the limits of a station and motor type", Methods: []string{http.MethodPut}},
	{Path: "/api/stations/{station}/records", Description: "Store one measurement", Methods: []string{http.MethodPost}},
	{Path: "/api/stations/{station}/tests", Description: "Test names of a station in schema order", Methods: []string{http.MethodGet}},
	{Path: "/api/stations/{station}/tests/{test}/series?from=&to=", Description: "Measured values of one test over time", Methods: []string{http.MethodGet}},
	{Path: "/api/ws/errors", Description: "Websocket stream of live errors", Methods: []string{http.MethodGet}},
}

func (*APIServer) getIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{Message: "lineradar dashboard API", Endpoints: endpoints})
}

func (s *APIServer) getDeviceTimeline(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["deviceCode"]
	if code == "" {
		code = r.URL.Query().Get("deviceCode")
	}

	timeline, err := s.aggregates.DeviceTimeline(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, timeline)
}

func (s *APIServer) window(r *http.Request) (models.TimeWindow, error) {
	if date := r.URL.Query().Get("date"); date != "" {
		return models.Day(s.location, date)
	}

	return models.Today(s.location, s.now()), nil
}

func (s *APIServer) getTopFails(w http.ResponseWriter, r *http.Request) {
	window, err := s.window(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	top, err := s.aggregates.TopFails(r.Context(), window)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, top)
}

func (s *APIServer) getFailDetail(w http.ResponseWriter, r *http.Request) {
	window, err := s.window(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail, err := s.aggregates.FailDetail(r.Context(), window)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *APIServer) getLiveErrors(w http.ResponseWriter, r *http.Request) {
	limit := models.MaxLiveErrorHistory

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", errInvalidLimit.Error())
			return
		}

		limit = min(n, models.MaxLiveErrorHistory)
	}

	events, err := s.store.ListLiveErrors(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if events == nil {
		events = []*models.LiveErrorEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}

type limitsResponse struct {
	MotorTypes []models.MotorType    `json:"motorTypes"`
	Limits     []*models.LimitEntry  `json:"limits"`
	Partial    []models.StationError `json:"partial,omitempty"`
}

// getStationLimits lists the limit tables of every station. A motorType
// with one typo is corrected; anything further off is rejected.
func (s *APIServer) getStationLimits(w http.ResponseWriter, r *http.Request) {
	motorTypes := models.MotorTypes

	if raw := r.URL.Query().Get("motorType"); raw != "" {
		mt, err := models.CorrectMotorType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_motor_type", "Invalid motorType parameter")
			return
		}

		motorTypes = []models.MotorType{mt}
	}

	resp := limitsResponse{
		MotorTypes: motorTypes,
		Limits:     []*models.LimitEntry{},
	}

	for _, st := range models.Stations {
		byType, err := s.resolver.ResolveAll(r.Context(), st.Name)
		if err != nil {
			log.Printf("Failed to fetch %s limits: %v", st.Name, err)
			resp.Partial = append(resp.Partial, models.StationError{Station: st.Name, Error: err.Error()})

			continue
		}

		for _, mt := range motorTypes {
			if entry, ok := byType[mt]; ok {
				resp.Limits = append(resp.Limits, entry)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) putStationLimits(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	st, err := models.LookupStation(vars["station"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	mt, err := models.ParseMotorType(vars["motorType"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var bounds map[string]float64
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&bounds); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid bounds: %v", err))
		return
	}

	if len(bounds) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", errEmptyBounds.Error())
		return
	}

	for key := range bounds {
		if !strings.HasSuffix(key, "_MIN") && !strings.HasSuffix(key, "_MAX") {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("bound %q must end in _MIN or _MAX", key))
			return
		}
	}

	entry := &models.LimitEntry{Station: st.Name, MotorType: mt, Bounds: bounds}

	if err := s.store.UpsertLimits(r.Context(), entry); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *APIServer) getStationUpdates(w http.ResponseWriter, r *http.Request) {
	beats, err := s.store.ListHeartbeats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if beats == nil {
		beats = []models.StationHeartbeat{}
	}

	writeJSON(w, http.StatusOK, beats)
}

type stationTestsResponse struct {
	Station string   `json:"station"`
	Tests   []string `json:"tests"`
}

func (*APIServer) getStationTests(w http.ResponseWriter, r *http.Request) {
	st, err := models.LookupStation(mux.Vars(r)["station"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stationTestsResponse{Station: st.Name, Tests: limits.StationSchema(st.Name)})
}

type seriesPoint struct {
	Time       time.Time        `json:"time"`
	DeviceCode string           `json:"deviceCode"`
	MotorType  models.MotorType `json:"motorType"`
	TestFail   bool             `json:"testFail"`
	Value      float64          `json:"value"`
}

type seriesResponse struct {
	Station string        `json:"station"`
	Test    string        `json:"test"`
	From    time.Time     `json:"from"`
	To      time.Time     `json:"to"`
	Points  []seriesPoint `json:"points"`
}

// getTestSeries lists one test's values in [from, to), oldest first.
// Records without a numeric value for the test are left out.
func (s *APIServer) getTestSeries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	st, err := models.LookupStation(vars["station"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	test := vars["test"]
	if !slices.Contains(limits.StationSchema(st.Name), test) {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("%v %q at %s", errUnknownTest, test, st.Name))
		return
	}

	from, to, err := s.seriesRange(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	records, err := s.store.ListRecords(r.Context(), st.Collection, &db.RecordFilter{Since: from, Until: to, Ascending: true})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := seriesResponse{Station: st.Name, Test: test, From: from, To: to, Points: []seriesPoint{}}

	for _, rec := range records {
		raw, ok := rec.Data.Get(test)
		if !ok {
			continue
		}

		value, ok := models.NumericValue(raw)
		if !ok {
			continue
		}

		resp.Points = append(resp.Points, seriesPoint{
			Time:       rec.Time,
			DeviceCode: rec.DeviceCode,
			MotorType:  rec.MotorType,
			TestFail:   rec.TestFail,
			Value:      value,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// seriesRange reads from and to as dates or timestamps. A date as from
// starts at its midnight, a date as to includes the whole day. Both
// default to today.
func (s *APIServer) seriesRange(r *http.Request) (from, to time.Time, err error) {
	today := models.Today(s.location, s.now())
	from, to = today.Start, today.End

	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = s.parseBound(raw, false); err != nil {
			return from, to, err
		}
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = s.parseBound(raw, true); err != nil {
			return from, to, err
		}
	}

	if !from.Before(to) {
		return from, to, fmt.Errorf("%w: %w", models.ErrInvalidTimestamp, errInvalidRange)
	}

	return from, to, nil
}

func (s *APIServer) parseBound(raw string, end bool) (time.Time, error) {
	if len(raw) == len(time.DateOnly) {
		day, err := models.Day(s.location, raw)
		if err != nil {
			return time.Time{}, err
		}

		if end {
			return day.End, nil
		}

		return day.Start, nil
	}

	t, err := models.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidTimestamp, raw)
	}

	return t, nil
}

func (s *APIServer) postRecord(w http.ResponseWriter, r *http.Request) {
	if s.ingester == nil {
		writeError(w, http.StatusNotImplemented, "not_implemented", "ingestion is disabled")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	rec, err := s.ingester.Record(r.Context(), mux.Vars(r)["station"], payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, aggregate.ErrMissingDeviceCode),
		errors.Is(err, models.ErrInvalidPayload),
		errors.Is(err, models.ErrInvalidTimestamp),
		errors.Is(err, models.ErrUnknownMotorType):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, models.ErrUnknownStation), errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, aggregate.ErrRecordFetchFailed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		log.Printf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
