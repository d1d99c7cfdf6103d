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

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/limits"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	testPassed = "passed"
	testFailed = "failed"
)

type latestResult struct {
	record *models.MeasurementRecord
	err    error
}

// DeviceTimeline evaluates the latest record of deviceCode at every fixed
// station. A station without a record, or whose record could not be
// fetched, is a pending placeholder, so the timeline always lists every
// station.
func (s *Service) DeviceTimeline(ctx context.Context, deviceCode string) (*models.DeviceTimeline, error) {
	deviceCode = strings.TrimSpace(deviceCode)
	if deviceCode == "" {
		return nil, ErrMissingDeviceCode
	}

	defer s.observe("device_timeline", time.Now())

	latest := forEachStation(ctx, func(ctx context.Context, st models.Station) latestResult {
		rec, err := s.store.GetLatestRecord(ctx, st.Collection, deviceCode)

		return latestResult{record: rec, err: err}
	})

	timeline := &models.DeviceTimeline{
		Code:     deviceCode,
		Stations: make([]models.TimelineStation, 0, len(models.Stations)),
	}

	failures := 0

	for i, st := range models.Stations {
		res := latest[i]

		if res.err != nil {
			if !errors.Is(res.err, db.ErrNotFound) {
				log.Printf("Failed to fetch %s record for device %s: %v", st.Name, deviceCode, res.err)

				failures++
			}

			timeline.Stations = append(timeline.Stations, pendingStation(st))

			continue
		}

		if res.record.MotorType != "" {
			timeline.Type = res.record.MotorType
		}

		timeline.CurrentStation = st.Name
		timeline.Stations = append(timeline.Stations, s.evaluateStation(ctx, st, res.record))
	}

	if failures == len(models.Stations) {
		return nil, fmt.Errorf("%w: device %s", ErrRecordFetchFailed, deviceCode)
	}

	return timeline, nil
}

func pendingStation(st models.Station) models.TimelineStation {
	return models.TimelineStation{
		Name:   st.Name,
		Status: models.StatusPending,
		Tests:  []models.TimelineTest{},
	}
}

func (s *Service) evaluateStation(ctx context.Context, st models.Station, rec *models.MeasurementRecord) models.TimelineStation {
	motorType := rec.MotorType
	if motorType == "" {
		motorType = s.defaultMotorType
	}

	// Without usable limits every test is shown as passed.
	entry, err := s.resolver.Resolve(ctx, st.Name, motorType)
	if err != nil {
		log.Printf("Evaluating %s for device %s without limits: %v", st.Name, rec.DeviceCode, err)
	}

	results := limits.EvaluateAll(limits.Sanitize(st.Name, rec.Data), entry)

	station := models.TimelineStation{
		Name:   st.Name,
		Status: models.StatusPassed,
		Tests:  make([]models.TimelineTest, 0, len(results)),
	}

	for _, r := range results {
		test := models.TimelineTest{
			Name:          r.Test,
			Result:        testPassed,
			MeasuredValue: strconv.FormatFloat(r.Value, 'f', -1, 64),
		}

		if r.Breached() {
			test.Result = testFailed
			test.OffsetFromLimit = limits.FormatOffset(r)
			station.Status = models.StatusFailed
		}

		station.Tests = append(station.Tests, test)
	}

	return station
}
