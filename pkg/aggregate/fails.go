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
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/limits"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const topTestsPerStation = 3

// evaluatedRecord is a failing record with the fields that breached.
type evaluatedRecord struct {
	record   *models.MeasurementRecord
	breaches []models.FieldResult
}

type stationBreaches struct {
	station  models.Station
	records  []evaluatedRecord
	fetchErr error
	err      error
}

// failingBreaches fetches the failing records of window at every station
// and evaluates them against the default motor type's limits. Stations
// that could not be evaluated are reported in the partial list. When no
// station could be fetched the error is ErrRecordFetchFailed.
func (s *Service) failingBreaches(ctx context.Context, window models.TimeWindow) ([]stationBreaches, []models.StationError, error) {
	results := forEachStation(ctx, func(ctx context.Context, st models.Station) stationBreaches {
		res := stationBreaches{station: st}

		records, err := s.store.ListRecords(ctx, st.Collection, db.Failing(window))
		if err != nil {
			res.fetchErr = err
			return res
		}

		entry, err := s.resolver.Resolve(ctx, st.Name, s.defaultMotorType)
		if err != nil {
			res.err = err
			return res
		}

		for _, rec := range records {
			breaches := limits.EvaluateBreaches(limits.SanitizeRecord(rec), entry)
			if len(breaches) > 0 {
				res.records = append(res.records, evaluatedRecord{record: rec, breaches: breaches})
			}
		}

		return res
	})

	var (
		ok      []stationBreaches
		partial []models.StationError
		fetches int
	)

	for _, res := range results {
		switch {
		case res.fetchErr != nil:
			fetches++

			log.Printf("Failed to fetch failing records for %s: %v", res.station.Name, res.fetchErr)
			partial = append(partial, models.StationError{Station: res.station.Name, Error: res.fetchErr.Error()})
		case res.err != nil:
			log.Printf("Skipping %s: %v", res.station.Name, res.err)
			partial = append(partial, models.StationError{Station: res.station.Name, Error: res.err.Error()})
		default:
			ok = append(ok, res)
		}
	}

	if fetches == len(models.Stations) {
		return nil, partial, fmt.Errorf("%w: all %d stations failed", ErrRecordFetchFailed, fetches)
	}

	return ok, partial, nil
}

// TopFails ranks stations by the number of records in window that breach
// at least one limit, with each station's three most breached tests.
// Stations without breaches are left out. Ties keep station order.
func (s *Service) TopFails(ctx context.Context, window models.TimeWindow) (*models.TopFails, error) {
	defer s.observe("top_fails", time.Now())

	stations, partial, err := s.failingBreaches(ctx, window)
	if err != nil {
		return nil, err
	}

	out := &models.TopFails{
		Stations: make([]models.StationFails, 0, len(stations)),
		Partial:  partial,
	}

	for _, st := range stations {
		if len(st.records) == 0 {
			continue
		}

		out.Stations = append(out.Stations, models.StationFails{
			Station:  st.station.Name,
			Value:    len(st.records),
			TopTests: topTests(st.records, topTestsPerStation),
		})
	}

	sort.SliceStable(out.Stations, func(i, j int) bool {
		return out.Stations[i].Value > out.Stations[j].Value
	})

	return out, nil
}

// topTests tallies breaches per test and returns the n most frequent.
// Equal counts keep the order in which tests were first seen.
func topTests(records []evaluatedRecord, n int) []models.TestCount {
	var counts []models.TestCount

	index := make(map[string]int)

	for _, r := range records {
		for _, b := range r.breaches {
			i, seen := index[b.Test]
			if !seen {
				i = len(counts)
				index[b.Test] = i
				counts = append(counts, models.TestCount{Name: b.Test})
			}

			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > n {
		counts = counts[:n]
	}

	return counts
}

// FailDetail lists, per station and test, every failing record in window
// that carries a device code and time. Stations are ordered by their
// number of listed records, largest first.
func (s *Service) FailDetail(ctx context.Context, window models.TimeWindow) (*models.FailDetail, error) {
	defer s.observe("fail_detail", time.Now())

	stations, partial, err := s.failingBreaches(ctx, window)
	if err != nil {
		return nil, err
	}

	out := &models.FailDetail{
		Stations: make([]models.StationFailDetail, 0, len(stations)),
		Partial:  partial,
	}

	for _, st := range stations {
		detail := models.StationFailDetail{Station: st.station.Name}
		index := make(map[string]int)

		for _, r := range st.records {
			if r.record.DeviceCode == "" || r.record.Time.IsZero() {
				continue
			}

			for _, b := range r.breaches {
				i, seen := index[b.Test]
				if !seen {
					i = len(detail.Tests)
					index[b.Test] = i
					detail.Tests = append(detail.Tests, models.TestFailures{Test: b.Test})
				}

				detail.Tests[i].Records = append(detail.Tests[i].Records, failedRecord(r.record, b))
			}
		}

		if len(detail.Tests) > 0 {
			out.Stations = append(out.Stations, detail)
		}
	}

	sort.SliceStable(out.Stations, func(i, j int) bool {
		return out.Stations[i].Total() > out.Stations[j].Total()
	})

	return out, nil
}

func failedRecord(rec *models.MeasurementRecord, b models.FieldResult) models.FailedRecord {
	fr := models.FailedRecord{
		DeviceCode:    rec.DeviceCode,
		MeasuredValue: limits.RoundOffset(b.Value),
		Difference:    limits.RoundOffset(b.Offset),
		Timestamp:     rec.Time,
	}

	if b.Limit != nil {
		fr.Limit = *b.Limit
	}

	return fr
}
