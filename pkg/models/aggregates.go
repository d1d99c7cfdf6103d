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

package models

import "time"

type StationStatus string

const (
	StatusPassed  StationStatus = "passed"
	StatusFailed  StationStatus = "failed"
	StatusPending StationStatus = "pending"
)

// TimelineTest is one evaluated test shown on a device timeline.
type TimelineTest struct {
	Name            string `json:"name"`
	Result          string `json:"result"`
	MeasuredValue   string `json:"measuredValue"`
	OffsetFromLimit string `json:"offsetFromLimit,omitempty"`
}

type TimelineStation struct {
	Name   string         `json:"name"`
	Status StationStatus  `json:"status"`
	Tests  []TimelineTest `json:"tests"`
}

// DeviceTimeline is one device's progress across every fixed station.
type DeviceTimeline struct {
	Code           string            `json:"code"`
	Type           MotorType         `json:"type"`
	CurrentStation string            `json:"currentStation"`
	Stations       []TimelineStation `json:"stations"`
}

type TestCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StationFails struct {
	Station  string      `json:"station"`
	Value    int         `json:"value"`
	TopTests []TestCount `json:"topTests"`
}

// StationError names a station dropped from an aggregate and why.
type StationError struct {
	Station string `json:"station"`
	Error   string `json:"error"`
}

// TopFails ranks stations by failing records in a window.
type TopFails struct {
	Stations []StationFails `json:"stations"`
	Partial  []StationError `json:"partial,omitempty"`
}

type FailedRecord struct {
	DeviceCode    string    `json:"deviceCode"`
	MeasuredValue float64   `json:"measuredValue"`
	Limit         float64   `json:"limit"`
	Difference    float64   `json:"difference"`
	Timestamp     time.Time `json:"timestamp"`
}

type TestFailures struct {
	Test    string         `json:"test"`
	Records []FailedRecord `json:"records"`
}

type StationFailDetail struct {
	Station string         `json:"station"`
	Tests   []TestFailures `json:"tests"`
}

// Total counts the failed records across every test of the station.
func (s StationFailDetail) Total() int {
	total := 0
	for _, t := range s.Tests {
		total += len(t.Records)
	}

	return total
}

// FailDetail lists failing device records per station and test.
type FailDetail struct {
	Stations []StationFailDetail `json:"stations"`
	Partial  []StationError      `json:"partial,omitempty"`
}
