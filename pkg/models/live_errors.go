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

// MaxLiveErrorHistory caps how many live errors are replayed to clients.
const MaxLiveErrorHistory = 50

// LiveErrorEvent is the persisted record of one failing measurement
// that breached at least one bound. It is never mutated after creation.
type LiveErrorEvent struct {
	ID          string        `json:"id"`
	StationName string        `json:"station_name"`
	MotorType   MotorType     `json:"motor_type"`
	DeviceCode  string        `json:"device_code"`
	DeviceID    string        `json:"device_id"`
	Time        time.Time     `json:"time"`
	Errors      []FieldResult `json:"errors"`
	Created     time.Time     `json:"created"`
}

// StationHeartbeat records the last measurement time seen per station.
type StationHeartbeat struct {
	StationID  string    `json:"station_id"`
	UpdateTime time.Time `json:"update_time"`
}

// AsMap renders the event as a generic document, used by transports that
// carry untyped payloads.
func (e *LiveErrorEvent) AsMap() map[string]any {
	errs := make([]any, 0, len(e.Errors))

	for _, fr := range e.Errors {
		item := map[string]any{
			"test":     fr.Test,
			"value":    fr.Value,
			"type":     string(fr.Classification),
			"severity": string(fr.Severity),
			"offset":   fr.Offset,
		}

		if fr.Limit != nil {
			item["limit"] = *fr.Limit
		}

		errs = append(errs, item)
	}

	return map[string]any{
		"id":           e.ID,
		"station_name": e.StationName,
		"motor_type":   string(e.MotorType),
		"device_code":  e.DeviceCode,
		"device_id":    e.DeviceID,
		"time":         e.Time.UTC().Format(time.RFC3339Nano),
		"errors":       errs,
	}
}
