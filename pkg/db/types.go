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

package db

import (
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// RecordFilter narrows a measurement listing. Zero values do not filter.
// Until is exclusive.
type RecordFilter struct {
	DeviceCode string
	MotorType  models.MotorType
	TestFail   *bool
	Since      time.Time
	Until      time.Time
	Ascending  bool
	Limit      int
}

// Failing returns a filter for failing records inside window.
func Failing(window models.TimeWindow) *RecordFilter {
	fail := true

	return &RecordFilter{
		TestFail: &fail,
		Since:    window.Start,
		Until:    window.End,
	}
}
