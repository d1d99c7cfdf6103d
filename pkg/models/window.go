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

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Today returns the calendar day containing now in loc.
func Today(loc *time.Location, now time.Time) TimeWindow {
	if loc == nil {
		loc = time.Local
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	return TimeWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Day parses a YYYY-MM-DD date into its calendar day window in loc.
func Day(loc *time.Location, date string) (TimeWindow, error) {
	if loc == nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(dayLayout, date, loc)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, date)
	}

	return Today(loc, t), nil
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
