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

const (
	minSuffix = "_MIN"
	maxSuffix = "_MAX"
)

// LimitEntry holds the bounds for one (station, motor type) pair.
// Bounds keys are "<test>_MIN" and "<test>_MAX"; either may be absent.
type LimitEntry struct {
	ID        string             `json:"id"`
	Station   string             `json:"station"`
	MotorType MotorType          `json:"motor_type"`
	Bounds    map[string]float64 `json:"bounds"`
}

// MinKey returns the bounds key of a test's lower limit.
func MinKey(test string) string { return test + minSuffix }

// MaxKey returns the bounds key of a test's upper limit.
func MaxKey(test string) string { return test + maxSuffix }

// Min returns the lower bound of test, if any.
func (l *LimitEntry) Min(test string) (float64, bool) {
	if l == nil || l.Bounds == nil {
		return 0, false
	}

	v, ok := l.Bounds[MinKey(test)]

	return v, ok
}

// Max returns the upper bound of test, if any.
func (l *LimitEntry) Max(test string) (float64, bool) {
	if l == nil || l.Bounds == nil {
		return 0, false
	}

	v, ok := l.Bounds[MaxKey(test)]

	return v, ok
}

// SetRange stores both bounds of a test.
func (l *LimitEntry) SetRange(test string, low, high float64) {
	if l.Bounds == nil {
		l.Bounds = make(map[string]float64)
	}

	l.Bounds[MinKey(test)] = low
	l.Bounds[MaxKey(test)] = high
}
