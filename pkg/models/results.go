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

// Field is one numeric test value of a sanitized record.
type Field struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Fields is an ordered set of test values.
type Fields []Field

// Names returns the test names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}

	return names
}

// Classification is the outcome of comparing a value to its bounds.
type Classification string

const (
	ClassPass  Classification = "pass"
	ClassBelow Classification = "below"
	ClassAbove Classification = "above"
)

// Severity is a display hint for live errors. It is derived from the
// classification and never stored.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severity maps c to its display severity. Upper-bound breaches are high,
// lower-bound breaches are low. Medium is never produced.
func (c Classification) Severity() Severity {
	switch c {
	case ClassAbove:
		return SeverityHigh
	case ClassBelow:
		return SeverityLow
	case ClassPass:
		return ""
	default:
		return ""
	}
}

// FieldResult is the evaluation of one test value.
type FieldResult struct {
	Test           string         `json:"test"`
	Value          float64        `json:"value"`
	Limit          *float64       `json:"limit,omitempty"`
	Classification Classification `json:"type"`
	Severity       Severity       `json:"severity,omitempty"`
	Offset         float64        `json:"offset"`
}

// Breached reports whether the value fell outside a bound.
func (r FieldResult) Breached() bool {
	return r.Classification == ClassBelow || r.Classification == ClassAbove
}
