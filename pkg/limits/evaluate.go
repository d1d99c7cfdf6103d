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

package limits

import "github.com/mfreeman451/lineradar/pkg/models"

// EvaluateBreaches returns the breaching results of fields in field order.
// A nil entry has no bounds and yields nothing.
func EvaluateBreaches(fields models.Fields, entry *models.LimitEntry) []models.FieldResult {
	var breaches []models.FieldResult

	for _, f := range fields {
		r := Classify(f.Name, f.Value, entry)
		if r.Breached() {
			breaches = append(breaches, r)
		}
	}

	return breaches
}

// EvaluateAll classifies every field, passes included.
func EvaluateAll(fields models.Fields, entry *models.LimitEntry) []models.FieldResult {
	results := make([]models.FieldResult, 0, len(fields))

	for _, f := range fields {
		results = append(results, Classify(f.Name, f.Value, entry))
	}

	return results
}

// AnyBreach reports whether results hold at least one breach.
func AnyBreach(results []models.FieldResult) bool {
	for _, r := range results {
		if r.Breached() {
			return true
		}
	}

	return false
}
