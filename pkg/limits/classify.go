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

import (
	"math"
	"strconv"

	"github.com/mfreeman451/lineradar/pkg/models"
)

const displayPrecision = 1000

// Classify compares one measured value against the bounds of test.
// The lower bound is checked first, so a value is never both below and
// above. NaN is not comparable and passes.
func Classify(test string, value float64, entry *models.LimitEntry) models.FieldResult {
	result := models.FieldResult{
		Test:           test,
		Value:          value,
		Classification: models.ClassPass,
	}

	if math.IsNaN(value) {
		return result
	}

	if low, ok := entry.Min(test); ok && value < low {
		result.Classification = models.ClassBelow
		result.Limit = &low
		result.Offset = value - low
	} else if high, ok := entry.Max(test); ok && value > high {
		result.Classification = models.ClassAbove
		result.Limit = &high
		result.Offset = value - high
	}

	result.Severity = result.Classification.Severity()

	return result
}

// RoundOffset rounds to three decimals for display.
func RoundOffset(v float64) float64 {
	return math.Round(v*displayPrecision) / displayPrecision
}

// FormatOffset renders an offset the way timelines show it: breaches of
// the upper bound carry an explicit plus sign. The offset is rounded with
// RoundOffset first so every view shows the same number.
func FormatOffset(r models.FieldResult) string {
	offset := RoundOffset(r.Offset)

	switch r.Classification {
	case models.ClassAbove:
		return "+" + strconv.FormatFloat(offset, 'f', 3, 64)
	case models.ClassBelow:
		return strconv.FormatFloat(offset, 'f', 3, 64)
	case models.ClassPass:
		return ""
	default:
		return ""
	}
}
