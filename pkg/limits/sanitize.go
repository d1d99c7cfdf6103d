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
	"strings"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// excludedKeys are bookkeeping fields that are never tests.
var excludedKeys = map[string]struct{}{
	models.KeyID:             {},
	models.KeyCollectionID:   {},
	models.KeyCollectionName: {},
	models.KeyCreated:        {},
	models.KeyUpdated:        {},
	models.KeyDeviceCode:     {},
	models.KeyMotorType:      {},
	models.KeyTestFail:       {},
	models.KeyTime:           {},
}

// schemas maps station name to its set of test names.
var schemas = buildSchemas()

func buildSchemas() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(models.Stations))

	for _, st := range models.Stations {
		tests := make(map[string]struct{}, len(st.Tests))
		for _, name := range st.Tests {
			tests[name] = struct{}{}
		}

		out[st.Name] = tests
	}

	return out
}

// IsExcluded reports whether key is a bookkeeping field.
func IsExcluded(key string) bool {
	_, ok := excludedKeys[key]

	return ok
}

// StationSchema returns the ordered test names of a known station, or nil.
func StationSchema(station string) []string {
	st, err := models.LookupStation(station)
	if err != nil {
		return nil
	}

	return st.Tests
}

// Sanitize strips bookkeeping and non-numeric fields from a measurement
// document. For a known station only its schema tests are kept; for any
// other station every remaining numeric key is a test. Fields keep the
// document order and data is never modified.
func Sanitize(station string, data models.RawRecord) models.Fields {
	schema, known := schemas[strings.ToUpper(station)]

	out := make(models.Fields, 0, len(data))

	for _, f := range data {
		if IsExcluded(f.Key) {
			continue
		}

		if known {
			if _, ok := schema[f.Key]; !ok {
				continue
			}
		}

		value, ok := models.NumericValue(f.Value)
		if !ok {
			continue
		}

		out = append(out, models.Field{Name: f.Key, Value: value})
	}

	return out
}

// SanitizeRecord sanitizes rec using the station its collection belongs to.
func SanitizeRecord(rec *models.MeasurementRecord) models.Fields {
	return Sanitize(rec.StationName(), rec.Data)
}
