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

package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	stationSpacing = 2 * time.Minute
	keptPassing    = 5 // tests that always pass in a failing record
	letters        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator produces plausible measurement documents.
type Generator struct {
	rng        *rand.Rand
	failChance float64
}

func NewGenerator(seed int64, failChance float64) *Generator {
	return &Generator{
		rng:        rand.New(rand.NewSource(seed)), //nolint:gosec // test data
		failChance: failChance,
	}
}

// DeviceCode returns a code shaped like the line's barcodes.
func (g *Generator) DeviceCode() string {
	var suffix strings.Builder

	for i := 0; i < 6; i++ {
		suffix.WriteByte(letters[g.rng.Intn(len(letters))])
	}

	return fmt.Sprintf("P%d#1TF%d#%s#", 10000000+g.rng.Intn(90000000), 10000000+g.rng.Intn(90000000), suffix.String())
}

// MotorType picks the motor type for a new device.
func (g *Generator) MotorType() models.MotorType {
	if g.rng.Intn(2) == 0 {
		return models.MotorEFAD
	}

	return models.MotorERAD
}

// Measurement builds one document for station. With probability
// failChance it is marked failing and some tests land outside their
// bounds; otherwise every value is within bounds.
func (g *Generator) Measurement(station string, mt models.MotorType, deviceCode string, at time.Time) (models.RawRecord, bool) {
	bounds := Tables[station][mt]

	doc := models.RawRecord{
		{Key: models.KeyTime, Value: at.UTC().Format(time.RFC3339Nano)},
		{Key: models.KeyDeviceCode, Value: deviceCode},
		{Key: models.KeyMotorType, Value: string(mt)},
	}

	failing := map[string]struct{}{}
	fail := len(bounds) > 0 && g.rng.Float64() < g.failChance

	if fail {
		n := 1
		if span := len(bounds) - keptPassing; span > 1 {
			n = 1 + g.rng.Intn(span)
		}

		for _, i := range g.rng.Perm(len(bounds))[:n] {
			failing[bounds[i].Test] = struct{}{}
		}
	}

	for _, bd := range bounds {
		var v float64

		if _, ok := failing[bd.Test]; ok {
			v = g.outside(bd)
		} else {
			v = g.uniform(bd.Low, bd.High)
		}

		doc.Set(bd.Test, round3(v))
	}

	doc.Set(models.KeyTestFail, fmt.Sprintf("%t", fail))

	return doc, fail
}

func (g *Generator) outside(bd Bound) float64 {
	if g.rng.Intn(2) == 0 {
		return g.uniform(bd.Low-1, bd.Low-0.1)
	}

	return g.uniform(bd.High+0.1, bd.High+1)
}

func (g *Generator) uniform(low, high float64) float64 {
	return low + g.rng.Float64()*(high-low)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
