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
	"strings"
)

const (
	collectionPrefix = "station_"
	limitsSuffix     = "limits"
	updatesSuffix    = "updates"

	// HeartbeatCollection holds the per-station "last update" rows.
	HeartbeatCollection = "station_updates"
	// LiveErrorsCollection holds persisted live error events.
	LiveErrorsCollection = "live_errors"
)

// Station is one fixed manufacturing test stage.
type Station struct {
	Name       string   `json:"name"`
	Collection string   `json:"collection"`
	Tests      []string `json:"tests"`
}

// LimitsCollection returns the table holding this station's limit rows.
func (s Station) LimitsCollection() string {
	return s.Collection + "_" + limitsSuffix
}

// Stations is the fixed station set in line order. Aggregates and
// timelines are always reported in this order.
var Stations = []Station{
	{
		Name:       "A20",
		Collection: "station_a20",
		Tests: []string{
			"HiPot_1_UVW_G_NTC", "HiPot_2_NTC_G", "IR_1_UVW_G_NTC", "IR_2_NTC_G",
			"NTC1_Res", "Offset_NTC1_Res", "Offset_NTC1_Temp", "Offset_NTC2_Res",
			"Offset_NTC2_Temp", "Surge_U_VW_L_Vale", "Surge_V_WU_L_Vale", "Surge_W_UV_L_Vale",
		},
	},
	{
		Name:       "A25",
		Collection: "station_a25",
		Tests: []string{
			"Cos__and_Sin_", "Cos_and_Sin", "Offset_Cos__and_Cos", "Offset_Exc__and_Exc",
			"Offset_NTC1_Res", "Offset_NTC1_Temp", "Offset_NTC2_Res", "Offset_NTC2_Temp",
			"Offset_PCBA_Ground", "Offset_Sin__and_Sin", "Sin__and_Exc_", "Sin_and_Exc",
		},
	},
	{
		Name:       "A26",
		Collection: "station_a26",
		Tests: []string{
			"Lineraity", "NTC1_Res", "OffsetAngle", "Offset_UV_Vpeak", "Offset_VW_Vpeak",
			"Offset_WU_Vpeak", "PhaseSequence", "THD", "Un_UV", "Un_VW", "Un_WU",
		},
	},
	{
		Name:       "S02",
		Collection: "station_s02",
		Tests: []string{
			"HiPot_1_UVW_G_NTC", "HiPot_2_NTC_G", "IR_1_UVW_G_NTC", "IR_2_NTC_G",
			"NTC1_Res", "NTC2_Res", "Offset_WR_UV_Res", "Offset_WR_VW_Res", "Offset_WR_WU_Res",
			"Surge_U_VW_AreaDiff", "Surge_U_VW_DiffArea", "Surge_U_VW_L_Vale",
			"Surge_V_WU_AreaDiff", "Surge_V_WU_DiffArea", "Surge_V_WU_L_Vale",
			"Surge_W_UV_AreaDiff", "Surge_W_UV_DiffArea", "Surge_W_UV_L_Vale",
			"Un_UV", "Un_VW", "Un_WU",
		},
	},
	{
		Name:       "NVH",
		Collection: "station_nvh",
		Tests: []string{
			"Acc_1_Air", "Acc_2_Air", "Acc_3_Air", "DC_bus", "No_Load_Current",
			"Out_PowerkW", "Out_Voltage", "Up_side_Air", "Vibration",
		},
	},
	{
		Name:       "R23",
		Collection: "station_r23",
		Tests: []string{
			"Finish_Temp", "L12", "L12_1", "L13", "L14", "L15", "L16", "L23", "L34", "L45", "L56",
			"Offset_UV_Vpeak", "Offset_VW_Vpeak", "Offset_WU_Vpeak",
			"Origin_UV_Vpeak", "Origin_VW_Vpeak", "Origin_WU_Vpeak",
			"Start_Temp", "THD", "Un_UV", "Un_VW", "Un_WU",
		},
	},
}

// IsMeasurementCollection reports whether collection holds raw station
// measurements, as opposed to limit tables or the heartbeat table.
func IsMeasurementCollection(collection string) bool {
	return strings.HasPrefix(collection, collectionPrefix) &&
		!strings.HasSuffix(collection, limitsSuffix) &&
		!strings.HasSuffix(collection, updatesSuffix)
}

// StationNameFromCollection maps "station_a20" to "A20".
func StationNameFromCollection(collection string) string {
	parts := strings.Split(collection, "_")
	if len(parts) < 2 {
		return strings.ToUpper(collection)
	}

	return strings.ToUpper(parts[1])
}

// CollectionForStation maps "A20" (any case) to "station_a20".
func CollectionForStation(name string) string {
	return collectionPrefix + strings.ToLower(name)
}

// LookupStation finds a fixed station by name or collection.
func LookupStation(nameOrCollection string) (Station, error) {
	for _, st := range Stations {
		if strings.EqualFold(st.Name, nameOrCollection) || st.Collection == nameOrCollection {
			return st, nil
		}
	}

	return Station{}, fmt.Errorf("%w: %s", ErrUnknownStation, nameOrCollection)
}

// StationIndex returns the enumeration position of a station name, or -1.
func StationIndex(name string) int {
	for i, st := range Stations {
		if strings.EqualFold(st.Name, name) {
			return i
		}
	}

	return -1
}
