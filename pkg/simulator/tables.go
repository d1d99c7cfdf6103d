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

import "github.com/mfreeman451/lineradar/pkg/models"

// Bound is the accepted range of one test.
type Bound struct {
	Test string
	Low  float64
	High float64
}

func b(test string, high, low float64) Bound {
	return Bound{Test: test, Low: low, High: high}
}

var a20Common = []Bound{
	b("NTC1_Res", 12, 5),
	b("IR_1_UVW_G_NTC", 550, 10),
	b("IR_2_NTC_G", 550, 30),
	b("Surge_U_VW_L_Vale", 12, 0),
	b("Surge_V_WU_L_Vale", 12, 0),
	b("Surge_W_UV_L_Vale", 12, 0),
	b("Offset_NTC1_Res", 12.481, 8.07),
	b("Offset_NTC1_Temp", 30, 2),
	b("Offset_NTC2_Res", 12.481, 8.07),
	b("Offset_NTC2_Temp", 30, 2),
}

var a25 = []Bound{
	b("Offset_NTC1_Res", 12.481, 8.07),
	b("Offset_NTC1_Temp", 30, 2),
	b("Offset_NTC2_Res", 12.481, 8.07),
	b("Offset_NTC2_Temp", 30, 2),
	b("Offset_Cos__and_Cos", 31.08, 28.12),
	b("Offset_Sin__and_Sin", 28.35, 25.65),
	b("Offset_Exc__and_Exc", 14.49, 13.11),
	b("Cos__and_Sin_", 10000, 0),
	b("Sin__and_Exc_", 10000, 0),
	b("Cos_and_Sin", 10000, 0),
	b("Sin_and_Exc", 10000, 0),
	b("Offset_PCBA_Ground", 0.7, 0),
}

func a26(offsetAngle Bound, vpeakHigh, vpeakLow float64) []Bound {
	return []Bound{
		b("Lineraity", 1, -1),
		offsetAngle,
		b("PhaseSequence", 1, 0.1),
		b("NTC1_Res", 18.052, 5.801),
		b("Offset_UV_Vpeak", vpeakHigh, vpeakLow),
		b("Offset_VW_Vpeak", vpeakHigh, vpeakLow),
		b("Offset_WU_Vpeak", vpeakHigh, vpeakLow),
		b("Un_UV", 1, -1),
		b("Un_VW", 1, -1),
		b("Un_WU", 1, -1),
		b("THD", 1.5, 0.1),
	}
}

func s02(wrHigh, wrLow, hipot1, hipot2 float64) []Bound {
	return []Bound{
		b("NTC1_Res", 18.052, 8.07),
		b("NTC2_Res", 18.052, 8.07),
		b("Offset_WR_UV_Res", wrHigh, wrLow),
		b("Offset_WR_VW_Res", wrHigh, wrLow),
		b("Offset_WR_WU_Res", wrHigh, wrLow),
		b("Un_UV", 1, -1),
		b("Un_VW", 1, -1),
		b("Un_WU", 1, -1),
		b("Surge_U_VW_AreaDiff", 5, -5),
		b("Surge_V_WU_AreaDiff", 5, -5),
		b("Surge_W_UV_AreaDiff", 5, -5),
		b("Surge_U_VW_DiffArea", 15, 0),
		b("Surge_V_WU_DiffArea", 15, 0),
		b("Surge_W_UV_DiffArea", 15, 0),
		b("Surge_U_VW_L_Vale", 12, 0),
		b("Surge_V_WU_L_Vale", 12, 0),
		b("Surge_W_UV_L_Vale", 12, 0),
		b("IR_1_UVW_G_NTC", 550, 20),
		b("IR_2_NTC_G", 550, 50),
		b("HiPot_1_UVW_G_NTC", hipot1, 3),
		b("HiPot_2_NTC_G", hipot2, 0.02),
	}
}

var nvh = []Bound{
	b("Vibration", 1, 1),
	b("No_Load_Current", 9, 1),
	b("DC_bus", 1000, 1),
	b("Out_Voltage", 1000, 1),
	b("Out_PowerkW", 1000, 1),
	b("Up_side_Air", 0.8, 0.3),
	b("Acc_1_Air", 0.8, 0.3),
	b("Acc_2_Air", 0.8, 0.3),
	b("Acc_3_Air", 0.8, 0.3),
}

var r23 = []Bound{
	b("L12", 1.75, 0.75),
	b("L13", 3.125, 1.875),
	b("L14", 4.375, 3.125),
	b("L15", 5.8, 4.2),
	b("L16", 7.05, 5.45),
	b("Start_Temp", 40, 10),
	b("Finish_Temp", 40, 10),
	b("Offset_UV_Vpeak", 37.389, 35.211),
	b("Offset_VW_Vpeak", 37.389, 35.211),
	b("Offset_WU_Vpeak", 37.389, 35.211),
	b("THD", 1.5, 0.1),
	b("L12_1", 1.75, 0.75),
	b("L23", 1.75, 0.75),
	b("L34", 1.75, 0.75),
	b("L45", 1.75, 0.75),
	b("L56", 1.75, 0.75),
	b("Origin_UV_Vpeak", 42.848, 40.352),
	b("Origin_VW_Vpeak", 42.848, 40.352),
	b("Origin_WU_Vpeak", 42.848, 40.352),
	b("Un_UV", 1, -1),
	b("Un_VW", 1, -1),
	b("Un_WU", 1, -1),
}

func withHiPot(common []Bound, hipot1, hipot2 float64) []Bound {
	out := []Bound{common[0], b("HiPot_1_UVW_G_NTC", hipot1, 3), b("HiPot_2_NTC_G", hipot2, 0.02)}

	return append(out, common[1:]...)
}

// Tables holds the production limits per station and motor type. A20, S02
// and R23 have no Short row.
var Tables = map[string]map[models.MotorType][]Bound{
	"A20": {
		models.MotorEFAD: withHiPot(a20Common, 10, 10),
		models.MotorERAD: withHiPot(a20Common, 12, 12),
	},
	"A25": {
		models.MotorEFAD:  a25,
		models.MotorERAD:  a25,
		models.MotorShort: a25,
	},
	"A26": {
		models.MotorEFAD:  a26(b("OffsetAngle", -28, -68), 48.7911, 45.9489),
		models.MotorERAD:  a26(b("OffsetAngle", 188, 148), 57.989, 54.611),
		models.MotorShort: a26(b("OffsetAngle", 188, 148), 48.7911, 45.9489),
	},
	"S02": {
		models.MotorEFAD: s02(14.42, 13.58, 7.3, 10),
		models.MotorERAD: s02(13.699, 12.901, 9, 12),
	},
	"NVH": {
		models.MotorEFAD:  nvh,
		models.MotorERAD:  nvh,
		models.MotorShort: nvh,
	},
	"R23": {
		models.MotorEFAD: r23,
		models.MotorERAD: r23,
	},
}

// LimitEntries renders Tables as limit rows, in station then motor type
// order.
func LimitEntries() []*models.LimitEntry {
	var out []*models.LimitEntry

	for _, st := range models.Stations {
		for _, mt := range models.MotorTypes {
			bounds, ok := Tables[st.Name][mt]
			if !ok {
				continue
			}

			entry := &models.LimitEntry{Station: st.Name, MotorType: mt}
			for _, bd := range bounds {
				entry.SetRange(bd.Test, bd.Low, bd.High)
			}

			out = append(out, entry)
		}
	}

	return out
}
