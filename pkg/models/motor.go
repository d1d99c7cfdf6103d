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

// MotorType selects which limit row applies to a device.
type MotorType string

const (
	MotorEFAD  MotorType = "EFAD"
	MotorERAD  MotorType = "ERAD"
	MotorShort MotorType = "Short"
)

// MotorTypes lists every known motor type in display order.
var MotorTypes = []MotorType{MotorEFAD, MotorERAD, MotorShort}

// Valid reports whether m is one of the known motor types.
func (m MotorType) Valid() bool {
	for _, known := range MotorTypes {
		if m == known {
			return true
		}
	}

	return false
}

// ParseMotorType matches input case-insensitively against the known motor types.
func ParseMotorType(input string) (MotorType, error) {
	trimmed := strings.TrimSpace(input)

	for _, known := range MotorTypes {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMotorType, input)
}

// CorrectMotorType is ParseMotorType with typo tolerance: an input one
// edit away from a known motor type resolves to it.
func CorrectMotorType(input string) (MotorType, error) {
	if m, err := ParseMotorType(input); err == nil {
		return m, nil
	}

	lowered := strings.ToLower(strings.TrimSpace(input))

	for _, known := range MotorTypes {
		if withinOneEdit(lowered, strings.ToLower(string(known))) {
			return known, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMotorType, input)
}

func withinOneEdit(a, b string) bool {
	if len(a) < len(b) {
		a, b = b, a
	}

	if len(a)-len(b) > 1 {
		return false
	}

	diff := 0
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		if a[i] == b[j] {
			i++
			j++

			continue
		}

		diff++
		if diff > 1 {
			return false
		}

		if len(a) > len(b) {
			i++
		} else {
			i++
			j++
		}
	}

	diff += len(a) - i + len(b) - j

	return diff <= 1
}
