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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bookkeeping keys carried by every measurement document.
const (
	KeyID             = "id"
	KeyCollectionID   = "collectionId"
	KeyCollectionName = "collectionName"
	KeyCreated        = "created"
	KeyUpdated        = "updated"
	KeyDeviceCode     = "device_code"
	KeyMotorType      = "motor_type"
	KeyTestFail       = "test_fail"
	KeyTime           = "time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// RawField is one key/value pair of a measurement document.
type RawField struct {
	Key   string
	Value any
}

// RawRecord is a measurement document with its key order preserved.
type RawRecord []RawField

// Get returns the value stored under key.
func (r RawRecord) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}

	return nil, false
}

// Set replaces the value under key, appending it when absent.
func (r *RawRecord) Set(key string, value any) {
	for i := range *r {
		if (*r)[i].Key == key {
			(*r)[i].Value = value

			return
		}
	}

	*r = append(*r, RawField{Key: key, Value: value})
}

// String returns the value under key when it is a string.
func (r RawRecord) String(key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

func (r RawRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Key, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (r *RawRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidPayload)
	}

	out := make(RawRecord, 0)

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected key", ErrInvalidPayload)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}

		out = append(out, RawField{Key: key, Value: normalizeValue(value)})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out

	return nil
}

// normalizeValue turns json.Number into float64 so numeric fields compare
// the same way regardless of where the document came from.
func normalizeValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}

		return n.String()
	}

	return v
}

// NumericValue reports the float value of a numeric document field.
// Strings, booleans and nested values are not numeric.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

// MeasurementRecord is one device test pass at one station.
type MeasurementRecord struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	DeviceCode string    `json:"device_code"`
	MotorType  MotorType `json:"motor_type"`
	TestFail   bool      `json:"test_fail"`
	Time       time.Time `json:"time"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
	Data       RawRecord `json:"data"`

	// Seq is the store's insertion order, zero until stored.
	Seq int64 `json:"-"`
}

// NewMeasurementRecord lifts the bookkeeping fields out of a raw document.
// Data keeps the full document, bookkeeping keys included.
func NewMeasurementRecord(collection string, data RawRecord) (*MeasurementRecord, error) {
	rec := &MeasurementRecord{
		ID:         data.String(KeyID),
		Collection: collection,
		DeviceCode: data.String(KeyDeviceCode),
		MotorType:  MotorType(data.String(KeyMotorType)),
		Data:       data,
	}

	if v, ok := data.Get(KeyTestFail); ok {
		fail, err := parseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}

		rec.TestFail = fail
	}

	if raw := data.String(KeyTime); raw != "" {
		t, err := ParseTime(raw)
		if err != nil {
			return nil, err
		}

		rec.Time = t
	}

	return rec, nil
}

// Validate checks that failing records carry a device code and a time.
func (r *MeasurementRecord) Validate() error {
	if !r.TestFail {
		return nil
	}

	if r.DeviceCode == "" {
		return fmt.Errorf("%w: missing device code", ErrMalformedRecord)
	}

	if r.Time.IsZero() {
		return fmt.Errorf("%w: missing time", ErrMalformedRecord)
	}

	return nil
}

// StationName returns the display name of the record's station.
func (r *MeasurementRecord) StationName() string {
	return StationNameFromCollection(r.Collection)
}

// ParseTime accepts the timestamp layouts stations and the store emit.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

func parseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	case nil:
		return false, nil
	default:
		if f, ok := NumericValue(v); ok {
			return f != 0, nil
		}

		return false, fmt.Errorf("test_fail: unsupported type %T", v)
	}
}
