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

// Package models pkg/models/errors.go provides errors shared by the domain model.
package models

import "errors"

var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrUnknownMotorType = errors.New("unknown motor type")
	ErrUnknownStation   = errors.New("unknown station")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidPayload   = errors.New("invalid payload")

	ErrDuplicateLiveError = errors.New("live error already recorded")
)
