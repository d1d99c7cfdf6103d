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

package config

import "errors"

var (
	errInvalidDuration   = errors.New("invalid duration")
	errMissingListenAddr = errors.New("listen_addr is required")
	errMissingDBPath     = errors.New("db_path is required")
	errInvalidTimezone   = errors.New("invalid timezone")
	errInvalidMotorType  = errors.New("invalid default_motor_type")
	errMissingBroker     = errors.New("mqtt broker is required when mqtt is enabled")
	errMissingWebhookURL = errors.New("webhook url is required when enabled")
	errNegativeSetting   = errors.New("setting must not be negative")
	errInvalidFailChance = errors.New("fail_chance must be between 0 and 1")

	errMissingArchiveAddr = errors.New("archive addr is required when archive is enabled")
)
