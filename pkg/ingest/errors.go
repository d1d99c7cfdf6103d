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

package ingest

import "errors"

var (
	errUnknownTopic      = errors.New("topic does not name a station")
	errConnectFailed     = errors.New("failed to connect to MQTT broker")
	errSubscribeFailed   = errors.New("failed to subscribe")
	errPublishFailed     = errors.New("failed to publish")
	errMissingTag        = errors.New("missing OPC-UA setting")
	errInvalidNodeID     = errors.New("invalid OPC-UA node id")
	errOPCUAConnect      = errors.New("failed to connect to OPC-UA server")
	errOPCUARead         = errors.New("failed to read OPC-UA nodes")
	errMissingSerialPort = errors.New("missing serial setting")
	errSerialOpen        = errors.New("failed to open serial port")
	errInvalidBaudRate   = errors.New("invalid serial setting")
)
