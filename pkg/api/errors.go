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

package api

import "errors"

var (
	errInvalidLimit = errors.New("limit must be a positive integer")
	errEmptyBounds  = errors.New("bounds must not be empty")
	errInvalidRange = errors.New("from must be before to")
	errUnknownTest  = errors.New("unknown test")
	errHubClosed    = errors.New("websocket hub closed")
	errHubBusy      = errors.New("websocket hub busy")
	errListen       = errors.New("failed to listen on")
)
