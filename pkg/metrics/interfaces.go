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

// Package metrics exposes the pipeline counters of the dashboard.
package metrics

import "time"

// Recorder observes the ingestion and evaluation pipeline.
type Recorder interface {
	RecordIngested(collection string)
	RecordLiveError(station string, breaches int)
	RecordSkipped(station, reason string)
	RecordHandlerError(stage string)
	RecordFeedDrop(collection string)
	ObserveAggregation(name string, elapsed time.Duration)
	SetSubscribers(transport string, n int)
}
