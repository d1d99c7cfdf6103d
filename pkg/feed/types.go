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

// Package feed is the in-process change feed of the record store.
package feed

import (
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// AllCollections subscribes to every collection.
const AllCollections = "*"

const defaultBuffer = 64

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Event is one change to a record.
type Event struct {
	Action     Action
	Collection string
	Record     *models.MeasurementRecord
	At         time.Time
}

// Subscription receives the events of one collection, or of all of them.
type Subscription struct {
	id         uint64
	collection string
	ch         chan Event
	missed     chan struct{}
}

// C returns the event channel. It is closed on Unsubscribe or Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Missed is signaled when at least one event was discarded for the
// subscription since the last receive.
func (s *Subscription) Missed() <-chan struct{} {
	return s.missed
}

// Collection returns the collection filter of the subscription.
func (s *Subscription) Collection() string {
	return s.collection
}

// DropFunc is called when a subscriber's buffer is full and an event is
// discarded for it.
type DropFunc func(collection string)
