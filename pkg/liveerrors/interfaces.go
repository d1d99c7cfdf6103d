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

// Package liveerrors turns failing measurements into live error events.
package liveerrors

import (
	"context"
	"time"

	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/models"
)

//go:generate mockgen -destination=mock_liveerrors.go -package=liveerrors github.com/mfreeman451/lineradar/pkg/liveerrors Sink

// Store is the part of the record store the publisher writes to.
type Store interface {
	ListLimits(ctx context.Context, station string, motorType *models.MotorType) ([]*models.LimitEntry, error)
	UpsertHeartbeat(ctx context.Context, stationID string, at time.Time) error
	InsertLiveError(ctx context.Context, ev *models.LiveErrorEvent) error
}

// Outbox lists the failing records in store order so the publisher can
// recover the ones the change feed dropped.
type Outbox interface {
	ListFailingRecords(ctx context.Context, afterSeq int64, limit int) ([]*models.MeasurementRecord, error)
	GetFeedCursor(ctx context.Context, name string) (int64, error)
	SetFeedCursor(ctx context.Context, name string, seq int64) error
}

// Subscriber is the change feed the publisher consumes.
type Subscriber interface {
	Subscribe(collection string, buffer int) (*feed.Subscription, error)
	Unsubscribe(sub *feed.Subscription)
}

// Sink receives every persisted live error.
type Sink interface {
	Notify(ctx context.Context, ev *models.LiveErrorEvent) error
}
