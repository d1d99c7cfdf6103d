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

// Package db pkg/db/interfaces.go
package db

import (
	"context"
	"time"

	"github.com/mfreeman451/lineradar/pkg/feed"
	"github.com/mfreeman451/lineradar/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/mfreeman451/lineradar/pkg/db Service,Publisher

// Publisher receives an event for every stored record.
type Publisher interface {
	Publish(ev feed.Event) int
}

// Service represents all database operations.
type Service interface {
	Close() error

	// Measurement operations.

	InsertRecord(ctx context.Context, rec *models.MeasurementRecord) error
	ListRecords(ctx context.Context, collection string, filter *RecordFilter) ([]*models.MeasurementRecord, error)
	GetLatestRecord(ctx context.Context, collection, deviceCode string) (*models.MeasurementRecord, error)

	// Change feed outbox operations.

	ListFailingRecords(ctx context.Context, afterSeq int64, limit int) ([]*models.MeasurementRecord, error)
	GetFeedCursor(ctx context.Context, name string) (int64, error)
	SetFeedCursor(ctx context.Context, name string, seq int64) error

	// Limit operations.

	ListLimits(ctx context.Context, station string, motorType *models.MotorType) ([]*models.LimitEntry, error)
	UpsertLimits(ctx context.Context, entry *models.LimitEntry) error

	// Live error operations.

	InsertLiveError(ctx context.Context, ev *models.LiveErrorEvent) error
	ListLiveErrors(ctx context.Context, limit int) ([]*models.LiveErrorEvent, error)
	PruneLiveErrors(ctx context.Context, olderThan time.Time) (int64, error)

	// Heartbeat operations.

	UpsertHeartbeat(ctx context.Context, stationID string, at time.Time) error
	ListHeartbeats(ctx context.Context) ([]models.StationHeartbeat, error)
}
