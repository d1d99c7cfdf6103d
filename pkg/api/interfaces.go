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

// Package api pkg/api/interfaces.go
package api

import (
	"context"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/models"
)

//go:generate mockgen -destination=mock_api.go -package=api github.com/mfreeman451/lineradar/pkg/api Aggregator,Ingester

// Aggregator computes the dashboard views.
type Aggregator interface {
	DeviceTimeline(ctx context.Context, deviceCode string) (*models.DeviceTimeline, error)
	TopFails(ctx context.Context, window models.TimeWindow) (*models.TopFails, error)
	FailDetail(ctx context.Context, window models.TimeWindow) (*models.FailDetail, error)
}

// Ingester stores a raw measurement document for a station.
type Ingester interface {
	Record(ctx context.Context, station string, payload []byte) (*models.MeasurementRecord, error)
}

// Store is the part of the record store served directly.
type Store interface {
	ListRecords(ctx context.Context, collection string, filter *db.RecordFilter) ([]*models.MeasurementRecord, error)
	ListLiveErrors(ctx context.Context, limit int) ([]*models.LiveErrorEvent, error)
	ListLimits(ctx context.Context, station string, motorType *models.MotorType) ([]*models.LimitEntry, error)
	UpsertLimits(ctx context.Context, entry *models.LimitEntry) error
	ListHeartbeats(ctx context.Context) ([]models.StationHeartbeat, error)
}
