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

package aggregate

import (
	"context"

	"github.com/mfreeman451/lineradar/pkg/db"
	"github.com/mfreeman451/lineradar/pkg/models"
)

// Store is the read side of the record store used by aggregations.
type Store interface {
	ListRecords(ctx context.Context, collection string, filter *db.RecordFilter) ([]*models.MeasurementRecord, error)
	GetLatestRecord(ctx context.Context, collection, deviceCode string) (*models.MeasurementRecord, error)
	ListLimits(ctx context.Context, station string, motorType *models.MotorType) ([]*models.LimitEntry, error)
}
