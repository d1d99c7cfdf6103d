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

// Package limits evaluates station measurements against min/max bounds.
package limits

import (
	"context"

	"github.com/mfreeman451/lineradar/pkg/models"
)

//go:generate mockgen -destination=mock_limits.go -package=limits github.com/mfreeman451/lineradar/pkg/limits Store

// Store is the part of the record store that holds limit tables.
// A nil motorType lists every entry of the station.
type Store interface {
	ListLimits(ctx context.Context, station string, motorType *models.MotorType) ([]*models.LimitEntry, error)
}
