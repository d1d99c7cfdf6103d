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

package limits

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// Resolver looks up the limit entry that applies to a station and motor type.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the single entry for (station, motorType). No entry is
// not an error: it returns (nil, nil) and nothing can breach. More than
// one entry is ErrDuplicateLimits.
func (r *Resolver) Resolve(ctx context.Context, station string, motorType models.MotorType) (*models.LimitEntry, error) {
	entries, err := r.store.ListLimits(ctx, station, &motorType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrLimitsUnavailable, station, motorType, err)
	}

	switch len(entries) {
	case 0:
		return nil, nil
	case 1:
		return entries[0], nil
	default:
		return nil, fmt.Errorf("%w: %d entries for %s/%s", ErrDuplicateLimits, len(entries), station, motorType)
	}
}

// ResolveAll fetches every entry of a station grouped by motor type.
func (r *Resolver) ResolveAll(ctx context.Context, station string) (map[models.MotorType]*models.LimitEntry, error) {
	entries, err := r.store.ListLimits(ctx, station, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLimitsUnavailable, station, err)
	}

	out := make(map[models.MotorType]*models.LimitEntry, len(entries))

	for _, e := range entries {
		if _, dup := out[e.MotorType]; dup {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateLimits, station, e.MotorType)
		}

		out[e.MotorType] = e
	}

	return out, nil
}

// ForStations resolves motorType for every fixed station. Stations that
// fail are left out of the map and their errors are joined.
func (r *Resolver) ForStations(ctx context.Context, motorType models.MotorType) (map[string]*models.LimitEntry, error) {
	out := make(map[string]*models.LimitEntry, len(models.Stations))

	var errs []error

	for _, st := range models.Stations {
		entry, err := r.Resolve(ctx, st.Name, motorType)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		out[st.Name] = entry
	}

	return out, errors.Join(errs...)
}
