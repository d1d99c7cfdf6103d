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

package liveerrors

import (
	"context"
	"sync/atomic"

	"github.com/mfreeman451/lineradar/pkg/models"
)

// Recent is a lock-free ring of the latest live errors, replayed to
// clients when they connect.
type Recent struct {
	slots []atomic.Pointer[models.LiveErrorEvent]
	pos   atomic.Int64 // next write position
	size  int64
}

// NewRecent creates a ring holding size events. Sizes outside
// 1..MaxLiveErrorHistory are clamped.
func NewRecent(size int) *Recent {
	if size <= 0 || size > models.MaxLiveErrorHistory {
		size = models.MaxLiveErrorHistory
	}

	return &Recent{
		slots: make([]atomic.Pointer[models.LiveErrorEvent], size),
		size:  int64(size),
	}
}

// Add stores ev, overwriting the oldest event when full.
func (r *Recent) Add(ev *models.LiveErrorEvent) {
	pos := r.pos.Add(1) - 1
	r.slots[pos%r.size].Store(ev)
}

// Notify makes Recent a publisher sink.
func (r *Recent) Notify(_ context.Context, ev *models.LiveErrorEvent) error {
	r.Add(ev)

	return nil
}

// Prime loads events listed newest first, as the store returns them.
func (r *Recent) Prime(events []*models.LiveErrorEvent) {
	for i := len(events) - 1; i >= 0; i-- {
		r.Add(events[i])
	}
}

// Snapshot returns up to limit events, newest first.
func (r *Recent) Snapshot(limit int) []*models.LiveErrorEvent {
	if limit <= 0 || int64(limit) > r.size {
		limit = int(r.size)
	}

	pos := r.pos.Load()
	out := make([]*models.LiveErrorEvent, 0, limit)

	for i := int64(0); i < r.size && len(out) < limit; i++ {
		idx := (pos - i - 1 + r.size) % r.size

		if ev := r.slots[idx].Load(); ev != nil {
			out = append(out, ev)
		}
	}

	return out
}
