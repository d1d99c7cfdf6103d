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

package alerts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mfreeman451/lineradar/pkg/limits"
	"github.com/mfreeman451/lineradar/pkg/models"
)

// Notifier turns live errors into alerts for every enabled service.
type Notifier struct {
	services []AlertService
}

func NewNotifier(services ...AlertService) *Notifier {
	return &Notifier{services: services}
}

// Notify alerts every enabled service. Cooldown skips are not errors.
func (n *Notifier) Notify(ctx context.Context, ev *models.LiveErrorEvent) error {
	var errs []error

	for _, svc := range n.services {
		if !svc.IsEnabled() {
			continue
		}

		if err := svc.Alert(ctx, NewLiveErrorAlert(ev)); err != nil && !errors.Is(err, errWebhookCooldown) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// NewLiveErrorAlert describes ev as an alert. Details map each breached
// test to its value and signed offset.
func NewLiveErrorAlert(ev *models.LiveErrorEvent) *WebhookAlert {
	details := make(map[string]any, len(ev.Errors)+1)
	parts := make([]string, 0, len(ev.Errors))

	for _, fr := range ev.Errors {
		offset := limits.FormatOffset(fr)
		value := strconv.FormatFloat(fr.Value, 'f', -1, 64)

		details[fr.Test] = fmt.Sprintf("%s (%s %s)", value, fr.Classification, offset)
		parts = append(parts, fmt.Sprintf("%s %s %s", fr.Test, fr.Classification, offset))
	}

	details["motor_type"] = string(ev.MotorType)

	return &WebhookAlert{
		Level:      Error,
		Title:      "Live error at station " + ev.StationName,
		Message:    fmt.Sprintf("Device %s failed %d test(s): %s", ev.DeviceCode, len(ev.Errors), strings.Join(parts, ", ")),
		Timestamp:  ev.Time.UTC().Format(time.RFC3339),
		Station:    ev.StationName,
		DeviceCode: ev.DeviceCode,
		Details:    details,
	}
}
