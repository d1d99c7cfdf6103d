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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mfreeman451/lineradar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type captured struct {
	body    []byte
	headers http.Header
}

func newReceiver(t *testing.T, status int) (*httptest.Server, <-chan captured) {
	t.Helper()

	got := make(chan captured, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- captured{body: body, headers: r.Header.Clone()}

		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))

	t.Cleanup(srv.Close)

	return srv, got
}

func sampleEvent() *models.LiveErrorEvent {
	low, high := 1.8, 2.2

	return &models.LiveErrorEvent{
		ID:          "ev-1",
		StationName: "A26",
		MotorType:   models.MotorEFAD,
		DeviceCode:  "P-100",
		Time:        time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
		Errors: []models.FieldResult{
			{Test: "Un_UV", Value: 2.5, Limit: &high, Classification: models.ClassAbove, Severity: models.SeverityHigh, Offset: 0.3},
			{Test: "Un_VW", Value: 1.3, Limit: &low, Classification: models.ClassBelow, Severity: models.SeverityLow, Offset: -0.5},
		},
	}
}

func TestWebhookAlerterSendsJSON(t *testing.T) {
	srv, got := newReceiver(t, http.StatusOK)

	w := NewWebhookAlerter(WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
		Headers: []Header{{Key: "X-Line", Value: "L1"}},
	}, WithClock(func() time.Time { return time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC) }))

	require.NoError(t, w.Alert(context.Background(), &WebhookAlert{Level: Error, Title: "t", Station: "A20"}))

	req := <-got
	assert.Equal(t, "application/json", req.headers.Get("Content-Type"))
	assert.Equal(t, "L1", req.headers.Get("X-Line"))

	var alert WebhookAlert
	require.NoError(t, json.Unmarshal(req.body, &alert))
	assert.Equal(t, "A20", alert.Station)
	assert.Equal(t, "2025-04-01T08:00:00Z", alert.Timestamp)
}

func TestWebhookAlerterCooldown(t *testing.T) {
	srv, _ := newReceiver(t, http.StatusNoContent)

	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: srv.URL, Cooldown: time.Minute},
		WithClock(func() time.Time { return now }))

	require.NoError(t, w.Alert(context.Background(), &WebhookAlert{Title: "A20"}))
	require.ErrorIs(t, w.Alert(context.Background(), &WebhookAlert{Title: "A20"}), errWebhookCooldown)
	require.NoError(t, w.Alert(context.Background(), &WebhookAlert{Title: "A26"}))

	now = now.Add(2 * time.Minute)
	require.NoError(t, w.Alert(context.Background(), &WebhookAlert{Title: "A20"}))
}

func TestWebhookAlerterErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		w := NewWebhookAlerter(WebhookConfig{})
		require.ErrorIs(t, w.Alert(context.Background(), &WebhookAlert{}), errWebhookDisabled)
	})

	t.Run("status", func(t *testing.T) {
		srv, _ := newReceiver(t, http.StatusBadGateway)
		w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: srv.URL})

		err := w.Alert(context.Background(), &WebhookAlert{Title: "x"})
		require.ErrorIs(t, err, errWebhookStatus)
		assert.Contains(t, err.Error(), "status=502")
	})

	t.Run("template not json", func(t *testing.T) {
		w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: "http://unused", Template: `{{.alert.Title}}`})
		require.ErrorIs(t, w.Alert(context.Background(), &WebhookAlert{Title: "x"}), errInvalidJSON)
	})

	t.Run("template parse", func(t *testing.T) {
		w := NewWebhookAlerter(WebhookConfig{Enabled: true, URL: "http://unused", Template: `{{`})
		require.ErrorIs(t, w.Alert(context.Background(), &WebhookAlert{Title: "x"}), errTemplateParse)
	})
}

func TestWebhookConfigUnmarshalCooldown(t *testing.T) {
	var cfg WebhookConfig
	require.NoError(t, json.Unmarshal([]byte(`{"enabled":true,"url":"http://x","cooldown":"5m"}`), &cfg))
	assert.Equal(t, 5*time.Minute, cfg.Cooldown)
	assert.True(t, cfg.Enabled)

	require.ErrorIs(t, json.Unmarshal([]byte(`{"cooldown":"soon"}`), &cfg), errInvalidCooldown)
}

func TestDiscordWebhookRendersLiveError(t *testing.T) {
	srv, got := newReceiver(t, http.StatusOK)

	w := NewDiscordWebhook(srv.URL, 0)
	require.NoError(t, w.Alert(context.Background(), NewLiveErrorAlert(sampleEvent())))

	var payload struct {
		Embeds []struct {
			Title  string `json:"title"`
			Color  int    `json:"color"`
			Fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}

	require.NoError(t, json.Unmarshal((<-got).body, &payload))
	require.Len(t, payload.Embeds, 1)

	embed := payload.Embeds[0]
	assert.Equal(t, "Live error at station A26", embed.Title)
	assert.Equal(t, DiscordColorRed, embed.Color)

	fields := map[string]string{}
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}

	assert.Equal(t, "A26", fields["Station"])
	assert.Equal(t, "P-100", fields["Device"])
	assert.Equal(t, "2.5 (above +0.300)", fields["Un_UV"])
	assert.Equal(t, "1.3 (below -0.500)", fields["Un_VW"])
}

func TestNewLiveErrorAlert(t *testing.T) {
	alert := NewLiveErrorAlert(sampleEvent())

	assert.Equal(t, Error, alert.Level)
	assert.Equal(t, "Device P-100 failed 2 test(s): Un_UV above +0.300, Un_VW below -0.500", alert.Message)
	assert.Equal(t, "2025-04-01T12:00:00Z", alert.Timestamp)
	assert.Equal(t, "EFAD", alert.Details["motor_type"])
}

func TestNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)

	enabled := NewMockAlertService(ctrl)
	cooling := NewMockAlertService(ctrl)
	broken := NewMockAlertService(ctrl)
	disabled := NewMockAlertService(ctrl)

	errDown := errors.New("down")

	enabled.EXPECT().IsEnabled().Return(true)
	enabled.EXPECT().Alert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *WebhookAlert) error {
		assert.Equal(t, "A26", a.Station)
		return nil
	})
	cooling.EXPECT().IsEnabled().Return(true)
	cooling.EXPECT().Alert(gomock.Any(), gomock.Any()).Return(errWebhookCooldown)
	broken.EXPECT().IsEnabled().Return(true)
	broken.EXPECT().Alert(gomock.Any(), gomock.Any()).Return(errDown)
	disabled.EXPECT().IsEnabled().Return(false)

	err := NewNotifier(enabled, cooling, broken, disabled).Notify(context.Background(), sampleEvent())
	require.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, errWebhookCooldown)
}
