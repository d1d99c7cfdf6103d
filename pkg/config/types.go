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

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata" // plant timezones on hosts without zoneinfo

	"github.com/mfreeman451/lineradar/pkg/alerts"
	"github.com/mfreeman451/lineradar/pkg/archive"
	"github.com/mfreeman451/lineradar/pkg/ingest"
	"github.com/mfreeman451/lineradar/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	EnvDBPath     = "LINERADAR_DB_PATH"
	EnvListenAddr = "LINERADAR_LISTEN_ADDR"
	EnvMQTTBroker = "LINERADAR_MQTT_BROKER"

	defaultWorkers          = 4
	defaultRetentionPeriod  = time.Hour
	defaultDashboardClient  = "lineradar-dashboard"
	defaultSimulatorClient  = "lineradar-simulator"
	defaultSimulatorPeriod  = time.Second
	defaultSimulatorFailure = 0.3
)

// Duration accepts "5m" style strings or integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errInvalidDuration
	}

	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}

	dur, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	*d = Duration(dur)

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MQTTConfig describes the broker measurements arrive on.
type MQTTConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Broker   string `json:"broker" yaml:"broker"` // e.g., tcp://localhost:1883
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Topic    string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// RateLimitConfig throttles the HTTP API. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps"`
	Burst int     `json:"burst" yaml:"burst"`
}

// RetentionConfig prunes old live errors. A zero LiveErrors keeps them forever.
type RetentionConfig struct {
	LiveErrors Duration `json:"live_errors,omitempty" yaml:"live_errors,omitempty"`
	Interval   Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// DiscordConfig is a Discord channel webhook receiving live errors.
type DiscordConfig struct {
	URL      string   `json:"url" yaml:"url"`
	Cooldown Duration `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
}

// OPCUAConfig polls one station PLC for finished test results.
type OPCUAConfig struct {
	Station        string             `json:"station" yaml:"station"`
	Endpoint       string             `json:"endpoint" yaml:"endpoint"`
	Interval       Duration           `json:"interval,omitempty" yaml:"interval,omitempty"`
	ReadyNode      string             `json:"ready_node" yaml:"ready_node"`
	DeviceCodeNode string             `json:"device_code_node" yaml:"device_code_node"`
	MotorTypeNode  string             `json:"motor_type_node" yaml:"motor_type_node"`
	TestFailNode   string             `json:"test_fail_node" yaml:"test_fail_node"`
	Tests          []ingest.TagConfig `json:"tests" yaml:"tests"`
}

// Poller converts c to the ingest poller settings.
func (c *OPCUAConfig) Poller() ingest.OPCUAConfig {
	return ingest.OPCUAConfig{
		Station:        c.Station,
		Endpoint:       c.Endpoint,
		Interval:       c.Interval.Std(),
		ReadyNode:      c.ReadyNode,
		DeviceCodeNode: c.DeviceCodeNode,
		MotorTypeNode:  c.MotorTypeNode,
		TestFailNode:   c.TestFailNode,
		Tests:          c.Tests,
	}
}

// DashboardConfig represents the configuration for the dashboard service.
type DashboardConfig struct {
	ListenAddr       string                 `json:"listen_addr" yaml:"listen_addr"`
	GrpcAddr         string                 `json:"grpc_addr,omitempty" yaml:"grpc_addr,omitempty"`
	DBPath           string                 `json:"db_path" yaml:"db_path"`
	Timezone         string                 `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	DefaultMotorType models.MotorType       `json:"default_motor_type,omitempty" yaml:"default_motor_type,omitempty"`
	LiveErrorHistory int                    `json:"live_error_history,omitempty" yaml:"live_error_history,omitempty"`
	Workers          int                    `json:"workers,omitempty" yaml:"workers,omitempty"`
	RateLimit        RateLimitConfig        `json:"rate_limit" yaml:"rate_limit"`
	MaxConnections   int                    `json:"max_connections,omitempty" yaml:"max_connections,omitempty"`
	MQTT             MQTTConfig             `json:"mqtt" yaml:"mqtt"`
	OPCUA            []OPCUAConfig          `json:"opcua,omitempty" yaml:"opcua,omitempty"`
	Serial           []ingest.SerialConfig  `json:"serial,omitempty" yaml:"serial,omitempty"`
	Webhooks         []alerts.WebhookConfig `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
	Discord          []DiscordConfig        `json:"discord,omitempty" yaml:"discord,omitempty"`
	Security         *models.SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
	Retention        RetentionConfig        `json:"retention" yaml:"retention"`
	Archive          archive.Config         `json:"archive" yaml:"archive"`
	Debug            bool                   `json:"debug" yaml:"debug"`
}

// ApplyEnv overrides the store path, listen address and broker from the
// environment.
func (c *DashboardConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}

	if v := getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}

	if v := getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
		c.MQTT.Enabled = true
	}
}

// ApplyDefaults fills unset tunables.
func (c *DashboardConfig) ApplyDefaults() {
	if c.LiveErrorHistory <= 0 {
		c.LiveErrorHistory = models.MaxLiveErrorHistory
	}

	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}

	if c.DefaultMotorType == "" {
		c.DefaultMotorType = models.MotorEFAD
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultDashboardClient
	}

	if c.Retention.LiveErrors > 0 && c.Retention.Interval <= 0 {
		c.Retention.Interval = Duration(defaultRetentionPeriod)
	}
}

// Location returns the zone "today" is computed in; empty means Local.
func (c *DashboardConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidTimezone, err)
	}

	return loc, nil
}

// Validate implements Validator.
func (c *DashboardConfig) Validate() error {
	if c.ListenAddr == "" {
		return errMissingListenAddr
	}

	if c.DBPath == "" {
		return errMissingDBPath
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.DefaultMotorType != "" && !c.DefaultMotorType.Valid() {
		return fmt.Errorf("%w: %s", errInvalidMotorType, c.DefaultMotorType)
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errMissingBroker
	}

	if c.Archive.Enabled && c.Archive.Addr == "" {
		return errMissingArchiveAddr
	}

	for i := range c.OPCUA {
		poller := c.OPCUA[i].Poller()
		if err := poller.Validate(); err != nil {
			return fmt.Errorf("opcua[%d]: %w", i, err)
		}
	}

	for i, sc := range c.Serial {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("serial[%d]: %w", i, err)
		}
	}

	for i, wh := range c.Webhooks {
		if wh.Enabled && wh.URL == "" {
			return fmt.Errorf("%w: webhooks[%d]", errMissingWebhookURL, i)
		}
	}

	for i, d := range c.Discord {
		if d.URL == "" {
			return fmt.Errorf("%w: discord[%d]", errMissingWebhookURL, i)
		}
	}

	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers", errNegativeSetting)
	case c.MaxConnections < 0:
		return fmt.Errorf("%w: max_connections", errNegativeSetting)
	case c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0:
		return fmt.Errorf("%w: rate_limit", errNegativeSetting)
	case c.Retention.LiveErrors < 0 || c.Retention.Interval < 0:
		return fmt.Errorf("%w: retention", errNegativeSetting)
	}

	return nil
}

// SimulatorConfig configures the measurement simulator.
type SimulatorConfig struct {
	MQTT       MQTTConfig `json:"mqtt" yaml:"mqtt"`
	DBPath     string     `json:"db_path,omitempty" yaml:"db_path,omitempty"` // limits are seeded here when set
	Interval   Duration   `json:"interval,omitempty" yaml:"interval,omitempty"`
	FailChance float64    `json:"fail_chance,omitempty" yaml:"fail_chance,omitempty"`
	Stations   []string   `json:"stations,omitempty" yaml:"stations,omitempty"`
	Count      int        `json:"count,omitempty" yaml:"count,omitempty"` // zero runs until stopped
	Seed       int64      `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func (c *SimulatorConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
	}

	if v := getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
}

func (c *SimulatorConfig) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = Duration(defaultSimulatorPeriod)
	}

	if c.FailChance == 0 {
		c.FailChance = defaultSimulatorFailure
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultSimulatorClient
	}
}

func (c *SimulatorConfig) Validate() error {
	if c.MQTT.Broker == "" {
		return errMissingBroker
	}

	if c.FailChance < 0 || c.FailChance > 1 {
		return errInvalidFailChance
	}

	if c.Count < 0 {
		return fmt.Errorf("%w: count", errNegativeSetting)
	}

	for _, name := range c.Stations {
		if _, err := models.LookupStation(name); err != nil {
			return err
		}
	}

	return nil
}
