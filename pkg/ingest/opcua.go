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

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	keyReady            = "ready"
	defaultPollInterval = time.Second
	opcuaCloseTimeout   = 5 * time.Second
)

// TagConfig maps one record field to the OPC-UA node holding it.
type TagConfig struct {
	Name   string `json:"name" yaml:"name"`
	NodeID string `json:"node_id" yaml:"node_id"`
}

// OPCUAConfig describes a station PLC exposing its last test result.
// A new record is taken whenever the ready node is true and the device
// code differs from the last one recorded.
type OPCUAConfig struct {
	Station        string
	Endpoint       string
	Interval       time.Duration
	ReadyNode      string
	DeviceCodeNode string
	MotorTypeNode  string
	TestFailNode   string
	Tests          []TagConfig
}

func (c *OPCUAConfig) Validate() error {
	if _, err := models.LookupStation(c.Station); err != nil {
		return err
	}

	switch {
	case c.Endpoint == "":
		return fmt.Errorf("%w: endpoint", errMissingTag)
	case c.ReadyNode == "":
		return fmt.Errorf("%w: ready_node", errMissingTag)
	case c.DeviceCodeNode == "":
		return fmt.Errorf("%w: device_code_node", errMissingTag)
	case c.MotorTypeNode == "":
		return fmt.Errorf("%w: motor_type_node", errMissingTag)
	case c.TestFailNode == "":
		return fmt.Errorf("%w: test_fail_node", errMissingTag)
	}

	for i, tag := range c.Tests {
		if tag.Name == "" || tag.NodeID == "" {
			return fmt.Errorf("%w: tests[%d]", errMissingTag, i)
		}
	}

	return nil
}

// NodeReader is the part of *opcua.Client the poller reads through.
type NodeReader interface {
	Read(ctx context.Context, req *ua.ReadRequest) (*ua.ReadResponse, error)
}

// StationPoller copies finished test results from a station PLC into the
// record store.
type StationPoller struct {
	config   OPCUAConfig
	recorder *Recorder
	request  *ua.ReadRequest
	fields   []string
	reader   NodeReader
	client   *opcua.Client
	now      func() time.Time

	mu       sync.Mutex
	lastCode string
}

func NewStationPoller(cfg OPCUAConfig, recorder *Recorder) (*StationPoller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}

	p := &StationPoller{
		config:   cfg,
		recorder: recorder,
		now:      time.Now,
	}

	tags := []TagConfig{
		{Name: keyReady, NodeID: cfg.ReadyNode},
		{Name: models.KeyDeviceCode, NodeID: cfg.DeviceCodeNode},
		{Name: models.KeyMotorType, NodeID: cfg.MotorTypeNode},
	}
	tags = append(tags, cfg.Tests...)
	tags = append(tags, TagConfig{Name: models.KeyTestFail, NodeID: cfg.TestFailNode})

	nodes := make([]*ua.ReadValueID, 0, len(tags))

	for _, tag := range tags {
		id, err := ua.ParseNodeID(tag.NodeID)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", errInvalidNodeID, tag.NodeID, err)
		}

		nodes = append(nodes, &ua.ReadValueID{NodeID: id, AttributeID: ua.AttributeIDValue})
		p.fields = append(p.fields, tag.Name)
	}

	p.request = &ua.ReadRequest{
		NodesToRead:        nodes,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	}

	return p, nil
}

// Start connects to the station endpoint.
func (p *StationPoller) Start(ctx context.Context) error {
	client, err := opcua.NewClient(p.config.Endpoint,
		opcua.SecurityMode(ua.MessageSecurityModeNone),
		opcua.SecurityPolicy(ua.SecurityPolicyURINone),
		opcua.AutoReconnect(true),
	)
	if err != nil {
		return fmt.Errorf("%w %s: %w", errOPCUAConnect, p.config.Endpoint, err)
	}

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("%w %s: %w", errOPCUAConnect, p.config.Endpoint, err)
	}

	p.client = client
	p.reader = client

	log.Printf("OPC-UA: Connected to %s for station %s", p.config.Endpoint, p.config.Station)

	return nil
}

// Run polls until ctx is done.
func (p *StationPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				log.Printf("OPC-UA: Poll of %s failed: %v", p.config.Station, err)
			}
		}
	}
}

// Poll reads the station once and records a new result if one is ready.
// It reports whether a record was written.
func (p *StationPoller) Poll(ctx context.Context) (bool, error) {
	resp, err := p.reader.Read(ctx, p.request)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errOPCUARead, err)
	}

	if len(resp.Results) != len(p.fields) {
		return false, fmt.Errorf("%w: got %d results for %d nodes", errOPCUARead, len(resp.Results), len(p.fields))
	}

	values := make(map[string]any, len(p.fields))

	for i, res := range resp.Results {
		if res.Status != ua.StatusOK {
			return false, fmt.Errorf("%w: %s: %s", errOPCUARead, p.fields[i], res.Status)
		}

		if res.Value != nil {
			values[p.fields[i]] = res.Value.Value()
		}
	}

	if ready, _ := values[keyReady].(bool); !ready {
		return false, nil
	}

	code := fmt.Sprint(values[models.KeyDeviceCode])

	p.mu.Lock()
	seen := code == p.lastCode
	p.mu.Unlock()

	if seen {
		return false, nil
	}

	doc := models.RawRecord{{Key: models.KeyTime, Value: p.now().UTC().Format(time.RFC3339Nano)}}

	for _, name := range p.fields[1:] {
		v := values[name]

		if name == models.KeyTestFail {
			v = failFlag(v)
		}

		doc.Set(name, v)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}

	if _, err := p.recorder.Record(ctx, p.config.Station, payload); err != nil {
		return false, err
	}

	p.mu.Lock()
	p.lastCode = code
	p.mu.Unlock()

	return true, nil
}

// Stop closes the OPC-UA session.
func (p *StationPoller) Stop() {
	if p.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opcuaCloseTimeout)
	defer cancel()

	if err := p.client.Close(ctx); err != nil {
		log.Printf("OPC-UA: Failed to close %s: %v", p.config.Endpoint, err)
	}
}

// failFlag renders PLC booleans the way stations report test_fail.
func failFlag(v any) any {
	switch b := v.(type) {
	case bool:
		return fmt.Sprintf("%t", b)
	case string:
		return b
	default:
		return fmt.Sprint(v)
	}
}
