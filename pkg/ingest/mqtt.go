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
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	// TopicPattern matches the measurement topic of every station.
	TopicPattern = topicPrefix + "+" + topicSuffix

	topicPrefix       = "lineradar/stations/"
	topicSuffix       = "/measurements"
	defaultQoS        = byte(1)
	disconnectQuiesce = 250
	handleTimeout     = 5 * time.Second
	keepAlive         = 60 * time.Second
	pingTimeout       = 10 * time.Second
)

// ClientConfig holds the MQTT broker connection settings.
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// NewClient connects to the broker with auto-reconnect enabled.
func NewClient(cfg ClientConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(pingTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Printf("MQTT: Connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%w %s: %w", errConnectFailed, cfg.Broker, token.Error())
	}

	return client, nil
}

// StationTopic is the topic a station publishes its measurements on.
func StationTopic(station string) string {
	return topicPrefix + strings.ToLower(station) + topicSuffix
}

// stationFromTopic maps "lineradar/stations/a20/measurements" to "a20".
func stationFromTopic(topic string) (string, error) {
	if !strings.HasPrefix(topic, topicPrefix) || !strings.HasSuffix(topic, topicSuffix) {
		return "", fmt.Errorf("%w: %s", errUnknownTopic, topic)
	}

	station := strings.TrimSuffix(strings.TrimPrefix(topic, topicPrefix), topicSuffix)
	if station == "" || strings.Contains(station, "/") {
		return "", fmt.Errorf("%w: %s", errUnknownTopic, topic)
	}

	return station, nil
}

// Subscriber records every measurement published on the station topics.
type Subscriber struct {
	client   mqtt.Client
	recorder *Recorder
	topic    string

	mu  sync.RWMutex
	ctx context.Context
}

func NewSubscriber(client mqtt.Client, recorder *Recorder, topic string) *Subscriber {
	if topic == "" {
		topic = TopicPattern
	}

	return &Subscriber{
		client:   client,
		recorder: recorder,
		topic:    topic,
		ctx:      context.Background(),
	}
}

// Start subscribes to the topic. Messages are recorded under ctx.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	token := s.client.Subscribe(s.topic, defaultQoS, s.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w to %s: %w", errSubscribeFailed, s.topic, token.Error())
	}

	log.Printf("Subscribed to measurement topic: %s", s.topic)

	return nil
}

// Stop unsubscribes and disconnects the client.
func (s *Subscriber) Stop() {
	if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
		log.Printf("Failed to unsubscribe from %s: %v", s.topic, token.Error())
	}

	s.client.Disconnect(disconnectQuiesce)
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	station, err := stationFromTopic(msg.Topic())
	if err != nil {
		log.Printf("Dropping MQTT message: %v", err)
		return
	}

	s.mu.RLock()
	parent := s.ctx
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(parent, handleTimeout)
	defer cancel()

	if _, err := s.recorder.Record(ctx, station, msg.Payload()); err != nil {
		log.Printf("Failed to record measurement from %s: %v", msg.Topic(), err)
	}
}

// Publisher sends station documents to the broker.
type Publisher struct {
	client mqtt.Client
}

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends doc on the measurement topic of station.
func (p *Publisher) Publish(station string, doc models.RawRecord) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}

	topic := StationTopic(station)

	token := p.client.Publish(topic, defaultQoS, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w to %s: %w", errPublishFailed, topic, token.Error())
	}

	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}
