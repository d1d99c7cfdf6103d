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

package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/mfreeman451/lineradar/pkg/liveerrors"
	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultSubscriberBuffer = 64
	transportName           = "grpc"
)

type subscriber struct {
	station string
	ch      chan *models.LiveErrorEvent
}

func (s *subscriber) wants(ev *models.LiveErrorEvent) bool {
	return s.station == "" || strings.EqualFold(s.station, ev.StationName)
}

// Broker fans live errors out to gRPC subscribers. It is a publisher sink
// and the LiveErrorsServer implementation at once.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextID  uint64
	closed  bool
	buffer  int
	recent  *liveerrors.Recent
	metrics metrics.Recorder
}

type BrokerOption func(*Broker)

// WithRecent replays the recent history to every new subscriber.
func WithRecent(recent *liveerrors.Recent) BrokerOption {
	return func(b *Broker) {
		b.recent = recent
	}
}

func WithMetrics(m metrics.Recorder) BrokerOption {
	return func(b *Broker) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithBuffer sets how many events may queue per subscriber before it is
// considered slow.
func WithBuffer(n int) BrokerOption {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		subs:    make(map[uint64]*subscriber),
		buffer:  defaultSubscriberBuffer,
		metrics: metrics.Noop{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Notify delivers ev to every interested subscriber. Subscribers whose
// buffer is full miss the event.
func (b *Broker) Notify(_ context.Context, ev *models.LiveErrorEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	for id, s := range b.subs {
		if !s.wants(ev) {
			continue
		}

		select {
		case s.ch <- ev:
		default:
			log.Printf("Stream subscriber %d is not keeping up, dropped live error %s", id, ev.ID)
		}
	}

	return nil
}

func (b *Broker) subscribe(station string) (uint64, *subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, nil, ErrBrokerClosed
	}

	b.nextID++
	s := &subscriber{station: station, ch: make(chan *models.LiveErrorEvent, b.buffer)}
	b.subs[b.nextID] = s

	b.metrics.SetSubscribers(transportName, len(b.subs))

	return b.nextID, s, nil
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.subs[id]
	if !ok {
		return
	}

	delete(b.subs, id)
	close(s.ch)

	b.metrics.SetSubscribers(transportName, len(b.subs))
}

// Subscribers returns the number of open streams.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// Close ends every stream and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}

	b.metrics.SetSubscribers(transportName, 0)
}

// Subscribe replays recent history oldest first, then streams new live
// errors until the client leaves or the broker closes.
func (b *Broker) Subscribe(req *structpb.Struct, stream grpc.ServerStream) error {
	station := stationFilter(req)

	id, s, err := b.subscribe(station)
	if err != nil {
		return status.Error(codes.Unavailable, err.Error())
	}
	defer b.unsubscribe(id)

	if b.recent != nil {
		history := b.recent.Snapshot(models.MaxLiveErrorHistory)

		for i := len(history) - 1; i >= 0; i-- {
			if !s.wants(history[i]) {
				continue
			}

			if err := send(stream, history[i]); err != nil {
				return err
			}
		}
	}

	ctx := stream.Context()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.ch:
			if !ok {
				return status.Error(codes.Unavailable, ErrBrokerClosed.Error())
			}

			if err := send(stream, ev); err != nil {
				return err
			}
		}
	}
}

func send(stream grpc.ServerStream, ev *models.LiveErrorEvent) error {
	msg, err := ToStruct(ev)
	if err != nil {
		log.Printf("Skipping live error %s: %v", ev.ID, err)

		return nil
	}

	return stream.SendMsg(msg)
}
