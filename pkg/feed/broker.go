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

package feed

import (
	"log"
	"sync"
	"time"
)

// Broker fans store changes out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	onDrop DropFunc
}

type Option func(*Broker)

// WithDropHook registers fn to observe discarded events.
func WithDropHook(fn DropFunc) Option {
	return func(b *Broker) {
		b.onDrop = fn
	}
}

func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		subs: make(map[uint64]*Subscription),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers interest in collection, or AllCollections.
// A buffer of zero or less uses the default size.
func (b *Broker) Subscribe(collection string, buffer int) (*Subscription, error) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	b.nextID++

	sub := &Subscription{
		id:         b.nextID,
		collection: collection,
		ch:         make(chan Event, buffer),
		missed:     make(chan struct{}, 1),
	}

	b.subs[sub.id] = sub

	return sub, nil
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return
	}

	delete(b.subs, sub.id)
	close(sub.ch)
}

// Publish delivers ev to every matching subscriber and returns how many
// received it.
func (b *Broker) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	delivered := 0

	for _, sub := range b.subs {
		if sub.collection != AllCollections && sub.collection != ev.Collection {
			continue
		}

		select {
		case sub.ch <- ev:
			delivered++
		default:
			log.Printf("Feed subscriber %d is full, dropping %s event for %s", sub.id, ev.Action, ev.Collection)

			select {
			case sub.missed <- struct{}{}:
			default:
			}

			if b.onDrop != nil {
				b.onDrop(ev.Collection)
			}
		}
	}

	return delivered
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}

// Close closes every subscription. Later publishes are ignored.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
