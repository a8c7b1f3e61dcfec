// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package event provides the in-process bus that governance components use
// to announce proposals, votes, executions and freezes.
package event

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SubscriberQueueSize = 64
	AsyncQueueSize      = 1000
)

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

type subscription struct {
	ch    chan Event
	types map[EventType]struct{}
}

func (s *subscription) wants(eventType EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// EventBus fans events out to subscribers. Delivery never blocks the
// publisher: a subscriber whose queue is full misses the event.
// A nil *EventBus is valid and discards everything published to it
type EventBus struct {
	logger      *slog.Logger
	metrics     *eventMetrics
	mu          sync.RWMutex
	subscribers map[EventSubscriberId]*subscription
	lastSubId   EventSubscriberId
	asyncQueue  chan Event
	doneCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		logger:      logger.With("component", "event"),
		subscribers: make(map[EventSubscriberId]*subscription),
		asyncQueue:  make(chan Event, AsyncQueueSize),
		doneCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		e.metrics = newEventMetrics(promRegistry)
	}
	e.wg.Add(1)
	go e.asyncWorker()
	return e
}

func (e *EventBus) asyncWorker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.doneCh:
			return
		case evt := <-e.asyncQueue:
			e.Publish(evt)
		}
	}
}

// Subscribe registers a channel subscriber for the given event types, or for
// all event types when none are given
func (e *EventBus) Subscribe(
	eventTypes ...EventType,
) (EventSubscriberId, <-chan Event) {
	sub := &subscription{
		ch:    make(chan Event, SubscriberQueueSize),
		types: make(map[EventType]struct{}, len(eventTypes)),
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	e.subscribers[e.lastSubId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.Inc()
	}
	return e.lastSubId, sub.ch
}

// SubscribeFunc runs handlerFunc in its own goroutine for each matching event
func (e *EventBus) SubscribeFunc(
	handlerFunc EventHandlerFunc,
	eventTypes ...EventType,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventTypes...)
	go func() {
		for evt := range evtCh {
			handlerFunc(evt)
		}
	}()
	return subId
}

// Unsubscribe removes a subscriber and closes its channel
func (e *EventBus) Unsubscribe(subId EventSubscriberId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub, ok := e.subscribers[subId]
	if !ok {
		return
	}
	delete(e.subscribers, subId)
	close(sub.ch)
	if e.metrics != nil {
		e.metrics.subscribers.Dec()
	}
}

// Publish delivers an event to every matching subscriber
func (e *EventBus) Publish(evt Event) {
	if e == nil {
		return
	}
	// The read lock is held across delivery so Unsubscribe cannot close a
	// channel mid-send. Sends never block
	e.mu.RLock()
	defer e.mu.RUnlock()
	for subId, sub := range e.subscribers {
		if !sub.wants(evt.Type) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			e.logger.Warn(
				"subscriber queue full, dropping event",
				"type", evt.Type,
				"subscriber", subId,
			)
			if e.metrics != nil {
				e.metrics.dropped.WithLabelValues(string(evt.Type)).Inc()
			}
		}
	}
	if e.metrics != nil {
		e.metrics.published.WithLabelValues(string(evt.Type)).Inc()
	}
}

// PublishAsync enqueues an event for delivery by the bus worker. It returns
// false when the bus is stopped or the queue is full
func (e *EventBus) PublishAsync(evt Event) bool {
	if e == nil {
		return false
	}
	select {
	case <-e.doneCh:
		return false
	default:
	}
	select {
	case e.asyncQueue <- evt:
		return true
	default:
		e.logger.Warn(
			"async event queue full, dropping event",
			"type", evt.Type,
		)
		if e.metrics != nil {
			e.metrics.dropped.WithLabelValues(string(evt.Type)).Inc()
		}
		return false
	}
}

// Stop shuts down the async worker and closes all subscriber channels
func (e *EventBus) Stop() {
	e.stopOnce.Do(func() {
		close(e.doneCh)
		e.wg.Wait()
		e.mu.Lock()
		defer e.mu.Unlock()
		for subId, sub := range e.subscribers {
			close(sub.ch)
			delete(e.subscribers, subId)
		}
		if e.metrics != nil {
			e.metrics.subscribers.Set(0)
		}
	})
}
