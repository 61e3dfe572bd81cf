// Package events hands plan and replan events to the alerting layer over
// a pub/sub broker.
package events

import (
	"context"
	"sync"
	"time"
)

type Event struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	PlanID string         `json:"plan_id,omitempty"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}

// Broker fans events out to subscribers of a topic.
type Broker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(ctx context.Context, topic string, evt Event) error
	Close() error
}

// MemoryBroker is an in-process Broker. Slow subscribers miss events
// rather than block publishers.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, evt Event) error {
	b.mu.Lock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
	return nil
}

// Close drops every subscriber.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, m := range b.subs {
		for ch := range m {
			close(ch)
		}
		delete(b.subs, topic)
	}
	return nil
}
