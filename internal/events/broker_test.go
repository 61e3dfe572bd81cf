package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe(TopicPlans)

	evt := Event{Type: "test.event", Data: map[string]any{"x": 1}}
	if err := b.Publish(context.Background(), TopicPlans, evt); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["x"].(int) != 1 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(TopicPlans, ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// second unsubscribe is a no-op
	b.Unsubscribe(TopicPlans, ch)
}

func TestMemoryBrokerTopicsAreIsolated(t *testing.T) {
	b := NewMemoryBroker()
	plans := b.Subscribe(TopicPlans)
	rp := b.Subscribe(TopicReplan)
	_ = b.Publish(context.Background(), TopicReplan, Event{Type: ReplanDecided})
	select {
	case <-plans:
		t.Fatal("plans subscriber got a replan event")
	case got := <-rp:
		if got.Type != ReplanDecided {
			t.Fatalf("got %s", got.Type)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout")
	}
	_ = b.Close()
	if _, ok := <-plans; ok {
		t.Fatal("Close should close subscriber channels")
	}
}

func TestRedisBroker(t *testing.T) {
	s := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}
	defer b.Close()
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	ch := b.Subscribe(TopicPlans)
	evt := Event{ID: "e1", Type: RestPlanned, PlanID: "p1", Data: map[string]any{"reason": "drive limit"}}
	if err := b.Publish(context.Background(), TopicPlans, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case got := <-ch:
		if got.ID != "e1" || got.PlanID != "p1" || got.Data["reason"] != "drive limit" {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for redis event")
	}

	b.Unsubscribe(TopicPlans, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestNewRedisBrokerBadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url"); err == nil {
		t.Fatal("expected error")
	}
}
