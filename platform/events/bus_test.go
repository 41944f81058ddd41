package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncRunsAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var calls int
	bus.Subscribe("x", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return errors.New("first failed")
	}))
	bus.Subscribe("x", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "x"})
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d calls", calls)
	}
	if err == nil {
		t.Fatalf("expected joined error from failing handler")
	}
}

func TestPublishDispatchesOnlyMatchingEvent(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var mu sync.Mutex
	got := make([]string, 0, 1)
	done := make(chan struct{})
	bus.Subscribe("a", HandlerFunc(func(ctx context.Context, e Event) error {
		mu.Lock()
		got = append(got, e.EventName())
		mu.Unlock()
		close(done)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "b"})
	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "a"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler for event a was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected exactly one delivery of event a, got %v", got)
	}
}

func TestPublishRecoversPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(nil)

	done := make(chan struct{})
	bus.Subscribe("p", HandlerFunc(func(ctx context.Context, e Event) error {
		defer close(done)
		panic("boom")
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "p"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("panicking handler never ran")
	}
}
