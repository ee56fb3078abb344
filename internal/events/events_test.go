package events

import (
	"io"
	"log/slog"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus(testLogger())
	var received Event
	bus.Subscribe(RunPassed, func(e Event) {
		received = e
	})

	bus.Publish(Event{
		Type: RunPassed,
		Data: map[string]string{"run_id": "run-01", "duration": "120ms"},
	})

	if received.Type != RunPassed {
		t.Fatalf("expected %s, got %s", RunPassed, received.Type)
	}
	if received.Data["run_id"] != "run-01" {
		t.Fatalf("expected run_id=run-01, got %s", received.Data["run_id"])
	}
	if received.Timestamp.IsZero() {
		t.Fatal("expected non-zero timestamp")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus(testLogger())
	var count int
	bus.Subscribe(RunFailed, func(e Event) { count++ })
	bus.Subscribe(RunFailed, func(e Event) { count++ })
	bus.Subscribe(RunFailed, func(e Event) { count++ })

	bus.Publish(Event{Type: RunFailed})

	if count != 3 {
		t.Fatalf("expected 3 notifications, got %d", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(testLogger())
	var count int
	id := bus.Subscribe(RunStarted, func(e Event) { count++ })

	bus.Publish(Event{Type: RunStarted})
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}

	bus.Unsubscribe(id)
	bus.Publish(Event{Type: RunStarted})
	if count != 1 {
		t.Fatalf("expected 1 after unsubscribe, got %d", count)
	}
}

func TestUnsubscribeNonexistent(t *testing.T) {
	bus := NewBus(testLogger())
	// Should not panic.
	bus.Unsubscribe(9999)
}

func TestPanicRecovery(t *testing.T) {
	bus := NewBus(testLogger())
	var afterPanic bool

	bus.Subscribe(SpawnFailed, func(e Event) {
		panic("test panic")
	})
	bus.Subscribe(SpawnFailed, func(e Event) {
		afterPanic = true
	})

	bus.Publish(Event{Type: SpawnFailed})

	if !afterPanic {
		t.Fatal("handler after panic was not called")
	}
}

func TestDifferentEventTypes(t *testing.T) {
	bus := NewBus(testLogger())
	var passedCount, failedCount int

	bus.Subscribe(RunPassed, func(e Event) { passedCount++ })
	bus.Subscribe(RunFailed, func(e Event) { failedCount++ })

	bus.Publish(Event{Type: RunPassed})
	bus.Publish(Event{Type: RunPassed})
	bus.Publish(Event{Type: RunFailed})

	if passedCount != 2 {
		t.Fatalf("expected 2 passed events, got %d", passedCount)
	}
	if failedCount != 1 {
		t.Fatalf("expected 1 failed event, got %d", failedCount)
	}
}

func TestOrderedDelivery(t *testing.T) {
	bus := NewBus(testLogger())
	var order []int

	for i := range 1000 {
		bus.Subscribe(RunStarted, func(e Event) {
			order = append(order, i)
		})
	}

	bus.Publish(Event{Type: RunStarted})

	if len(order) != 1000 {
		t.Fatalf("expected 1000, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("out of order at index %d: got %d", i, v)
		}
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus(testLogger())
	var wg sync.WaitGroup

	// Concurrent subscribe/unsubscribe from multiple goroutines.
	for range 50 {
		wg.Go(func() {
			id := bus.Subscribe(RunStarted, func(e Event) {})
			bus.Publish(Event{Type: RunStarted})
			bus.Unsubscribe(id)
		})
	}
	wg.Wait()
}

func TestSubscriberCount(t *testing.T) {
	bus := NewBus(testLogger())
	if bus.SubscriberCount(RunStarted) != 0 {
		t.Fatal("expected 0 subscribers")
	}

	id1 := bus.Subscribe(RunStarted, func(e Event) {})
	id2 := bus.Subscribe(RunStarted, func(e Event) {})
	if bus.SubscriberCount(RunStarted) != 2 {
		t.Fatalf("expected 2, got %d", bus.SubscriberCount(RunStarted))
	}

	bus.Unsubscribe(id1)
	if bus.SubscriberCount(RunStarted) != 1 {
		t.Fatalf("expected 1, got %d", bus.SubscriberCount(RunStarted))
	}

	bus.Unsubscribe(id2)
	if bus.SubscriberCount(RunStarted) != 0 {
		t.Fatalf("expected 0, got %d", bus.SubscriberCount(RunStarted))
	}
}
