package notify

import (
	"sync"
	"testing"

	"chatpro/internal/domain"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()

	var got []domain.Message
	hub.Subscribe(func(msg domain.Message) {
		got = append(got, msg)
	})

	hub.Publish(domain.Message{ID: 1, Text: "hi", Sender: "alice", Recipient: "bob"})

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].ID != 1 || got[0].Text != "hi" {
		t.Fatalf("unexpected message delivered: %+v", got[0])
	}
}

func TestHubPublishAtMostOncePerSubscriber(t *testing.T) {
	hub := NewHub()

	counts := make(map[string]int)
	hub.Subscribe(func(domain.Message) { counts["a"]++ })
	hub.Subscribe(func(domain.Message) { counts["b"]++ })

	hub.Publish(domain.Message{ID: 1})

	if counts["a"] != 1 || counts["b"] != 1 {
		t.Fatalf("expected exactly one delivery per subscriber, got %v", counts)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()

	delivered := 0
	sub := hub.Subscribe(func(domain.Message) { delivered++ })

	hub.Publish(domain.Message{ID: 1})
	hub.Unsubscribe(sub)
	hub.Publish(domain.Message{ID: 2})

	if delivered != 1 {
		t.Fatalf("expected 1 delivery before unsubscribe, got %d", delivered)
	}
}

func TestHubUnsubscribeBeforeAnyEventIsSafe(t *testing.T) {
	hub := NewHub()

	sub := hub.Subscribe(func(domain.Message) {
		t.Fatal("handler must not run after unsubscribe")
	})
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // idempotente
	hub.Unsubscribe(nil)

	hub.Publish(domain.Message{ID: 1})

	if hub.Len() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.Len())
	}
}

func TestHubNoReplayForLateSubscriber(t *testing.T) {
	hub := NewHub()

	hub.Publish(domain.Message{ID: 1})

	hub.Subscribe(func(domain.Message) {
		t.Fatal("late subscriber must not receive past events")
	})

	if hub.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Len())
	}
}

func TestHubConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	delivered := 0
	hub.Subscribe(func(domain.Message) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			hub.Publish(domain.Message{ID: int64(n)})
		}(i)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe(func(domain.Message) {})
			hub.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if delivered != 10 {
		t.Fatalf("expected 10 deliveries, got %d", delivered)
	}
}
