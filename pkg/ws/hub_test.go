package ws

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	hub.Publish(Event{Provider: "retell", Type: "call_started", CallID: "call_1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.CallID != "call_1" {
				t.Errorf("subscriber %d: got call_id %q, want call_1", i, ev.CallID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	_, cancel := hub.Subscribe()
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("got %d subscribers, want 1", got)
	}

	cancel()
	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("got %d subscribers after cancel, want 0", got)
	}

	// Second cancel must be a no-op
	cancel()
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Fill the buffer without draining, then publish one more
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(Event{Type: "transcript_updated"})
	}

	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("got %d subscribers, want slow subscriber dropped", got)
	}

	// Channel is closed after the buffered events
	drained := 0
	for range ch {
		drained++
	}
	if drained != subscriberBuffer {
		t.Errorf("drained %d buffered events, want %d", drained, subscriberBuffer)
	}
}

func TestHubPublishWithNoSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Publish(Event{Type: "call_ended"})
}
