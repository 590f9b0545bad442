package host

import "testing"

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(ev Event) {
		got = append(got, "first:"+eventName(ev))
	})
	bus.Subscribe(func(ev Event) {
		got = append(got, "second:"+eventName(ev))
	})

	bus.Publish(ActorUpdated{ActorID: "a"})
	bus.Publish(TokenUpdated{TokenID: "t"})

	want := []string{"first:actor", "second:actor", "first:token", "second:token"}
	if len(got) != len(want) {
		t.Fatalf("got %d deliveries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe(func(Event) { count++ })

	bus.Publish(ActorUpdated{ActorID: "a"})
	unsubscribe()
	bus.Publish(ActorUpdated{ActorID: "a"})

	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("subscriber count = %d after unsubscribe", bus.SubscriberCount())
	}

	// Idempotent: calling again must not disturb other subscriptions.
	other := 0
	bus.Subscribe(func(Event) { other++ })
	unsubscribe()
	bus.Publish(TokenUpdated{TokenID: "t"})
	if other != 1 {
		t.Errorf("surviving handler ran %d times, want 1", other)
	}
}

func TestBusUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()
	var unsubscribe func()
	ran := 0
	unsubscribe = bus.Subscribe(func(Event) {
		ran++
		unsubscribe()
	})
	bus.Publish(ActorUpdated{ActorID: "a"})
	bus.Publish(ActorUpdated{ActorID: "a"})
	if ran != 1 {
		t.Errorf("self-unsubscribing handler ran %d times, want 1", ran)
	}
}

func eventName(ev Event) string {
	switch ev.(type) {
	case ActorUpdated:
		return "actor"
	case TokenUpdated:
		return "token"
	default:
		return "other"
	}
}
