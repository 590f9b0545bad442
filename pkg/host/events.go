// Package host defines the narrow contracts the panel consumes from the
// surrounding platform: entity resolution, change events, flag storage,
// the roll engine, and user notifications. The panel never reaches past
// these interfaces into platform internals.
package host

import "sync"

// Event is a change notification from the platform. The concrete types
// below form a closed set; the panel switches on them to decide whether
// a re-render is needed.
type Event interface{ isEvent() }

// ActorUpdated signals that an actor's own fields changed.
type ActorUpdated struct{ ActorID string }

// TokenUpdated signals that a token document changed (movement, statuses).
type TokenUpdated struct{ TokenID string }

// ItemCreated signals a new item on an actor.
type ItemCreated struct{ ActorID, ItemID string }

// ItemUpdated signals a changed item on an actor.
type ItemUpdated struct{ ActorID, ItemID string }

// ItemDeleted signals a removed item on an actor.
type ItemDeleted struct{ ActorID, ItemID string }

// EffectCreated signals a new effect on an actor.
type EffectCreated struct{ ActorID, EffectID string }

// EffectUpdated signals a changed effect on an actor.
type EffectUpdated struct{ ActorID, EffectID string }

// EffectDeleted signals a removed effect on an actor.
type EffectDeleted struct{ ActorID, EffectID string }

// SelectionChanged signals that the set of controlled tokens changed.
type SelectionChanged struct{ TokenIDs []string }

func (ActorUpdated) isEvent()     {}
func (TokenUpdated) isEvent()     {}
func (ItemCreated) isEvent()      {}
func (ItemUpdated) isEvent()      {}
func (ItemDeleted) isEvent()      {}
func (EffectCreated) isEvent()    {}
func (EffectUpdated) isEvent()    {}
func (EffectDeleted) isEvent()    {}
func (SelectionChanged) isEvent() {}

// Bus is an in-process event bus with ordered, synchronous delivery.
// Subscribers receive events in publish order; Publish does not return
// until every subscriber has run. Unsubscribing during delivery is safe.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler and returns a function that removes it.
// The returned function is idempotent.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all current subscribers in order.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
