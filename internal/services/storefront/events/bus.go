// Package events delivers in-process notifications between a client's state
// containers.
package events

import "sync"

// Type names an event kind.
type Type string

// SessionEnded is published when a session is logged out, expires, or is
// found stale during reconciliation.
const SessionEnded Type = "session.ended"

// Reason values carried by SessionEnded.
const (
	ReasonLogout    = "logout"
	ReasonExpired   = "expired"
	ReasonReconcile = "reconcile"
)

// Event is a published notification.
type Event struct {
	Type     Type
	ClientID string
	Reason   string
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe hub. Handlers run on the publishing
// goroutine in registration order, and Publish returns after all of them.
// Handlers must not subscribe or unsubscribe on the same bus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Type][]subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]subscription)}
}

// Subscribe registers h for events of type t and returns a function removing
// the subscription. Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(t, id) })
	}
}

func (b *Bus) unsubscribe(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[t]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to the current subscribers of e.Type.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[e.Type]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(e)
	}
}
