package service

import (
	"sync"

	"github.com/joeblew999/plat-ogc/internal/mapview"
)

// Event is a component event tagged with the session it happened in.
type Event struct {
	Session string
	mapview.Event
}

// EventBus is a simple fan-out pub/sub for component events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]string)}
}

// Publish sends an event to the subscribers of its session (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, session := range b.subs {
		if session != "" && session != e.Session {
			continue
		}
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives the events of a session,
// or of every session when session is empty.
func (b *EventBus) Subscribe(session string) chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[ch] = session
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
