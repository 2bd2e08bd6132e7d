package service

import (
	"testing"

	"github.com/joeblew999/plat-ogc/internal/mapview"
)

func TestBusFiltersBySession(t *testing.T) {
	bus := NewEventBus()
	all := bus.Subscribe("")
	one := bus.Subscribe("a")

	bus.Publish(Event{Session: "a", Event: mapview.Event{Kind: mapview.EventLayerAdded}})
	bus.Publish(Event{Session: "b", Event: mapview.Event{Kind: mapview.EventLayerAdded}})

	if len(all) != 2 {
		t.Errorf("wildcard subscriber got %d events, want 2", len(all))
	}
	if len(one) != 1 {
		t.Errorf("session subscriber got %d events, want 1", len(one))
	}

	bus.Unsubscribe(one)
	bus.Publish(Event{Session: "a"})
	if len(all) != 3 {
		t.Errorf("wildcard subscriber got %d events, want 3", len(all))
	}
	bus.Unsubscribe(all)
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("")
	defer bus.Unsubscribe(ch)

	for i := 0; i < cap(ch)+10; i++ {
		bus.Publish(Event{Session: "a"})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want %d", len(ch), cap(ch))
	}
}
