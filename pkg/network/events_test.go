package network

import "testing"

func TestEventBusSubscribePublish(t *testing.T) {
	bus := newEventBus()

	var got []Event
	unsub := bus.subscribe(func(ev Event) { got = append(got, ev) })

	bus.publish(Event{Type: EventConnected, Endpoint: "wss://a"})
	bus.publish(Event{Type: EventReady})

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].Type != EventConnected || got[0].Endpoint != "wss://a" {
		t.Errorf("first event = %+v", got[0])
	}

	unsub()
	bus.publish(Event{Type: EventDisconnected})
	if len(got) != 2 {
		t.Errorf("received %d events after unsubscribe, want 2", len(got))
	}
	if bus.count() != 0 {
		t.Errorf("count() = %d, want 0", bus.count())
	}
}

func TestEventBusUnsubscribeDuringPublish(t *testing.T) {
	bus := newEventBus()

	calls := 0
	var unsub func()
	unsub = bus.subscribe(func(Event) {
		calls++
		unsub()
	})

	bus.publish(Event{Type: EventConnected})
	bus.publish(Event{Type: EventReady})

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestEventBusIndependentSubscribers(t *testing.T) {
	bus := newEventBus()

	a, b := 0, 0
	unsubA := bus.subscribe(func(Event) { a++ })
	bus.subscribe(func(Event) { b++ })

	bus.publish(Event{Type: EventConnected})
	unsubA()
	bus.publish(Event{Type: EventReady})

	if a != 1 || b != 2 {
		t.Errorf("a = %d, b = %d, want 1, 2", a, b)
	}
}
