package network

import (
	"sync"

	"github.com/VeltaLabs/veltalk-client/pkg/wire"
)

// EventType names the supervisor lifecycle and traffic events.
type EventType string

const (
	EventConnected        EventType = "connected"
	EventQR               EventType = "qr"
	EventAuthenticated    EventType = "authenticated"
	EventReady            EventType = "ready"
	EventMessage          EventType = "message"
	EventConnectionLost   EventType = "connection_lost"
	EventConnectionFailed EventType = "connection_failed"
	EventAuthFailure      EventType = "auth_failure"
	EventDisconnected     EventType = "disconnected"
)

// Event is delivered to every subscriber. Only the fields relevant to
// the event type are populated.
type Event struct {
	Type     EventType
	Endpoint string
	Attempt  int
	QR       string     // EventQR: payload for external display
	Node     *wire.Node // EventMessage: parsed inbound frame
	Err      error      // failure events
}

// eventBus is an explicit observer registry: subscription returns an
// unsubscribe handle, so there is no hidden global listener list.
type eventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]func(Event))}
}

func (b *eventBus) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// publish snapshots the subscriber list under the lock and invokes the
// callbacks outside it, so a subscriber may unsubscribe from within its
// own handler.
func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (b *eventBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
