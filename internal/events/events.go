// Package events implements the typed publish/subscribe bus the connector
// uses to broadcast lifecycle transitions to passive observers.
package events

import (
	"sync"
	"time"

	"github.com/iotaledger/hive.go/generics/event"
)

// Type identifies a connector lifecycle event.
type Type string

const (
	TypeConnecting     Type = "connecting"
	TypeConnected      Type = "connected"
	TypeDisconnected   Type = "disconnected"
	TypeAccountChanged Type = "account-changed"
	TypeClusterChanged Type = "cluster-changed"
	TypeError          Type = "error"
)

// Event is a single lifecycle notification. Fields other than Type and Time
// are populated depending on the event type.
type Event struct {
	Type    Type
	Wallet  string
	Account string
	Cluster string
	Err     error
	Time    time.Time
}

// Handler receives events. Handlers run synchronously on the emitting
// goroutine; long work belongs on the handler's own goroutine.
type Handler func(Event)

// Emitter is a typed event bus: one hive.go bus per event type plus a
// catch-all bus. For a given event, typed handlers fire before catch-all
// handlers, each group in attach order.
type Emitter struct {
	mu     sync.Mutex
	byType map[Type]*event.Event[Event]
	any    *event.Event[Event]
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		byType: make(map[Type]*event.Event[Event]),
		any:    event.New[Event](),
	}
}

func (e *Emitter) bus(eventType Type) *event.Event[Event] {
	e.mu.Lock()
	defer e.mu.Unlock()

	bus, ok := e.byType[eventType]
	if !ok {
		bus = event.New[Event]()
		e.byType[eventType] = bus
	}
	return bus
}

// On registers a handler for a single event type. The returned function
// removes the subscription and is safe to call more than once.
func (e *Emitter) On(eventType Type, handler Handler) func() {
	return attach(e.bus(eventType), handler)
}

// OnAny registers a handler for every event type.
func (e *Emitter) OnAny(handler Handler) func() {
	return attach(e.any, handler)
}

func attach(bus *event.Event[Event], handler Handler) func() {
	// Trigger does not isolate panics, so the closure recovers before one
	// can stop delivery to the remaining handlers.
	closure := event.NewClosure(func(ev Event) {
		defer func() {
			_ = recover()
		}()
		handler(ev)
	})
	bus.Attach(closure)

	var once sync.Once
	return func() {
		once.Do(func() {
			bus.Detach(closure)
		})
	}
}

// Emit delivers event to matching handlers. The Time field is stamped here
// if the caller left it zero.
func (e *Emitter) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	e.bus(ev.Type).Trigger(ev)
	e.any.Trigger(ev)
}
