package realtime

import (
	"log/slog"
	"sync"

	"github.com/polisight/stream/internal/wire"
)

// Listener receives every message dispatched from the channel.
type Listener func(wire.Message)

// dispatcher maintains the listener set and fans inbound messages out to it.
// Listeners are invoked without the dispatcher lock held; a listener may
// subscribe, unsubscribe, or call Client.Disconnect from inside its callback.
type dispatcher struct {
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &dispatcher{
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// subscribe adds a listener and returns its unsubscribe function.
func (d *dispatcher) subscribe(fn Listener) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// emit delivers msg to every listener registered at the time of the call.
// A panicking listener does not prevent delivery to the others.
func (d *dispatcher) emit(msg wire.Message) {
	d.mu.Lock()
	fns := make([]Listener, 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		d.deliver(fn, msg)
	}
}

func (d *dispatcher) deliver(fn Listener, msg wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("listener panicked",
				"type", msg.MessageType(),
				"panic", r,
			)
		}
	}()
	fn(msg)
}

// clear removes all listeners.
func (d *dispatcher) clear() {
	d.mu.Lock()
	d.listeners = make(map[int]Listener)
	d.mu.Unlock()
}

func (d *dispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}
