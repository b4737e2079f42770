package realtime

import "sync"

// Status is the current state of the realtime channel.
type Status int

const (
	// StatusDisconnected means no transport is open and no dial is in flight.
	StatusDisconnected Status = iota
	// StatusConnecting means a dial is in flight.
	StatusConnecting
	// StatusConnected means the transport is open.
	StatusConnected
	// StatusError means the last transport failed; a retry may be pending.
	StatusError
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// statusTracker holds the current Status and notifies subscribers of
// transitions. Subscribers are invoked without the tracker lock held, so a
// subscriber may call back into the Client.
type statusTracker struct {
	mu      sync.Mutex
	current Status
	nextID  int
	subs    map[int]func(Status)
}

func newStatusTracker() *statusTracker {
	return &statusTracker{subs: make(map[int]func(Status))}
}

// Current returns the current status.
func (t *statusTracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Subscribe registers fn for transition notifications and returns an
// unsubscribe function. Unsubscribing twice is safe.
func (t *statusTracker) Subscribe(fn func(Status)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// set updates the status and notifies subscribers. Setting the current value
// again is a no-op.
func (t *statusTracker) set(s Status) {
	t.mu.Lock()
	if t.current == s {
		t.mu.Unlock()
		return
	}
	t.current = s
	fns := make([]func(Status), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
