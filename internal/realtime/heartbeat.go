package realtime

import (
	"sync"
	"time"
)

// heartbeat sends a keep-alive at a fixed period while started. Each start
// begins a fresh period; no phase carries over from a previous connection.
type heartbeat struct {
	clock    Clock
	interval time.Duration
	send     func()

	mu      sync.Mutex
	running bool
	timer   Timer
}

func newHeartbeat(clock Clock, interval time.Duration, send func()) *heartbeat {
	return &heartbeat{
		clock:    clock,
		interval: interval,
		send:     send,
	}
}

// start arms the keep-alive cycle. Calling start while running is a no-op.
func (h *heartbeat) start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	h.timer = h.clock.AfterFunc(h.interval, h.fire)
}

// stop cancels any pending keep-alive. Idempotent.
func (h *heartbeat) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// fire re-arms before sending so the cadence stays fixed regardless of how
// long the send takes. send runs without the heartbeat lock held.
func (h *heartbeat) fire() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.timer = h.clock.AfterFunc(h.interval, h.fire)
	h.mu.Unlock()

	h.send()
}
