package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/polisight/stream/internal/wire"
)

// fakeTransport is a scripted transport. Tests drive the server side through
// message, drop, and fail.
type fakeTransport struct {
	ev Events

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (t *fakeTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("transport closed")
	}
	cp := append([]byte(nil), data...)
	t.sent = append(t.sent, cp)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if t.ev.OnClose != nil {
		t.ev.OnClose()
	}
	return nil
}

// message simulates an inbound frame.
func (t *fakeTransport) message(data []byte) {
	if t.ev.OnMessage != nil {
		t.ev.OnMessage(data)
	}
}

// drop simulates the remote end closing the connection.
func (t *fakeTransport) drop() {
	t.Close()
}

// fail simulates a transport error followed by the close, mirroring the
// production transport's error-then-close contract.
func (t *fakeTransport) fail(err error) {
	if t.ev.OnError != nil {
		t.ev.OnError(err)
	}
	t.Close()
}

func (t *fakeTransport) sentFrames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// fakeDialer records dials and hands out fakeTransports. Set failures to
// make the next dials refuse.
type fakeDialer struct {
	mu         sync.Mutex
	urls       []string
	transports []*fakeTransport
	failures   int
}

func (d *fakeDialer) dial(_ context.Context, url string, ev Events) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("dial refused")
	}
	t := &fakeTransport{ev: ev}
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) lastURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.urls) == 0 {
		return ""
	}
	return d.urls[len(d.urls)-1]
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transports[i]
}

// keepAliveCount counts sent frames that decode to a bare Pong (the
// heartbeat payload has no ID; ping acknowledgments carry one).
func keepAliveCount(frames [][]byte) int {
	n := 0
	for _, f := range frames {
		msg, err := wire.Decode(f)
		if err != nil {
			continue
		}
		if pong, ok := msg.(wire.Pong); ok && pong.ID == "" {
			n++
		}
	}
	return n
}
