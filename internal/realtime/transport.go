package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is a single open duplex connection to the streaming endpoint.
// It is owned exclusively by the Client; consumers never touch it directly.
type Transport interface {
	// Send writes one text frame.
	Send(data []byte) error

	// Close tears the connection down. Idempotent.
	Close() error
}

// Events carries transport callbacks into the Client. OnClose is delivered
// exactly once per transport, after any OnError. Messages are delivered in
// arrival order.
type Events struct {
	OnMessage func(data []byte)
	OnError   func(err error)
	OnClose   func()
}

// Dialer opens a Transport for the given URL. A successful return means the
// connection is open. Injectable so tests can script connection events
// without network I/O.
type Dialer func(ctx context.Context, url string, ev Events) (Transport, error)

// websocketDialer returns the production Dialer backed by gorilla/websocket.
func websocketDialer(handshakeTimeout, writeTimeout time.Duration) Dialer {
	return func(ctx context.Context, url string, ev Events) (Transport, error) {
		dialer := websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		}

		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}

		t := &wsTransport{
			conn:         conn,
			ev:           ev,
			writeTimeout: writeTimeout,
			done:         make(chan struct{}),
		}
		go t.readLoop()
		return t, nil
	}
}

// wsTransport wraps a gorilla connection and pumps its frames into Events.
type wsTransport struct {
	conn         *websocket.Conn
	ev           Events
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	closeOnce sync.Once
}

func (t *wsTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	t.mu.Unlock()

	t.writeMu.Lock()
	t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	t.writeMu.Unlock()

	err := t.conn.Close()
	t.emitClose()
	return err
}

// readLoop reads frames until the connection dies. A read error on a
// transport that was not deliberately closed is reported through OnError
// before the close notification.
func (t *wsTransport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
				// Deliberate close; Close already emitted the event.
			default:
				if t.ev.OnError != nil {
					t.ev.OnError(err)
				}
				t.mu.Lock()
				if !t.closed {
					t.closed = true
					close(t.done)
				}
				t.mu.Unlock()
				t.conn.Close()
				t.emitClose()
			}
			return
		}

		if t.ev.OnMessage != nil {
			t.ev.OnMessage(data)
		}
	}
}

func (t *wsTransport) emitClose() {
	t.closeOnce.Do(func() {
		if t.ev.OnClose != nil {
			t.ev.OnClose()
		}
	})
}
