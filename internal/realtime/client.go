package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/polisight/stream/internal/wire"
)

// Errors
var (
	ErrNoSession = errors.New("no session id")
)

// Config configures a Client.
type Config struct {
	URL                string        // Base WebSocket endpoint (e.g. wss://stream.polisight.io)
	HeartbeatInterval  time.Duration // Keep-alive period while connected
	ReconnectBaseDelay time.Duration // First retry delay
	ReconnectMaxDelay  time.Duration // Backoff cap
	ReconnectJitter    time.Duration // Uniform jitter added to every retry delay
	HandshakeTimeout   time.Duration // WebSocket dial timeout
	WriteTimeout       time.Duration // Write deadline for outbound frames
}

// DefaultConfig returns sensible defaults (URL must still be set).
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:  30 * time.Second,
		ReconnectBaseDelay: 500 * time.Millisecond,
		ReconnectMaxDelay:  5 * time.Second,
		ReconnectJitter:    200 * time.Millisecond,
		HandshakeTimeout:   10 * time.Second,
		WriteTimeout:       5 * time.Second,
	}
}

func (cfg *Config) applyDefaults() {
	def := DefaultConfig()
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.ReconnectBaseDelay == 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay == 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.ReconnectJitter == 0 {
		cfg.ReconnectJitter = def.ReconnectJitter
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
}

// Stats provides runtime counters for the client.
type Stats struct {
	Status           Status
	MessagesReceived int64
	ParseErrors      int64
	PingsAcked       int64
	RetriesScheduled int64
	Attempts         int // current attempt counter, resets on successful open
	Listeners        int
}

// Client owns the realtime channel: one transport at a time, keyed by the
// session id set at Connect and retained across reconnect attempts until
// Disconnect.
type Client struct {
	cfg    Config
	logger *slog.Logger
	clock  Clock
	dial   Dialer

	dispatcher *dispatcher
	status     *statusTracker
	heartbeat  *heartbeat
	backoff    *backoffPolicy

	mu         sync.Mutex
	ctx        context.Context
	sessionID  string
	transport  Transport
	open       bool
	epoch      int // bumped on every dial and teardown; orphans stale callbacks
	attempts   int
	retryTimer Timer

	received    int64
	parseErrors int64
	pingsAcked  int64
	retries     int64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock substitutes the clock used for heartbeat and retry timers.
func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithDialer substitutes the transport dialer.
func WithDialer(dial Dialer) Option {
	return func(c *Client) { c.dial = dial }
}

// New creates a Client. It does not connect.
func New(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()

	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		clock:  systemClock{},
		status: newStatusTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dial == nil {
		c.dial = websocketDialer(cfg.HandshakeTimeout, cfg.WriteTimeout)
	}

	c.dispatcher = newDispatcher(c.logger)
	c.backoff = newBackoffPolicy(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay, cfg.ReconnectJitter)
	c.heartbeat = newHeartbeat(c.clock, cfg.HeartbeatInterval, c.keepAlive)
	return c
}

// Connect opens the channel for the given session. If a transport is already
// open or connecting it is torn down first and replaced. The returned error
// reflects only the immediate dial; failures here and later are retried
// internally with backoff until Disconnect, observable via OnStatus.
func (c *Client) Connect(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	c.mu.Lock()
	c.ctx = ctx
	c.sessionID = sessionID
	c.mu.Unlock()

	return c.dialSession()
}

// Subscribe registers a listener for every dispatched message and returns
// its unsubscribe function.
func (c *Client) Subscribe(fn Listener) func() {
	return c.dispatcher.subscribe(fn)
}

// OnStatus registers a status-transition observer and returns its
// unsubscribe function.
func (c *Client) OnStatus(fn func(Status)) func() {
	return c.status.Subscribe(fn)
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	return c.status.Current()
}

// Stats returns current counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Status:           c.status.Current(),
		MessagesReceived: c.received,
		ParseErrors:      c.parseErrors,
		PingsAcked:       c.pingsAcked,
		RetriesScheduled: c.retries,
		Attempts:         c.attempts,
		Listeners:        c.dispatcher.count(),
	}
}

// Send transmits msg if the transport is currently open. Otherwise the
// message is silently dropped: this core keeps no outbound queue and makes
// no delivery guarantee. Callers needing guaranteed delivery must check
// Status or queue above this layer.
func (c *Client) Send(msg wire.Message) {
	c.mu.Lock()
	t := c.transport
	open := c.open
	c.mu.Unlock()

	if !open || t == nil {
		return
	}

	data, err := wire.Encode(msg)
	if err != nil {
		c.logger.Warn("encode failed", "type", msg.MessageType(), "error", err)
		return
	}
	if err := t.Send(data); err != nil {
		// The read loop surfaces the broken connection.
		c.logger.Warn("send failed", "type", msg.MessageType(), "error", err)
	}
}

// Disconnect tears the channel down for good: clears the session id so no
// further reconnects fire, cancels pending timers, closes the transport, and
// clears all message listeners. Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.sessionID = ""
	c.epoch++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.attempts = 0
	t := c.transport
	c.transport = nil
	c.open = false
	c.mu.Unlock()

	c.heartbeat.stop()
	if t != nil {
		t.Close()
	}
	c.dispatcher.clear()
	c.status.set(StatusDisconnected)
}

// dialSession opens a new transport for the current session, replacing any
// existing one.
func (c *Client) dialSession() error {
	c.mu.Lock()
	c.epoch++
	ep := c.epoch
	old := c.transport
	c.transport = nil
	c.open = false
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	sid := c.sessionID
	ctx := c.ctx
	c.mu.Unlock()

	c.heartbeat.stop()
	if old != nil {
		old.Close()
	}
	if sid == "" {
		return ErrNoSession
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.status.set(StatusConnecting)

	ev := Events{
		OnMessage: func(data []byte) { c.handleMessage(ep, data) },
		OnError:   func(err error) { c.handleError(ep, err) },
		OnClose:   func() { c.handleClose(ep) },
	}

	t, err := c.dial(ctx, c.sessionURL(sid), ev)
	if err != nil {
		c.logger.Warn("dial failed", "session", sid, "error", err)
		c.status.set(StatusError)
		c.scheduleRetry(ep)
		return err
	}

	c.mu.Lock()
	if c.epoch != ep || c.sessionID == "" {
		// Replaced or torn down while dialing.
		c.mu.Unlock()
		t.Close()
		return nil
	}
	c.transport = t
	c.open = true
	c.attempts = 0
	c.mu.Unlock()

	c.heartbeat.start()
	c.status.set(StatusConnected)
	c.logger.Info("connected", "session", sid)
	return nil
}

// sessionURL builds the endpoint address for a session.
func (c *Client) sessionURL(sessionID string) string {
	return c.cfg.URL + "/v1/stream?session=" + url.QueryEscape(sessionID)
}

// handleMessage decodes and dispatches one inbound frame. Malformed frames
// are dropped without side effects; pings are acknowledged and still
// forwarded to listeners.
func (c *Client) handleMessage(ep int, data []byte) {
	c.mu.Lock()
	if c.epoch != ep {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	msg, err := wire.Decode(data)
	if err != nil {
		c.logger.Debug("dropping malformed frame", "error", err)
		c.mu.Lock()
		c.parseErrors++
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.received++
	c.mu.Unlock()

	if ping, ok := msg.(wire.Ping); ok {
		c.Send(wire.Pong{ID: ping.ID})
		c.mu.Lock()
		c.pingsAcked++
		c.mu.Unlock()
	}

	c.dispatcher.emit(msg)
}

// handleError marks the connection errored and closes the transport, which
// produces the close path.
func (c *Client) handleError(ep int, err error) {
	c.mu.Lock()
	if c.epoch != ep {
		c.mu.Unlock()
		return
	}
	t := c.transport
	c.mu.Unlock()

	c.logger.Warn("transport error", "error", err)
	c.status.set(StatusError)
	if t != nil {
		t.Close()
	}
}

// handleClose stops the heartbeat and schedules a retry while a session id
// remains set.
func (c *Client) handleClose(ep int) {
	c.mu.Lock()
	if c.epoch != ep {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.transport = nil
	c.mu.Unlock()

	c.heartbeat.stop()
	if c.status.Current() != StatusError {
		// An errored connection keeps its error status until the next attempt.
		c.status.set(StatusDisconnected)
	}
	c.scheduleRetry(ep)
}

// scheduleRetry arms the backoff timer for the current attempt. A retry is
// scheduled only while the epoch is current, a session id is set, and no
// retry is already pending.
func (c *Client) scheduleRetry(ep int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != ep || c.sessionID == "" || c.retryTimer != nil {
		return
	}

	delay := c.backoff.delay(c.attempts)
	c.attempts++
	c.retries++
	c.retryTimer = c.clock.AfterFunc(delay, c.retry)

	c.logger.Info("reconnect scheduled",
		"session", c.sessionID,
		"attempt", c.attempts,
		"delay", delay,
	)
}

// retry re-dials with the retained session id.
func (c *Client) retry() {
	c.mu.Lock()
	c.retryTimer = nil
	sid := c.sessionID
	c.mu.Unlock()

	if sid == "" {
		return
	}
	c.dialSession()
}

// keepAlive is the periodic heartbeat payload.
func (c *Client) keepAlive() {
	c.Send(wire.Pong{})
}
