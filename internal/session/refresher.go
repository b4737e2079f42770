package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler receives each freshly created session.
type Handler interface {
	HandleSession(s Session) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(Session) error

func (f HandlerFunc) HandleSession(s Session) error {
	return f(s)
}

// RefresherConfig holds refresher configuration.
type RefresherConfig struct {
	Interval time.Duration // Renewal interval (default: 15m)
	Timeout  time.Duration // Per-request timeout (default: 10s)
}

// DefaultRefresherConfig returns sensible defaults.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval: 15 * time.Minute,
		Timeout:  10 * time.Second,
	}
}

// Refresher periodically creates a fresh session and hands it to a Handler,
// so long-running watchers never stream on an expired session.
type Refresher struct {
	cfg     RefresherConfig
	client  *Client
	handler Handler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a new Refresher.
func NewRefresher(cfg RefresherConfig, client *Client, handler Handler, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultRefresherConfig().Interval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRefresherConfig().Timeout
	}
	return &Refresher{
		cfg:     cfg,
		client:  client,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the renewal loop. The first session is created immediately;
// its error is returned so callers fail fast on bad credentials.
func (r *Refresher) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	if err := r.refresh(); err != nil {
		r.cancel()
		return err
	}

	r.wg.Add(1)
	go r.run()

	r.logger.Info("session refresher started", "interval", r.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the refresher.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("session refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the renewal loop.
func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if err := r.refresh(); err != nil {
				// The current session stays in use; try again next tick.
				r.logger.Warn("session refresh failed", "error", err)
			}
		}
	}
}

// refresh creates one session and delivers it to the handler.
func (r *Refresher) refresh() error {
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
	defer cancel()

	s, err := r.client.Create(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("session created", "session", s.ID, "expires_at", s.ExpiresAt)
	return r.handler.HandleSession(s)
}
