// recorder streams Polisight events and archives them into Postgres.
// Usage: go run ./cmd/recorder --config configs/client.local.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/polisight/stream/internal/config"
	"github.com/polisight/stream/internal/database"
	"github.com/polisight/stream/internal/realtime"
	"github.com/polisight/stream/internal/recorder"
	"github.com/polisight/stream/internal/session"
	"github.com/polisight/stream/internal/version"
	"github.com/polisight/stream/internal/wire"
)

func main() {
	configPath := flag.String("config", "configs/client.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting recorder",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.RestURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to Postgres
	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected", "host", cfg.Database.Postgres.Host)

	// Event archiver
	archiver := recorder.New(recorder.Config{
		BatchSize:     cfg.Recorder.BatchSize,
		FlushInterval: cfg.Recorder.FlushInterval,
		QueueSize:     cfg.Recorder.BufferSize,
	}, pool, logger)

	if err := archiver.Start(ctx); err != nil {
		logger.Error("failed to start recorder", "error", err)
		os.Exit(1)
	}

	// Realtime channel
	client := realtime.New(realtime.Config{
		URL:                cfg.API.WSURL,
		HeartbeatInterval:  cfg.Stream.HeartbeatInterval,
		ReconnectBaseDelay: cfg.Stream.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Stream.ReconnectMaxDelay,
		ReconnectJitter:    cfg.Stream.ReconnectJitter,
		HandshakeTimeout:   cfg.Stream.HandshakeTimeout,
		WriteTimeout:       cfg.Stream.WriteTimeout,
	}, realtime.WithLogger(logger))

	// The session in use changes on refresh; the archive listener tags each
	// event with whichever session carried it.
	var currentSession atomic.Value
	currentSession.Store("")

	client.OnStatus(func(st realtime.Status) {
		logger.Info("stream status", "status", st)
	})
	client.Subscribe(func(msg wire.Message) {
		if sid, _ := currentSession.Load().(string); sid != "" {
			archiver.Record(sid, msg)
		}
	})

	// Session bootstrap and renewal
	sessions := session.NewClient(cfg.API.RestURL, cfg.API.APIKey,
		session.WithTimeout(cfg.API.Timeout),
		session.WithRetries(cfg.API.MaxRetries, time.Second),
		session.WithLogger(logger),
		session.WithInstanceID(cfg.Instance.ID),
	)

	refresher := session.NewRefresher(session.RefresherConfig{
		Interval: cfg.Session.RefreshInterval,
		Timeout:  cfg.API.Timeout,
	}, sessions, session.HandlerFunc(func(s session.Session) error {
		currentSession.Store(s.ID)
		if err := client.Connect(ctx, s.ID); err != nil {
			// The client keeps retrying with backoff.
			logger.Warn("connect failed, retrying", "session", s.ID, "error", err)
		}
		return nil
	}), logger)

	if err := refresher.Start(ctx); err != nil {
		logger.Error("failed to bootstrap session", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs := client.Stats()
				rs := archiver.Stats()
				logger.Info("stats",
					"status", cs.Status,
					"received", cs.MessagesReceived,
					"parse_errors", cs.ParseErrors,
					"retries", cs.RetriesScheduled,
					"inserts", rs.Inserts,
					"conflicts", rs.Conflicts,
					"flushes", rs.Flushes,
					"insert_errors", rs.Errors,
				)
			}
		}
	}()

	logger.Info("recording started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	refresher.Stop(shutdownCtx)
	client.Disconnect()
	archiver.Stop(shutdownCtx)

	logger.Info("shutdown complete")
}
