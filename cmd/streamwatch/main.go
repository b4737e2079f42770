// streamwatch connects to the Polisight stream and prints parsed events to
// the console.
// Usage: go run ./cmd/streamwatch --config configs/client.local.yaml
//
// Required environment variable:
//
//	POLISIGHT_API_KEY - Your API key from the Polisight dashboard
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/polisight/stream/internal/config"
	"github.com/polisight/stream/internal/realtime"
	"github.com/polisight/stream/internal/session"
	"github.com/polisight/stream/internal/wire"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	if cfg.API.APIKey == "" {
		logger.Error("API key required", "api_key_set", false)
		logger.Info("Set environment variable POLISIGHT_API_KEY and reference it from the config")
		os.Exit(1)
	}

	// Bootstrap a session over REST
	sessions := session.NewClient(cfg.API.RestURL, cfg.API.APIKey,
		session.WithTimeout(cfg.API.Timeout),
		session.WithRetries(cfg.API.MaxRetries, time.Second),
		session.WithLogger(logger),
		session.WithInstanceID(cfg.Instance.ID),
	)

	s, err := sessions.Create(ctx)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}
	logger.Info("session created", "session", s.ID, "expires_at", s.ExpiresAt)

	// Open the realtime channel
	client := realtime.New(realtime.Config{
		URL:                cfg.API.WSURL,
		HeartbeatInterval:  cfg.Stream.HeartbeatInterval,
		ReconnectBaseDelay: cfg.Stream.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Stream.ReconnectMaxDelay,
		ReconnectJitter:    cfg.Stream.ReconnectJitter,
		HandshakeTimeout:   cfg.Stream.HandshakeTimeout,
		WriteTimeout:       cfg.Stream.WriteTimeout,
	}, realtime.WithLogger(logger))

	client.OnStatus(func(st realtime.Status) {
		logger.Info("stream status", "status", st)
	})
	client.Subscribe(func(msg wire.Message) {
		printEvent(msg, *verbose)
	})

	if err := client.Connect(ctx, s.ID); err != nil {
		// The client keeps retrying with backoff; just report it.
		logger.Warn("initial connect failed, retrying", "error", err)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := client.Stats()
				logger.Info("stats",
					"status", stats.Status,
					"received", stats.MessagesReceived,
					"parse_errors", stats.ParseErrors,
					"pings_acked", stats.PingsAcked,
					"retries", stats.RetriesScheduled,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	client.Disconnect()
	logger.Info("shutdown complete")
}

func printEvent(msg wire.Message, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Printf("[%s] %s\n", msg.MessageType(), data)
		return
	}

	switch ev := msg.(type) {
	case wire.AnalysisProgress:
		fmt.Printf("[PROGRESS] analysis=%s stage=%s %v%%\n", ev.AnalysisID, ev.Stage, ev.Percent)
	case wire.ChatEvent:
		fmt.Printf("[CHAT] conversation=%s role=%s done=%v delta=%q\n", ev.ConversationID, ev.Role, ev.Done, ev.Delta)
	case wire.Ping:
		fmt.Printf("[PING] id=%s\n", ev.ID)
	case wire.Unknown:
		fmt.Printf("[UNKNOWN] type=%s\n", ev.Type)
	}
}
