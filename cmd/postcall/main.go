package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/payerline/postcall/internal/analyzer"
	"github.com/payerline/postcall/internal/anthropic"
	"github.com/payerline/postcall/internal/api"
	"github.com/payerline/postcall/internal/config"
	"github.com/payerline/postcall/internal/extractor"
	"github.com/payerline/postcall/internal/index"
	"github.com/payerline/postcall/internal/notifier"
	"github.com/payerline/postcall/internal/processor"
	"github.com/payerline/postcall/internal/storage"
	"github.com/payerline/postcall/internal/validator"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("postcall starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Record storage
	store, err := storage.New(cfg.StorageDir, slog.Default())
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Case configuration
	snap, err := config.LoadSnapshot(cfg.CaseConfigDir, slog.Default())
	if err != nil {
		slog.Error("failed to load case configuration", "error", err)
		os.Exit(1)
	}

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, time.Duration(cfg.LLMTimeoutSecs)*time.Second)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	ext := extractor.New(llm, slog.Default())
	val := validator.New(slog.Default())
	an := analyzer.New(snap, slog.Default())

	// NATS
	nats, err := notifier.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nats.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Postgres audit index (optional — files stay canonical without it)
	var idx *index.Index
	if cfg.DatabaseURL != "" {
		idx, err = index.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer idx.Close()
		slog.Info("audit index connected")
	} else {
		slog.Warn("DATABASE_URL not set — running without audit index")
	}

	// Processor — the main pipeline
	proc := processor.New(ext, val, store, nats, idx, cfg.NotifySubject, slog.Default())

	// Subscribe to completed-call events
	if err := nats.Subscribe(cfg.CallSubject, proc.HandleCallCompleted(ctx)); err != nil {
		slog.Error("failed to subscribe to call events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, store, an, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("postcall ready", "port", cfg.Port, "call_subject", cfg.CallSubject)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("postcall stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
