package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fjellheim/advisor/internal/config"
	"github.com/fjellheim/advisor/internal/health"
	"github.com/fjellheim/advisor/internal/llm"
	"github.com/fjellheim/advisor/internal/metrics"
	"github.com/fjellheim/advisor/internal/retry"
	"github.com/fjellheim/advisor/internal/server"
	"github.com/fjellheim/advisor/internal/session"
	"github.com/fjellheim/advisor/internal/storage"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ADVISOR_ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("model", cfg.Model).
		Str("db_path", cfg.DBPath).
		Msg("starting advisor")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Metrics
	m := metrics.New()

	// Storage
	store, err := storage.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("storage", func(ctx context.Context) health.Status {
		if err := store.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// LLM provider + gateway
	provider := llm.NewAnthropicProvider(cfg.AnthropicAPIKey,
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
		llm.WithLogger(logger),
	)

	retryCfg := retry.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelay > 0 {
		retryCfg.BaseDelay = cfg.RetryBaseDelay
	}

	gateway := llm.NewGateway(provider, retryCfg, logger)
	checker.Register("gateway", func(ctx context.Context) health.Status {
		if provider.ModelID() == "" {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Conversation orchestrator, restored from persisted state
	sess, err := session.New(store, gateway, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to restore session state")
	}

	// HTTP API server
	srv := server.NewServer(server.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: server.AuthConfig{
			Mode:   cfg.AuthMode,
			APIKey: cfg.APIKey,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, sess, checker, m, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP API server error")
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("HTTP API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("advisor stopped")
}
