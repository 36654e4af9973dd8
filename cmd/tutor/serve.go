package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/noventrax/tutor/internal/completion"
	"github.com/noventrax/tutor/internal/config"
	"github.com/noventrax/tutor/internal/feedback"
	"github.com/noventrax/tutor/internal/httpapi"
	"github.com/noventrax/tutor/internal/modes"
	"github.com/noventrax/tutor/internal/observability"
	"github.com/noventrax/tutor/internal/policy"
	"github.com/noventrax/tutor/internal/transcript"
	"github.com/noventrax/tutor/internal/tutor"
)

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// buildServer wires the stores, the completion gateway and the chat engine
// behind the HTTP API.
func buildServer(cfg config.Config, logger logrus.FieldLogger) (*httpapi.Server, error) {
	set, err := modes.Load(cfg.ModesFile)
	if err != nil {
		return nil, err
	}

	gateway, err := completion.New(completion.Config{
		Mode: cfg.ProviderMode,
		Settings: completion.Settings{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
		},
		Timeout: cfg.CompletionTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := gateway.Validate(); err != nil {
		// Reported per chat request; the service still starts.
		logger.WithError(err).Warn("completion provider incomplete")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	recorder := feedback.NewRecorder(logger)
	recorder.SetRecordHook(func(rec feedback.Record) {
		origin := "page"
		if rec.Source == "" {
			origin = "chat"
		}
		metrics.FeedbackRecords.WithLabelValues(origin).Inc()
	})

	engine, err := tutor.NewEngine(
		transcript.NewStore(tutor.BasePrompt, cfg.MemoryLimit),
		recorder,
		gateway,
		tutor.Options{
			Modes:   set,
			Guard:   policy.Guard{MaxLength: cfg.MaxMessageLength, SafetyFilter: cfg.SafetyFilter},
			Log:     logger,
			Metrics: metrics,
		},
	)
	if err != nil {
		return nil, err
	}
	return httpapi.New(cfg, engine, metrics, logger), nil
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	api, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":          cfg.BindAddr,
			"provider_mode": cfg.ProviderMode,
			"memory_limit":  cfg.MemoryLimit,
		}).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
	return nil
}
