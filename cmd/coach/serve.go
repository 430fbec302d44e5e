package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/lokutor-ai/delivery-coach/internal/server"
	"github.com/lokutor-ai/delivery-coach/pkg/telemetry"
)

type serveCmd struct {
	Addr string `help:"Listen address, overrides SERVER_ADDR"`
}

func (c *serveCmd) Run(a *app) error {
	if c.Addr != "" {
		a.cfg.ServerAddr = c.Addr
	}
	log := a.log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{Coach: a.coach()}
	if deps.Coach.Enabled() {
		log.Info().Str("provider", a.cfg.FeedbackProvider).Msg("Feedback enabled")
	} else {
		log.Warn().Msg("FEEDBACK_PROVIDER not set, final reports carry metrics only")
	}

	if a.cfg.MetricsEnabled {
		provider, err := telemetry.InitProvider(ctx, "delivery-coach", version)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Metrics provider shutdown error")
			}
		}()

		rec, err := telemetry.NewRecorder(provider.MeterProvider)
		if err != nil {
			return err
		}
		deps.Telemetry = rec
		deps.Metrics = provider.Handler()
	}

	httpServer := server.NewHTTPServer(a.cfg, log, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server error")
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
