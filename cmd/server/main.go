package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certflow/internal/platform/config"
	"certflow/internal/platform/logger"
	"certflow/internal/platform/metrics"
)

// main loads configuration, wires the components and serves until SIGINT or
// SIGTERM. Business logic lives in the internal service packages.
func main() {
	configFile := flag.String("config", os.Getenv("CERTFLOW_CONFIG"), "path to an optional config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing certflow",
		"environment", cfg.Environment,
		"ledger_backend", cfg.Ledger.Backend,
		"content_backend", cfg.Content.Backend,
	)

	reg := metrics.NewRegistry()

	inf, err := openInfra(ctx, cfg, reg, log)
	if err != nil {
		return err
	}
	defer inf.Close()

	app, err := buildApp(ctx, cfg, inf, reg, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	handler, err := newRouter(cfg, app, reg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	go app.collectGauges(ctx, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
