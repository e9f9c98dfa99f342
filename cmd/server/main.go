package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"certifier/internal/platform/config"
	"certifier/internal/platform/logger"
)

// main wires dependencies, serves HTTP and runs the orphan reclaimer until
// SIGINT or SIGTERM. Business logic lives in internal/revocation.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("certifier stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("certifier stopped")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	log.Info("initializing certifier",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"store_backend", cfg.Store.Backend,
		"ledger_backend", cfg.Ledger.Backend,
		"audit_sink", app.auditSink,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(app.reclaimer.Start(gctx))
	})
	if app.redis != nil {
		g.Go(func() error {
			return ignoreCanceled(app.redis.ReportPoolStats(gctx, 15*time.Second))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
