package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/urlmonitor/internal/config"
	"github.com/hamed0406/urlmonitor/internal/httpapi"
	"github.com/hamed0406/urlmonitor/internal/logging"
	"github.com/hamed0406/urlmonitor/internal/probe"
	"github.com/hamed0406/urlmonitor/internal/registry"
	"github.com/hamed0406/urlmonitor/internal/repo/open"
	"github.com/hamed0406/urlmonitor/internal/scheduler"
	"github.com/hamed0406/urlmonitor/internal/status"
	"github.com/hamed0406/urlmonitor/internal/urlcheck"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stderr: cfg.LogStderr})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("api_exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := open.Store(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
	}()

	reg := registry.New(store, urlcheck.HTTP{}, logger)
	if err := reg.Load(ctx); err != nil {
		return err
	}

	scheduled, onDemand := buildProbers(cfg)
	sched := scheduler.New(logger, reg, status.NewCache(), scheduled, scheduler.Options{
		ProbeTimeout:     cfg.ProbeTimeout,
		CheckConcurrency: cfg.CheckConcurrency,
		OnDemand:         onDemand,
	})

	// skipped targets are already logged one by one
	if n, rerr := sched.RestoreFromRegistry(ctx); rerr != nil {
		logger.Warn("restore_partial", zap.Int("started", n), zap.Error(rerr))
	}

	api := httpapi.NewServer(logger, sched, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RateRPM:        cfg.RateRPM,
		RateBurst:      cfg.RateBurst,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ProbeTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("api_shutdown_signal")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		err = multierr.Append(err, serr)
	}
	stopped := sched.StopAll()
	logger.Info("api_stopped", zap.Int("entries_stopped", stopped))
	return err
}

// buildProbers returns the prober used by scheduled entries and the one
// used for on-demand checks. Only the latter retries.
func buildProbers(cfg config.Config) (scheduled, onDemand probe.Prober) {
	scheduled = probe.NewHTTPProber(cfg.UserAgent)
	if cfg.DNSDiagnostics {
		scheduled = probe.NewDNSProber(scheduled)
	}
	onDemand = scheduled
	if cfg.RetryAttempts > 1 {
		onDemand = &probe.RetryProber{Inner: scheduled, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}
	return scheduled, onDemand
}
