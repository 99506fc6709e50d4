package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pedra/atlas/internal/adapters/http/api"
	"github.com/pedra/atlas/internal/adapters/http/swagger"
	"github.com/pedra/atlas/internal/adapters/providers/eventbrite"
	"github.com/pedra/atlas/internal/adapters/providers/google"
	"github.com/pedra/atlas/internal/adapters/repository"
	app "github.com/pedra/atlas/internal/app"
	"github.com/pedra/atlas/internal/config"
	"github.com/pedra/atlas/pkg/logger"
	"github.com/pedra/atlas/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error(ctx, "failed to connect to store", logger.Error(err))
		return
	}
	defer store.Close()

	places, err := google.New(cfg.GoogleAPIKey,
		google.WithBaseURL(cfg.GoogleBaseURL),
		google.WithTimeout(cfg.ProviderTimeout),
		google.WithRateLimit(cfg.ProviderRateLimit, cfg.ProviderBurst),
	)
	if err != nil {
		log.Error(ctx, "failed to build places client", logger.Error(err))
		return
	}

	events, err := eventbrite.New(cfg.EventbriteToken,
		eventbrite.WithBaseURL(cfg.EventbriteBaseURL),
		eventbrite.WithTimeout(cfg.ProviderTimeout),
		eventbrite.WithRateLimit(cfg.ProviderRateLimit, cfg.ProviderBurst),
	)
	if err != nil {
		log.Error(ctx, "failed to build events client", logger.Error(err))
		return
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithLocationStore(store),
		app.WithEventStore(store),
		app.WithPlacesProvider(places),
		app.WithEventsProvider(events),
		app.WithQueueSize(cfg.QueueSize),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDefaultRadii(cfg.NearbyRadius, cfg.TextRadius, cfg.EventRadius),
		app.WithEventsCacheWindow(cfg.EventsCacheWindow),
		app.WithMaxPhotoWidth(cfg.MaxPhotoWidth),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	apiServer := api.NewServer(svc, store, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
