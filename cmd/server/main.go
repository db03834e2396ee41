package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"gomate/internal/app"
	"gomate/internal/cache"
	"gomate/internal/config"
	"gomate/internal/handler"
	"gomate/internal/logger"
	"gomate/internal/middleware"
	"gomate/internal/reachability"
	"gomate/internal/remote"
	"gomate/internal/repository"
	"gomate/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	log := logger.FromConfig(logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		Console:    cfg.Logging.Console,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before storage so we can instrument it).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Error("Failed to initialize New Relic", "error", err)
		} else {
			log.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	storage, err := app.OpenStorage(ctx, cfg, nrApp, log)
	if err != nil {
		log.Fatal("Failed to open storage", "backend", cfg.Storage.Backend, "error", err)
	}
	defer storage.Close()

	// Background workers stop with this context.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	server := wireServer(runCtx, storage.Store, nrApp, cfg, log)

	// Start server in goroutine.
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", "error", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("Server exited")
}

// wireServer wires all dependencies, starts the background workers and
// returns the HTTP server.
func wireServer(ctx context.Context, store repository.Store, nrApp *newrelic.Application, cfg *config.Config, log logger.Logger) *http.Server {
	// The offline cache and the trip ledger share one lock table so every
	// read-modify-write of a storage key is serialized.
	locks := repository.NewKeyMutex()

	// Initialize caches.
	volatile := cache.NewVolatile(cfg.Cache.VolatileTTL, cfg.Cache.SweepInterval, nil)
	offline := cache.NewOffline(store, locks, cfg.Cache.OfflineTTL, nil, log.With("component", "offline_cache"))

	// Connectivity.
	monitor := reachability.NewMonitor(log.With("component", "reachability"))
	if cfg.Reachability.Enabled {
		prober := reachability.NewProber(reachability.ProberConfig{
			Address:  cfg.Reachability.Address,
			Interval: cfg.Reachability.Interval,
			Timeout:  cfg.Reachability.Timeout,
		}, monitor, nil, log.With("component", "prober"))
		go prober.Run(ctx)
	}

	source := newSource(cfg.Remote, log)

	// Initialize services.
	preferenceService := service.NewPreferenceService(store, nil, log.With("component", "preferences"))
	scheduleService := service.NewScheduleService(source, volatile, offline, monitor, preferenceService,
		service.OrchestratorConfig{
			FetchTimeout:       cfg.Remote.Timeout,
			AllowStaleFallback: cfg.Cache.AllowStaleFallback,
		}, log.With("component", "schedule"))
	ledger := service.NewTripLedger(store, locks, nil, log.With("component", "trip_history"))
	bookingService := service.NewBookingService(scheduleService, ledger, nil, log.With("component", "booking"))
	storageService := service.NewStorageService(store, volatile, offline, log.With("component", "storage"))
	favoritesService := service.NewFavoritesService()

	monitor.AddListener(scheduleService.ResyncOnReconnect(ctx))

	if cfg.Cache.PruneInterval > 0 {
		go storageService.RunPruner(ctx, cfg.Cache.PruneInterval)
	}

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		ScheduleHandler:     handler.NewScheduleHandler(scheduleService),
		BookingHandler:      handler.NewBookingHandler(bookingService),
		HistoryHandler:      handler.NewHistoryHandler(ledger),
		PreferenceHandler:   handler.NewPreferenceHandler(preferenceService),
		ConnectivityHandler: handler.NewConnectivityHandler(monitor),
		StorageHandler:      handler.NewStorageHandler(storageService),
		FavoritesHandler:    handler.NewFavoritesHandler(favoritesService),
		IdempotencyCache:    middleware.NewIdempotencyCache(),
		NewRelicApp:         nrApp,
	})

	return app.NewServer(cfg.Server, router, log)
}

func newSource(cfg config.RemoteConfig, log logger.Logger) remote.Source {
	if cfg.Provider == config.ProviderHTTP {
		log.Info("Using HTTP schedule provider", "base_url", cfg.BaseURL)
		return remote.NewHTTP(remote.HTTPConfig{
			BaseURL:       cfg.BaseURL,
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
			APIKey:        cfg.APIKey,
		}, log.With("component", "remote"))
	}
	log.Info("Using mock schedule provider", "latency", cfg.MockLatency.String(), "failure_rate", cfg.FailureRate)
	return remote.NewMock(remote.MockConfig{
		Latency:     cfg.MockLatency,
		FailureRate: cfg.FailureRate,
	})
}
