package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

const serviceName = "weather-dashboard"

type snapshotStore interface {
	weather.Store
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("weather-dashboard stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run wires the application and blocks until SIGINT/SIGTERM. Every resource
// opened here is closed before it returns.
func run(cfg *config.AppConfig, logger *zap.Logger) error {
	rec := metrics.New()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	breaker := providers.DefaultBreakerConfig()
	breaker.Enabled = cfg.CircuitBreakerEnabled
	provCfg := providers.HTTPClientConfig{
		Client:  providers.NewRestyClient(httpClient, logger.Named("http")),
		Breaker: breaker,
		Metrics: rec,
		Logger:  logger,
	}

	var geocoder weather.Geocoder = providers.NewOpenMeteoGeocoder(cfg.Endpoints.Geocoding, provCfg)
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.Endpoints.GoogleGeocoding, cfg.GoogleGeocoderAPIKey, provCfg)
	}

	var current weather.CurrentProvider
	switch cfg.CurrentProvider {
	case config.ProviderWeatherstack:
		current = providers.NewWeatherstackProvider(cfg.Endpoints.Weatherstack, cfg.WeatherstackAPIKey, provCfg)
	default:
		current = providers.NewOpenWeatherProvider(cfg.Endpoints.OpenWeather, cfg.OpenWeatherAPIKey, provCfg)
	}
	if cfg.CurrentAPIKey() == "" {
		logger.Warn("no API key for current conditions; the section will be absent",
			zap.String("provider", cfg.CurrentProvider))
	}

	aggregator := weather.NewAggregator(weather.Providers{
		Current:    current,
		Forecast:   providers.NewOpenMeteoProvider(cfg.Endpoints.Forecast, provCfg),
		Archive:    providers.NewOpenMeteoArchiveProvider(cfg.Endpoints.Archive, provCfg),
		Marine:     providers.NewMarineProvider(cfg.Endpoints.Marine, provCfg),
		AirQuality: providers.NewAirQualityProvider(cfg.Endpoints.AirQuality, provCfg),
		Flood:      providers.NewFloodProvider(cfg.Endpoints.Flood, provCfg),
	}, weather.Windows{
		Hourly:         cfg.HourlyWindow,
		Daily:          cfg.DailyWindow,
		Marine:         cfg.MarineWindow,
		AirQuality:     cfg.AirQualityWindow,
		Flood:          cfg.FloodWindow,
		HistoricalDays: cfg.HistoricalDays,
	}, cfg.ProviderTimeout, logger, rec)

	snapshots, err := openSnapshotStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer closeWithLog(logger, "snapshot store", snapshots)

	preferences, err := openPrefsStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	defer closeWithLog(logger, "preference store", preferences)

	// Core service orchestrating geocoding, aggregation and history.
	service := weather.NewService(geocoder, aggregator, snapshots, logger)

	// Scheduler that periodically refreshes tracked locations.
	sched := scheduler.New(cfg.TrackedLocations, cfg.FetchInterval, service, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(serviceName, logger)
	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Service:  service,
		Sessions: weather.NewSessions(service, logger, rec),
		Prefs:    preferences,
		Metrics:  rec,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server with graceful shutdown
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	return nil
}

func closeWithLog(logger *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+name, zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openSnapshotStore(cfg *config.AppConfig, logger *zap.Logger) (snapshotStore, error) {
	if cfg.StoreBackend == config.BackendBadger {
		return store.NewBadgerStore(store.BadgerConfig{
			Path:       cfg.StorePath,
			MaxHistory: cfg.StoreMaxHistory,
			MaxAge:     cfg.StoreMaxAge,
		}, logger)
	}
	return store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge), nil
}

func openPrefsStore(cfg *config.AppConfig, logger *zap.Logger) (prefs.Store, error) {
	if cfg.PrefsBackend == config.BackendSQLite {
		return prefs.NewSQLiteStore(cfg.PrefsPath, logger)
	}
	return prefs.NewMemoryStore(), nil
}
