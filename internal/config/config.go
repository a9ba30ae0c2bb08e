package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenWeather  = "openweathermap"
	ProviderWeatherstack = "weatherstack"

	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Endpoints overrides provider base URLs; empty values use the defaults.
type Endpoints struct {
	Geocoding       string
	GoogleGeocoding string
	OpenWeather     string
	Weatherstack    string
	Forecast        string
	Archive         string
	Marine          string
	AirQuality      string
	Flood           string
}

type AppConfig struct {
	Port  string
	Debug bool

	OpenWeatherAPIKey     string
	WeatherstackAPIKey    string
	GoogleGeocoderAPIKey  string
	CurrentProvider       string
	Endpoints             Endpoints
	HTTPTimeout           time.Duration
	ProviderTimeout       time.Duration
	CircuitBreakerEnabled bool

	HourlyWindow     int
	DailyWindow      int
	MarineWindow     int
	AirQualityWindow int
	FloodWindow      int
	HistoricalDays   int

	// Scheduler.
	TrackedLocations []string
	FetchInterval    time.Duration

	// Snapshot history.
	StoreBackend    string
	StorePath       string
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	PrefsBackend string
	PrefsPath    string
}

// Load reads configuration from the environment (and .env, when present)
// with sensible defaults. Malformed values are errors.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                 getenvDefault("PORT", "8080"),
		OpenWeatherAPIKey:    os.Getenv("OPENWEATHER_API_KEY"),
		WeatherstackAPIKey:   os.Getenv("WEATHERSTACK_API_KEY"),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		CurrentProvider:      strings.ToLower(getenvDefault("CURRENT_PROVIDER", ProviderOpenWeather)),
		Endpoints: Endpoints{
			Geocoding:       os.Getenv("GEOCODING_URL"),
			GoogleGeocoding: os.Getenv("GOOGLE_GEOCODER_URL"),
			OpenWeather:     os.Getenv("OPENWEATHER_URL"),
			Weatherstack:    os.Getenv("WEATHERSTACK_URL"),
			Forecast:        os.Getenv("FORECAST_URL"),
			Archive:         os.Getenv("ARCHIVE_URL"),
			Marine:          os.Getenv("MARINE_URL"),
			AirQuality:      os.Getenv("AIR_QUALITY_URL"),
			Flood:           os.Getenv("FLOOD_URL"),
		},
		StoreBackend:     strings.ToLower(getenvDefault("STORE_BACKEND", BackendMemory)),
		StorePath:        getenvDefault("STORE_PATH", "./data/snapshots"),
		PrefsBackend:     strings.ToLower(getenvDefault("PREFS_BACKEND", BackendMemory)),
		PrefsPath:        getenvDefault("PREFS_PATH", "./data/prefs.db"),
		TrackedLocations: splitList(os.Getenv("TRACKED_LOCATIONS")),
	}

	var err error
	if cfg.Debug, err = getenvBool("DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.CircuitBreakerEnabled, err = getenvBool("CIRCUIT_BREAKER", false); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"HOURLY_WINDOW", 24, &cfg.HourlyWindow},
		{"DAILY_WINDOW", 7, &cfg.DailyWindow},
		{"MARINE_WINDOW", 24, &cfg.MarineWindow},
		{"AIR_QUALITY_WINDOW", 24, &cfg.AirQualityWindow},
		{"FLOOD_WINDOW", 7, &cfg.FloodWindow},
		{"HISTORICAL_DAYS", 7, &cfg.HistoricalDays},
		{"STORE_MAX_HISTORY", 96, &cfg.StoreMaxHistory}, // roughly 24h at 15-minute intervals
	}
	for _, v := range ints {
		if *v.dst, err = getenvInt(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.CurrentProvider {
	case ProviderOpenWeather, ProviderWeatherstack:
	default:
		return fmt.Errorf("invalid CURRENT_PROVIDER %q", c.CurrentProvider)
	}
	switch c.StoreBackend {
	case BackendMemory, BackendBadger:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.PrefsBackend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("invalid PREFS_BACKEND %q", c.PrefsBackend)
	}
	if c.HourlyWindow <= 0 || c.DailyWindow <= 0 || c.MarineWindow <= 0 ||
		c.AirQualityWindow <= 0 || c.FloodWindow <= 0 || c.HistoricalDays <= 0 {
		return fmt.Errorf("window sizes must be positive")
	}
	return nil
}

// CurrentAPIKey returns the key of the selected current-conditions provider.
func (c *AppConfig) CurrentAPIKey() string {
	if c.CurrentProvider == ProviderWeatherstack {
		return c.WeatherstackAPIKey
	}
	return c.OpenWeatherAPIKey
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
