package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.ProviderTimeout != 10*time.Second || cfg.CircuitBreakerEnabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.HourlyWindow != 24 || cfg.DailyWindow != 7 || cfg.FloodWindow != 7 {
		t.Fatalf("unexpected window defaults %+v", cfg)
	}
	if cfg.StoreBackend != BackendMemory || cfg.PrefsBackend != BackendMemory {
		t.Fatalf("expected in-memory backends by default")
	}
}

func TestTrackedLocationsAndOverrides(t *testing.T) {
	t.Setenv("TRACKED_LOCATIONS", "London; Paris ;;New York, US")
	t.Setenv("CURRENT_PROVIDER", "Weatherstack")
	t.Setenv("WEATHERSTACK_API_KEY", "ws")
	t.Setenv("CIRCUIT_BREAKER", "true")
	t.Setenv("FETCH_INTERVAL", "5m")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"London", "Paris", "New York, US"}
	if len(cfg.TrackedLocations) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.TrackedLocations)
	}
	for i := range want {
		if cfg.TrackedLocations[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.TrackedLocations)
		}
	}
	if cfg.CurrentAPIKey() != "ws" || !cfg.CircuitBreakerEnabled || cfg.FetchInterval != 5*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PROVIDER_TIMEOUT": "soon",
		"HOURLY_WINDOW":    "lots",
		"DEBUG":            "maybe",
		"STORE_BACKEND":    "redis",
		"CURRENT_PROVIDER": "weatherapi",
		"DAILY_WINDOW":     "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := fromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
