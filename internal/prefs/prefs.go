// Package prefs persists the process-wide display preferences, such as the
// temperature unit, behind a small key/value collaborator.
package prefs

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// UnitKey is the preference key holding the temperature unit.
const UnitKey = "weather_temp_unit"

// Store persists string preferences under fixed keys. Get reports false when
// the key was never set.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// LoadUnit returns the stored temperature unit. A missing, unreadable or
// invalid value falls back to Celsius.
func LoadUnit(ctx context.Context, s Store, logger *zap.Logger) weather.TemperatureUnit {
	raw, ok, err := s.Get(ctx, UnitKey)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to load unit preference", zap.Error(err))
		}
		return weather.Celsius
	}
	if !ok {
		return weather.Celsius
	}
	unit, err := weather.ParseTemperatureUnit(raw)
	if err != nil {
		return weather.Celsius
	}
	return unit
}

// SaveUnit validates and stores the temperature unit.
func SaveUnit(ctx context.Context, s Store, raw string) (weather.TemperatureUnit, error) {
	unit, err := weather.ParseTemperatureUnit(raw)
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, UnitKey, string(unit)); err != nil {
		return "", fmt.Errorf("save unit preference: %w", err)
	}
	return unit, nil
}

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
