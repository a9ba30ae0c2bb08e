package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// SnapshotHistory holds a time-ordered list of snapshots for a location.
type SnapshotHistory struct {
	Snapshots []weather.Snapshot
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*SnapshotHistory

	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.Snapshot) error {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	// Keep the history ordered by generation time even if saves race.
	i := len(history.Snapshots)
	for i > 0 && history.Snapshots[i-1].GeneratedAt.After(snapshot.GeneratedAt) {
		i--
	}
	history.Snapshots = append(history.Snapshots, weather.Snapshot{})
	copy(history.Snapshots[i+1:], history.Snapshots[i:])
	history.Snapshots[i] = snapshot

	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots); i++ {
			if !history.Snapshots[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}
	return nil
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Snapshot, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return weather.Snapshot{}, fmt.Errorf("%w: no snapshot for %s", weather.ErrNotFound, key)
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Snapshot, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return nil, fmt.Errorf("%w: no snapshot for %s", weather.ErrNotFound, key)
	}

	var result []weather.Snapshot
	for _, snap := range history.Snapshots {
		if !snap.GeneratedAt.Before(from) && !snap.GeneratedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no snapshot for %s in range", weather.ErrNotFound, key)
	}
	return result, nil
}

// Close is a no-op; it lets MemoryStore stand in for a persistent store.
func (s *MemoryStore) Close() error {
	return nil
}
