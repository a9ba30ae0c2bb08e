package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxSearchResults caps geocoding candidates per query.
const MaxSearchResults = 5

// Service resolves locations, builds snapshots and keeps history for tracked
// locations.
type Service struct {
	geocoder   Geocoder
	aggregator *Aggregator
	store      Store
	logger     *zap.Logger
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, aggregator *Aggregator, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		geocoder:   geocoder,
		aggregator: aggregator,
		store:      store,
		logger:     logger.Named("service"),
	}
}

// SearchLocations returns up to limit candidates for query, best first.
func (s *Service) SearchLocations(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	locs, err := s.geocoder.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(locs) > limit {
		locs = locs[:limit]
	}
	return locs, nil
}

// Resolve returns the top-ranked location for query. It fails with
// ErrNotFound when the geocoder has no match.
func (s *Service) Resolve(ctx context.Context, query string) (Location, error) {
	locs, err := s.SearchLocations(ctx, query, MaxSearchResults)
	if err != nil {
		return Location{}, err
	}
	if len(locs) == 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, strings.TrimSpace(query))
	}
	return locs[0], nil
}

// BuildSnapshot aggregates the requested sections for loc.
func (s *Service) BuildSnapshot(ctx context.Context, loc Location, sections []SectionKind) Snapshot {
	return s.aggregator.BuildSnapshot(ctx, loc, sections)
}

// Search resolves query and builds a snapshot for it. Resolution failures
// propagate; section failures do not.
func (s *Service) Search(ctx context.Context, query string, sections []SectionKind) (Snapshot, error) {
	loc, err := s.Resolve(ctx, query)
	if err != nil {
		return Snapshot{}, err
	}
	return s.BuildSnapshot(ctx, loc, sections), nil
}

// FetchAndStore refreshes a tracked location and stores the snapshot. A
// snapshot with every section absent is not stored so the last good one
// survives.
func (s *Service) FetchAndStore(ctx context.Context, query string) error {
	snap, err := s.Search(ctx, query, DefaultSections)
	if err != nil {
		return err
	}
	if len(snap.Absent) == len(DefaultSections) {
		s.logger.Warn("no section succeeded; keeping last good snapshot",
			zap.String("query", query),
			zap.String("location", snap.Location.Key()),
		)
		return nil
	}
	if err := s.store.SaveSnapshot(snap.Location, snap); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", snap.Location.Key(), err)
	}
	s.logger.Debug("stored snapshot",
		zap.String("query", query),
		zap.String("id", snap.ID.String()),
		zap.Int("absent", len(snap.Absent)),
	)
	return nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Snapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Snapshot, error) {
	return s.store.GetRange(loc, from, to)
}
