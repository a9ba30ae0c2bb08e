package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// Providers bundles the clients used by the Aggregator. A nil provider leaves
// its sections absent.
type Providers struct {
	Current    CurrentProvider
	Forecast   ForecastProvider
	Archive    ForecastProvider
	Marine     SeriesProvider
	AirQuality SeriesProvider
	Flood      SeriesProvider
}

// Windows sizes the forward windows kept per section.
type Windows struct {
	Hourly         int
	Daily          int
	Marine         int
	AirQuality     int
	Flood          int
	HistoricalDays int
}

// DefaultWindows mirrors what the dashboard displays.
func DefaultWindows() Windows {
	return Windows{
		Hourly:         24,
		Daily:          7,
		Marine:         24,
		AirQuality:     24,
		Flood:          7,
		HistoricalDays: 7,
	}
}

// Aggregator fans out one fetch per requested section and merges the results.
type Aggregator struct {
	providers Providers
	windows   Windows
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Recorder

	// now is overridable in tests.
	now func() time.Time
}

// NewAggregator creates an Aggregator. timeout bounds every provider call.
func NewAggregator(p Providers, windows Windows, timeout time.Duration, logger *zap.Logger, rec *metrics.Recorder) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		providers: p,
		windows:   windows,
		timeout:   timeout,
		logger:    logger.Named("aggregator"),
		metrics:   rec,
		now:       time.Now,
	}
}

type sectionResult struct {
	current *CurrentConditions
	bundle  *Bundle
	err     error
}

// BuildSnapshot fetches every requested section concurrently and returns once
// all of them have settled. A failing section is recorded in Absent and never
// affects the others.
func (a *Aggregator) BuildSnapshot(ctx context.Context, loc Location, sections []SectionKind) Snapshot {
	kinds := dedupe(sections)
	now := a.now()

	results := make([]sectionResult, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind SectionKind) {
			defer wg.Done()

			sctx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}
			results[i] = a.fetchSection(sctx, kind, loc, now)
		}(i, kind)
	}
	wg.Wait()

	snap := Snapshot{
		ID:          uuid.New(),
		GeneratedAt: now.UTC(),
		Location:    loc,
	}
	for i, kind := range kinds {
		r := results[i]
		if r.err != nil {
			a.logger.Warn("section unavailable",
				zap.String("section", string(kind)),
				zap.String("location", loc.Key()),
				zap.Error(r.err),
			)
			if snap.Absent == nil {
				snap.Absent = make(map[SectionKind]string)
			}
			snap.Absent[kind] = r.err.Error()
			a.metrics.ObserveSection(string(kind), string(StateAbsent))
			continue
		}
		snap.set(kind, r)
		a.metrics.ObserveSection(string(kind), string(snap.State(kind)))
	}
	return snap
}

func (s *Snapshot) set(kind SectionKind, r sectionResult) {
	switch kind {
	case SectionCurrent:
		s.Current = r.current
	case SectionHourly:
		s.Hourly = r.bundle
	case SectionDaily:
		s.Daily = r.bundle
	case SectionMarine:
		s.Marine = r.bundle
	case SectionAirQuality:
		s.AirQuality = r.bundle
	case SectionFlood:
		s.Flood = r.bundle
	case SectionHistorical:
		s.Historical = r.bundle
	}
}

func (a *Aggregator) fetchSection(ctx context.Context, kind SectionKind, loc Location, now time.Time) sectionResult {
	// Daily series are stamped at local midnight; looking back one day keeps
	// today's sample at the head of the window.
	dayRef := now.Add(-24 * time.Hour)

	switch kind {
	case SectionCurrent:
		if a.providers.Current == nil {
			return missing(kind)
		}
		cur, err := a.providers.Current.FetchCurrent(ctx, loc)
		if err != nil {
			return sectionResult{err: err}
		}
		return sectionResult{current: &cur}

	case SectionHourly, SectionDaily:
		if a.providers.Forecast == nil {
			return missing(kind)
		}
		q := ForecastQuery{Location: loc}
		if kind == SectionHourly {
			q.Hourly = HourlyVariables
		} else {
			q.Daily = DailyVariables
		}
		fc, err := a.providers.Forecast.FetchForecast(ctx, q)
		if err != nil {
			return sectionResult{err: err}
		}
		if kind == SectionHourly {
			return aligned(fc.Hourly, now, a.windows.Hourly, kind)
		}
		return aligned(fc.Daily, dayRef, a.windows.Daily, kind)

	case SectionHistorical:
		if a.providers.Archive == nil {
			return missing(kind)
		}
		end := now.UTC()
		fc, err := a.providers.Archive.FetchForecast(ctx, ForecastQuery{
			Location: loc,
			Daily:    HistoricalVariables,
			Start:    end.AddDate(0, 0, -a.windows.HistoricalDays),
			End:      end,
		})
		if err != nil {
			return sectionResult{err: err}
		}
		if fc.Daily == nil {
			return sectionResult{err: fmt.Errorf("%w: archive response without daily block", ErrMalformedResponse)}
		}
		return sectionResult{bundle: fc.Daily}

	case SectionMarine:
		return a.series(ctx, a.providers.Marine, kind, loc, now, a.windows.Marine)
	case SectionAirQuality:
		return a.series(ctx, a.providers.AirQuality, kind, loc, now, a.windows.AirQuality)
	case SectionFlood:
		return a.series(ctx, a.providers.Flood, kind, loc, dayRef, a.windows.Flood)
	}
	return sectionResult{err: fmt.Errorf("%w: unknown section %q", ErrInvalidQuery, kind)}
}

func (a *Aggregator) series(ctx context.Context, p SeriesProvider, kind SectionKind, loc Location, ref time.Time, window int) sectionResult {
	if p == nil {
		return missing(kind)
	}
	b, err := p.FetchSeries(ctx, loc)
	if err != nil {
		return sectionResult{err: err}
	}
	return aligned(b, ref, window, kind)
}

func aligned(b *Bundle, ref time.Time, window int, kind SectionKind) sectionResult {
	if b == nil {
		return sectionResult{err: fmt.Errorf("%w: %s block missing", ErrMalformedResponse, kind)}
	}
	return sectionResult{bundle: b.AlignForward(ref, window)}
}

func missing(kind SectionKind) sectionResult {
	return sectionResult{err: fmt.Errorf("%w: %s", ErrProviderNotConfigured, kind)}
}

func dedupe(sections []SectionKind) []SectionKind {
	seen := make(map[SectionKind]bool, len(sections))
	out := make([]SectionKind, 0, len(sections))
	for _, k := range sections {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
