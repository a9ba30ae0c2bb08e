package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Refresher is the part of weather.Service the scheduler drives.
type Refresher interface {
	FetchAndStore(ctx context.Context, query string) error
}

// Scheduler periodically refreshes snapshots for tracked locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	queries   []string
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. Each tracked query is resolved on every run.
func New(queries []string, interval time.Duration, service Refresher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		queries:   queries,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.queries) == 0 {
		s.logger.Info("no tracked locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	if _, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Int("locations", len(s.queries)), zap.Int("every_minutes", minutes))
	return nil
}

// RunOnce refreshes every tracked location concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("running refresh job")

	var wg sync.WaitGroup
	for _, q := range s.queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.service.FetchAndStore(ctx, q); err != nil {
				s.logger.Warn("refresh failed", zap.String("query", q), zap.Error(err))
			}
		}(q)
	}
	wg.Wait()
	s.logger.Debug("refresh job completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

var _ Refresher = (*weather.Service)(nil)
