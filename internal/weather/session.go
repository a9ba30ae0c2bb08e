package weather

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// Session serializes the searches of one client. Every search gets a
// monotonically increasing sequence number; a result is published only if no
// newer search was issued while it was in flight.
type Session struct {
	service *Service
	logger  *zap.Logger
	metrics *metrics.Recorder

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	latest *Snapshot
}

// NewSession creates a Session backed by service.
func NewSession(service *Service, logger *zap.Logger, rec *metrics.Recorder) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		service: service,
		logger:  logger.Named("session"),
		metrics: rec,
	}
}

// Search supersedes any in-flight search, then resolves query and builds a
// snapshot. It returns ErrSuperseded when a newer search was issued before
// this one settled; the published snapshot is left untouched in that case.
func (s *Session) Search(ctx context.Context, query string, sections []SectionKind) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	snap, err := s.service.Search(ctx, query, sections)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.metrics.IncSuperseded()
		s.logger.Debug("discarding superseded search",
			zap.Uint64("sequence", seq),
			zap.Uint64("latest", s.seq),
			zap.String("query", query),
		)
		return Snapshot{}, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return Snapshot{}, err
	}
	snap.Sequence = seq
	s.latest = &snap
	return snap, nil
}

// Latest returns the last published snapshot.
func (s *Session) Latest() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}

// Sessions hands out one Session per client id.
type Sessions struct {
	service *Service
	logger  *zap.Logger
	metrics *metrics.Recorder

	mu sync.Mutex
	m  map[string]*Session
}

// NewSessions creates an empty registry.
func NewSessions(service *Service, logger *zap.Logger, rec *metrics.Recorder) *Sessions {
	return &Sessions{
		service: service,
		logger:  logger,
		metrics: rec,
		m:       make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use.
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		s = NewSession(r.service, r.logger, r.metrics)
		r.m[id] = s
	}
	return s
}
