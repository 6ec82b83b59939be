package viewsession

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper evicts expired sessions on a fixed interval.
type Sweeper struct {
	store    *Store
	interval time.Duration
	ttl      atomic.Int64
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewSweeper creates a sweeper. Intervals below one second are rounded up.
func NewSweeper(log *slog.Logger, store *Store, ttl, interval time.Duration) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: interval,
		logger:   log.With(slog.String("service", "view_sweeper")),
	}
	s.ttl.Store(int64(ttl))
	return s
}

// SetTTL changes the session lifetime used by later sweeps.
func (s *Sweeper) SetTTL(ttl time.Duration) {
	s.ttl.Store(int64(ttl))
}

// TTL returns the current session lifetime.
func (s *Sweeper) TTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

// RunOnce sweeps immediately and returns the number of evicted sessions.
func (s *Sweeper) RunOnce() int {
	removed := s.store.Sweep(s.TTL())
	if removed > 0 {
		s.logger.Debug("evicted view sessions", slog.Int("count", removed), slog.Int("live", s.store.Len()))
	}
	return removed
}

// Start schedules the sweep. Calling Start twice is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}
	c := cron.New()
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.RunOnce() }))
	c.Start()
	s.cron = c
}

// Stop unschedules the sweep and waits for a running pass to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
