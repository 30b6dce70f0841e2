// Package housekeeping holds the maintenance jobs that run beside ingestion:
// the retention sweep and the cache keep-alive ping.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetention is how long imported articles are kept.
const DefaultRetention = 28 * 24 * time.Hour

// ExpiredDeleter is the storage the sweeper needs. *database.DB satisfies it.
type ExpiredDeleter interface {
	DeleteExpiredImported(cutoff time.Time) (int64, error)
}

// Sweeper deletes imported articles published before now - retention.
// Curated articles are never touched.
type Sweeper struct {
	store     ExpiredDeleter
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// NewSweeper creates a sweeper. A non-positive retention uses the default.
func NewSweeper(store ExpiredDeleter, retention time.Duration, log *slog.Logger) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{store: store, retention: retention, now: time.Now, log: log}
}

// Sweep deletes expired articles and returns how many went.
func (s *Sweeper) Sweep() (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.store.DeleteExpiredImported(cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting articles before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}

// Run sweeps and reports the outcome as a summary line.
func (s *Sweeper) Run() string {
	n, err := s.Sweep()
	if err != nil {
		s.log.Error("sweep failed", "error", err)
		return fmt.Sprintf("Error deleting expired articles: %v", err)
	}
	s.log.Info("expired articles deleted", "count", n, "retention", s.retention)
	return fmt.Sprintf("%d expired articles deleted.", n)
}

// Pingable is a cache backend that can answer a no-op round trip.
type Pingable interface {
	Ping(ctx context.Context) error
}

// Pinger keeps a managed cache instance from being reclaimed while idle.
type Pinger struct {
	backend Pingable
	timeout time.Duration
	log     *slog.Logger
}

// NewPinger creates a pinger; each ping is bounded by timeout.
func NewPinger(backend Pingable, timeout time.Duration, log *slog.Logger) *Pinger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Pinger{backend: backend, timeout: timeout, log: log}
}

// Run pings the backend. Failures are logged, never returned.
func (p *Pinger) Run(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.backend.Ping(ctx); err != nil {
		p.log.Error("cache heartbeat failed", "error", err)
		return fmt.Sprintf("Cache heartbeat failed: %v", err)
	}
	p.log.Info("cache heartbeat ok")
	return "Cache heartbeat ok."
}
