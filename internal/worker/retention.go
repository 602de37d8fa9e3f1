// Package worker runs the discovery service's background jobs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var retentionDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "discovery_retention_deleted_total",
	Help: "Anonymous search history entries removed by the retention sweep",
})

// AnonymousExpirer deletes anonymous history entries created before cutoff.
type AnonymousExpirer interface {
	DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionSweeper periodically removes anonymous history entries older
// than the retention window. Identified entries are never touched. Each
// sweep is a single idempotent delete, so overlapping sweeps or concurrent
// traffic cannot corrupt anything.
type RetentionSweeper struct {
	repo      AnonymousExpirer
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewRetentionSweeper creates a sweeper. It does nothing until Run.
func NewRetentionSweeper(repo AnonymousExpirer, retention, interval time.Duration, logger *slog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *RetentionSweeper) Run(ctx context.Context) {
	s.logger.Info("retention sweeper started",
		slog.Duration("retention", s.retention),
		slog.Duration("interval", s.interval),
	)

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

// Sweep deletes every anonymous entry created before now minus the
// retention window and returns how many were removed.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.repo.DeleteAnonymousBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep anonymous history: %w", err)
	}
	retentionDeletedTotal.Add(float64(n))
	return n, nil
}

func (s *RetentionSweeper) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("retention sweep error", slog.String("error", err.Error()))
		}
		return
	}
	if n > 0 {
		s.logger.Info("expired anonymous search history", slog.Int("deleted", n))
	}
}
