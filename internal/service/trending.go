package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository"
)

const (
	DefaultTrendingLimit = 10
	MaxTrendingLimit     = 20
	DefaultTrendingDays  = 7
	MaxTrendingDays      = 30
)

// TrendingCache caches computed leaderboards per (limit, days) window.
type TrendingCache interface {
	Get(ctx context.Context, limit, days int) ([]domain.TrendingEntry, bool, error)
	Set(ctx context.Context, limit, days int, entries []domain.TrendingEntry) error
}

// TrendingService computes the trending leaderboard from search history.
type TrendingService struct {
	history repository.HistoryRepository
	cache   TrendingCache
	logger  *slog.Logger
	now     func() time.Time
}

// NewTrendingService creates a new trending service. cache may be nil.
func NewTrendingService(history repository.HistoryRepository, cache TrendingCache, logger *slog.Logger) *TrendingService {
	return &TrendingService{
		history: history,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// ClampTrendingWindow applies defaults and bounds to limit and days.
func ClampTrendingWindow(limit, days int) (int, int) {
	if limit < 1 {
		limit = DefaultTrendingLimit
	}
	if days < 1 {
		days = DefaultTrendingDays
	}
	return min(limit, MaxTrendingLimit), min(days, MaxTrendingDays)
}

// Trending returns the most searched queries of the last days that found
// items. Cache failures are logged and bypassed.
func (s *TrendingService) Trending(ctx context.Context, limit, days int) ([]domain.TrendingEntry, error) {
	limit, days = ClampTrendingWindow(limit, days)

	if s.cache != nil {
		entries, hit, err := s.cache.Get(ctx, limit, days)
		if err != nil {
			s.logger.WarnContext(ctx, "trending cache read failed", slog.String("error", err.Error()))
		} else if hit {
			return entries, nil
		}
	}

	since := s.now().UTC().AddDate(0, 0, -days)

	start := time.Now()
	entries, err := s.history.Trending(ctx, since, limit)
	observeLookup("trending", start)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	if entries == nil {
		entries = []domain.TrendingEntry{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, days, entries); err != nil {
			s.logger.WarnContext(ctx, "trending cache write failed", slog.String("error", err.Error()))
		}
	}
	return entries, nil
}
