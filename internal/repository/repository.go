package repository

import (
	"context"
	"time"

	"github.com/utafrali/discovery/internal/domain"
)

// HistoryRepository persists search history entries.
type HistoryRepository interface {
	// Create appends an entry.
	Create(ctx context.Context, entry *domain.SearchHistoryEntry) error

	// ListByUser returns one page of the user's entries, newest first, and
	// the user's total entry count.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.SearchHistoryEntry, int, error)

	// RecentUnique returns the user's latest entry per normalized query,
	// newest first.
	RecentUnique(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryEntry, error)

	// DeleteByUser removes every entry of the user and returns the count.
	DeleteByUser(ctx context.Context, userID string) (int, error)

	// DeleteByID removes the entry only when it belongs to userID.
	DeleteByID(ctx context.Context, userID, id string) (domain.DeleteOutcome, error)

	// PopularByPrefix groups entries that found items and whose normalized
	// query starts with prefix, most searched first.
	PopularByPrefix(ctx context.Context, prefix string, limit int) ([]domain.PopularQuery, error)

	// Trending groups entries created at or after since that found items,
	// most searched first, ties broken by the most recent search.
	Trending(ctx context.Context, since time.Time, limit int) ([]domain.TrendingEntry, error)

	// DeleteAnonymousBefore removes anonymous entries older than cutoff and
	// returns the count.
	DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int, error)
}
