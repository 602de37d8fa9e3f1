// Package memory provides an in-process history repository for tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository"
)

// HistoryRepository keeps entries in insertion order under a mutex.
type HistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.SearchHistoryEntry
}

var _ repository.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates an empty in-memory repository.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// Create appends a copy of the entry.
func (r *HistoryRepository) Create(_ context.Context, e *domain.SearchHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, *e)
	return nil
}

// All returns a snapshot of every stored entry.
func (r *HistoryRepository) All() []domain.SearchHistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.entries)
}

// ListByUser returns the user's entries newest first.
func (r *HistoryRepository) ListByUser(_ context.Context, userID string, offset, limit int) ([]domain.SearchHistoryEntry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.ownedBy(userID)
	slices.SortFunc(owned, newestFirst)
	return window(owned, offset, limit), len(owned), nil
}

// RecentUnique keeps the latest entry per normalized query.
func (r *HistoryRepository) RecentUnique(_ context.Context, userID string, limit int) ([]domain.SearchHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.ownedBy(userID)
	slices.SortFunc(owned, newestFirst)

	seen := make(map[string]struct{}, len(owned))
	unique := make([]domain.SearchHistoryEntry, 0, limit)
	for _, e := range owned {
		if _, dup := seen[e.NormalizedQuery]; dup {
			continue
		}
		seen[e.NormalizedQuery] = struct{}{}
		unique = append(unique, e)
	}
	return window(unique, 0, limit), nil
}

// DeleteByUser removes every entry of the user.
func (r *HistoryRepository) DeleteByUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(e domain.SearchHistoryEntry) bool {
		return e.OwnedBy(userID)
	})
	return before - len(r.entries), nil
}

// DeleteByID removes the entry when it belongs to userID.
func (r *HistoryRepository) DeleteByID(_ context.Context, userID, id string) (domain.DeleteOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.entries, func(e domain.SearchHistoryEntry) bool { return e.ID == id })
	if i < 0 {
		return domain.DeleteOutcomeNotFound, nil
	}
	if !r.entries[i].OwnedBy(userID) {
		return domain.DeleteOutcomeForeign, nil
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return domain.DeleteOutcomeDeleted, nil
}

// PopularByPrefix groups successful searches whose key starts with prefix.
func (r *HistoryRepository) PopularByPrefix(_ context.Context, prefix string, limit int) ([]domain.PopularQuery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := r.group(func(e domain.SearchHistoryEntry) bool {
		return e.ItemsFound > 0 && strings.HasPrefix(e.NormalizedQuery, prefix)
	})

	out := make([]domain.PopularQuery, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.PopularQuery{Query: g.Query, NormalizedQuery: g.NormalizedQuery, Count: g.Count})
	}
	return window(out, 0, limit), nil
}

// Trending groups successful searches created at or after since.
func (r *HistoryRepository) Trending(_ context.Context, since time.Time, limit int) ([]domain.TrendingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := r.group(func(e domain.SearchHistoryEntry) bool {
		return e.ItemsFound > 0 && !e.CreatedAt.Before(since)
	})
	return window(groups, 0, limit), nil
}

// DeleteAnonymousBefore expires anonymous entries older than cutoff.
func (r *HistoryRepository) DeleteAnonymousBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(e domain.SearchHistoryEntry) bool {
		return e.IsAnonymous() && e.CreatedAt.Before(cutoff)
	})
	return before - len(r.entries), nil
}

func (r *HistoryRepository) ownedBy(userID string) []domain.SearchHistoryEntry {
	owned := make([]domain.SearchHistoryEntry, 0)
	for _, e := range r.entries {
		if e.OwnedBy(userID) {
			owned = append(owned, e)
		}
	}
	return owned
}

// group aggregates matching entries by normalized query, most searched first
// and then most recent first. The display text is the latest raw query.
func (r *HistoryRepository) group(match func(domain.SearchHistoryEntry) bool) []domain.TrendingEntry {
	byKey := make(map[string]*domain.TrendingEntry)
	for _, e := range r.entries {
		if !match(e) {
			continue
		}
		g, ok := byKey[e.NormalizedQuery]
		if !ok {
			g = &domain.TrendingEntry{NormalizedQuery: e.NormalizedQuery}
			byKey[e.NormalizedQuery] = g
		}
		g.Count++
		if !e.CreatedAt.Before(g.LastSearchedAt) {
			g.LastSearchedAt = e.CreatedAt
			g.Query = e.Query
		}
	}

	out := make([]domain.TrendingEntry, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b domain.TrendingEntry) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			b.LastSearchedAt.Compare(a.LastSearchedAt),
			cmp.Compare(a.NormalizedQuery, b.NormalizedQuery),
		)
	})
	return out
}

func newestFirst(a, b domain.SearchHistoryEntry) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
}

func window[T any](s []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s) {
		offset = len(s)
	}
	end := len(s)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return s[offset:end]
}
