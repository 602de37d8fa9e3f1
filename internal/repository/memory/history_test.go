package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/discovery/internal/domain"
)

var now = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

func add(t *testing.T, r *HistoryRepository, actor, query string, itemsFound int, age time.Duration) *domain.SearchHistoryEntry {
	t.Helper()
	e := domain.NewHistoryEntry(actor, query, domain.KindAll, domain.Filters{}, itemsFound, 0, domain.ClientInfo{})
	e.CreatedAt = now.Add(-age)
	require.NoError(t, r.Create(context.Background(), e))
	return e
}

func TestHistoryRepository_ListByUser(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "u1", "old", 1, 3*time.Hour)
	newest := add(t, r, "u1", "new", 1, time.Hour)
	add(t, r, "u2", "other", 1, 0)
	add(t, r, "", "anon", 1, 0)

	entries, total, err := r.ListByUser(context.Background(), "u1", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 1)
	assert.Equal(t, newest.ID, entries[0].ID)

	entries, total, err = r.ListByUser(context.Background(), "u1", -20, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, entries, 2)
}

func TestHistoryRepository_RecentUnique(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "u1", "cafe", 1, 3*time.Hour)
	add(t, r, "u1", "Laptop", 1, 2*time.Hour)
	latest := add(t, r, "u1", "Café", 0, time.Hour)

	entries, err := r.RecentUnique(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, latest.ID, entries[0].ID)
	assert.Equal(t, "Laptop", entries[1].Query)
}

func TestHistoryRepository_DeleteByID_ForeignKeepsEntry(t *testing.T) {
	ctx := context.Background()
	r := NewHistoryRepository()
	e := add(t, r, "owner", "phone", 1, 0)

	outcome, err := r.DeleteByID(ctx, "intruder", e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteOutcomeForeign, outcome)
	assert.Len(t, r.All(), 1)

	outcome, err = r.DeleteByID(ctx, "owner", "missing")
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteOutcomeNotFound, outcome)

	outcome, err = r.DeleteByID(ctx, "owner", e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteOutcomeDeleted, outcome)
	assert.Empty(t, r.All())
}

func TestHistoryRepository_DeleteByUser(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "u1", "a", 1, 0)
	add(t, r, "u1", "b", 1, 0)
	add(t, r, "u2", "c", 1, 0)

	n, err := r.DeleteByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, r.All(), 1)
}

func TestHistoryRepository_Trending_WindowAndItemsFound(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "", "laptop", 3, time.Hour)
	add(t, r, "u1", "Laptop", 1, 30*time.Minute)
	add(t, r, "", "phone", 2, 2*time.Hour)
	add(t, r, "", "phone", 2, 10*24*time.Hour) // outside the window
	add(t, r, "", "zzz", 0, time.Minute)       // found nothing

	out, err := r.Trending(context.Background(), now.Add(-7*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.TrendingEntry{
		Query: "Laptop", NormalizedQuery: "laptop", Count: 2, LastSearchedAt: now.Add(-30 * time.Minute),
	}, out[0])
	assert.Equal(t, "phone", out[1].Query)
	assert.Equal(t, 1, out[1].Count)
}

func TestHistoryRepository_Trending_TieBrokenByRecency(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "", "older", 1, 2*time.Hour)
	add(t, r, "", "newer", 1, time.Hour)

	out, err := r.Trending(context.Background(), now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "newer", out[0].Query)
}

func TestHistoryRepository_PopularByPrefix(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "", "Laptop", 1, time.Hour)
	add(t, r, "", "laptop", 1, 2*time.Hour)
	add(t, r, "", "lamp", 1, time.Hour)
	add(t, r, "", "lawnmower", 0, time.Hour)

	out, err := r.PopularByPrefix(context.Background(), "la", 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.PopularQuery{Query: "Laptop", NormalizedQuery: "laptop", Count: 2}, out[0])
	assert.Equal(t, "lamp", out[1].Query)
}

func TestHistoryRepository_DeleteAnonymousBefore(t *testing.T) {
	r := NewHistoryRepository()
	add(t, r, "", "old anon", 1, 40*24*time.Hour)
	add(t, r, "", "new anon", 1, time.Hour)
	add(t, r, "u1", "old user", 1, 40*24*time.Hour)

	n, err := r.DeleteAnonymousBefore(context.Background(), now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	remaining := r.All()
	require.Len(t, remaining, 2)
	for _, e := range remaining {
		assert.NotEqual(t, "old anon", e.Query)
	}
}
