package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository/memory"
	"github.com/utafrali/discovery/pkg/pagination"
)

func seedHistory(t *testing.T, repo *memory.HistoryRepository, actor string, queries ...string) []*domain.SearchHistoryEntry {
	t.Helper()
	out := make([]*domain.SearchHistoryEntry, 0, len(queries))
	for i, q := range queries {
		e := historyEntry(actor, q, 1, baseTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(context.Background(), e))
		out = append(out, e)
	}
	return out
}

func TestHistory_ListNewestFirstPaginated(t *testing.T) {
	repo := newHistoryRepo()
	seedHistory(t, repo, "alice", "one", "two", "three", "four", "five")
	seedHistory(t, repo, "bob", "other")
	svc := NewHistoryService(repo, newTestLogger())

	page, err := svc.List(context.Background(), "alice", pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "five", page.Data[0].Query)
	assert.Equal(t, "four", page.Data[1].Query)
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)

	last, err := svc.List(context.Background(), "alice", pagination.Params{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Data, 1)
	assert.Equal(t, "one", last.Data[0].Query)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrev)
}

func TestHistory_ListAppliesDefaults(t *testing.T) {
	repo := newHistoryRepo()
	svc := NewHistoryService(repo, newTestLogger())

	page, err := svc.List(context.Background(), "alice", pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, pagination.DefaultLimit, page.Limit)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestHistory_RecentCollapsesByNormalizedQuery(t *testing.T) {
	repo := newHistoryRepo()
	seedHistory(t, repo, "alice", "Café", "lamp", "cafe", "desk", "LAMP")
	svc := NewHistoryService(repo, newTestLogger())

	got, err := svc.Recent(context.Background(), "alice", 10)
	require.NoError(t, err)

	queries := make([]string, 0, len(got))
	for _, e := range got {
		queries = append(queries, e.Query)
	}
	assert.Equal(t, []string{"LAMP", "desk", "cafe"}, queries)
}

func TestHistory_RecentClampsLimit(t *testing.T) {
	repo := newHistoryRepo()
	queries := make([]string, 0, 30)
	for i := range 30 {
		queries = append(queries, fmt.Sprintf("query %d", i))
	}
	seedHistory(t, repo, "alice", queries...)
	svc := NewHistoryService(repo, newTestLogger())

	got, err := svc.Recent(context.Background(), "alice", 100)
	require.NoError(t, err)
	assert.Len(t, got, MaxRecentLimit)

	got, err = svc.Recent(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultRecentLimit)
}

func TestHistory_ScenarioD_ClearOnlyOwnEntries(t *testing.T) {
	repo := newHistoryRepo()
	seedHistory(t, repo, "actor-x", "a1", "a2", "a3")
	seedHistory(t, repo, "actor-y", "b1", "b2")
	seedHistory(t, repo, "", "anon")
	svc := NewHistoryService(repo, newTestLogger())

	n, err := svc.Clear(context.Background(), "actor-x")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	remaining := repo.All()
	require.Len(t, remaining, 3)
	for _, e := range remaining {
		assert.False(t, e.OwnedBy("actor-x"))
	}

	y, err := svc.List(context.Background(), "actor-y", pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 2, y.TotalCount)
}

func TestHistory_DeleteOwnEntry(t *testing.T) {
	repo := newHistoryRepo()
	entries := seedHistory(t, repo, "alice", "lamp")
	svc := NewHistoryService(repo, newTestLogger())

	ok, err := svc.Delete(context.Background(), "alice", entries[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, repo.All())
}

func TestHistory_DeleteForeignEntryIsNotFound(t *testing.T) {
	repo := newHistoryRepo()
	entries := seedHistory(t, repo, "alice", "lamp")
	svc := NewHistoryService(repo, newTestLogger())

	ok, err := svc.Delete(context.Background(), "mallory", entries[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining := repo.All()
	require.Len(t, remaining, 1)
	assert.Equal(t, entries[0].ID, remaining[0].ID)
}

func TestHistory_DeleteMissingAndAnonymousEntries(t *testing.T) {
	repo := newHistoryRepo()
	anon := seedHistory(t, repo, "", "lamp")
	svc := NewHistoryService(repo, newTestLogger())

	ok, err := svc.Delete(context.Background(), "alice", "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Delete(context.Background(), "alice", anon[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, repo.All(), 1)
}

// erroringHistory fails the calls the history service makes.
type erroringHistory struct {
	failingHistory
}

func (e *erroringHistory) ListByUser(context.Context, string, int, int) ([]domain.SearchHistoryEntry, int, error) {
	return nil, 0, e.err
}

func (e *erroringHistory) RecentUnique(context.Context, string, int) ([]domain.SearchHistoryEntry, error) {
	return nil, e.err
}

func (e *erroringHistory) DeleteByUser(context.Context, string) (int, error) { return 0, e.err }

func (e *erroringHistory) DeleteByID(context.Context, string, string) (domain.DeleteOutcome, error) {
	return domain.DeleteOutcomeNotFound, e.err
}

func TestHistory_RepositoryErrorsAreWrapped(t *testing.T) {
	boom := errors.New("db down")
	svc := NewHistoryService(&erroringHistory{failingHistory{err: boom}}, newTestLogger())
	ctx := context.Background()

	_, err := svc.List(ctx, "alice", pagination.DefaultParams())
	assert.ErrorIs(t, err, boom)
	_, err = svc.Recent(ctx, "alice", 5)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Clear(ctx, "alice")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Delete(ctx, "alice", "id")
	assert.ErrorIs(t, err, boom)
}
