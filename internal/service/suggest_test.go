package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/normalize"
	"github.com/utafrali/discovery/internal/repository"
)

func newTestSuggestionService(repo repository.HistoryRepository, c *countingCatalog) *SuggestionService {
	return NewSuggestionService(repo, c, c, c, newTestLogger())
}

func recordTimes(t *testing.T, repo repository.HistoryRepository, query string, itemsFound, times int) {
	t.Helper()
	for i := range times {
		e := historyEntry("", query, itemsFound, baseTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(context.Background(), e))
	}
}

func TestSuggest_ShortPrefixReturnsEmptyWithoutLookups(t *testing.T) {
	for _, prefix := range []string{"", "a", " b ", "é"} {
		t.Run(prefix, func(t *testing.T) {
			c := newCountingCatalog()
			svc := newTestSuggestionService(&failingHistory{err: errors.New("must not be called")}, c)

			got, err := svc.Suggest(context.Background(), prefix, 10)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, int32(0), c.lookups())
		})
	}
}

func TestSuggest_ScenarioC_HistoryWinsDedup(t *testing.T) {
	repo := newHistoryRepo()
	recordTimes(t, repo, "technomada", 4, 9)

	c := newCountingCatalog()
	c.store.PutVendors(newVendor("v1", "TechnoMada", catalog.VendorStatusApproved))

	svc := newTestSuggestionService(repo, c)
	got, err := svc.Suggest(context.Background(), "tech", 10)
	require.NoError(t, err)

	matches := 0
	for _, s := range got {
		if normalize.Key(s.Text) == "technomada" {
			matches++
			assert.Equal(t, domain.SuggestionHistory, s.Type)
			assert.Equal(t, 9, s.Count)
		}
	}
	assert.Equal(t, 1, matches)
}

func TestSuggest_MergeOrderAndCaps(t *testing.T) {
	repo := newHistoryRepo()
	for i := range 7 {
		recordTimes(t, repo, fmt.Sprintf("phone case %d", i), 1, i+1)
	}

	c := newCountingCatalog()
	c.store.PutVendors(
		newVendor("v1", "Phone Planet", catalog.VendorStatusApproved),
		newVendor("v2", "Phone Palace", catalog.VendorStatusApproved),
		newVendor("v3", "Phone Point", catalog.VendorStatusApproved),
		newVendor("v4", "Phone Port", catalog.VendorStatusApproved),
	)
	for i := range 7 {
		c.store.PutItems(newItem("v1", fmt.Sprintf("Phone charger %d", i), 100, time.Hour))
	}

	svc := newTestSuggestionService(repo, c)
	got, err := svc.Suggest(context.Background(), "phone", 20)
	require.NoError(t, err)

	byType := map[domain.SuggestionType]int{}
	for _, s := range got {
		byType[s.Type]++
	}
	assert.Equal(t, 5, byType[domain.SuggestionHistory])
	assert.Equal(t, 5, byType[domain.SuggestionItem])
	assert.Equal(t, 3, byType[domain.SuggestionVendor])

	assertSourceOrder(t, got)
	assertNoDuplicateKeys(t, got)

	// The most searched history entry comes first.
	assert.Equal(t, "phone case 6", got[0].Text)
	assert.Equal(t, 7, got[0].Count)
}

func TestSuggest_TruncatesAfterMerge(t *testing.T) {
	repo := newHistoryRepo()
	recordTimes(t, repo, "lamp shade", 2, 3)
	recordTimes(t, repo, "lamp oil", 2, 2)

	c := newCountingCatalog()
	c.store.PutVendors(newVendor("v1", "Lamp Land", catalog.VendorStatusApproved))
	c.store.PutItems(
		newItem("v1", "Lamp post", 100, time.Hour),
		newItem("v1", "Lamp stand", 100, time.Hour),
	)

	svc := newTestSuggestionService(repo, c)
	got, err := svc.Suggest(context.Background(), "lamp", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.SuggestionHistory, got[0].Type)
	assert.Equal(t, domain.SuggestionHistory, got[1].Type)
	assert.Equal(t, domain.SuggestionItem, got[2].Type)
	assert.Equal(t, "Lamp post", got[2].Text)
}

func TestSuggest_DedupAcrossCatalogSources(t *testing.T) {
	c := newCountingCatalog()
	c.store.PutVendors(newVendor("v1", "Café Noir", catalog.VendorStatusApproved))
	c.store.PutItems(newItem("v1", "Cafe Noir", 100, time.Hour))

	svc := newTestSuggestionService(newHistoryRepo(), c)
	got, err := svc.Suggest(context.Background(), "caf", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SuggestionItem, got[0].Type)
}

func TestSuggest_IgnoresFruitlessHistoryAndIneligibleVendors(t *testing.T) {
	repo := newHistoryRepo()
	recordTimes(t, repo, "gizmo", 0, 5)

	c := newCountingCatalog()
	c.store.PutVendors(
		newVendor("v1", "Gizmo Garage", catalog.VendorStatusPending),
		newVendor("v2", "Gadgets", catalog.VendorStatusApproved),
	)
	c.store.PutItems(newItem("v1", "Gizmo pro", 100, time.Hour))

	svc := newTestSuggestionService(repo, c)
	got, err := svc.Suggest(context.Background(), "giz", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggest_ItemAndVendorFields(t *testing.T) {
	c := newCountingCatalog()
	v := newVendor("v1", "Camera Corner", catalog.VendorStatusApproved)
	v.Logo = "logo.png"
	c.store.PutVendors(v)
	it := newItem("v1", "Camera bag", 100, time.Hour)
	it.Image = "bag.png"
	c.store.PutItems(it)

	svc := newTestSuggestionService(newHistoryRepo(), c)
	got, err := svc.Suggest(context.Background(), "CAM", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.Suggestion{Type: domain.SuggestionItem, Text: "Camera bag", Image: "bag.png", ID: it.ID, Slug: it.Slug}, got[0])
	assert.Equal(t, domain.Suggestion{Type: domain.SuggestionVendor, Text: "Camera Corner", Image: "logo.png", ID: "v1", Slug: "v1"}, got[1])
}

func TestSuggest_NoEligibleVendorsSkipsCatalogLookups(t *testing.T) {
	c := newCountingCatalog()
	svc := newTestSuggestionService(newHistoryRepo(), c)

	got, err := svc.Suggest(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(1), c.eligibilityCalls.Load())
	assert.Equal(t, int32(0), c.suggestItemCalls.Load())
	assert.Equal(t, int32(0), c.suggestVendCalls.Load())
}

func TestSuggest_FailurePropagates(t *testing.T) {
	boom := errors.New("boom")

	t.Run("history", func(t *testing.T) {
		svc := newTestSuggestionService(&failingHistory{err: boom}, newCountingCatalog())
		_, err := svc.Suggest(context.Background(), "lamp", 10)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("items", func(t *testing.T) {
		c := newCountingCatalog()
		c.store.PutVendors(newVendor("v1", "Lamps", catalog.VendorStatusApproved))
		c.itemsErr = boom
		svc := newTestSuggestionService(newHistoryRepo(), c)
		_, err := svc.Suggest(context.Background(), "lamp", 10)
		assert.ErrorIs(t, err, boom)
	})
}

func TestClampSuggestionLimit(t *testing.T) {
	assert.Equal(t, DefaultSuggestionLimit, ClampSuggestionLimit(0))
	assert.Equal(t, DefaultSuggestionLimit, ClampSuggestionLimit(-3))
	assert.Equal(t, 1, ClampSuggestionLimit(1))
	assert.Equal(t, MaxSuggestionLimit, ClampSuggestionLimit(50))
}

func assertSourceOrder(t *testing.T, got []domain.Suggestion) {
	t.Helper()
	rank := map[domain.SuggestionType]int{
		domain.SuggestionHistory: 0,
		domain.SuggestionItem:    1,
		domain.SuggestionVendor:  2,
	}
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, rank[got[i-1].Type], rank[got[i].Type], "suggestion %d out of source order", i)
	}
}

func assertNoDuplicateKeys(t *testing.T, got []domain.Suggestion) {
	t.Helper()
	seen := map[string]bool{}
	for _, s := range got {
		key := normalize.Key(s.Text)
		assert.False(t, seen[key], "duplicate suggestion %q", s.Text)
		seen[key] = true
	}
}
