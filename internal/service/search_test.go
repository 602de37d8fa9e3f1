package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
	apperrors "github.com/utafrali/discovery/pkg/errors"
)

func newTestSearchService(c *countingCatalog, rec EntryRecorder) *SearchService {
	return NewSearchService(c, c, c, rec, newTestLogger())
}

func seedLaptops(c *countingCatalog) {
	c.store.PutVendors(
		newVendor("v-ok", "Laptop World", catalog.VendorStatusApproved),
		newVendor("v-banned", "Laptop Outlet", catalog.VendorStatusRejected),
	)
	c.store.PutItems(
		newItem("v-ok", "Laptop HP ProBook 450 G8", 65000, time.Hour),
		newItem("v-banned", "Laptop HP ProBook 450 G8", 50000, time.Hour),
	)
}

func TestSearch_ScenarioA_EligibleVendorsOnly(t *testing.T) {
	c := newCountingCatalog()
	seedLaptops(c)
	svc := newTestSearchService(c, &syncRecorder{})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "lap", Kind: domain.KindItems}, "", domain.ClientInfo{})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Laptop HP ProBook 450 G8", result.Items[0].Name)
	assert.Equal(t, "v-ok", result.Items[0].VendorID)
	assert.Equal(t, 1, result.ItemsCount)
	assert.Nil(t, result.Vendors)
	assert.Equal(t, int32(0), c.lookupVendorCall.Load())
}

func TestSearch_ShortQueryIssuesNoLookups(t *testing.T) {
	for _, text := range []string{"", " ", "a", "  é  "} {
		t.Run(text, func(t *testing.T) {
			c := newCountingCatalog()
			rec := &syncRecorder{}
			svc := newTestSearchService(c, rec)

			_, err := svc.Search(context.Background(), &domain.SearchQuery{Text: text}, "", domain.ClientInfo{})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrQueryTooShort)
			assert.Equal(t, int32(0), c.lookups())
			assert.Empty(t, rec.recorded())
		})
	}
}

func TestSearch_TwoRuneQueryAccepted(t *testing.T) {
	c := newCountingCatalog()
	svc := newTestSearchService(c, &syncRecorder{})

	_, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "çä"}, "", domain.ClientInfo{})
	require.NoError(t, err)
}

func TestSearch_InvalidParametersIssueNoLookups(t *testing.T) {
	neg := int64(-1)
	lo, hi := int64(500), int64(100)
	tests := []struct {
		name  string
		query domain.SearchQuery
	}{
		{"bad kind", domain.SearchQuery{Text: "lamp", Kind: "shops"}},
		{"bad sort", domain.SearchQuery{Text: "lamp", Sort: "cheapest"}},
		{"negative price", domain.SearchQuery{Text: "lamp", Filters: domain.Filters{PriceMin: &neg}}},
		{"inverted range", domain.SearchQuery{Text: "lamp", Filters: domain.Filters{PriceMin: &lo, PriceMax: &hi}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCountingCatalog()
			svc := newTestSearchService(c, &syncRecorder{})

			q := tt.query
			_, err := svc.Search(context.Background(), &q, "", domain.ClientInfo{})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Equal(t, int32(0), c.lookups())
		})
	}
}

func TestSearch_AllKindsAndPagination(t *testing.T) {
	c := newCountingCatalog()
	c.store.PutVendors(
		newVendor("v1", "Desk Shop", catalog.VendorStatusApproved),
		newVendor("v2", "Desk Depot", catalog.VendorStatusApproved),
	)
	for i := range 5 {
		c.store.PutItems(newItem("v1", "Desk lamp", int64(1000+i), time.Duration(i)*time.Hour))
	}
	svc := newTestSearchService(c, &syncRecorder{})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "desk", Limit: 2}, "", domain.ClientInfo{})
	require.NoError(t, err)

	assert.Equal(t, domain.KindAll, result.Kind)
	assert.Equal(t, domain.SortRelevance, result.Sort)
	assert.Equal(t, 5, result.ItemsCount)
	assert.Equal(t, 2, result.VendorsCount)
	assert.Equal(t, 7, result.TotalCount)
	assert.Len(t, result.Items, 2)
	assert.Len(t, result.Vendors, 2)

	// ceil(max(5, 2) / 2)
	assert.Equal(t, 3, result.Pagination.TotalPages)
	assert.True(t, result.Pagination.HasNext)
	assert.False(t, result.Pagination.HasPrev)
}

func TestSearch_VendorActiveItemCountsUseOneGroupedCall(t *testing.T) {
	c := newCountingCatalog()
	c.store.PutVendors(
		newVendor("v1", "Lamp House", catalog.VendorStatusApproved),
		newVendor("v2", "Lamp Corner", catalog.VendorStatusApproved),
		newVendor("v3", "Lamp Palace", catalog.VendorStatusApproved),
	)
	inactive := newItem("v1", "Old lamp", 100, time.Hour)
	inactive.Status = catalog.ItemStatusInactive
	c.store.PutItems(
		newItem("v1", "Floor lamp", 100, time.Hour),
		newItem("v1", "Desk lamp", 100, time.Hour),
		newItem("v2", "Wall lamp", 100, time.Hour),
		inactive,
	)
	svc := newTestSearchService(c, &syncRecorder{})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "lamp", Kind: domain.KindVendors}, "", domain.ClientInfo{})
	require.NoError(t, err)
	require.Len(t, result.Vendors, 3)
	assert.Nil(t, result.Items)
	assert.Equal(t, int32(1), c.countCalls.Load())
	assert.Equal(t, int32(0), c.lookupItemCalls.Load())

	counts := map[string]int{}
	for _, v := range result.Vendors {
		counts[v.ID] = v.ActiveItemCount
	}
	assert.Equal(t, map[string]int{"v1": 2, "v2": 1, "v3": 0}, counts)
}

func TestSearch_EmptyVendorPageSkipsCount(t *testing.T) {
	c := newCountingCatalog()
	svc := newTestSearchService(c, &syncRecorder{})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "nothing", Kind: domain.KindVendors}, "", domain.ClientInfo{})
	require.NoError(t, err)
	assert.NotNil(t, result.Vendors)
	assert.Empty(t, result.Vendors)
	assert.Equal(t, int32(0), c.countCalls.Load())
}

func TestSearch_EligibilityResolvedOnce(t *testing.T) {
	c := newCountingCatalog()
	seedLaptops(c)
	svc := newTestSearchService(c, &syncRecorder{})

	_, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "laptop"}, "", domain.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), c.eligibilityCalls.Load())
	assert.Equal(t, int32(1), c.lookupItemCalls.Load())
	assert.Equal(t, int32(1), c.lookupVendorCall.Load())
}

func TestSearch_LookupFailureFailsWholeSearch(t *testing.T) {
	boom := errors.New("catalog unavailable")
	tests := []struct {
		name  string
		setup func(c *countingCatalog)
	}{
		{"eligibility", func(c *countingCatalog) { c.eligibilityErr = boom }},
		{"items", func(c *countingCatalog) { c.itemsErr = boom }},
		{"vendors", func(c *countingCatalog) { c.vendorsErr = boom }},
		{"active item counts", func(c *countingCatalog) { c.countErr = boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCountingCatalog()
			seedLaptops(c)
			tt.setup(c)
			rec := &syncRecorder{}
			svc := newTestSearchService(c, rec)

			result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "laptop"}, "", domain.ClientInfo{})
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Nil(t, result)
			assert.Empty(t, rec.recorded())
		})
	}
}

func TestSearch_RecordsHistoryEntry(t *testing.T) {
	c := newCountingCatalog()
	seedLaptops(c)
	rec := &syncRecorder{}
	svc := newTestSearchService(c, rec)

	cat := "cat-1"
	q := &domain.SearchQuery{Text: "  Laptop  ", Kind: domain.KindItems, Filters: domain.Filters{CategoryID: &cat}}
	_, err := svc.Search(context.Background(), q, "user-1", domain.ClientInfo{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)

	entries := rec.recorded()
	require.Len(t, entries, 1)
	e := entries[0]
	require.NotNil(t, e.UserID)
	assert.Equal(t, "user-1", *e.UserID)
	assert.Equal(t, "Laptop", e.Query)
	assert.Equal(t, "laptop", e.NormalizedQuery)
	assert.Equal(t, domain.KindItems, e.Kind)
	assert.Equal(t, &cat, e.Filters.CategoryID)
	assert.Equal(t, 1, e.ItemsFound)
	assert.Equal(t, 0, e.VendorsFound)
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, "test", e.UserAgent)
}

func TestSearch_AnonymousEntryHasNoUser(t *testing.T) {
	c := newCountingCatalog()
	rec := &syncRecorder{}
	svc := newTestSearchService(c, rec)

	_, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "lamp"}, "", domain.ClientInfo{})
	require.NoError(t, err)
	require.Len(t, rec.recorded(), 1)
	assert.True(t, rec.recorded()[0].IsAnonymous())
}

func TestSearch_HistoryFailureDoesNotFailSearch(t *testing.T) {
	c := newCountingCatalog()
	seedLaptops(c)
	recorder := NewHistoryRecorder(&failingHistory{err: errors.New("db down")}, nil, RecorderConfig{Buffer: 4, Workers: 1}, newTestLogger())
	defer recorder.Close()
	svc := newTestSearchService(c, recorder)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "laptop"}, "", domain.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsCount)
}

func TestSearch_ShortDescription(t *testing.T) {
	c := newCountingCatalog()
	c.store.PutVendors(newVendor("v1", "Books", catalog.VendorStatusApproved))
	it := newItem("v1", "Novel", 900, time.Hour)
	it.Description = strings.Repeat("ü", 150)
	c.store.PutItems(it)
	svc := newTestSearchService(c, &syncRecorder{})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "novel", Kind: domain.KindItems}, "", domain.ClientInfo{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, strings.Repeat("ü", 100)+"...", result.Items[0].ShortDescription)
}

func TestSearch_ResultJSONOmitsUnrequestedKind(t *testing.T) {
	c := newCountingCatalog()
	svc := newTestSearchService(c, &syncRecorder{})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Text: "lamp", Kind: domain.KindItems}, "", domain.ClientInfo{})
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "items")
	assert.Equal(t, []any{}, decoded["items"])
	assert.NotContains(t, decoded, "vendors")
	assert.Equal(t, "items", decoded["type"])
}
