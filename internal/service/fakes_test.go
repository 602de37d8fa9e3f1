package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/catalog/memory"
	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository"
	historymem "github.com/utafrali/discovery/internal/repository/memory"
	"github.com/utafrali/discovery/pkg/logger"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// countingCatalog wraps the in-memory catalog and counts every call. A
// non-nil err field makes the matching call fail.
type countingCatalog struct {
	store *memory.Store

	eligibilityCalls atomic.Int32
	lookupItemCalls  atomic.Int32
	lookupVendorCall atomic.Int32
	suggestItemCalls atomic.Int32
	suggestVendCalls atomic.Int32
	countCalls       atomic.Int32

	eligibilityErr error
	itemsErr       error
	vendorsErr     error
	countErr       error
}

func newCountingCatalog() *countingCatalog {
	return &countingCatalog{store: memory.New()}
}

func (c *countingCatalog) lookups() int32 {
	return c.eligibilityCalls.Load() + c.lookupItemCalls.Load() + c.lookupVendorCall.Load() +
		c.suggestItemCalls.Load() + c.suggestVendCalls.Load() + c.countCalls.Load()
}

func (c *countingCatalog) ResolveEligibleVendorIDs(ctx context.Context) ([]string, error) {
	c.eligibilityCalls.Add(1)
	if c.eligibilityErr != nil {
		return nil, c.eligibilityErr
	}
	return c.store.ResolveEligibleVendorIDs(ctx)
}

func (c *countingCatalog) LookupItems(ctx context.Context, q catalog.ItemQuery) ([]catalog.Item, int, error) {
	c.lookupItemCalls.Add(1)
	if c.itemsErr != nil {
		return nil, 0, c.itemsErr
	}
	return c.store.LookupItems(ctx, q)
}

func (c *countingCatalog) SuggestItems(ctx context.Context, vendorIDs []string, prefix string, limit int) ([]catalog.Item, error) {
	c.suggestItemCalls.Add(1)
	if c.itemsErr != nil {
		return nil, c.itemsErr
	}
	return c.store.SuggestItems(ctx, vendorIDs, prefix, limit)
}

func (c *countingCatalog) CountActiveItems(ctx context.Context, vendorIDs []string) (map[string]int, error) {
	c.countCalls.Add(1)
	if c.countErr != nil {
		return nil, c.countErr
	}
	return c.store.CountActiveItems(ctx, vendorIDs)
}

func (c *countingCatalog) LookupVendors(ctx context.Context, q catalog.VendorQuery) ([]catalog.Vendor, int, error) {
	c.lookupVendorCall.Add(1)
	if c.vendorsErr != nil {
		return nil, 0, c.vendorsErr
	}
	return c.store.LookupVendors(ctx, q)
}

func (c *countingCatalog) SuggestVendors(ctx context.Context, vendorIDs []string, prefix string, limit int) ([]catalog.Vendor, error) {
	c.suggestVendCalls.Add(1)
	if c.vendorsErr != nil {
		return nil, c.vendorsErr
	}
	return c.store.SuggestVendors(ctx, vendorIDs, prefix, limit)
}

// syncRecorder writes entries straight into a repository so tests can read
// them back without waiting on workers.
type syncRecorder struct {
	repo repository.HistoryRepository

	mu      sync.Mutex
	entries []*domain.SearchHistoryEntry
}

func (r *syncRecorder) Record(entry *domain.SearchHistoryEntry) bool {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	if r.repo != nil {
		_ = r.repo.Create(context.Background(), entry)
	}
	return true
}

func (r *syncRecorder) recorded() []*domain.SearchHistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.SearchHistoryEntry(nil), r.entries...)
}

// failingHistory fails the calls it overrides. Any other method panics on
// the nil embedded interface.
type failingHistory struct {
	repository.HistoryRepository
	err error
}

func (f *failingHistory) Create(context.Context, *domain.SearchHistoryEntry) error { return f.err }

func (f *failingHistory) PopularByPrefix(context.Context, string, int) ([]domain.PopularQuery, error) {
	return nil, f.err
}

func (f *failingHistory) Trending(context.Context, time.Time, int) ([]domain.TrendingEntry, error) {
	return nil, f.err
}

func newHistoryRepo() *historymem.HistoryRepository {
	return historymem.NewHistoryRepository()
}

// historyEntry builds a stored entry with an explicit timestamp.
func historyEntry(actor, query string, itemsFound int, at time.Time) *domain.SearchHistoryEntry {
	e := domain.NewHistoryEntry(actor, query, domain.KindAll, domain.Filters{}, itemsFound, 0, domain.ClientInfo{})
	e.CreatedAt = at
	return e
}

func newItem(vendorID, name string, price int64, age time.Duration) catalog.Item {
	return catalog.Item{
		ID:           uuid.New().String(),
		Name:         name,
		Slug:         uuid.New().String(),
		Description:  "Description of " + name,
		Price:        price,
		Stock:        3,
		Status:       catalog.ItemStatusActive,
		VendorID:     vendorID,
		VendorName:   "Vendor " + vendorID,
		CategoryID:   "cat-1",
		CategoryName: "Computers",
		CreatedAt:    baseTime.Add(-age),
	}
}

func newVendor(id, name, status string) catalog.Vendor {
	return catalog.Vendor{
		ID:          id,
		Name:        name,
		Slug:        id,
		Description: "Shop " + name,
		Category:    "Electronics",
		Rating:      4.5,
		ReviewCount: 12,
		Status:      status,
		CreatedAt:   baseTime,
	}
}

func newTestLogger() *slog.Logger {
	return logger.Discard()
}
