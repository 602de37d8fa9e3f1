package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
)

// EntryRecorder accepts history entries for detached persistence. Record
// must not block the caller.
type EntryRecorder interface {
	Record(entry *domain.SearchHistoryEntry) bool
}

// SearchService runs combined item and vendor searches.
type SearchService struct {
	eligibility catalog.EligibilityResolver
	items       catalog.ItemLookup
	vendors     catalog.VendorLookup
	recorder    EntryRecorder
	logger      *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	eligibility catalog.EligibilityResolver,
	items catalog.ItemLookup,
	vendors catalog.VendorLookup,
	recorder EntryRecorder,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		eligibility: eligibility,
		items:       items,
		vendors:     vendors,
		recorder:    recorder,
		logger:      logger,
	}
}

// Search validates q, resolves the eligible vendors once, then runs the
// requested lookups concurrently. A failing lookup cancels the others and
// fails the whole search. On success the search is handed to the recorder;
// actor is empty for anonymous searches.
func (s *SearchService) Search(ctx context.Context, q *domain.SearchQuery, actor string, client domain.ClientInfo) (*domain.SearchResult, error) {
	if err := q.Prepare(); err != nil {
		return nil, err
	}

	vendorIDs, err := s.resolveEligible(ctx)
	if err != nil {
		return nil, err
	}

	var (
		items        []catalog.Item
		vendors      []catalog.Vendor
		itemsTotal   int
		vendorsTotal int
	)

	g, gctx := errgroup.WithContext(ctx)
	if q.Kind.IncludesItems() {
		g.Go(func() error {
			defer observeLookup("items", time.Now())
			var err error
			items, itemsTotal, err = s.items.LookupItems(gctx, catalog.ItemQuery{
				VendorIDs: vendorIDs,
				Text:      q.Text,
				Filters:   q.Filters,
				Sort:      q.Sort,
				Offset:    q.Offset(),
				Limit:     q.Limit,
			})
			if err != nil {
				return fmt.Errorf("lookup items: %w", err)
			}
			return nil
		})
	}
	if q.Kind.IncludesVendors() {
		g.Go(func() error {
			defer observeLookup("vendors", time.Now())
			var err error
			vendors, vendorsTotal, err = s.vendors.LookupVendors(gctx, catalog.VendorQuery{
				VendorIDs: vendorIDs,
				Text:      q.Text,
				Offset:    q.Offset(),
				Limit:     q.Limit,
			})
			if err != nil {
				return fmt.Errorf("lookup vendors: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	result := &domain.SearchResult{
		Query:        q.Text,
		Kind:         q.Kind,
		Filters:      q.Filters,
		Sort:         q.Sort,
		ItemsCount:   itemsTotal,
		VendorsCount: vendorsTotal,
		TotalCount:   itemsTotal + vendorsTotal,
		Pagination:   domain.NewPagination(q.Kind, q.Page, q.Limit, itemsTotal, vendorsTotal),
	}
	if q.Kind.IncludesItems() {
		result.Items = summarizeItems(items)
	}
	if q.Kind.IncludesVendors() {
		summaries, err := s.summarizeVendors(ctx, vendors)
		if err != nil {
			return nil, err
		}
		result.Vendors = summaries
	}

	searchesTotal.WithLabelValues(string(q.Kind)).Inc()
	s.logger.DebugContext(ctx, "search executed",
		slog.String("kind", string(q.Kind)),
		slog.Int("items", itemsTotal),
		slog.Int("vendors", vendorsTotal),
	)

	entry := domain.NewHistoryEntry(actor, q.Text, q.Kind, q.Filters, itemsTotal, vendorsTotal, client)
	s.recorder.Record(entry)

	return result, nil
}

func (s *SearchService) resolveEligible(ctx context.Context) ([]string, error) {
	defer observeLookup("eligibility", time.Now())
	ids, err := s.eligibility.ResolveEligibleVendorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve eligible vendors: %w", err)
	}
	return ids, nil
}

// summarizeVendors shapes a page of vendors, counting their active items
// with a single grouped lookup.
func (s *SearchService) summarizeVendors(ctx context.Context, vendors []catalog.Vendor) ([]domain.VendorSummary, error) {
	summaries := make([]domain.VendorSummary, 0, len(vendors))
	if len(vendors) == 0 {
		return summaries, nil
	}

	ids := make([]string, len(vendors))
	for i := range vendors {
		ids[i] = vendors[i].ID
	}

	start := time.Now()
	counts, err := s.items.CountActiveItems(ctx, ids)
	observeLookup("active_item_counts", start)
	if err != nil {
		return nil, fmt.Errorf("count active items: %w", err)
	}

	for i := range vendors {
		v := &vendors[i]
		summaries = append(summaries, domain.VendorSummary{
			ID:               v.ID,
			Name:             v.Name,
			Slug:             v.Slug,
			ShortDescription: domain.ShortDescription(v.Description),
			Category:         v.Category,
			Logo:             v.Logo,
			Rating:           v.Rating,
			ReviewCount:      v.ReviewCount,
			ActiveItemCount:  counts[v.ID],
		})
	}
	return summaries, nil
}

func summarizeItems(items []catalog.Item) []domain.ItemSummary {
	summaries := make([]domain.ItemSummary, 0, len(items))
	for i := range items {
		it := &items[i]
		summaries = append(summaries, domain.ItemSummary{
			ID:               it.ID,
			Name:             it.Name,
			Slug:             it.Slug,
			ShortDescription: domain.ShortDescription(it.Description),
			Price:            it.Price,
			PromoPrice:       it.PromoPrice,
			OnPromo:          it.OnPromo,
			Stock:            it.Stock,
			Image:            it.Image,
			VendorID:         it.VendorID,
			VendorName:       it.VendorName,
			VendorLogo:       it.VendorLogo,
			CategoryID:       it.CategoryID,
			CategoryName:     it.CategoryName,
		})
	}
	return summaries
}
