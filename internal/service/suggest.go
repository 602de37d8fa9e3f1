package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/normalize"
	"github.com/utafrali/discovery/internal/repository"
)

const (
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 20

	historySuggestionCap = 5
	itemSuggestionCap    = 5
	vendorSuggestionCap  = 3
)

// SuggestionService merges autocomplete candidates from popular history,
// item names and vendor names.
type SuggestionService struct {
	history     repository.HistoryRepository
	eligibility catalog.EligibilityResolver
	items       catalog.ItemLookup
	vendors     catalog.VendorLookup
	logger      *slog.Logger
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(
	history repository.HistoryRepository,
	eligibility catalog.EligibilityResolver,
	items catalog.ItemLookup,
	vendors catalog.VendorLookup,
	logger *slog.Logger,
) *SuggestionService {
	return &SuggestionService{
		history:     history,
		eligibility: eligibility,
		items:       items,
		vendors:     vendors,
		logger:      logger,
	}
}

// ClampSuggestionLimit applies the default and the upper bound.
func ClampSuggestionLimit(limit int) int {
	if limit < 1 {
		return DefaultSuggestionLimit
	}
	return min(limit, MaxSuggestionLimit)
}

// Suggest returns up to limit suggestions for prefix. Prefixes shorter than
// the minimum query length yield an empty list without any lookup.
//
// History runs alongside eligibility resolution; the item and vendor lookups
// start once the eligible vendors are known. Candidates are merged history
// first, then items, then vendors, skipping any whose normalized text was
// already taken, and truncated only after the full merge.
func (s *SuggestionService) Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < domain.MinQueryLength {
		return []domain.Suggestion{}, nil
	}
	limit = ClampSuggestionLimit(limit)

	var (
		popular []domain.PopularQuery
		items   []catalog.Item
		vendors []catalog.Vendor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer observeLookup("history_prefix", time.Now())
		var err error
		popular, err = s.history.PopularByPrefix(gctx, normalize.Key(prefix), historySuggestionCap)
		if err != nil {
			return fmt.Errorf("popular history by prefix: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		vendorIDs, err := s.eligibility.ResolveEligibleVendorIDs(gctx)
		observeLookup("eligibility", start)
		if err != nil {
			return fmt.Errorf("resolve eligible vendors: %w", err)
		}
		if len(vendorIDs) == 0 {
			return nil
		}

		cg, cctx := errgroup.WithContext(gctx)
		cg.Go(func() error {
			defer observeLookup("item_prefix", time.Now())
			var err error
			items, err = s.items.SuggestItems(cctx, vendorIDs, prefix, itemSuggestionCap)
			if err != nil {
				return fmt.Errorf("suggest items: %w", err)
			}
			return nil
		})
		cg.Go(func() error {
			defer observeLookup("vendor_prefix", time.Now())
			var err error
			vendors, err = s.vendors.SuggestVendors(cctx, vendorIDs, prefix, vendorSuggestionCap)
			if err != nil {
				return fmt.Errorf("suggest vendors: %w", err)
			}
			return nil
		})
		return cg.Wait()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	merged := mergeSuggestions(popular, items, vendors, limit)
	s.logger.DebugContext(ctx, "suggestions merged",
		slog.Int("history", len(popular)),
		slog.Int("items", len(items)),
		slog.Int("vendors", len(vendors)),
		slog.Int("returned", len(merged)),
	)
	return merged, nil
}

func mergeSuggestions(popular []domain.PopularQuery, items []catalog.Item, vendors []catalog.Vendor, limit int) []domain.Suggestion {
	merged := make([]domain.Suggestion, 0, len(popular)+len(items)+len(vendors))
	seen := make(map[string]struct{}, cap(merged))

	add := func(sg domain.Suggestion) {
		key := normalize.Key(sg.Text)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, sg)
	}

	for _, p := range popular {
		add(domain.Suggestion{Type: domain.SuggestionHistory, Text: p.Query, Count: p.Count})
	}
	for i := range items {
		add(domain.Suggestion{
			Type:  domain.SuggestionItem,
			Text:  items[i].Name,
			Image: items[i].Image,
			ID:    items[i].ID,
			Slug:  items[i].Slug,
		})
	}
	for i := range vendors {
		add(domain.Suggestion{
			Type:  domain.SuggestionVendor,
			Text:  vendors[i].Name,
			Image: vendors[i].Logo,
			ID:    vendors[i].ID,
			Slug:  vendors[i].Slug,
		})
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
