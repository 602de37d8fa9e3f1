// Package postgres reads the marketplace catalog from the catalog_items and
// catalog_vendors tables replicated into the discovery database.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/pkg/database"
)

const effectivePrice = "(CASE WHEN on_promo AND promo_price IS NOT NULL THEN promo_price ELSE price END)"

const itemColumns = `id, name, slug, description, tags, price, promo_price, on_promo, stock, image,
	       status, vendor_id, vendor_name, vendor_logo, category_id, category_name, created_at`

const vendorColumns = `id, name, slug, description, category, logo, rating, review_count, status, created_at`

// Store implements the catalog contracts over PostgreSQL.
type Store struct {
	pool database.DBTX
}

var (
	_ catalog.EligibilityResolver = (*Store)(nil)
	_ catalog.ItemLookup          = (*Store)(nil)
	_ catalog.VendorLookup        = (*Store)(nil)
)

// NewStore creates a new PostgreSQL-backed catalog.
func NewStore(pool database.DBTX) *Store {
	return &Store{pool: pool}
}

// ResolveEligibleVendorIDs returns the ids of approved vendors.
func (s *Store) ResolveEligibleVendorIDs(ctx context.Context) (ids []string, err error) {
	query := `SELECT id FROM catalog_vendors WHERE status = $1 ORDER BY id`

	ctx, end := database.TraceQuery(ctx, "ResolveEligibleVendorIDs", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query, catalog.VendorStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("query eligible vendors: %w", err)
	}
	ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan eligible vendors: %w", err)
	}
	return ids, nil
}

// LookupItems runs a substring match over name, description and tags.
func (s *Store) LookupItems(ctx context.Context, q catalog.ItemQuery) (items []catalog.Item, total int, err error) {
	if len(q.VendorIDs) == 0 {
		return []catalog.Item{}, 0, nil
	}

	var (
		conditions = []string{"status = $1", "vendor_id = ANY($2)"}
		args       = []any{catalog.ItemStatusActive, q.VendorIDs}
		argIndex   = 3
	)

	if q.Text != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%d))",
			argIndex, argIndex, argIndex))
		args = append(args, "%"+database.EscapeLike(q.Text)+"%")
		argIndex++
	}

	if q.Filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *q.Filters.CategoryID)
		argIndex++
	}

	if q.Filters.PriceMin != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", effectivePrice, argIndex))
		args = append(args, *q.Filters.PriceMin)
		argIndex++
	}

	if q.Filters.PriceMax != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", effectivePrice, argIndex))
		args = append(args, *q.Filters.PriceMax)
		argIndex++
	}

	if q.Filters.PromoOnly {
		conditions = append(conditions, "on_promo")
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM catalog_items
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		itemColumns, strings.Join(conditions, " AND "), itemOrder(q.Sort), argIndex, argIndex+1,
	)
	args = append(args, q.Limit, q.Offset)

	ctx, end := database.TraceQuery(ctx, "LookupItems", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("lookup items: %w", err)
	}
	defer rows.Close()

	items = make([]catalog.Item, 0)
	for rows.Next() {
		var it catalog.Item
		if err := rows.Scan(append(itemDest(&it), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate item rows: %w", err)
	}

	// count(*) OVER() yields no row once the offset passes the last match.
	if len(items) == 0 && q.Offset > 0 {
		total, err = s.countItems(ctx, conditions, args[:len(args)-2])
		if err != nil {
			return nil, 0, err
		}
	}

	return items, total, nil
}

func (s *Store) countItems(ctx context.Context, conditions []string, args []any) (int, error) {
	query := "SELECT count(*) FROM catalog_items WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return total, nil
}

// SuggestItems returns active items whose name starts with prefix.
func (s *Store) SuggestItems(ctx context.Context, vendorIDs []string, prefix string, limit int) (items []catalog.Item, err error) {
	if len(vendorIDs) == 0 || limit <= 0 {
		return []catalog.Item{}, nil
	}

	query := `
		SELECT ` + itemColumns + `
		FROM catalog_items
		WHERE status = $1 AND vendor_id = ANY($2) AND name ILIKE $3
		ORDER BY name ASC, id ASC
		LIMIT $4`

	ctx, end := database.TraceQuery(ctx, "SuggestItems", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query, catalog.ItemStatusActive, vendorIDs, database.EscapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("suggest items: %w", err)
	}
	defer rows.Close()

	items = make([]catalog.Item, 0, limit)
	for rows.Next() {
		var it catalog.Item
		if err := rows.Scan(itemDest(&it)...); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

// CountActiveItems counts active items per vendor with a single grouped query.
func (s *Store) CountActiveItems(ctx context.Context, vendorIDs []string) (counts map[string]int, err error) {
	counts = make(map[string]int, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT vendor_id, count(*)
		FROM catalog_items
		WHERE status = $1 AND vendor_id = ANY($2)
		GROUP BY vendor_id`

	ctx, end := database.TraceQuery(ctx, "CountActiveItems", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query, catalog.ItemStatusActive, vendorIDs)
	if err != nil {
		return nil, fmt.Errorf("count active items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			vendorID string
			n        int
		)
		if err := rows.Scan(&vendorID, &n); err != nil {
			return nil, fmt.Errorf("scan item count: %w", err)
		}
		counts[vendorID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item counts: %w", err)
	}
	return counts, nil
}

// LookupVendors runs a substring match over name, description and category.
func (s *Store) LookupVendors(ctx context.Context, q catalog.VendorQuery) (vendors []catalog.Vendor, total int, err error) {
	if len(q.VendorIDs) == 0 {
		return []catalog.Vendor{}, 0, nil
	}

	query := `
		SELECT ` + vendorColumns + `,
		       count(*) OVER() AS total_count
		FROM catalog_vendors
		WHERE id = ANY($1)
		  AND ($2::text = '' OR name ILIKE $3 OR description ILIKE $3 OR category ILIKE $3)
		ORDER BY created_at DESC, id ASC
		LIMIT $4 OFFSET $5`

	ctx, end := database.TraceQuery(ctx, "LookupVendors", query)
	defer func() { end(err) }()

	pattern := "%" + database.EscapeLike(q.Text) + "%"
	rows, err := s.pool.Query(ctx, query, q.VendorIDs, q.Text, pattern, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("lookup vendors: %w", err)
	}
	defer rows.Close()

	vendors = make([]catalog.Vendor, 0)
	for rows.Next() {
		var v catalog.Vendor
		if err := rows.Scan(append(vendorDest(&v), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan vendor row: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate vendor rows: %w", err)
	}

	if len(vendors) == 0 && q.Offset > 0 {
		countQuery := `
			SELECT count(*) FROM catalog_vendors
			WHERE id = ANY($1)
			  AND ($2::text = '' OR name ILIKE $3 OR description ILIKE $3 OR category ILIKE $3)`
		if err := s.pool.QueryRow(ctx, countQuery, q.VendorIDs, q.Text, pattern).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count vendors: %w", err)
		}
	}

	return vendors, total, nil
}

// SuggestVendors returns eligible vendors whose name starts with prefix.
func (s *Store) SuggestVendors(ctx context.Context, vendorIDs []string, prefix string, limit int) (vendors []catalog.Vendor, err error) {
	if len(vendorIDs) == 0 || limit <= 0 {
		return []catalog.Vendor{}, nil
	}

	query := `
		SELECT ` + vendorColumns + `
		FROM catalog_vendors
		WHERE id = ANY($1) AND name ILIKE $2
		ORDER BY name ASC, id ASC
		LIMIT $3`

	ctx, end := database.TraceQuery(ctx, "SuggestVendors", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query, vendorIDs, database.EscapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("suggest vendors: %w", err)
	}
	defer rows.Close()

	vendors = make([]catalog.Vendor, 0, limit)
	for rows.Next() {
		var v catalog.Vendor
		if err := rows.Scan(vendorDest(&v)...); err != nil {
			return nil, fmt.Errorf("scan vendor row: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendor rows: %w", err)
	}
	return vendors, nil
}

// itemOrder maps a sort option to an ORDER BY clause. Relevance has no
// scoring of its own and orders newest first like recent.
func itemOrder(sort domain.Sort) string {
	switch sort {
	case domain.SortPriceAsc:
		return effectivePrice + " ASC, created_at DESC, id ASC"
	case domain.SortPriceDesc:
		return effectivePrice + " DESC, created_at DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func itemDest(it *catalog.Item) []any {
	return []any{
		&it.ID, &it.Name, &it.Slug, &it.Description, &it.Tags,
		&it.Price, &it.PromoPrice, &it.OnPromo, &it.Stock, &it.Image,
		&it.Status, &it.VendorID, &it.VendorName, &it.VendorLogo,
		&it.CategoryID, &it.CategoryName, &it.CreatedAt,
	}
}

func vendorDest(v *catalog.Vendor) []any {
	return []any{
		&v.ID, &v.Name, &v.Slug, &v.Description, &v.Category, &v.Logo,
		&v.Rating, &v.ReviewCount, &v.Status, &v.CreatedAt,
	}
}
