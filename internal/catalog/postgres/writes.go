package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/pkg/database"
)

// UpsertVendors inserts or replaces vendors in one transaction. It is used to
// seed and replicate the local catalog copy; the search path never writes.
func (s *Store) UpsertVendors(ctx context.Context, vendors ...catalog.Vendor) (err error) {
	query := `
		INSERT INTO catalog_vendors (` + vendorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
			category = EXCLUDED.category, logo = EXCLUDED.logo, rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count, status = EXCLUDED.status`

	ctx, end := database.TraceQuery(ctx, "UpsertVendors", query)
	defer func() { end(err) }()

	return s.inTx(ctx, "vendors", func(tx pgx.Tx) error {
		for _, v := range vendors {
			if _, err := tx.Exec(ctx, query,
				v.ID, v.Name, v.Slug, v.Description, v.Category, v.Logo,
				v.Rating, v.ReviewCount, v.Status, v.CreatedAt,
			); err != nil {
				return fmt.Errorf("upsert vendor %s: %w", v.ID, err)
			}
		}
		return nil
	})
}

// UpsertItems inserts or replaces items in one transaction.
func (s *Store) UpsertItems(ctx context.Context, items ...catalog.Item) (err error) {
	query := `
		INSERT INTO catalog_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
			tags = EXCLUDED.tags, price = EXCLUDED.price, promo_price = EXCLUDED.promo_price,
			on_promo = EXCLUDED.on_promo, stock = EXCLUDED.stock, image = EXCLUDED.image,
			status = EXCLUDED.status, vendor_id = EXCLUDED.vendor_id, vendor_name = EXCLUDED.vendor_name,
			vendor_logo = EXCLUDED.vendor_logo, category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name`

	ctx, end := database.TraceQuery(ctx, "UpsertItems", query)
	defer func() { end(err) }()

	return s.inTx(ctx, "items", func(tx pgx.Tx) error {
		for _, it := range items {
			tags := it.Tags
			if tags == nil {
				tags = []string{}
			}
			if _, err := tx.Exec(ctx, query,
				it.ID, it.Name, it.Slug, it.Description, tags,
				it.Price, it.PromoPrice, it.OnPromo, it.Stock, it.Image,
				it.Status, it.VendorID, it.VendorName, it.VendorLogo,
				it.CategoryID, it.CategoryName, it.CreatedAt,
			); err != nil {
				return fmt.Errorf("upsert item %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, what string, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert %s: %w", what, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert %s: %w", what, err)
	}
	return nil
}
