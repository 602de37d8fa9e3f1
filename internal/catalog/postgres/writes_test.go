package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/discovery/internal/catalog"
)

func TestStore_UpsertVendors(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	v := catalog.Vendor{ID: "v1", Name: "Lamp World", Slug: "lamp-world", Status: catalog.VendorStatusApproved, CreatedAt: createdAt}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO catalog_vendors").
		WithArgs(v.ID, v.Name, v.Slug, v.Description, v.Category, v.Logo, v.Rating, v.ReviewCount, v.Status, v.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.UpsertVendors(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertItems_NilTagsStoredEmpty(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	it := catalog.Item{ID: "i1", Name: "Desk Lamp", Slug: "desk-lamp", Price: 2500, Status: catalog.ItemStatusActive, VendorID: "v1", CreatedAt: createdAt}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO catalog_items").
		WithArgs(it.ID, it.Name, it.Slug, it.Description, []string{},
			it.Price, it.PromoPrice, it.OnPromo, it.Stock, it.Image,
			it.Status, it.VendorID, it.VendorName, it.VendorLogo,
			it.CategoryID, it.CategoryName, it.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.UpsertItems(context.Background(), it))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertItems_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO catalog_items").WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	err := store.UpsertItems(context.Background(), catalog.Item{ID: "i1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert item i1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
