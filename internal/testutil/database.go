// Package testutil provides test helpers for seeding sales and stock levels
// into a throwaway store.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/Veraticus/the-stock-must-flow/internal/storage"
)

// TestStore wraps a migrated store with helpers bound to a test.
type TestStore struct {
	Storage service.Storage
	t       *testing.T
}

// TestStoreOptions configures SetupTestStoreWithOptions.
type TestStoreOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Stock       map[string]float64
	Sales       []model.SalesRecord
	// InMemory selects the map-backed store instead of sqlite :memory:.
	InMemory bool
}

// SetupTestStore creates an in-memory SQLite store seeded with sales.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestStore(t,
//		testutil.NewSalesBuilder(t).
//			Daily("SKU001", 10, 5).
//			Build(),
//	)
func SetupTestStore(t *testing.T, sales []model.SalesRecord) *TestStore {
	t.Helper()
	return SetupTestStoreWithOptions(t, TestStoreOptions{Sales: sales})
}

// SetupTestStoreWithOptions creates a test store with custom options.
func SetupTestStoreWithOptions(t *testing.T, opts TestStoreOptions) *TestStore {
	t.Helper()
	ctx := context.Background()

	var store service.Storage
	if opts.InMemory {
		store = storage.NewMemoryStorage()
	} else {
		sqlite, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			t.Fatalf("failed to create test database: %v", err)
		}
		if err := sqlite.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		store = sqlite
	}

	if len(opts.Sales) > 0 {
		if err := store.AppendSales(ctx, opts.Sales); err != nil {
			t.Fatalf("failed to seed sales: %v", err)
		}
	}

	for sku, qty := range opts.Stock {
		if err := store.SetStockLevel(ctx, sku, qty); err != nil {
			t.Fatalf("failed to seed stock for %q: %v", sku, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestStore{Storage: store, t: t}
}

// MustSetStock sets the stock level for sku or fails the test.
func (db *TestStore) MustSetStock(sku string, qty float64) {
	db.t.Helper()
	if err := db.Storage.SetStockLevel(context.Background(), sku, qty); err != nil {
		db.t.Fatalf("failed to set stock for %q: %v", sku, err)
	}
}

// MustSales returns the stored sales for sku or fails the test.
func (db *TestStore) MustSales(sku string) []model.SalesRecord {
	db.t.Helper()
	sales, err := db.Storage.GetSalesBySKU(context.Background(), sku)
	if err != nil {
		db.t.Fatalf("failed to load sales for %q: %v", sku, err)
	}
	return sales
}
