package storage

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// MemoryStorage keeps sales and stock levels for the lifetime of the process.
type MemoryStorage struct {
	stock map[string]float64
	sales []model.SalesRecord
	mu    sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stock: make(map[string]float64),
	}
}

// AppendSales appends records in order.
func (m *MemoryStorage) AppendSales(ctx context.Context, records []model.SalesRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	records, err := NormalizeSalesRecords(records)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sales = append(m.sales, records...)
	return nil
}

// GetSalesBySKU returns the records for sku in insertion order.
func (m *MemoryStorage) GetSalesBySKU(ctx context.Context, sku string) ([]model.SalesRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.SalesRecord
	for _, rec := range m.sales {
		if rec.SKU == sku {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetSKUs returns the distinct SKUs with sales, sorted.
func (m *MemoryStorage) GetSKUs(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range m.sales {
		seen[rec.SKU] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// CountSales returns the number of stored records.
func (m *MemoryStorage) CountSales(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sales), nil
}

// GetStockLevel returns the stock for sku, zero when unknown.
func (m *MemoryStorage) GetStockLevel(ctx context.Context, sku string) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stock[sku], nil
}

// SetStockLevel replaces the stock for sku.
func (m *MemoryStorage) SetStockLevel(ctx context.Context, sku string, quantity float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sku, "sku"); err != nil {
		return err
	}
	if err := validateStockLevel(quantity); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[sku] = quantity
	return nil
}

// Snapshot copies the store.
func (m *MemoryStorage) Snapshot(ctx context.Context) (model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return model.Snapshot{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return model.Snapshot{
		Sales: slices.Clone(m.sales),
		Stock: maps.Clone(m.stock),
	}, nil
}

// Migrate is a no-op for the in-memory store.
func (m *MemoryStorage) Migrate(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStorage) Close() error {
	return nil
}
