// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// Storage defines the contract for the sales and stock-level store.
type Storage interface {
	// Sales operations. Records are appended in order and never deduplicated.
	AppendSales(ctx context.Context, records []model.SalesRecord) error
	GetSalesBySKU(ctx context.Context, sku string) ([]model.SalesRecord, error)
	GetSKUs(ctx context.Context) ([]string, error)
	CountSales(ctx context.Context) (int, error)

	// Stock operations. Unknown SKUs have a stock level of zero.
	GetStockLevel(ctx context.Context, sku string) (float64, error)
	SetStockLevel(ctx context.Context, sku string, quantity float64) error

	// Snapshot copies the whole store.
	Snapshot(ctx context.Context) (model.Snapshot, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Notifier delivers restock alerts.
type Notifier interface {
	Send(ctx context.Context, to []string, subject, body string) error
	Configured() bool
}

// Assistant answers free-text questions through a language model.
type Assistant interface {
	Ask(ctx context.Context, question string) (string, error)
}
