package inventory

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/Veraticus/the-stock-must-flow/internal/ingest"
)

//go:embed sample_sales.csv
var sampleSales []byte

// SampleStock is the stock preloaded alongside the bundled sample sales.
var SampleStock = map[string]float64{
	"SKU001": 100,
	"SKU002": 50,
	"SKU003": 120,
	"SKU004": 80,
	"SKU005": 60,
}

// SeedSample loads the bundled sample sales and stock levels into an empty
// store. It reports whether anything was loaded.
func (s *Service) SeedSample(ctx context.Context) (bool, error) {
	return s.SeedFrom(ctx, "sample_sales.csv", bytes.NewReader(sampleSales), SampleStock)
}

// SeedFrom loads records from r and the given stock levels, but only when the
// store has no sales yet.
func (s *Service) SeedFrom(ctx context.Context, filename string, r io.Reader, stock map[string]float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.store.CountSales(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count sales: %w", err)
	}
	if count > 0 {
		s.logger.Debug("Store already has sales, skipping sample data", "rows", count)
		return false, nil
	}

	records, err := ingest.Parse(filename, r)
	if err != nil {
		return false, fmt.Errorf("failed to load sample sales: %w", err)
	}
	if err := s.store.AppendSales(ctx, records); err != nil {
		return false, fmt.Errorf("failed to store sample sales: %w", err)
	}
	s.logger.Info("Loaded sample sales", "rows", len(records))

	for _, sku := range slices.Sorted(maps.Keys(stock)) {
		if err := s.store.SetStockLevel(ctx, sku, stock[sku]); err != nil {
			return true, fmt.Errorf("failed to preload stock for %s: %w", sku, err)
		}
	}
	if len(stock) > 0 {
		s.logger.Info("Preloaded current stock", "skus", len(stock))
	}

	return true, nil
}
