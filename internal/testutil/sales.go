package testutil

import (
	"testing"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// DefaultStart is the first day used by SalesBuilder unless overridden.
var DefaultStart = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)

// SalesBuilder provides a fluent interface for constructing sales history.
type SalesBuilder struct {
	start   time.Time
	t       *testing.T
	records []model.SalesRecord
}

// NewSalesBuilder creates a builder whose series start on DefaultStart.
func NewSalesBuilder(t *testing.T) *SalesBuilder {
	t.Helper()
	return &SalesBuilder{t: t, start: DefaultStart}
}

// StartingOn changes the first day for subsequently added series.
func (b *SalesBuilder) StartingOn(day time.Time) *SalesBuilder {
	b.start = model.Day(day)
	return b
}

// Daily adds days consecutive records of qty for sku.
func (b *SalesBuilder) Daily(sku string, days int, qty float64) *SalesBuilder {
	b.t.Helper()
	if days < 0 {
		b.t.Fatalf("negative day count %d for %q", days, sku)
	}
	for i := range days {
		b.records = append(b.records, model.SalesRecord{
			Date:     b.start.AddDate(0, 0, i),
			SKU:      sku,
			Quantity: qty,
		})
	}
	return b
}

// Series adds one record per quantity on consecutive days.
func (b *SalesBuilder) Series(sku string, qtys ...float64) *SalesBuilder {
	for i, q := range qtys {
		b.records = append(b.records, model.SalesRecord{
			Date:     b.start.AddDate(0, 0, i),
			SKU:      sku,
			Quantity: q,
		})
	}
	return b
}

// On adds a single record.
func (b *SalesBuilder) On(day time.Time, sku string, qty float64) *SalesBuilder {
	b.records = append(b.records, model.SalesRecord{Date: model.Day(day), SKU: sku, Quantity: qty})
	return b
}

// Build returns a copy of the accumulated records.
func (b *SalesBuilder) Build() []model.SalesRecord {
	out := make([]model.SalesRecord, len(b.records))
	copy(out, b.records)
	return out
}
