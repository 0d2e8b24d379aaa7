package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/shopspring/decimal"
)

// ExportFilename is the attachment name used for a SKU's sales export.
func ExportFilename(sku string) string {
	return sku + "_sales.csv"
}

// Export renders the raw sales records of sku as CSV with a date,sku,quantity header.
func (s *Service) Export(ctx context.Context, sku string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.store.GetSalesBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("%w: SKU %s", common.ErrNotFound, sku)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "sku", "quantity"}); err != nil {
		return nil, err
	}
	for _, rec := range sales {
		row := []string{rec.Date.Format(model.DateLayout), rec.SKU, formatQuantity(rec.Quantity)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	return buf.Bytes(), nil
}

func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}
