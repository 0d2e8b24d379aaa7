// Package storage provides the data persistence layer for sales and stock levels.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = fmt.Errorf("%w: string parameter cannot be empty", common.ErrValidation)
	ErrInvalidSalesRecord  = fmt.Errorf("%w: invalid sales record", common.ErrValidation)
	ErrInvalidStockLevel   = fmt.Errorf("%w: invalid stock level", common.ErrValidation)
	ErrUnsupportedDatabase = errors.New("unsupported database driver")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// NormalizeSalesRecords validates every record, reporting the first bad index,
// and returns a copy with SKUs trimmed and dates truncated to the UTC day.
func NormalizeSalesRecords(records []model.SalesRecord) ([]model.SalesRecord, error) {
	out := make([]model.SalesRecord, len(records))
	for i, rec := range records {
		rec.SKU = strings.TrimSpace(rec.SKU)
		if err := validateSalesRecord(&rec); err != nil {
			return nil, fmt.Errorf("record at index %d: %w", i, err)
		}
		rec.Date = model.Day(rec.Date)
		out[i] = rec
	}
	return out, nil
}

func validateSalesRecord(rec *model.SalesRecord) error {
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidSalesRecord)
	}
	if !model.DateInRange(rec.Date) {
		return fmt.Errorf("%w: date %s outside years %d-%d",
			ErrInvalidSalesRecord, rec.Date.Format(model.DateLayout), model.MinYear, model.MaxYear)
	}
	if rec.SKU == "" {
		return fmt.Errorf("%w: missing sku", ErrInvalidSalesRecord)
	}
	if math.IsNaN(rec.Quantity) || math.IsInf(rec.Quantity, 0) {
		return fmt.Errorf("%w: quantity is not a number", ErrInvalidSalesRecord)
	}
	if rec.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %v", ErrInvalidSalesRecord, rec.Quantity)
	}
	return nil
}

func validateStockLevel(quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStockLevel, quantity)
	}
	return nil
}
