// Package ingest decodes uploaded sales files into records.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/shopspring/decimal"
)

// ErrMissingColumns is returned when a CSV header lacks a required column.
var ErrMissingColumns = fmt.Errorf("%w: CSV must have columns: date, sku, quantity", common.ErrValidation)

var requiredColumns = []string{"date", "sku", "quantity"}

// dateLayouts are tried in order when parsing a date cell.
var dateLayouts = []string{
	model.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// Format identifies an upload encoding.
type Format int

// Supported upload encodings.
const (
	FormatCSV Format = iota
	FormatJSON
)

// DetectFormat picks the decoder from a file name: .json is JSON, everything else CSV.
func DetectFormat(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// Parse decodes r according to the format implied by filename.
func Parse(filename string, r io.Reader) ([]model.SalesRecord, error) {
	if DetectFormat(filename) == FormatJSON {
		return ParseJSON(r)
	}
	return ParseCSV(r)
}

// ParseCSV reads a header row naming date, sku and quantity (any order, extra
// columns ignored) followed by one record per row.
func ParseCSV(r io.Reader) ([]model.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", common.ErrValidation, err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []model.SalesRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: CSV row %d: %w", common.ErrValidation, line, err)
		}
		if blankRow(row) {
			continue
		}

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, ErrMissingColumns
		}
	}
	return index, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string, index map[string]int) (model.SalesRecord, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := ParseDate(cell("date"))
	if err != nil {
		return model.SalesRecord{}, err
	}

	sku := cell("sku")
	if sku == "" {
		return model.SalesRecord{}, common.Validationf("missing sku")
	}

	qty, err := ParseQuantity(cell("quantity"))
	if err != nil {
		return model.SalesRecord{}, err
	}

	return model.SalesRecord{Date: date, SKU: sku, Quantity: qty}, nil
}

// ParseDate accepts ISO dates, RFC 3339 timestamps and a few common
// spreadsheet layouts, returning the UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, common.Validationf("missing date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if !model.DateInRange(t) {
				return time.Time{}, common.Validationf("date %q outside years %d-%d", s, model.MinYear, model.MaxYear)
			}
			return model.Day(t), nil
		}
	}
	return time.Time{}, common.Validationf("unrecognised date %q", s)
}

// ParseQuantity parses a non-negative decimal quantity.
func ParseQuantity(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, common.Validationf("invalid quantity %q", s)
	}
	return checkQuantity(d)
}

func checkQuantity(d decimal.Decimal) (float64, error) {
	if d.IsNegative() {
		return 0, common.Validationf("negative quantity %s", d.String())
	}
	return d.InexactFloat64(), nil
}

// jsonRecord accepts quantities as numbers or numeric strings.
type jsonRecord struct {
	Quantity *decimal.Decimal `json:"quantity"`
	Date     string           `json:"date"`
	SKU      string           `json:"sku"`
}

// ParseJSON reads an array of {date, sku, quantity} objects.
func ParseJSON(r io.Reader) ([]model.SalesRecord, error) {
	var raw []jsonRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON sales data: %w", common.ErrValidation, err)
	}

	records := make([]model.SalesRecord, 0, len(raw))
	for i, item := range raw {
		date, err := ParseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("JSON record %d: %w", i, err)
		}
		sku := strings.TrimSpace(item.SKU)
		if sku == "" {
			return nil, fmt.Errorf("JSON record %d: %w", i, common.Validationf("missing sku"))
		}
		if item.Quantity == nil {
			return nil, fmt.Errorf("JSON record %d: %w", i, common.Validationf("missing quantity"))
		}
		qty, err := checkQuantity(*item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("JSON record %d: %w", i, err)
		}
		records = append(records, model.SalesRecord{Date: date, SKU: sku, Quantity: qty})
	}

	return records, nil
}
