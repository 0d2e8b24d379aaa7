// Package model holds the domain types shared by the forecast engine, the
// inventory service and the transports.
package model

import (
	"time"
)

// DateLayout is the calendar-day format used on the wire and in exports.
const DateLayout = "2006-01-02"

// Sales dates must fall within these calendar years.
const (
	MinYear = 1900
	MaxYear = 2199
)

// DateInRange reports whether t falls within [MinYear, MaxYear].
func DateInRange(t time.Time) bool {
	y := t.Year()
	return y >= MinYear && y <= MaxYear
}

// SalesRecord is one observed sale of a SKU on a calendar day.
type SalesRecord struct {
	Date     time.Time `json:"date"`
	SKU      string    `json:"sku"`
	Quantity float64   `json:"quantity"`
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Snapshot is a point-in-time copy of the store contents.
type Snapshot struct {
	Stock map[string]float64
	Sales []SalesRecord
}

// BySKU groups the snapshot's sales by SKU, preserving insertion order within a group.
func (s Snapshot) BySKU() map[string][]SalesRecord {
	groups := make(map[string][]SalesRecord)
	for _, rec := range s.Sales {
		groups[rec.SKU] = append(groups[rec.SKU], rec)
	}
	return groups
}

// StockFor returns the stock level for sku, defaulting to 0.
func (s Snapshot) StockFor(sku string) float64 {
	return s.Stock[sku]
}
