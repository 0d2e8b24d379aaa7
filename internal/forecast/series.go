// Package forecast turns a SKU's sales history into a horizon-length prediction,
// an average daily sales rate, a runout date and a restock category.
package forecast

import (
	"sort"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"gonum.org/v1/gonum/stat"
)

const (
	// averageWindow is the number of trailing days averaged for the sales rate.
	averageWindow = 7
	secondsPerDay = 24 * 60 * 60
)

// Resample lays the records onto a continuous daily grid spanning the first to the
// last observed day. Days without records are zero; records sharing a day are summed.
func Resample(series []model.SalesRecord) []float64 {
	if len(series) == 0 {
		return nil
	}

	days := make([]model.SalesRecord, len(series))
	copy(days, series)
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	first := model.Day(days[0].Date)
	last := model.Day(days[len(days)-1].Date)
	grid := make([]float64, dayIndex(first, last)+1)

	for _, rec := range days {
		grid[dayIndex(first, model.Day(rec.Date))] += rec.Quantity
	}

	return grid
}

// dayIndex counts whole days from first to day. Both are UTC midnights.
func dayIndex(first, day time.Time) int {
	return int((day.Unix() - first.Unix()) / secondsPerDay)
}

// AverageDailySales is the mean of the last seven grid days, or of all days when
// fewer than seven exist. An empty grid averages to zero.
func AverageDailySales(grid []float64) float64 {
	if len(grid) == 0 {
		return 0
	}
	if len(grid) >= averageWindow {
		grid = grid[len(grid)-averageWindow:]
	}
	return stat.Mean(grid, nil)
}
