package model

import "strings"

// Category is the restock risk classification of a SKU.
type Category string

// Risk categories, from most to least urgent.
const (
	CategoryCritical Category = "Critical"
	CategorySafe     Category = "Safe"
	CategoryLow      Category = "Low"
)

// NeedsRestock reports whether the category should trigger a notification.
func (c Category) NeedsRestock() bool {
	return c == CategoryLow || c == CategoryCritical
}

// Algorithm names a forecasting method.
type Algorithm string

// Known algorithms. Anything else forecasts the flat average.
const (
	AlgorithmMovingAverage        Algorithm = "moving_average"
	AlgorithmExponentialSmoothing Algorithm = "exponential_smoothing"
	AlgorithmARIMA                Algorithm = "arima"
	AlgorithmFlat                 Algorithm = "flat"
)

// DefaultAlgorithm is used when a request does not name one.
const DefaultAlgorithm = AlgorithmMovingAverage

// ParseAlgorithm accepts the long names and the short aliases ("ma", "exp").
// Unknown names map to AlgorithmFlat.
func ParseAlgorithm(name string) Algorithm {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ma", "moving_average":
		return AlgorithmMovingAverage
	case "exp", "exponential_smoothing", "ses":
		return AlgorithmExponentialSmoothing
	case "arima":
		return AlgorithmARIMA
	default:
		return AlgorithmFlat
	}
}

// AlgorithmParams carries tunables for the forecasting algorithms.
type AlgorithmParams struct {
	// Window is the moving average window; 0 means the default of 7.
	Window int `json:"window,omitempty"`
}

// ForecastPoint is the predicted quantity for one future day.
type ForecastPoint struct {
	Day          int     `json:"day"`
	PredictedQty float64 `json:"predicted_qty"`
}

// ForecastResult is the derived forecast for one SKU. It is never stored.
type ForecastResult struct {
	SKU            string          `json:"sku"`
	Algorithm      Algorithm       `json:"algorithm"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
	RunoutDate     string          `json:"runout_date"`
	Category       Category        `json:"category"`
	Forecast       []ForecastPoint `json:"forecast"`
	AvgDailySales  float64         `json:"avg_daily_sales"`
	CurrentStock   float64         `json:"current_stock"`
	DaysLeft       int             `json:"days_left"`
}

// Item is the listing view of a SKU: the forecast summary without a trajectory.
type Item struct {
	SKU           string   `json:"sku"`
	RunoutDate    string   `json:"runout_date"`
	Category      Category `json:"category"`
	CurrentStock  float64  `json:"current_stock"`
	AvgDailySales float64  `json:"avg_daily_sales"`
	DaysLeft      int      `json:"days_left"`
}

// Item projects the forecast down to its listing row.
func (r ForecastResult) Item() Item {
	return Item{
		SKU:           r.SKU,
		CurrentStock:  r.CurrentStock,
		AvgDailySales: r.AvgDailySales,
		DaysLeft:      r.DaysLeft,
		RunoutDate:    r.RunoutDate,
		Category:      r.Category,
	}
}
