package forecast

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// Request is the input to a single forecast.
type Request struct {
	SKU          string
	Algorithm    model.Algorithm
	Series       []model.SalesRecord
	Params       model.AlgorithmParams
	Horizon      int
	CurrentStock float64
}

// Summary is the part of a forecast that does not depend on the algorithm.
type Summary struct {
	RunoutDate    string
	Category      model.Category
	AvgDailySales float64
	DaysLeft      int
}

// Engine runs forecasts against a fixed set of thresholds.
type Engine struct {
	now        func() time.Time
	logger     *slog.Logger
	thresholds Thresholds
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the source of "today" for runout dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a forecast engine.
func NewEngine(thresholds Thresholds, opts ...Option) *Engine {
	e := &Engine{
		thresholds: thresholds,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the engine's category thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Summarize derives the sales rate, days left, runout date and category for a
// series without running a forecasting model. Listing and forecasting both go
// through here so they cannot disagree.
func (e *Engine) Summarize(series []model.SalesRecord, currentStock float64) Summary {
	return e.summarizeGrid(Resample(series), currentStock)
}

func (e *Engine) summarizeGrid(grid []float64, currentStock float64) Summary {
	avg := AverageDailySales(grid)
	daysLeft := DaysLeft(currentStock, avg)

	return Summary{
		AvgDailySales: avg,
		DaysLeft:      daysLeft,
		RunoutDate:    e.now().AddDate(0, 0, daysLeft).Format(model.DateLayout),
		Category:      e.thresholds.Classify(daysLeft),
	}
}

// Forecast predicts the next Horizon days of sales. A model that cannot be fit
// never fails the call: the flat average is used instead and the reason is kept
// on the result.
func (e *Engine) Forecast(req Request) model.ForecastResult {
	horizon := max(req.Horizon, 0)
	grid := Resample(req.Series)
	summary := e.summarizeGrid(grid, req.CurrentStock)

	algo := req.Algorithm
	if algo == "" {
		algo = model.DefaultAlgorithm
	}

	values, err := predict(grid, horizon, algo, req.Params, summary.AvgDailySales)
	if err == nil {
		err = checkFinite(algo, values)
	}

	result := model.ForecastResult{
		SKU:           req.SKU,
		Algorithm:     algo,
		AvgDailySales: summary.AvgDailySales,
		DaysLeft:      summary.DaysLeft,
		RunoutDate:    summary.RunoutDate,
		Category:      summary.Category,
		CurrentStock:  req.CurrentStock,
	}

	if err != nil {
		var fitErr *FitError
		if !errors.As(err, &fitErr) {
			fitErr = fitError(algo, err, "unexpected failure")
		}
		e.logger.Debug("Model fit failed, using flat average",
			"sku", req.SKU,
			"algorithm", algo,
			"reason", fitErr.Error())
		result.FallbackReason = fitErr.Error()
		values = repeat(summary.AvgDailySales, horizon)
	}

	result.Forecast = make([]model.ForecastPoint, len(values))
	for i, v := range values {
		result.Forecast[i] = model.ForecastPoint{Day: i + 1, PredictedQty: v}
	}

	return result
}

func predict(grid []float64, horizon int, algo model.Algorithm, params model.AlgorithmParams, avg float64) ([]float64, error) {
	switch algo {
	case model.AlgorithmMovingAverage:
		window := params.Window
		if window == 0 {
			window = DefaultWindow
		}
		return movingAverage(grid, window, horizon)
	case model.AlgorithmExponentialSmoothing:
		return simpleExponentialSmoothing(grid, horizon)
	case model.AlgorithmARIMA:
		return arima110(grid, horizon)
	default:
		return repeat(avg, horizon), nil
	}
}
