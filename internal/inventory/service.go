// Package inventory owns the sales dataset and stock levels and answers listing,
// forecasting, notification and export requests over them.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/ingest"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
)

// DefaultHorizon is the number of days forecast when a request does not say.
const DefaultHorizon = 30

// AlertSubject is the subject line of restock notifications.
const AlertSubject = "Inventory Alert"

// Service coordinates the store, the forecast engine and the notifier.
// Operations are serialised so each one sees a consistent dataset.
type Service struct {
	store    service.Storage
	notifier service.Notifier
	engine   *forecast.Engine
	logger   *slog.Logger
	mu       sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates an inventory service. A nil notifier drops all alerts.
func New(store service.Storage, engine *forecast.Engine, notifier service.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		engine:   engine,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the forecast engine the service delegates to.
func (s *Service) Engine() *forecast.Engine {
	return s.engine
}

// Ingest validates and appends records, returning how many were stored.
func (s *Service) Ingest(ctx context.Context, records []model.SalesRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AppendSales(ctx, records); err != nil {
		return 0, err
	}

	s.logger.Info("Ingested sales", "rows", len(records))
	return len(records), nil
}

// IngestFile decodes an uploaded file (CSV, or JSON when the name ends in
// .json) and appends its records.
func (s *Service) IngestFile(ctx context.Context, filename string, r io.Reader) (int, error) {
	records, err := ingest.Parse(filename, r)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, records)
}

// ListItems summarises every SKU with sales, ordered by SKU.
func (s *Service) ListItems(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}

	groups := snap.BySKU()
	items := make([]model.Item, 0, len(groups))
	for _, sku := range slices.Sorted(maps.Keys(groups)) {
		stock := snap.StockFor(sku)
		summary := s.engine.Summarize(groups[sku], stock)
		items = append(items, model.Item{
			SKU:           sku,
			CurrentStock:  stock,
			AvgDailySales: summary.AvgDailySales,
			DaysLeft:      summary.DaysLeft,
			RunoutDate:    summary.RunoutDate,
			Category:      summary.Category,
		})
	}

	return items, nil
}

// PredictRequest asks for a forecast of one SKU.
type PredictRequest struct {
	// Horizon is the number of days to forecast; nil means DefaultHorizon.
	Horizon *int
	// CurrentStock, when set, replaces the stored stock level before forecasting.
	CurrentStock *float64
	SKU          string
	Algorithm    string
	Params       model.AlgorithmParams
}

// Predict forecasts a single SKU. The stock override is applied even when the
// SKU turns out to have no sales.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (model.ForecastResult, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return model.ForecastResult{}, common.Validationf("sku is required")
	}

	horizon := DefaultHorizon
	if req.Horizon != nil {
		horizon = *req.Horizon
	}
	if horizon <= 0 {
		return model.ForecastResult{}, common.Validationf("horizon must be positive, got %d", horizon)
	}
	if req.Params.Window < 0 {
		return model.ForecastResult{}, common.Validationf("window must not be negative, got %d", req.Params.Window)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.CurrentStock != nil {
		if err := s.store.SetStockLevel(ctx, sku, *req.CurrentStock); err != nil {
			return model.ForecastResult{}, err
		}
	}

	sales, err := s.store.GetSalesBySKU(ctx, sku)
	if err != nil {
		return model.ForecastResult{}, fmt.Errorf("failed to load sales: %w", err)
	}
	if len(sales) == 0 {
		return model.ForecastResult{}, fmt.Errorf("%w: SKU %s", common.ErrNotFound, sku)
	}

	stock, err := s.store.GetStockLevel(ctx, sku)
	if err != nil {
		return model.ForecastResult{}, fmt.Errorf("failed to load stock level: %w", err)
	}

	return s.engine.Forecast(forecast.Request{
		SKU:          sku,
		Algorithm:    model.ParseAlgorithm(req.Algorithm),
		Series:       sales,
		Params:       req.Params,
		Horizon:      horizon,
		CurrentStock: stock,
	}), nil
}

// NotifyResult reports which SKUs were flagged and who was told.
type NotifyResult struct {
	NotifiedItems []model.ForecastResult `json:"notified_items"`
	Emails        []string               `json:"emails"`
}

// NotifyScan forecasts every SKU with the default settings and sends one alert
// listing the Low and Critical ones. Nothing is sent when there are no
// recipients or nothing is flagged. Delivery failures are logged, not returned.
func (s *Service) NotifyScan(ctx context.Context, recipients []string) (NotifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := NotifyResult{
		NotifiedItems: []model.ForecastResult{},
		Emails:        cleanRecipients(recipients),
	}

	skus, err := s.store.GetSKUs(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list SKUs: %w", err)
	}

	for _, sku := range skus {
		sales, err := s.store.GetSalesBySKU(ctx, sku)
		if err != nil {
			return result, fmt.Errorf("failed to load sales for %s: %w", sku, err)
		}
		stock, err := s.store.GetStockLevel(ctx, sku)
		if err != nil {
			return result, fmt.Errorf("failed to load stock level for %s: %w", sku, err)
		}

		res := s.engine.Forecast(forecast.Request{
			SKU:          sku,
			Algorithm:    model.DefaultAlgorithm,
			Series:       sales,
			Horizon:      DefaultHorizon,
			CurrentStock: stock,
		})
		if res.Category.NeedsRestock() {
			result.NotifiedItems = append(result.NotifiedItems, res)
		}
	}

	if len(result.Emails) == 0 || len(result.NotifiedItems) == 0 {
		return result, nil
	}

	body, err := AlertBody(result.NotifiedItems)
	if err != nil {
		return result, err
	}

	if s.notifier == nil {
		s.logger.Warn("No notifier configured, alert dropped", "items", len(result.NotifiedItems))
		return result, nil
	}
	if err := s.notifier.Send(ctx, result.Emails, AlertSubject, body); err != nil {
		s.logger.Error("Failed to send restock alert",
			"recipients", result.Emails,
			"error", err)
	}

	return result, nil
}

// AlertBody renders the notification text for the flagged forecasts.
func AlertBody(items []model.ForecastResult) (string, error) {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode alert: %w", err)
	}
	return "Low/Critical stock alert:\n" + string(data), nil
}

// Summary returns one line per SKU in the form "SKU: N units, ~D days left".
func (s *Service) Summary(ctx context.Context) ([]string, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s: %s units, ~%d days left", item.SKU, formatQuantity(item.CurrentStock), item.DaysLeft)
	}
	return lines, nil
}

func cleanRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
