package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// AppendSales inserts records in a single transaction.
func (s *SQLiteStorage) AppendSales(ctx context.Context, records []model.SalesRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	records, err := NormalizeSalesRecords(records)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sales (date, sku, quantity) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.Date.Format(model.DateLayout), rec.SKU, rec.Quantity); err != nil {
				return fmt.Errorf("failed to insert sale for %s: %w", rec.SKU, err)
			}
		}
		return nil
	})
}

// GetSalesBySKU returns the records for sku in insertion order.
func (s *SQLiteStorage) GetSalesBySKU(ctx context.Context, sku string) ([]model.SalesRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date, sku, quantity FROM sales WHERE sku = ? ORDER BY id`, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSales(rows)
}

// GetSKUs returns the distinct SKUs with sales, sorted.
func (s *SQLiteStorage) GetSKUs(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT sku FROM sales ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skus: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var skus []string
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, fmt.Errorf("failed to scan sku: %w", err)
		}
		skus = append(skus, sku)
	}
	return skus, rows.Err()
}

// CountSales returns the number of stored records.
func (s *SQLiteStorage) CountSales(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// GetStockLevel returns the stock for sku, zero when unknown.
func (s *SQLiteStorage) GetStockLevel(ctx context.Context, sku string) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var quantity float64
	err := s.db.QueryRowContext(ctx, `SELECT quantity FROM stock_levels WHERE sku = ?`, sku).Scan(&quantity)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock level: %w", err)
	}
	return quantity, nil
}

// SetStockLevel replaces the stock for sku.
func (s *SQLiteStorage) SetStockLevel(ctx context.Context, sku string, quantity float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sku, "sku"); err != nil {
		return err
	}
	if err := validateStockLevel(quantity); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_levels (sku, quantity, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(sku) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at
	`, sku, quantity)
	if err != nil {
		return fmt.Errorf("failed to set stock level: %w", err)
	}
	return nil
}

// Snapshot reads every sale and stock level in one transaction.
func (s *SQLiteStorage) Snapshot(ctx context.Context) (model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return model.Snapshot{}, err
	}

	snap := model.Snapshot{Stock: make(map[string]float64)}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT date, sku, quantity FROM sales ORDER BY id`)
		if err != nil {
			return fmt.Errorf("failed to query sales: %w", err)
		}
		snap.Sales, err = scanSales(rows)
		_ = rows.Close()
		if err != nil {
			return err
		}

		stockRows, err := tx.QueryContext(ctx, `SELECT sku, quantity FROM stock_levels`)
		if err != nil {
			return fmt.Errorf("failed to query stock levels: %w", err)
		}
		defer func() { _ = stockRows.Close() }()

		for stockRows.Next() {
			var sku string
			var quantity float64
			if err := stockRows.Scan(&sku, &quantity); err != nil {
				return fmt.Errorf("failed to scan stock level: %w", err)
			}
			snap.Stock[sku] = quantity
		}
		return stockRows.Err()
	})

	return snap, err
}

func scanSales(rows *sql.Rows) ([]model.SalesRecord, error) {
	var out []model.SalesRecord
	for rows.Next() {
		var (
			date string
			rec  model.SalesRecord
		)
		if err := rows.Scan(&date, &rec.SKU, &rec.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		parsed, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sale date %q: %w", date, err)
		}
		rec.Date = parsed
		out = append(out, rec)
	}
	return out, rows.Err()
}
