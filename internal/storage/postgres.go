package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements the Storage interface on a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to databaseURL and verifies the connection.
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	if err := validateString(databaseURL, "databaseURL"); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	slog.Debug("Connected to postgres")

	return &PostgresStorage{pool: pool}, nil
}

// Close closes the connection pool.
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// Migrate creates the tables if they do not exist.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS sales (
			id BIGSERIAL PRIMARY KEY,
			date DATE NOT NULL,
			sku TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL CHECK (quantity >= 0),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sku ON sales(sku, id)`,
		`CREATE TABLE IF NOT EXISTS stock_levels (
			sku TEXT PRIMARY KEY,
			quantity DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, query := range queries {
		if _, err := p.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// AppendSales inserts records in a single transaction.
func (p *PostgresStorage) AppendSales(ctx context.Context, records []model.SalesRecord) error {
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

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`INSERT INTO sales (date, sku, quantity) VALUES ($1, $2, $3)`, rec.Date, rec.SKU, rec.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert sales: %w", err)
	}

	return tx.Commit(ctx)
}

// GetSalesBySKU returns the records for sku in insertion order.
func (p *PostgresStorage) GetSalesBySKU(ctx context.Context, sku string) ([]model.SalesRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `SELECT date, sku, quantity FROM sales WHERE sku = $1 ORDER BY id`, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	return collectSales(rows)
}

// GetSKUs returns the distinct SKUs with sales, sorted.
func (p *PostgresStorage) GetSKUs(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `SELECT DISTINCT sku FROM sales ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skus: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CountSales returns the number of stored records.
func (p *PostgresStorage) CountSales(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// GetStockLevel returns the stock for sku, zero when unknown.
func (p *PostgresStorage) GetStockLevel(ctx context.Context, sku string) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var quantity float64
	err := p.pool.QueryRow(ctx, `SELECT quantity FROM stock_levels WHERE sku = $1`, sku).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock level: %w", err)
	}
	return quantity, nil
}

// SetStockLevel replaces the stock for sku.
func (p *PostgresStorage) SetStockLevel(ctx context.Context, sku string, quantity float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sku, "sku"); err != nil {
		return err
	}
	if err := validateStockLevel(quantity); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO stock_levels (sku, quantity, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (sku) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`, sku, quantity)
	if err != nil {
		return fmt.Errorf("failed to set stock level: %w", err)
	}
	return nil
}

// Snapshot reads every sale and stock level in one repeatable-read transaction.
func (p *PostgresStorage) Snapshot(ctx context.Context) (model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return model.Snapshot{}, err
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT date, sku, quantity FROM sales ORDER BY id`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to query sales: %w", err)
	}
	sales, err := collectSales(rows)
	if err != nil {
		return model.Snapshot{}, err
	}

	stockRows, err := tx.Query(ctx, `SELECT sku, quantity FROM stock_levels`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer stockRows.Close()

	stock := make(map[string]float64)
	for stockRows.Next() {
		var sku string
		var quantity float64
		if err := stockRows.Scan(&sku, &quantity); err != nil {
			return model.Snapshot{}, fmt.Errorf("failed to scan stock level: %w", err)
		}
		stock[sku] = quantity
	}
	if err := stockRows.Err(); err != nil {
		return model.Snapshot{}, err
	}

	return model.Snapshot{Sales: sales, Stock: stock}, nil
}

func collectSales(rows pgx.Rows) ([]model.SalesRecord, error) {
	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SalesRecord, error) {
		var rec model.SalesRecord
		err := row.Scan(&rec.Date, &rec.SKU, &rec.Quantity)
		rec.Date = model.Day(rec.Date)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales: %w", err)
	}
	return sales, nil
}
