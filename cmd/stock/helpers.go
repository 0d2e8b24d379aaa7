package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/agent"
	"github.com/Veraticus/the-stock-must-flow/internal/config"
	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/notify"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/Veraticus/the-stock-must-flow/internal/storage"
	"github.com/spf13/viper"
)

// loadSettings resolves the validated configuration from viper.
func loadSettings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the configured backend, creating the sqlite directory if needed.
func initStorage(ctx context.Context, cfg storage.Config) (service.Storage, error) {
	if cfg.Driver == storage.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if s, ok := store.(*storage.SQLiteStorage); ok {
		slog.Info("Using sqlite database", "path", s.Path())
	}
	return store, nil
}

// initInventory wires storage, the forecast engine and the notifier into an
// inventory service and seeds sample data when configured to. The returned
// store must be closed by the caller.
func initInventory(ctx context.Context, settings config.Settings, logger *slog.Logger) (*inventory.Service, service.Storage, error) {
	store, err := initStorage(ctx, settings.Database)
	if err != nil {
		return nil, nil, err
	}

	engine := forecast.NewEngine(settings.Thresholds, forecast.WithLogger(logger))
	notifier := notify.New(settings.SMTP, logger)
	if !notifier.Configured() {
		logger.Warn("SMTP not configured; restock alerts will only be logged")
	}
	svc := inventory.New(store, engine, notifier, inventory.WithLogger(logger))

	if err := seedSample(ctx, svc, settings.Sample); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return svc, store, nil
}

func seedSample(ctx context.Context, svc *inventory.Service, sample config.SampleSettings) error {
	if !sample.Preload {
		return nil
	}
	if sample.Path == "" {
		_, err := svc.SeedSample(ctx)
		return err
	}

	f, err := os.Open(sample.Path)
	if err != nil {
		return fmt.Errorf("failed to open sample file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = svc.SeedFrom(ctx, filepath.Base(sample.Path), f, nil)
	return err
}

// newBackendClient builds the HTTP client used by the agent commands.
func newBackendClient(settings config.Settings) *agent.Client {
	return agent.NewClient(settings.Backend.URL, settings.Backend.Timeout, agent.WithLogger(slog.Default()))
}

// splitEmails accepts comma separated addresses across any number of arguments.
func splitEmails(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, e := range strings.Split(arg, ",") {
			if e = strings.TrimSpace(e); e != "" {
				out = append(out, e)
			}
		}
	}
	return out
}
