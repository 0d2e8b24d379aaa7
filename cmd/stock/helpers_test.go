package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/the-stock-must-flow/internal/agent"
	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/config"
	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/Veraticus/the-stock-must-flow/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmails(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{name: "none", args: nil, expected: nil},
		{name: "comma separated", args: []string{"a@x.com, b@x.com"}, expected: []string{"a@x.com", "b@x.com"}},
		{name: "several args", args: []string{"a@x.com", "b@x.com,"}, expected: []string{"a@x.com", "b@x.com"}},
		{name: "blanks dropped", args: []string{" , "}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitEmails(tt.args))
		})
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "plain error", err: errors.New("boom"), want: "boom\n"},
		{
			name: "wrapped user error",
			err: fmt.Errorf("failed to list items: %w",
				common.NewUserError("could not reach the backend", errors.New("dial tcp: connection refused"))),
			want: "could not reach the backend\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestParseForecastArgs(t *testing.T) {
	req, err := parseForecastArgs([]string{"SKU001"})
	require.NoError(t, err)
	assert.Equal(t, "SKU001", req.SKU)
	assert.Nil(t, req.Horizon)
	assert.Nil(t, req.CurrentStock)

	req, err = parseForecastArgs([]string{"SKU001", "14", "250.5"})
	require.NoError(t, err)
	require.NotNil(t, req.Horizon)
	require.NotNil(t, req.CurrentStock)
	assert.Equal(t, 14, *req.Horizon)
	assert.InDelta(t, 250.5, *req.CurrentStock, 1e-9)

	for _, args := range [][]string{
		{"SKU001", "0"},
		{"SKU001", "ten"},
		{"SKU001", "5", "-1"},
	} {
		_, err := parseForecastArgs(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestFormatDecision(t *testing.T) {
	safe := formatDecision(agent.Decision{Decision: agent.DecisionNoAction, Message: "All items safe"})
	assert.Contains(t, safe, "All items safe")

	notified := formatDecision(agent.Decision{
		Decision: agent.DecisionNotified,
		Count:    1,
		Issues:   []model.Item{{SKU: "SKU002", Category: model.CategoryCritical}},
		NotifyResult: &inventory.NotifyResult{
			Emails: []string{"ops@example.com"},
		},
	})
	assert.Contains(t, notified, "1 SKU(s) need restocking")
	assert.Contains(t, notified, "SKU002")
	assert.Contains(t, notified, "ops@example.com")
}

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	return config.Settings{
		Database:   storage.Config{Driver: storage.DriverMemory},
		Thresholds: forecast.DefaultThresholds(),
		Sample:     config.SampleSettings{Preload: true},
	}
}

func TestInitInventory_SeedsSample(t *testing.T) {
	ctx := context.Background()

	svc, store, err := initInventory(ctx, testSettings(t), common.Discard())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(inventory.SampleStock))
}

func TestInitInventory_CustomSampleAndSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	samplePath := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(samplePath, []byte("date,sku,quantity\n2024-01-01,X1,3\n2024-01-02,X1,4\n"), 0o600))

	settings := testSettings(t)
	settings.Database = storage.Config{Driver: storage.DriverSQLite, Path: filepath.Join(dir, "nested", "stock.db")}
	settings.Sample.Path = samplePath

	svc, store, err := initInventory(ctx, settings, common.Discard())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "X1", items[0].SKU)
}

func TestInitInventory_WiresThresholdsAndNotifier(t *testing.T) {
	var logs bytes.Buffer
	settings := testSettings(t)
	settings.Sample.Preload = false
	settings.Thresholds = forecast.Thresholds{LowDays: 3, SafeDays: 10}

	svc, store, err := initInventory(context.Background(), settings, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, settings.Thresholds, svc.Engine().Thresholds())
	assert.Contains(t, logs.String(), "SMTP not configured")
}

func TestInitInventory_NoPreload(t *testing.T) {
	settings := testSettings(t)
	settings.Sample.Preload = false

	svc, store, err := initInventory(context.Background(), settings, common.Discard())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestChatLoop(t *testing.T) {
	var asked []string
	ask := func(_ context.Context, q string) (string, error) {
		asked = append(asked, q)
		if q == "bad" {
			return "", common.Validationf("question is required")
		}
		return "Restock " + q, nil
	}

	var out bytes.Buffer
	err := chatLoop(context.Background(), strings.NewReader("SKU001\n\nbad\nSKU002\n"), &out, ask)
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU001", "bad", "SKU002"}, asked)
	assert.Contains(t, out.String(), "Restock SKU001")
	assert.Contains(t, out.String(), "question is required")
	assert.Contains(t, out.String(), "Restock SKU002")
}

func TestAnswer_NotConfigured(t *testing.T) {
	ask := func(context.Context, string) (string, error) {
		return "", fmt.Errorf("%w: no api key", common.ErrNotConfigured)
	}
	err := answer(context.Background(), &bytes.Buffer{}, ask, "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
