package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/llm"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/Veraticus/the-stock-must-flow/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssistant struct {
	err      error
	answer   string
	question string
}

func (s *stubAssistant) Ask(_ context.Context, q string) (string, error) {
	s.question = q
	return s.answer, s.err
}

type recordingNotifier struct {
	to []string
}

func (r *recordingNotifier) Send(_ context.Context, to []string, _, _ string) error {
	r.to = to
	return nil
}

func (r *recordingNotifier) Configured() bool { return true }

func newTestApp(t *testing.T, assistant service.Assistant, opts testutil.TestStoreOptions) (*fiber.App, *recordingNotifier) {
	t.Helper()
	opts.InMemory = true
	db := testutil.SetupTestStoreWithOptions(t, opts)
	engine := forecast.NewEngine(forecast.DefaultThresholds(),
		forecast.WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
		forecast.WithLogger(common.Discard()))
	notifier := &recordingNotifier{}
	svc := inventory.New(db.Storage, engine, notifier, inventory.WithLogger(common.Discard()))
	return New(Deps{Inventory: svc, Assistant: assistant, Logger: common.Discard()}), notifier
}

func seeded(t *testing.T) testutil.TestStoreOptions {
	return testutil.TestStoreOptions{
		Sales: testutil.NewSalesBuilder(t).Daily("SKU001", 10, 5).Daily("SKU002", 10, 1).Build(),
		Stock: map[string]float64{"SKU001": 100, "SKU002": 500},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-sales", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthAndHome(t *testing.T) {
	app, _ := newTestApp(t, nil, seeded(t))

	resp, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	html, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(html), "Backend Running!")
	assert.Contains(t, string(html), "SKU001: 100 units, ~20 days left<br>SKU002: 500 units, ~500 days left")
}

func TestHome_Empty(t *testing.T) {
	app, _ := newTestApp(t, nil, testutil.TestStoreOptions{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	html, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(html), "No SKUs uploaded yet.")
}

func TestUploadSales(t *testing.T) {
	app, _ := newTestApp(t, nil, testutil.TestStoreOptions{})

	resp, err := app.Test(uploadRequest(t, "sales.csv", "date,sku,quantity\n2024-01-01,A,3\n2024-01-02,A,4\n"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Sales uploaded", body["message"])
	assert.InDelta(t, 2, body["rows"], 0)

	resp, err = app.Test(uploadRequest(t, "sales.json", `[{"date":"2024-01-03","sku":"B","quantity":1}]`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, items := doJSON(t, app, http.MethodGet, "/items", "")
	assert.Len(t, items["items"], 2)
}

func TestUploadSales_Errors(t *testing.T) {
	app, _ := newTestApp(t, nil, testutil.TestStoreOptions{})

	resp, err := app.Test(uploadRequest(t, "", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "No file uploaded", body["error"])

	resp, err = app.Test(uploadRequest(t, "sales.csv", "date,sku\n2024-01-01,A\n"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "CSV must have columns: date, sku, quantity", body["error"])
}

func TestItems(t *testing.T) {
	app, _ := newTestApp(t, nil, seeded(t))

	resp, body := doJSON(t, app, http.MethodGet, "/items", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "SKU001", first["sku"])
	assert.Equal(t, "Low", first["category"])
	assert.InDelta(t, 20, first["days_left"], 0)
	assert.Equal(t, "2024-01-21", first["runout_date"])
}

func TestItems_EmptyStore(t *testing.T) {
	app, _ := newTestApp(t, nil, testutil.TestStoreOptions{})

	_, body := doJSON(t, app, http.MethodGet, "/items", "")
	assert.Equal(t, []any{}, body["items"])
}

func TestPredict(t *testing.T) {
	app, _ := newTestApp(t, nil, seeded(t))

	tests := []struct {
		check  func(t *testing.T, body map[string]any)
		name   string
		body   string
		status int
	}{
		{
			name:   "defaults",
			body:   `{"sku":"SKU001"}`,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Len(t, body["forecast"], 30)
				assert.InDelta(t, 5, body["avg_daily_sales"], 1e-9)
				assert.Equal(t, "Low", body["category"])
				assert.NotContains(t, body, "fallback_reason")
			},
		},
		{
			name:   "override and horizon",
			body:   `{"sku":"SKU001","algorithm":"arima","horizon":7,"current_stock":20}`,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Len(t, body["forecast"], 7)
				assert.Equal(t, "Critical", body["category"])
				assert.InDelta(t, 20, body["current_stock"], 0)
			},
		},
		{
			name:   "window too large falls back",
			body:   `{"sku":"SKU002","algorithm":"ma","params":{"window":50}}`,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.NotEmpty(t, body["fallback_reason"])
			},
		},
		{
			name:   "unknown sku",
			body:   `{"sku":"NOPE"}`,
			status: http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "SKU not found", body["error"])
			},
		},
		{
			name:   "malformed body",
			body:   `{"sku":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "empty body",
			body:   "",
			status: http.StatusBadRequest,
		},
		{
			name:   "zero horizon",
			body:   `{"sku":"SKU001","horizon":0}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestNotify(t *testing.T) {
	app, notifier := newTestApp(t, nil, seeded(t))

	resp, body := doJSON(t, app, http.MethodPost, "/notify", `{"emails":["ops@example.com"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	notified := body["notified_items"].([]any)
	require.Len(t, notified, 1)
	assert.Equal(t, "SKU001", notified[0].(map[string]any)["sku"])
	assert.Equal(t, []any{"ops@example.com"}, body["emails"])
	assert.Equal(t, []string{"ops@example.com"}, notifier.to)

	resp, body = doJSON(t, app, http.MethodPost, "/notify", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["emails"])
}

func TestDownloadSKU(t *testing.T) {
	app, _ := newTestApp(t, nil, seeded(t))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download-sku/SKU002", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "SKU002_sales.csv")

	data, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "date,sku,quantity", lines[0])
	assert.Len(t, lines, 11)

	resp, body := doJSON(t, app, http.MethodGet, "/download-sku/NOPE", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SKU not found", body["error"])
}

func TestAsk(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		assistant := &stubAssistant{answer: "Reorder SKU001."}
		app, _ := newTestApp(t, assistant, seeded(t))

		resp, body := doJSON(t, app, http.MethodPost, "/ask", `{"question":"what now?"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Reorder SKU001.", body["answer"])
		assert.Equal(t, "what now?", assistant.question)
	})

	t.Run("not configured", func(t *testing.T) {
		app, _ := newTestApp(t, llm.Unconfigured{}, seeded(t))

		resp, body := doJSON(t, app, http.MethodPost, "/ask", `{"question":"q"}`)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "language model is not configured", body["error"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		app, _ := newTestApp(t, &stubAssistant{err: errors.New("boom")}, seeded(t))

		resp, _ := doJSON(t, app, http.MethodPost, "/ask", `{"question":"q"}`)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}
