// Package agent talks to a running stock backend over HTTP and makes simple
// restock decisions from its answers.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps status codes onto the common sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return common.ErrValidation
	case e.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case e.StatusCode == http.StatusServiceUnavailable:
		return common.ErrNotConfigured
	case e.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case e.StatusCode >= 500:
		return &common.RetryableError{Err: errors.New(e.Message), Retryable: true}
	default:
		return nil
	}
}

// Client calls the backend HTTP API.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	retry      common.RetryOptions
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryOptions overrides the retry policy for idempotent calls.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(c *Client) {
		c.retry = opts
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListItems fetches the per-SKU listing.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var out struct {
		Items []model.Item `json:"items"`
	}
	err := common.WithRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, "/items", nil, &out)
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return out.Items, nil
}

// ForecastRequest mirrors the /predict body.
type ForecastRequest struct {
	Horizon      *int                  `json:"horizon,omitempty"`
	CurrentStock *float64              `json:"current_stock,omitempty"`
	SKU          string                `json:"sku"`
	Algorithm    string                `json:"algorithm,omitempty"`
	Params       model.AlgorithmParams `json:"params"`
}

// Forecast requests a forecast for one SKU.
func (c *Client) Forecast(ctx context.Context, req ForecastRequest) (model.ForecastResult, error) {
	var out model.ForecastResult
	err := common.WithRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodPost, "/predict", req, &out)
	}, c.retry)
	if err != nil {
		return model.ForecastResult{}, fmt.Errorf("failed to forecast %s: %w", req.SKU, err)
	}
	return out, nil
}

// Notify asks the backend to scan and alert emails. It is not retried.
func (c *Client) Notify(ctx context.Context, emails []string) (inventory.NotifyResult, error) {
	if emails == nil {
		emails = []string{}
	}
	var out inventory.NotifyResult
	if err := c.doJSON(ctx, http.MethodPost, "/notify", map[string][]string{"emails": emails}, &out); err != nil {
		return inventory.NotifyResult{}, fmt.Errorf("failed to notify: %w", err)
	}
	return out, nil
}

// UploadResult is the /upload-sales response.
type UploadResult struct {
	Message string `json:"message"`
	Rows    int    `json:"rows"`
}

// Upload sends a sales file as multipart form data. It is not retried.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-sales", &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadResult
	if err := c.do(req, &out); err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload: %w", err)
	}
	return out, nil
}

// Ask forwards a question to the backend assistant.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/ask", map[string]string{"question": question}, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling backend", "method", req.Method, "url", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		msg := fmt.Sprintf("could not reach the backend at %s (is \"stock serve\" running?)", c.baseURL)
		return &common.RetryableError{Err: common.NewUserError(msg, err), Retryable: req.Context().Err() == nil}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
