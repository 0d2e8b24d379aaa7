// Package server exposes the inventory service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// BodyLimit caps request bodies, uploads included.
const BodyLimit = 16 * 1024 * 1024

// Inventory is the part of the inventory service the HTTP layer uses.
type Inventory interface {
	IngestFile(ctx context.Context, filename string, r io.Reader) (int, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	Predict(ctx context.Context, req inventory.PredictRequest) (model.ForecastResult, error)
	NotifyScan(ctx context.Context, recipients []string) (inventory.NotifyResult, error)
	Export(ctx context.Context, sku string) ([]byte, error)
	Summary(ctx context.Context) ([]string, error)
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Inventory Inventory
	Assistant service.Assistant
	Logger    *slog.Logger
	// AskPerMinute limits /ask calls per client IP; 0 means 30.
	AskPerMinute int
}

// New builds the fiber app with middleware and routes registered.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handler{inv: deps.Inventory, assistant: deps.Assistant, logger: deps.Logger}

	app := fiber.New(fiber.Config{
		AppName:               "stock",
		BodyLimit:             BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(deps.Logger, h.errorHandler))
	app.Use(cors.New())

	askLimit := deps.AskPerMinute
	if askLimit <= 0 {
		askLimit = 30
	}

	app.Get("/", h.home)
	app.Get("/health", h.health)
	app.Post("/upload-sales", h.uploadSales)
	app.Get("/items", h.listItems)
	app.Post("/predict", h.predict)
	app.Post("/notify", h.notify)
	app.Get("/download-sku/:sku", h.downloadSKU)
	app.Post("/ask", limiter.New(limiter.Config{
		Max:        askLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Rate limit exceeded"})
		},
	}), h.ask)

	return app
}

// Run serves app on addr until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger, onError fiber.ErrorHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := onError(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.UserContext(), level, "HTTP request",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start))
		return nil
	}
}
