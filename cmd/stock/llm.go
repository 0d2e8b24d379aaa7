package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/llm"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
)

// createAssistant builds the language model assistant. It never fails for a
// missing API key; the returned assistant then reports ErrNotConfigured.
// The close function is always safe to call.
func createAssistant(ctx context.Context, cfg llm.Config, thresholds forecast.Thresholds, items llm.ItemSource) (service.Assistant, func(), error) {
	assistant, err := llm.New(ctx, cfg, items, thresholds, slog.Default())
	if err != nil {
		return nil, func() {}, err
	}

	if _, ok := assistant.(llm.Unconfigured); ok {
		slog.Warn("Language model not configured; /ask and chat are disabled")
	}

	closeFn := func() {
		if c, ok := assistant.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("Failed to close language model client", "error", err)
			}
		}
	}
	return assistant, closeFn, nil
}
