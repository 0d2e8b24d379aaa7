package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
)

// NewClient creates a raw LLM client based on the provided configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google", "":
		return newGeminiClient(ctx, cfg)
	case "none", "disabled":
		return nil, fmt.Errorf("%w: language model disabled", common.ErrNotConfigured)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
}
