package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
)

// ItemSource supplies the current inventory listing used as prompt context.
type ItemSource interface {
	ListItems(ctx context.Context) ([]model.Item, error)
}

// Assistant answers inventory questions with the listing as context.
type Assistant struct {
	client     Client
	items      ItemSource
	prompts    *PromptBuilder
	limiter    *rateLimiter
	cache      *answerCache
	logger     *slog.Logger
	now        func() time.Time
	thresholds forecast.Thresholds
	retry      common.RetryOptions
}

// NewAssistant wraps client. items may be nil, in which case no inventory
// context is sent.
func NewAssistant(client Client, items ItemSource, thresholds forecast.Thresholds, cfg Config, logger *slog.Logger) (*Assistant, error) {
	prompts, err := NewPromptBuilder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	return &Assistant{
		client:     client,
		items:      items,
		prompts:    prompts,
		limiter:    newRateLimiter(cfg.RateLimit),
		cache:      newAnswerCache(cfg.CacheTTL),
		logger:     logger,
		now:        time.Now,
		thresholds: thresholds,
		retry: common.RetryOptions{
			MaxAttempts:  maxRetries,
			InitialDelay: delay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Ask answers question. Request failures are returned as errors.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", common.Validationf("question is required")
	}

	data := PromptData{
		Today:      a.now().Format(model.DateLayout),
		Question:   question,
		Thresholds: a.thresholds,
	}
	if a.items != nil {
		items, err := a.items.ListItems(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load inventory context: %w", err)
		}
		data.Items = items
	}

	prompt, err := a.prompts.BuildAsk(data)
	if err != nil {
		return "", err
	}

	if answer, ok := a.cache.get(prompt); ok {
		a.logger.Debug("Answer served from cache")
		return answer, nil
	}

	var answer string
	err = common.WithRetry(ctx, func() error {
		if waitErr := a.limiter.wait(ctx); waitErr != nil {
			return waitErr
		}
		var callErr error
		answer, callErr = a.client.Complete(ctx, prompt)
		return callErr
	}, a.retry)
	if err != nil {
		return "", fmt.Errorf("language model request failed: %w", err)
	}

	a.cache.set(prompt, answer)
	a.logger.Debug("Answered question", "items", len(data.Items), "answer_length", len(answer))
	return answer, nil
}

// Close releases the client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

// Unconfigured is the assistant used when no language model is available.
type Unconfigured struct {
	Reason string
}

// Ask always fails with common.ErrNotConfigured.
func (u Unconfigured) Ask(context.Context, string) (string, error) {
	reason := u.Reason
	if reason == "" {
		reason = "language model is not configured"
	}
	return "", fmt.Errorf("%w: %s", common.ErrNotConfigured, reason)
}

// New builds an assistant from cfg, falling back to Unconfigured when no API
// key or provider is available. Other construction errors are returned.
func New(ctx context.Context, cfg Config, items ItemSource, thresholds forecast.Thresholds, logger *slog.Logger) (service.Assistant, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		if errors.Is(err, common.ErrNotConfigured) {
			return Unconfigured{Reason: "set GEMINI_API_KEY to enable questions"}, nil
		}
		return nil, err
	}

	assistant, err := NewAssistant(client, items, thresholds, cfg, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return assistant, nil
}
