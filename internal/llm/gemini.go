package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient implements the Client interface for the Gemini API.
type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// newGeminiClient creates a Gemini client. No request is made until Complete.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", common.ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}

	model := client.GenerativeModel(name)
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	model.SetTemperature(temperature)
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxTokens)
	}

	return &geminiClient{client: client, model: model}, nil
}

// Complete sends prompt as a single user turn and returns the reply text.
func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp)
}

// Close releases the underlying connection.
func (c *geminiClient) Close() error {
	return c.client.Close()
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("empty response (finish reason %s)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("response contained no text")
	}
	return out, nil
}

// classifyError marks quota errors as rate limits and other remote failures
// as retryable.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	}
	if strings.Contains(msg, "400") || strings.Contains(msg, "INVALID_ARGUMENT") ||
		strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION_DENIED") {
		return &common.RetryableError{Err: fmt.Errorf("gemini request rejected: %w", err), Retryable: false}
	}
	return &common.RetryableError{Err: fmt.Errorf("gemini request failed: %w", err), Retryable: true}
}
