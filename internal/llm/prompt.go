package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"text/template"

	"github.com/Veraticus/the-stock-must-flow/internal/forecast"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PromptData contains all data needed for the ask prompt.
type PromptData struct {
	Today      string
	Question   string
	Items      []model.Item
	Thresholds forecast.Thresholds
}

// PromptBuilder renders prompts from the embedded templates.
type PromptBuilder struct {
	ask *template.Template
}

// NewPromptBuilder parses the embedded templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	funcMap := template.FuncMap{
		"formatQty": formatQty,
	}

	tmpl, err := template.New("ask_prompt.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/ask_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template ask_prompt: %w", err)
	}

	return &PromptBuilder{ask: tmpl}, nil
}

// BuildAsk renders the question prompt with the inventory table.
func (pb *PromptBuilder) BuildAsk(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := pb.ask.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render ask prompt: %w", err)
	}
	return buf.String(), nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
