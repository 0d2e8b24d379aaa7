// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor).
				Padding(0, 1)

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	StockIcon   = "📦"
	RobotIcon   = "🤖"
	ChartIcon   = "📊"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the stock icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(StockIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// CategoryStyle returns the color for a stock category.
func CategoryStyle(c model.Category) lipgloss.Style {
	switch c {
	case model.CategoryCritical:
		return ErrorStyle.Bold(true)
	case model.CategoryLow:
		return WarningStyle
	default:
		return SuccessStyle
	}
}

// FormatCategory renders a category in its color.
func FormatCategory(c model.Category) string {
	return CategoryStyle(c).Render(string(c))
}

// FormatQuantity prints whole quantities without decimals.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// ItemsTable renders the per-SKU listing with categories colored.
func ItemsTable(items []model.Item) string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{
			item.SKU,
			FormatQuantity(item.CurrentStock),
			strconv.Itoa(item.DaysLeft),
			item.RunoutDate,
			string(item.Category),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers("SKU", "STOCK", "DAYS LEFT", "RUNOUT", "CATEGORY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if col == 4 && row >= 0 && row < len(items) {
				return CategoryStyle(items[row].Category).Padding(0, 1)
			}
			return TableCellStyle
		}).
		String()
}

// ForecastTable renders up to limit forecast points.
func ForecastTable(points []model.ForecastPoint, limit int) string {
	if limit <= 0 || limit > len(points) {
		limit = len(points)
	}
	rows := make([][]string, 0, limit)
	for _, p := range points[:limit] {
		rows = append(rows, []string{strconv.Itoa(p.Day), fmt.Sprintf("%.2f", p.PredictedQty)})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers("DAY", "PREDICTED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		String()
}

// ForecastSummary is the one-line outcome of a forecast.
func ForecastSummary(res model.ForecastResult) string {
	line := fmt.Sprintf("%s: %s units, ~%d days left (runout %s) %s",
		res.SKU, FormatQuantity(res.CurrentStock), res.DaysLeft, res.RunoutDate, FormatCategory(res.Category))
	if res.FallbackReason != "" {
		line += "\n" + SubtleStyle.Render("fell back to average daily sales: "+res.FallbackReason)
	}
	return line
}
