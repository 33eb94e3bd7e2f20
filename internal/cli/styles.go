// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7D56F4")
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
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

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

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// confidenceStyle grades a confidence score: stage-certain results are green,
// heuristic ones yellow, and zero-confidence ones red.
func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= model.ConfidencePattern:
		return SuccessStyle
	case confidence > 0:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// FormatConfidence renders a confidence as a colored percentage.
func FormatConfidence(confidence float64) string {
	return confidenceStyle(confidence).Render(fmt.Sprintf("%.0f%%", confidence*100))
}

// RenderResult renders one classification in a box.
func RenderResult(input string, result model.ClassificationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Input:     "), input)
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Category:  "), BoldStyle.Render(result.Category))
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Stage:     "), string(result.Reasoning))
	fmt.Fprintf(&b, "%s %s", SubtleStyle.Render("Confidence:"), FormatConfidence(result.Confidence))
	if len(result.Keywords) > 0 {
		fmt.Fprintf(&b, "\n%s %s", SubtleStyle.Render("Keywords:  "), strings.Join(result.Keywords, ", "))
	}
	if result.Detail != "" {
		fmt.Fprintf(&b, "\n%s %s", SubtleStyle.Render("Detail:    "), result.Detail)
	}
	return RenderBox("Classification", b.String())
}

// RenderResultLine renders a classification as one tab-separated line for batch output.
func RenderResultLine(input string, result model.ClassificationResult) string {
	return fmt.Sprintf("%s\t%s\t%s\t%.2f", input, result.Category, result.Reasoning, result.Confidence)
}

// RenderTable renders rows under a header with columns padded to the widest cell.
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range header {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(header))
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{renderRow(header, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderKeywords renders keyword rules as a table.
func RenderKeywords(rules []model.KeywordRule) string {
	if len(rules) == 0 {
		return SubtleStyle.Render("No keyword rules stored.")
	}
	rows := make([][]string, len(rules))
	for i, r := range rules {
		rows[i] = []string{r.Scope.String(), r.Keyword, r.Category, string(r.Source)}
	}
	return RenderTable([]string{"SCOPE", "KEYWORD", "CATEGORY", "SOURCE"}, rows)
}

// RenderLog renders classification log entries as a table.
func RenderLog(entries []model.ClassificationLogEntry) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("No classifications recorded.")
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		user := e.UserID
		if user == "" {
			user = "-"
		}
		rows[i] = []string{
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			user,
			e.InputText,
			e.Category,
			string(e.Method),
			fmt.Sprintf("%.2f", e.Confidence),
		}
	}
	return RenderTable([]string{"TIME", "USER", "INPUT", "CATEGORY", "STAGE", "CONF"}, rows)
}

// RenderCategories renders the category map with its keywords.
func RenderCategories(categories model.CategoryMap) string {
	rows := make([][]string, len(categories))
	for i, c := range categories {
		rows[i] = []string{c.Name, strings.Join(c.Keywords, ", ")}
	}
	return RenderTable([]string{"CATEGORY", "KEYWORDS"}, rows)
}
