// ABOUTME: Shared lipgloss styles for consistent TUI and CLI appearance
// ABOUTME: Defines colors, panels, status badges, money formatting and progress bars

package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/einvoice/internal/models"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	Accent    = lipgloss.Color("#8B5CF6")
	Info      = lipgloss.Color("#3B82F6") // Blue

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 2)

	ActivePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 2)

	Help = lipgloss.NewStyle().
		Foreground(Muted).
		MarginTop(1)

	// Key style for keyboard shortcuts
	KeyStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// InvoiceStatus renders an invoice status in its signal color
func InvoiceStatus(s models.InvoiceStatus) string {
	switch s {
	case models.InvoicePaid, models.InvoiceAccepted:
		return StatusOK.Render(string(s))
	case models.InvoiceSubmitted:
		return lipgloss.NewStyle().Foreground(Info).Bold(true).Render(string(s))
	case models.InvoiceRejected, models.InvoiceCancelled:
		return StatusCritical.Render(string(s))
	default:
		return Subtitle.Render(string(s))
	}
}

// Money formats an amount with two decimals and its currency code
func Money(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

// KeyHelp renders "key action" pairs separated by spaces
func KeyHelp(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		if out != "" {
			out += "  "
		}
		out += KeyStyle.Render(pairs[i]) + " " + Subtitle.Render(pairs[i+1])
	}
	return out
}

// CollectionBar renders the share of billed money collected as a bar of width cells.
// Below half is shown as a warning, below a quarter as critical.
func CollectionBar(collected, billed float64, width int) string {
	if width <= 0 {
		width = 20
	}
	percent := 0.0
	if billed > 0 {
		percent = min(max(collected/billed*100, 0), 100)
	}
	filled := int(percent / 100 * float64(width))

	color := Secondary
	switch {
	case percent < 25:
		color = Danger
	case percent < 50:
		color = Warning
	}

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Muted).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s] %3.0f%%", bar, percent)
}
