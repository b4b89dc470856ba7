// ABOUTME: Shared human-readable formatting for CLI output
// ABOUTME: Tables, pagination footers and list flag handling

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/tui/forms"
	"github.com/markalston/einvoice/internal/tui/styles"
)

// listFlags are the paging flags shared by every list command
type listFlags struct {
	page   int
	limit  int
	search string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "Items per page")
	cmd.Flags().StringVar(&f.search, "search", "", "Free-text search")
}

// params builds list parameters; empty filter values are dropped when encoded
func (f listFlags) params(filters map[string]string) models.ListParams {
	return models.ListParams{Page: f.page, Limit: f.limit, Search: f.search, Filters: filters}
}

// renderTable draws rows under headers with a rounded border
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Muted)).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// formatPage renders a list page as a table with a pagination footer
func formatPage[T any](page *models.Page[T], noun string, headers []string, row func(T) []string) string {
	if len(page.Items) == 0 {
		return fmt.Sprintf("No %s found.", noun)
	}
	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		rows = append(rows, row(item))
	}
	p := page.Pagination
	return renderTable(headers, rows) + "\n" +
		fmt.Sprintf("Page %d of %d (%d %s)", p.Page, max(p.TotalPages, 1), p.Total, noun)
}

// formatFields renders label/value pairs, skipping empty values
func formatFields(pairs ...string) string {
	width := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		width = max(width, len(pairs[i]))
	}
	var sb strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(&sb, "%-*s  %s\n", width+1, pairs[i]+":", pairs[i+1])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatAddress joins the non-empty parts of an address
func formatAddress(a models.Address) string {
	var parts []string
	for _, p := range []string{a.Street, a.PostalCode + " " + a.City, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// isTerminal reports whether stdin is interactive
func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// confirmDelete asks before deleting unless yes is set.
// Without a terminal the deletion is refused.
func confirmDelete(what string, yes bool) error {
	if yes {
		return nil
	}
	if !isTerminal() {
		return fmt.Errorf("refusing to delete %s without --yes", what)
	}
	ok, err := forms.Confirm(fmt.Sprintf("Delete %s?", what))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("deletion of %s cancelled", what)
	}
	return nil
}
