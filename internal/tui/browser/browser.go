// ABOUTME: Interactive invoice browser built on bubbletea
// ABOUTME: Paged table of invoices with spinner while loading; n/p page, r reload, q quit

package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/tui/styles"
)

// Loader fetches one page of invoices
type Loader func(ctx context.Context, params models.ListParams) (*models.Page[models.Invoice], error)

// pageLoadedMsg is sent when a page fetch completes
type pageLoadedMsg struct {
	page *models.Page[models.Invoice]
	err  error
}

var columns = []table.Column{
	{Title: "Number", Width: 12},
	{Title: "Customer", Width: 24},
	{Title: "Status", Width: 10},
	{Title: "Issued", Width: 10},
	{Title: "Due", Width: 10},
	{Title: "Total", Width: 14},
	{Title: "Outstanding", Width: 14},
}

// Model is the browser's bubbletea model
type Model struct {
	ctx     context.Context
	load    Loader
	params  models.ListParams
	table   table.Model
	spinner spinner.Model
	loading bool
	page    *models.Page[models.Invoice]
	err     error
}

// New creates a browser that starts at params.Page
func New(ctx context.Context, load Loader, params models.ListParams) *Model {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 15
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(params.Limit+3),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.Foreground(styles.Text).Background(styles.Primary)
	t.SetStyles(ts)

	return &Model{
		ctx:     ctx,
		load:    load,
		params:  params,
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading: true,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	params := m.params
	return func() tea.Msg {
		page, err := m.load(m.ctx, params)
		return pageLoadedMsg{page: page, err: err}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Height > 8 {
			m.table.SetHeight(min(m.params.Limit+3, msg.Height-6))
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.reload()
		case "n", "right":
			if m.page != nil && m.page.Pagination.HasNext() && !m.loading {
				m.params.Page++
				return m, m.reload()
			}
			return m, nil
		case "p", "left":
			if m.params.Page > 1 && !m.loading {
				m.params.Page--
				return m, m.reload()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.page = msg.page
		m.table.SetRows(rows(msg.page.Items))
		m.table.SetCursor(0)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Selected returns the invoice under the cursor, if any
func (m *Model) Selected() *models.Invoice {
	if m.page == nil {
		return nil
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Items) {
		return nil
	}
	return &m.page.Items[i]
}

func rows(items []models.Invoice) []table.Row {
	out := make([]table.Row, 0, len(items))
	for _, inv := range items {
		out = append(out, table.Row{
			inv.Number,
			inv.CustomerName,
			string(inv.Status),
			inv.IssueDate,
			inv.DueDate,
			styles.Money(inv.Total, inv.Currency),
			styles.Money(inv.Outstanding(), inv.Currency),
		})
	}
	return out
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Invoices"))
	sb.WriteString("\n")

	switch {
	case m.loading && m.page == nil:
		sb.WriteString(m.spinner.View() + " Loading invoices...\n")
	case m.err != nil && m.page == nil:
		sb.WriteString(styles.StatusCritical.Render("Error: "+m.err.Error()) + "\n")
	case m.page != nil && len(m.page.Items) == 0:
		sb.WriteString(styles.Subtitle.Render("No invoices found.") + "\n")
	default:
		sb.WriteString(m.table.View() + "\n")
	}

	if m.page != nil {
		p := m.page.Pagination
		status := fmt.Sprintf("Page %d of %d · %d invoices", p.Page, max(p.TotalPages, 1), p.Total)
		if m.loading {
			status = m.spinner.View() + " " + status
		}
		sb.WriteString(styles.Subtitle.Render(status) + "\n")
		if m.err != nil {
			sb.WriteString(styles.StatusCritical.Render("Error: "+m.err.Error()) + "\n")
		}
		if inv := m.Selected(); inv != nil {
			sb.WriteString(styles.InvoiceStatus(inv.Status) + " " + inv.Number + "\n")
		}
	}

	sb.WriteString(styles.Help.Render(styles.KeyHelp("↑/↓", "select", "n", "next", "p", "prev", "r", "reload", "q", "quit")))
	return sb.String()
}

// Run starts the browser on the terminal's alternate screen
func Run(ctx context.Context, load Loader, params models.ListParams) error {
	_, err := tea.NewProgram(New(ctx, load, params), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
