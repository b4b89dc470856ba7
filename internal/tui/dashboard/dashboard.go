// ABOUTME: Dashboard component summarising an organization's invoicing activity
// ABOUTME: Renders invoice, customer and payment statistics in lipgloss panels

package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/tui/styles"
)

// Summary is everything the dashboard shows
type Summary struct {
	User          *models.User          `json:"user,omitempty"`
	Organization  *models.Organization  `json:"organization,omitempty"`
	Invoices      *models.InvoiceStats  `json:"invoices,omitempty"`
	Customers     *models.CustomerStats `json:"customers,omitempty"`
	Payments      *models.PaymentStats  `json:"payments,omitempty"`
	UnreadNotices int                   `json:"unreadNotifications"`
}

// Dashboard displays a Summary
type Dashboard struct {
	summary *Summary
	width   int
}

// New creates a dashboard for summary
func New(summary *Summary, width int) *Dashboard {
	return &Dashboard{summary: summary, width: width}
}

// SetWidth updates the dashboard width
func (d *Dashboard) SetWidth(width int) {
	d.width = width
}

func (d *Dashboard) currency() string {
	if d.summary.Organization != nil {
		return d.summary.Organization.Currency
	}
	return ""
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.summary == nil {
		return styles.Panel.Render("Loading dashboard...")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("E-Invoicing Dashboard"))
	sb.WriteString("\n")
	if u := d.summary.User; u != nil {
		who := u.Email
		if name := u.FullName(); name != "" {
			who = name + " <" + u.Email + ">"
		}
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%s · %s", who, u.Role)))
		sb.WriteString("\n")
	}
	if o := d.summary.Organization; o != nil {
		sb.WriteString(styles.Subtitle.Render(o.Name))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	panels := []string{d.invoicePanel(), d.customerPanel(), d.paymentPanel()}
	if d.width > 0 && d.width < 90 {
		sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, panels...))
	} else {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	}
	sb.WriteString("\n")

	notice := fmt.Sprintf("Unread notifications: %d", d.summary.UnreadNotices)
	if d.summary.UnreadNotices > 0 {
		sb.WriteString(styles.StatusWarning.Render(notice))
	} else {
		sb.WriteString(styles.Subtitle.Render(notice))
	}
	return sb.String()
}

func (d *Dashboard) invoicePanel() string {
	s := d.summary.Invoices
	if s == nil {
		return styles.Panel.Render("Invoices\nunavailable")
	}
	cur := d.currency()
	lines := []string{
		styles.ValueStyle.Render("Invoices"),
		fmt.Sprintf("Total      %d", s.Total),
		fmt.Sprintf("Draft      %d", s.Draft),
		fmt.Sprintf("Submitted  %d", s.Submitted),
		fmt.Sprintf("Paid       %d", s.Paid),
	}
	overdue := fmt.Sprintf("Overdue    %d", s.Overdue)
	if s.Overdue > 0 {
		overdue = styles.StatusCritical.Render(overdue)
	}
	lines = append(lines,
		overdue,
		"",
		"Billed       "+styles.Money(s.TotalAmount, cur),
		"Collected    "+styles.StatusOK.Render(styles.Money(s.PaidAmount, cur)),
		"Outstanding  "+styles.Money(s.OutstandingAmount, cur),
		styles.CollectionBar(s.PaidAmount, s.TotalAmount, 16),
	)
	return styles.ActivePanel.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) customerPanel() string {
	s := d.summary.Customers
	if s == nil {
		return styles.Panel.Render("Customers\nunavailable")
	}
	return styles.Panel.Render(strings.Join([]string{
		styles.ValueStyle.Render("Customers"),
		fmt.Sprintf("Total          %d", s.Total),
		fmt.Sprintf("New this month %d", s.NewThisMonth),
		fmt.Sprintf("With invoices  %d", s.WithInvoices),
	}, "\n"))
}

func (d *Dashboard) paymentPanel() string {
	s := d.summary.Payments
	if s == nil {
		return styles.Panel.Render("Payments\nunavailable")
	}
	lines := []string{
		styles.ValueStyle.Render("Payments"),
		fmt.Sprintf("Count   %d", s.Count),
		"Amount  " + styles.Money(s.TotalAmount, d.currency()),
	}
	methods := make([]string, 0, len(s.ByMethod))
	for m := range s.ByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		lines = append(lines, fmt.Sprintf("  %-14s %.2f", m, s.ByMethod[m]))
	}
	return styles.Panel.Render(strings.Join(lines, "\n"))
}
