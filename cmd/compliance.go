// ABOUTME: Compliance and notification commands
// ABOUTME: Tax-authority submissions, country rules and the user's notification inbox

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/models"
)

var (
	submissionList   listFlags
	submissionStatus string
	notificationList listFlags
	unreadOnly       bool
	notificationYes  bool
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Submit invoices to tax authorities and inspect country rules",
}

var complianceSubmitCmd = &cobra.Command{
	Use:   "submit <invoice-id>",
	Short: "Submit an invoice for compliance",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runComplianceSubmit(ctx, w, args[0])
	}),
}

var complianceStatusCmd = &cobra.Command{
	Use:   "status <invoice-id>",
	Short: "Show the compliance status of an invoice",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runComplianceStatus(ctx, w, args[0])
	}),
}

var complianceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compliance submissions",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runSubmissionsList(ctx, w, submissionList.params(map[string]string{
			"status": strings.ToUpper(submissionStatus),
		}))
	}),
}

var complianceCountriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List supported countries",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runCountries(ctx, w)
	}),
}

var complianceCountryCmd = &cobra.Command{
	Use:   "country <code>",
	Short: "Show the e-invoicing rules of a country",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runCountry(ctx, w, args[0])
	}),
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notification"},
	Short:   "Read and manage notifications",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runNotificationsList(ctx, w, notificationParams())
	}),
}

var notificationsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread notification count",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runUnreadCount(ctx, w)
	}),
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runMarkRead(ctx, w, args[0])
	}),
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runMarkAllRead(ctx, w)
	}),
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		if err := confirmDelete("notification "+args[0], notificationYes); err != nil {
			return fail(w, err)
		}
		return runNotificationDelete(ctx, w, args[0])
	}),
}

func init() {
	rootCmd.AddCommand(complianceCmd, notificationsCmd)
	complianceCmd.AddCommand(complianceSubmitCmd, complianceStatusCmd, complianceListCmd,
		complianceCountriesCmd, complianceCountryCmd)
	notificationsCmd.AddCommand(notificationsUnreadCmd, notificationsReadCmd, notificationsReadAllCmd, notificationsDeleteCmd)

	submissionList.register(complianceListCmd)
	complianceListCmd.Flags().StringVar(&submissionStatus, "status", "", "Filter by status (PENDING, ACCEPTED, REJECTED)")

	notificationList.register(notificationsCmd)
	notificationsCmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")
	notificationsDeleteCmd.Flags().BoolVarP(&notificationYes, "yes", "y", false, "Delete without asking")
}

func notificationParams() models.ListParams {
	filters := map[string]string{}
	if unreadOnly {
		filters["unread"] = "true"
	}
	return notificationList.params(filters)
}

func runComplianceSubmit(ctx context.Context, w io.Writer, invoiceID string) int {
	return withSession(w, func(a *app) int {
		sub, err := a.svc.Compliance.Submit(ctx, invoiceID)
		if err != nil {
			return fail(w, err)
		}
		return output(w, sub, func() string { return formatSubmissionHuman(sub) })
	})
}

// runComplianceStatus exits 1 when the invoice has not been submitted
func runComplianceStatus(ctx context.Context, w io.Writer, invoiceID string) int {
	return withSession(w, func(a *app) int {
		sub, err := a.svc.Compliance.Status(ctx, invoiceID)
		if err != nil {
			if apiclient.IsNotFound(err) {
				fmt.Fprintf(w, "Invoice %s has not been submitted for compliance.\n", invoiceID)
				return exitNegative
			}
			return fail(w, err)
		}
		return output(w, sub, func() string { return formatSubmissionHuman(sub) })
	})
}

func runSubmissionsList(ctx context.Context, w io.Writer, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		page, err := a.svc.Compliance.ListSubmissions(ctx, params)
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string {
			return formatPage(page, "submissions",
				[]string{"ID", "Invoice", "Country", "Status", "Reference", "Submitted"},
				func(s models.ComplianceSubmission) []string {
					return []string{s.ID, s.InvoiceID, s.Country, string(s.Status), s.Reference, formatTime(s.SubmittedAt)}
				})
		})
	})
}

func runCountries(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		countries, err := a.svc.Compliance.ListCountries(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, countries, func() string { return formatCountriesHuman(countries) })
	})
}

func runCountry(ctx context.Context, w io.Writer, code string) int {
	return withSession(w, func(a *app) int {
		c, err := a.svc.Compliance.GetCountryConfig(ctx, code)
		if err != nil {
			return fail(w, err)
		}
		return output(w, c, func() string { return formatCountryHuman(c) })
	})
}

func runNotificationsList(ctx context.Context, w io.Writer, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		page, err := a.svc.Notifications.List(ctx, params)
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string {
			return formatPage(page, "notifications",
				[]string{"ID", "", "Title", "Message", "Received"},
				func(n models.Notification) []string {
					mark := "•"
					if n.Read {
						mark = ""
					}
					return []string{n.ID, mark, n.Title, n.Message, formatTime(n.CreatedAt)}
				})
		})
	})
}

func runUnreadCount(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		n, err := a.svc.Notifications.UnreadCount(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, map[string]int{"count": n}, func() string {
			return fmt.Sprintf("%d unread notification(s)", n)
		})
	})
}

func runMarkRead(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		n, err := a.svc.Notifications.MarkRead(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		return output(w, n, func() string { return fmt.Sprintf("Marked %q as read.", n.Title) })
	})
}

func runMarkAllRead(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		n, err := a.svc.Notifications.MarkAllRead(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, map[string]int{"updated": n}, func() string {
			return fmt.Sprintf("Marked %d notification(s) as read.", n)
		})
	})
}

func runNotificationDelete(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		if err := a.svc.Notifications.Delete(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintf(w, "Notification %s deleted.\n", id)
		return exitOK
	})
}

func formatSubmissionHuman(s *models.ComplianceSubmission) string {
	return formatFields(
		"Submission", s.ID,
		"Invoice", s.InvoiceID,
		"Country", s.Country,
		"Status", string(s.Status),
		"Reference", s.Reference,
		"Message", s.Message,
		"Submitted", formatTime(s.SubmittedAt),
	)
}

func formatCountriesHuman(countries []models.CountryConfig) string {
	if len(countries) == 0 {
		return "No countries configured."
	}
	rows := make([][]string, 0, len(countries))
	for _, c := range countries {
		required := "no"
		if c.ComplianceRequired {
			required = "yes"
		}
		rows = append(rows, []string{c.Code, c.Name, c.Currency, c.Format, required})
	}
	return renderTable([]string{"Code", "Name", "Currency", "Format", "Compliance"}, rows)
}

func formatCountryHuman(c *models.CountryConfig) string {
	rates := make([]string, 0, len(c.VATRates))
	for _, r := range c.VATRates {
		rates = append(rates, fmt.Sprintf("%g%%", r))
	}
	required := "no"
	if c.ComplianceRequired {
		required = "yes"
	}
	return formatFields(
		"Country", fmt.Sprintf("%s (%s)", c.Name, c.Code),
		"Currency", c.Currency,
		"Format", c.Format,
		"Tax ID", c.TaxIDLabel,
		"VAT rates", strings.Join(rates, ", "),
		"Compliance", required,
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
