// ABOUTME: Dashboard command summarising the organization's activity
// ABOUTME: Fetches statistics concurrently and renders them with the TUI dashboard panels

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/tui/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show invoice, customer and payment statistics",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runDashboard(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// fetchSummary loads every dashboard section in parallel. A section that fails
// is left nil; an authorization failure aborts the whole fetch.
func fetchSummary(ctx context.Context, a *app) (*dashboard.Summary, error) {
	summary := &dashboard.Summary{User: a.session.State().User}
	g, ctx := errgroup.WithContext(ctx)

	section := func(name string, fn func() error) {
		g.Go(func() error {
			err := fn()
			if err == nil {
				return nil
			}
			if apiclient.IsUnauthorized(err) {
				return err
			}
			slog.Warn("Dashboard section unavailable", "section", name, "error", err)
			return nil
		})
	}

	section("organization", func() (err error) {
		summary.Organization, err = a.svc.Organizations.GetMyOrganization(ctx)
		return err
	})
	section("invoices", func() (err error) {
		summary.Invoices, err = a.svc.Invoices.Stats(ctx)
		return err
	})
	section("customers", func() (err error) {
		summary.Customers, err = a.svc.Customers.Stats(ctx)
		return err
	})
	section("payments", func() (err error) {
		summary.Payments, err = a.svc.Payments.Stats(ctx)
		return err
	})
	section("notifications", func() (err error) {
		summary.UnreadNotices, err = a.svc.Notifications.UnreadCount(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func runDashboard(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		summary, err := fetchSummary(ctx, a)
		if err != nil {
			return fail(w, err)
		}
		if summary.Organization == nil && summary.Invoices == nil && !IsJSONOutput() {
			fmt.Fprintln(w, "No organization yet. Run 'einvoice org create' to set one up.")
		}
		return output(w, summary, func() string {
			return dashboard.New(summary, terminalWidth()).View()
		})
	})
}

// terminalWidth reads COLUMNS, falling back to a wide layout
func terminalWidth() int {
	var cols int
	if _, err := fmt.Sscan(os.Getenv("COLUMNS"), &cols); err == nil && cols > 0 {
		return cols
	}
	return 120
}
