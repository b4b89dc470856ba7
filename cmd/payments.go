// ABOUTME: Payment commands
// ABOUTME: List, show, record, delete and statistics over /payments

package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/tui/styles"
)

var (
	paymentList    listFlags
	paymentInvoice string
	paymentMethod  string
	paymentInput   models.PaymentInput
	paymentYes     bool
)

var paymentsCmd = &cobra.Command{
	Use:     "payments",
	Aliases: []string{"payment"},
	Short:   "Manage payments",
}

var paymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runPaymentsList(ctx, w, paymentInvoice, paymentList.params(map[string]string{
			"method": strings.ToUpper(paymentMethod),
		}))
	}),
}

var paymentsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a payment",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runPaymentGet(ctx, w, args[0])
	}),
}

var paymentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a payment against an invoice",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input := paymentInput
		input.Method = models.PaymentMethod(strings.ToUpper(string(input.Method)))
		return runPaymentCreate(ctx, w, input)
	}),
}

var paymentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a payment",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		if err := confirmDelete("payment "+args[0], paymentYes); err != nil {
			return fail(w, err)
		}
		return runPaymentDelete(ctx, w, args[0])
	}),
}

var paymentsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show payment statistics",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runPaymentStats(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsListCmd, paymentsGetCmd, paymentsCreateCmd, paymentsDeleteCmd, paymentsStatsCmd)

	paymentList.register(paymentsListCmd)
	paymentsListCmd.Flags().StringVar(&paymentInvoice, "invoice", "", "Only payments for this invoice id")
	paymentsListCmd.Flags().StringVar(&paymentMethod, "method", "", "Filter by method (BANK_TRANSFER, CARD, CASH, OTHER)")

	f := paymentsCreateCmd.Flags()
	f.StringVar(&paymentInput.InvoiceID, "invoice", "", "Invoice id")
	f.Float64Var(&paymentInput.Amount, "amount", 0, "Amount received")
	f.StringVar((*string)(&paymentInput.Method), "method", string(models.PaymentBankTransfer), "Payment method")
	f.StringVar(&paymentInput.Reference, "reference", "", "Bank or card reference")
	f.StringVar(&paymentInput.PaidAt, "paid-at", "", "Payment date (YYYY-MM-DD, default today)")

	paymentsDeleteCmd.Flags().BoolVarP(&paymentYes, "yes", "y", false, "Delete without asking")
}

// runPaymentsList lists payments, narrowed to one invoice when invoiceID is set
func runPaymentsList(ctx context.Context, w io.Writer, invoiceID string, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		var (
			page *models.Page[models.Payment]
			err  error
		)
		if invoiceID != "" {
			page, err = a.svc.Payments.ListForInvoice(ctx, invoiceID, params)
		} else {
			page, err = a.svc.Payments.List(ctx, params)
		}
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string { return formatPaymentsHuman(page) })
	})
}

func runPaymentGet(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		p, err := a.svc.Payments.Get(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		return output(w, p, func() string { return formatPaymentHuman(p) })
	})
}

func runPaymentCreate(ctx context.Context, w io.Writer, input models.PaymentInput) int {
	if input.InvoiceID == "" || input.Amount <= 0 {
		fmt.Fprintln(w, "Error: --invoice and a positive --amount are required")
		return exitError
	}
	return withSession(w, func(a *app) int {
		p, err := a.svc.Payments.Create(ctx, input)
		if err != nil {
			return fail(w, err)
		}
		return output(w, p, func() string { return "Payment recorded.\n" + formatPaymentHuman(p) })
	})
}

func runPaymentDelete(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		if err := a.svc.Payments.Delete(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintf(w, "Payment %s deleted.\n", id)
		return exitOK
	})
}

func runPaymentStats(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		stats, err := a.svc.Payments.Stats(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, stats, func() string { return formatPaymentStatsHuman(stats) })
	})
}

func formatPaymentsHuman(page *models.Page[models.Payment]) string {
	return formatPage(page, "payments",
		[]string{"ID", "Invoice", "Amount", "Method", "Reference", "Paid"},
		func(p models.Payment) []string {
			return []string{p.ID, p.InvoiceID, styles.Money(p.Amount, p.Currency), string(p.Method), p.Reference, p.PaidAt}
		})
}

func formatPaymentHuman(p *models.Payment) string {
	return formatFields(
		"ID", p.ID,
		"Invoice", p.InvoiceID,
		"Amount", styles.Money(p.Amount, p.Currency),
		"Method", string(p.Method),
		"Reference", p.Reference,
		"Paid", p.PaidAt,
	)
}

func formatPaymentStatsHuman(s *models.PaymentStats) string {
	out := formatFields(
		"Payments", fmt.Sprint(s.Count),
		"Received", fmt.Sprintf("%.2f", s.TotalAmount),
	)
	methods := make([]string, 0, len(s.ByMethod))
	for m := range s.ByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		out += fmt.Sprintf("\n  %-14s %.2f", m, s.ByMethod[m])
	}
	return out
}
