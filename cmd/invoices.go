// ABOUTME: Invoice commands
// ABOUTME: CRUD, submission, e-mail, PDF/XML download and statistics over /invoices

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/services"
	"github.com/markalston/einvoice/internal/tui/styles"
)

var (
	invoiceList     listFlags
	invoiceStatus   string
	invoiceCustomer string
	invoiceInput    models.InvoiceInput
	invoiceLines    []string
	invoiceFile     string
	invoiceYes      bool
	invoiceOutDir   string
	invoiceEmail    models.EmailRequest
)

var invoicesCmd = &cobra.Command{
	Use:     "invoices",
	Aliases: []string{"invoice"},
	Short:   "Manage invoices",
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoicesList(ctx, w, invoiceList.params(map[string]string{
			"status":     strings.ToUpper(invoiceStatus),
			"customerId": invoiceCustomer,
		}))
	}),
}

var invoicesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an invoice with its lines",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoiceGet(ctx, w, args[0])
	}),
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Draft an invoice",
	Long: `Draft an invoice from a JSON payload and/or flags.

Lines are given as --line "description:quantity:unitPrice[:taxRate]" and may be
repeated. Totals are computed by the server.`,
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input, err := invoicePayload()
		if err != nil {
			return fail(w, err)
		}
		return runInvoiceCreate(ctx, w, input)
	}),
}

var invoicesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a draft invoice",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input, err := invoicePayload()
		if err != nil {
			return fail(w, err)
		}
		return runInvoiceUpdate(ctx, w, args[0], input)
	}),
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a draft invoice",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		if err := confirmDelete("invoice "+args[0], invoiceYes); err != nil {
			return fail(w, err)
		}
		return runInvoiceDelete(ctx, w, args[0])
	}),
}

var invoicesSubmitCmd = &cobra.Command{
	Use:   "submit <id>",
	Short: "Finalise a draft invoice",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoiceSubmit(ctx, w, args[0])
	}),
}

var invoicesPDFCmd = &cobra.Command{
	Use:   "pdf <id>",
	Short: "Download the invoice PDF",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoiceDownload(ctx, w, args[0], "pdf", invoiceOutDir)
	}),
}

var invoicesXMLCmd = &cobra.Command{
	Use:   "xml <id>",
	Short: "Download the invoice XML",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoiceDownload(ctx, w, args[0], "xml", invoiceOutDir)
	}),
}

var invoicesEmailCmd = &cobra.Command{
	Use:   "email <id>",
	Short: "E-mail an invoice",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoiceEmail(ctx, w, args[0], invoiceEmail)
	}),
}

var invoicesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show invoice statistics",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runInvoiceStats(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(invoicesListCmd, invoicesGetCmd, invoicesCreateCmd, invoicesUpdateCmd,
		invoicesDeleteCmd, invoicesSubmitCmd, invoicesPDFCmd, invoicesXMLCmd, invoicesEmailCmd, invoicesStatsCmd)

	invoiceList.register(invoicesListCmd)
	invoicesListCmd.Flags().StringVar(&invoiceStatus, "status", "", "Filter by status (DRAFT, SUBMITTED, PAID, ...)")
	invoicesListCmd.Flags().StringVar(&invoiceCustomer, "customer", "", "Filter by customer id")

	for _, c := range []*cobra.Command{invoicesCreateCmd, invoicesUpdateCmd} {
		c.Flags().StringVar(&invoiceInput.CustomerID, "customer", "", "Customer id")
		c.Flags().StringVar(&invoiceInput.Currency, "currency", "", "ISO currency code")
		c.Flags().StringVar(&invoiceInput.IssueDate, "issue-date", "", "Issue date (YYYY-MM-DD)")
		c.Flags().StringVar(&invoiceInput.DueDate, "due-date", "", "Due date (YYYY-MM-DD)")
		c.Flags().StringVar(&invoiceInput.Notes, "notes", "", "Free-text notes")
		c.Flags().StringArrayVar(&invoiceLines, "line", nil, "Line as description:quantity:unitPrice[:taxRate]")
		c.Flags().StringVar(&invoiceFile, "file", "", "JSON payload file ('-' for stdin); flags override its fields")
	}

	invoicesDeleteCmd.Flags().BoolVarP(&invoiceYes, "yes", "y", false, "Delete without asking")
	for _, c := range []*cobra.Command{invoicesPDFCmd, invoicesXMLCmd} {
		c.Flags().StringVarP(&invoiceOutDir, "output", "o", ".", "Directory to save the document in")
	}
	invoicesEmailCmd.Flags().StringVar(&invoiceEmail.To, "to", "", "Recipient address")
	invoicesEmailCmd.Flags().StringVar(&invoiceEmail.Subject, "subject", "", "Subject line")
	invoicesEmailCmd.Flags().StringVar(&invoiceEmail.Message, "message", "", "Message body")
}

// invoicePayload merges the --file payload with flag values
func invoicePayload() (models.InvoiceInput, error) {
	var input models.InvoiceInput
	if invoiceFile != "" {
		if err := readInput(invoiceFile, &input); err != nil {
			return input, err
		}
	}
	for dst, src := range map[*string]string{
		&input.CustomerID: invoiceInput.CustomerID,
		&input.Currency:   invoiceInput.Currency,
		&input.IssueDate:  invoiceInput.IssueDate,
		&input.DueDate:    invoiceInput.DueDate,
		&input.Notes:      invoiceInput.Notes,
	} {
		if src != "" {
			*dst = src
		}
	}
	if len(invoiceLines) > 0 {
		lines, err := parseLines(invoiceLines)
		if err != nil {
			return input, err
		}
		input.Lines = lines
	}
	return input, nil
}

// parseLines parses description:quantity:unitPrice[:taxRate] specs.
// The description may itself contain colons.
func parseLines(specs []string) ([]models.InvoiceLine, error) {
	lines := make([]models.InvoiceLine, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid --line %q: want description:quantity:unitPrice[:taxRate]", spec)
		}

		numbers := parts[len(parts)-2:]
		desc := parts[:len(parts)-2]
		if len(parts) >= 4 {
			if _, err := strconv.ParseFloat(parts[len(parts)-3], 64); err == nil {
				numbers = parts[len(parts)-3:]
				desc = parts[:len(parts)-3]
			}
		}

		vals := make([]float64, 3)
		for i, n := range numbers {
			v, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --line %q: %q is not a number", spec, n)
			}
			vals[i] = v
		}
		lines = append(lines, models.InvoiceLine{
			Description: strings.Join(desc, ":"),
			Quantity:    vals[0],
			UnitPrice:   vals[1],
			TaxRate:     vals[2],
		})
	}
	return lines, nil
}

func runInvoicesList(ctx context.Context, w io.Writer, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		page, err := a.svc.Invoices.List(ctx, params)
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string { return formatInvoicesHuman(page) })
	})
}

func runInvoiceGet(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		inv, err := a.svc.Invoices.Get(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		return output(w, inv, func() string { return formatInvoiceHuman(inv) })
	})
}

func runInvoiceCreate(ctx context.Context, w io.Writer, input models.InvoiceInput) int {
	if input.CustomerID == "" || len(input.Lines) == 0 {
		fmt.Fprintln(w, "Error: --customer and at least one --line are required")
		return exitError
	}
	return withSession(w, func(a *app) int {
		inv, err := a.svc.Invoices.Create(ctx, input)
		if err != nil {
			return fail(w, err)
		}
		return output(w, inv, func() string { return "Invoice created.\n" + formatInvoiceHuman(inv) })
	})
}

func runInvoiceUpdate(ctx context.Context, w io.Writer, id string, input models.InvoiceInput) int {
	return withSession(w, func(a *app) int {
		inv, err := a.svc.Invoices.Update(ctx, id, input)
		if err != nil {
			return fail(w, err)
		}
		return output(w, inv, func() string { return "Invoice updated.\n" + formatInvoiceHuman(inv) })
	})
}

func runInvoiceDelete(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		if err := a.svc.Invoices.Delete(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintf(w, "Invoice %s deleted.\n", id)
		return exitOK
	})
}

func runInvoiceSubmit(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		inv, err := a.svc.Invoices.Submit(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		return output(w, inv, func() string {
			return fmt.Sprintf("Invoice %s submitted.", inv.Number)
		})
	})
}

// runInvoiceDownload fetches the PDF or XML document and writes it into dir
func runInvoiceDownload(ctx context.Context, w io.Writer, id, format, dir string) int {
	return withSession(w, func(a *app) int {
		var (
			file *services.File
			err  error
		)
		if format == "xml" {
			file, err = a.svc.Invoices.DownloadXML(ctx, id)
		} else {
			file, err = a.svc.Invoices.DownloadPDF(ctx, id)
		}
		if err != nil {
			return fail(w, err)
		}
		path, err := services.SaveFile(dir, file)
		if err != nil {
			return fail(w, err)
		}
		res := map[string]any{"path": path, "contentType": file.ContentType, "bytes": len(file.Data)}
		return output(w, res, func() string {
			return fmt.Sprintf("Saved %s (%d bytes)", path, len(file.Data))
		})
	})
}

func runInvoiceEmail(ctx context.Context, w io.Writer, id string, req models.EmailRequest) int {
	if req.To == "" {
		fmt.Fprintln(w, "Error: --to is required")
		return exitError
	}
	return withSession(w, func(a *app) int {
		if err := a.svc.Invoices.SendEmail(ctx, id, req); err != nil {
			return fail(w, err)
		}
		fmt.Fprintf(w, "Invoice %s sent to %s.\n", id, req.To)
		return exitOK
	})
}

func runInvoiceStats(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		stats, err := a.svc.Invoices.Stats(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, stats, func() string { return formatInvoiceStatsHuman(stats) })
	})
}

func formatInvoicesHuman(page *models.Page[models.Invoice]) string {
	return formatPage(page, "invoices",
		[]string{"ID", "Number", "Customer", "Status", "Issued", "Total", "Outstanding"},
		func(inv models.Invoice) []string {
			return []string{
				inv.ID, inv.Number, inv.CustomerName, string(inv.Status), inv.IssueDate,
				styles.Money(inv.Total, inv.Currency), styles.Money(inv.Outstanding(), inv.Currency),
			}
		})
}

func formatInvoiceHuman(inv *models.Invoice) string {
	header := formatFields(
		"Number", inv.Number,
		"ID", inv.ID,
		"Status", string(inv.Status),
		"Customer", strings.TrimSpace(inv.CustomerName+" "+inv.CustomerID),
		"Issued", inv.IssueDate,
		"Due", inv.DueDate,
		"Notes", inv.Notes,
	)

	rows := make([][]string, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		rows = append(rows, []string{
			l.Description,
			strconv.FormatFloat(l.Quantity, 'f', -1, 64),
			styles.Money(l.UnitPrice, inv.Currency),
			strconv.FormatFloat(l.TaxRate, 'f', -1, 64) + "%",
			styles.Money(l.Total, inv.Currency),
		})
	}

	totals := formatFields(
		"Subtotal", styles.Money(inv.Subtotal, inv.Currency),
		"Tax", styles.Money(inv.TaxTotal, inv.Currency),
		"Total", styles.Money(inv.Total, inv.Currency),
		"Paid", styles.Money(inv.AmountPaid, inv.Currency),
		"Outstanding", styles.Money(inv.Outstanding(), inv.Currency),
	)
	return header + "\n" + renderTable([]string{"Description", "Qty", "Unit price", "Tax", "Total"}, rows) + "\n" + totals
}

func formatInvoiceStatsHuman(s *models.InvoiceStats) string {
	return formatFields(
		"Invoices", fmt.Sprint(s.Total),
		"Draft", fmt.Sprint(s.Draft),
		"Submitted", fmt.Sprint(s.Submitted),
		"Paid", fmt.Sprint(s.Paid),
		"Overdue", fmt.Sprint(s.Overdue),
		"Invoiced", fmt.Sprintf("%.2f", s.TotalAmount),
		"Received", fmt.Sprintf("%.2f", s.PaidAmount),
		"Outstanding", fmt.Sprintf("%.2f", s.OutstandingAmount),
	)
}
