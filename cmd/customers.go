// ABOUTME: Customer commands
// ABOUTME: List, show, create, update, delete and statistics over /customers

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
)

var (
	customerList    listFlags
	customerCountry string
	customerInput   models.CustomerInput
	customerFile    string
	customerYes     bool
)

var customersCmd = &cobra.Command{
	Use:     "customers",
	Aliases: []string{"customer"},
	Short:   "Manage customers",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runCustomersList(ctx, w, customerList.params(map[string]string{"country": customerCountry}))
	}),
}

var customersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a customer",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runCustomerGet(ctx, w, args[0])
	}),
}

var customersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a customer",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input, err := customerPayload()
		if err != nil {
			return fail(w, err)
		}
		return runCustomerCreate(ctx, w, input)
	}),
}

var customersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a customer",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input, err := customerPayload()
		if err != nil {
			return fail(w, err)
		}
		return runCustomerUpdate(ctx, w, args[0], input)
	}),
}

var customersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a customer without invoices",
	Args:  cobra.ExactArgs(1),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		if err := confirmDelete("customer "+args[0], customerYes); err != nil {
			return fail(w, err)
		}
		return runCustomerDelete(ctx, w, args[0])
	}),
}

var customersStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show customer statistics",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runCustomerStats(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersListCmd, customersGetCmd, customersCreateCmd,
		customersUpdateCmd, customersDeleteCmd, customersStatsCmd)

	customerList.register(customersListCmd)
	customersListCmd.Flags().StringVar(&customerCountry, "country", "", "Filter by country code")

	for _, c := range []*cobra.Command{customersCreateCmd, customersUpdateCmd} {
		c.Flags().StringVar(&customerInput.Name, "name", "", "Customer name")
		c.Flags().StringVar(&customerInput.Email, "email", "", "Billing email")
		c.Flags().StringVar(&customerInput.Phone, "phone", "", "Phone number")
		c.Flags().StringVar(&customerInput.TaxID, "tax-id", "", "Tax identifier")
		c.Flags().StringVar(&customerInput.Address.Country, "country", "", "ISO country code")
		c.Flags().StringVar(&customerFile, "file", "", "JSON payload file ('-' for stdin); flags override its fields")
	}
	customersDeleteCmd.Flags().BoolVarP(&customerYes, "yes", "y", false, "Delete without asking")
}

// customerPayload merges the --file payload with flag values
func customerPayload() (models.CustomerInput, error) {
	var input models.CustomerInput
	if customerFile != "" {
		if err := readInput(customerFile, &input); err != nil {
			return input, err
		}
	}
	for dst, src := range map[*string]string{
		&input.Name:            customerInput.Name,
		&input.Email:           customerInput.Email,
		&input.Phone:           customerInput.Phone,
		&input.TaxID:           customerInput.TaxID,
		&input.Address.Country: customerInput.Address.Country,
	} {
		if src != "" {
			*dst = src
		}
	}
	return input, nil
}

func runCustomersList(ctx context.Context, w io.Writer, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		page, err := a.svc.Customers.List(ctx, params)
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string { return formatCustomersHuman(page) })
	})
}

func runCustomerGet(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		c, err := a.svc.Customers.Get(ctx, id)
		if err != nil {
			return fail(w, err)
		}
		return output(w, c, func() string { return formatCustomerHuman(c) })
	})
}

func runCustomerCreate(ctx context.Context, w io.Writer, input models.CustomerInput) int {
	if input.Name == "" {
		fmt.Fprintln(w, "Error: --name is required")
		return exitError
	}
	return withSession(w, func(a *app) int {
		c, err := a.svc.Customers.Create(ctx, input)
		if err != nil {
			return fail(w, err)
		}
		return output(w, c, func() string { return "Customer created.\n" + formatCustomerHuman(c) })
	})
}

func runCustomerUpdate(ctx context.Context, w io.Writer, id string, input models.CustomerInput) int {
	return withSession(w, func(a *app) int {
		c, err := a.svc.Customers.Update(ctx, id, input)
		if err != nil {
			return fail(w, err)
		}
		return output(w, c, func() string { return "Customer updated.\n" + formatCustomerHuman(c) })
	})
}

func runCustomerDelete(ctx context.Context, w io.Writer, id string) int {
	return withSession(w, func(a *app) int {
		if err := a.svc.Customers.Delete(ctx, id); err != nil {
			return fail(w, err)
		}
		fmt.Fprintf(w, "Customer %s deleted.\n", id)
		return exitOK
	})
}

func runCustomerStats(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		stats, err := a.svc.Customers.Stats(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, stats, func() string {
			return formatFields(
				"Customers", fmt.Sprint(stats.Total),
				"New this month", fmt.Sprint(stats.NewThisMonth),
				"With invoices", fmt.Sprint(stats.WithInvoices),
			)
		})
	})
}

func formatCustomersHuman(page *models.Page[models.Customer]) string {
	return formatPage(page, "customers",
		[]string{"ID", "Name", "Email", "Tax ID", "Country"},
		func(c models.Customer) []string {
			return []string{c.ID, c.Name, c.Email, c.TaxID, c.Address.Country}
		})
}

func formatCustomerHuman(c *models.Customer) string {
	return formatFields(
		"Name", c.Name,
		"ID", c.ID,
		"Email", c.Email,
		"Phone", c.Phone,
		"Tax ID", c.TaxID,
		"Address", formatAddress(c.Address),
	)
}
