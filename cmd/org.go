// ABOUTME: Organization commands for the caller's tenant
// ABOUTME: Show, create and update the organization

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
)

var (
	orgInput models.OrganizationInput
	orgFile  string
)

var orgCmd = &cobra.Command{
	Use:     "org",
	Aliases: []string{"organization"},
	Short:   "Show your organization",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runOrgShow(ctx, w)
	}),
}

var orgCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an organization and join it as administrator",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input, err := orgPayload()
		if err != nil {
			return fail(w, err)
		}
		return runOrgCreate(ctx, w, input)
	}),
}

var orgUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your organization",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input, err := orgPayload()
		if err != nil {
			return fail(w, err)
		}
		return runOrgUpdate(ctx, w, input)
	}),
}

func init() {
	rootCmd.AddCommand(orgCmd)
	orgCmd.AddCommand(orgCreateCmd, orgUpdateCmd)

	for _, c := range []*cobra.Command{orgCreateCmd, orgUpdateCmd} {
		c.Flags().StringVar(&orgInput.Name, "name", "", "Organization name")
		c.Flags().StringVar(&orgInput.TaxID, "tax-id", "", "Tax identifier")
		c.Flags().StringVar(&orgInput.Country, "country", "", "ISO country code")
		c.Flags().StringVar(&orgInput.Currency, "currency", "", "ISO currency code")
		c.Flags().StringVar(&orgInput.Email, "email", "", "Contact email")
		c.Flags().StringVar(&orgFile, "file", "", "JSON payload file ('-' for stdin); flags override its fields")
	}
}

// orgPayload merges the --file payload with flag values
func orgPayload() (models.OrganizationInput, error) {
	var input models.OrganizationInput
	if orgFile != "" {
		if err := readInput(orgFile, &input); err != nil {
			return input, err
		}
	}
	for dst, src := range map[*string]string{
		&input.Name:     orgInput.Name,
		&input.TaxID:    orgInput.TaxID,
		&input.Country:  orgInput.Country,
		&input.Currency: orgInput.Currency,
		&input.Email:    orgInput.Email,
	} {
		if src != "" {
			*dst = src
		}
	}
	return input, nil
}

// runOrgShow prints the caller's organization; exit 1 when there is none
func runOrgShow(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		org, err := a.svc.Organizations.GetMyOrganization(ctx)
		if err != nil {
			return fail(w, err)
		}
		if org == nil {
			fmt.Fprintln(w, "No organization yet. Run 'einvoice org create' to set one up.")
			return exitNegative
		}
		return output(w, org, func() string { return formatOrgHuman(org) })
	})
}

func runOrgCreate(ctx context.Context, w io.Writer, input models.OrganizationInput) int {
	if input.Name == "" {
		fmt.Fprintln(w, "Error: --name is required")
		return exitError
	}
	return withSession(w, func(a *app) int {
		org, err := a.svc.Organizations.Create(ctx, input)
		if err != nil {
			return fail(w, err)
		}
		// role and organization changed server-side
		if _, err := a.session.LoadProfile(ctx); err != nil {
			fmt.Fprintf(w, "Warning: could not reload profile: %s\n", describe(err))
		}
		return output(w, org, func() string { return "Organization created.\n" + formatOrgHuman(org) })
	})
}

func runOrgUpdate(ctx context.Context, w io.Writer, input models.OrganizationInput) int {
	return withSession(w, func(a *app) int {
		current, err := a.svc.Organizations.GetMyOrganization(ctx)
		if err != nil {
			return fail(w, err)
		}
		if current == nil {
			fmt.Fprintln(w, "No organization yet. Run 'einvoice org create' to set one up.")
			return exitNegative
		}
		org, err := a.svc.Organizations.Update(ctx, current.ID, input)
		if err != nil {
			return fail(w, err)
		}
		return output(w, org, func() string { return "Organization updated.\n" + formatOrgHuman(org) })
	})
}

func formatOrgHuman(o *models.Organization) string {
	return formatFields(
		"Name", o.Name,
		"ID", o.ID,
		"Tax ID", o.TaxID,
		"Country", o.Country,
		"Currency", o.Currency,
		"Email", o.Email,
		"Phone", o.Phone,
		"Address", formatAddress(o.Address),
	)
}
