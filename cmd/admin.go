// ABOUTME: Administration commands
// ABOUTME: Users, roles, organizations and platform statistics under /admin

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
)

var (
	adminUserList listFlags
	adminRole     string
	adminOrgList  listFlags
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer users and organizations",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runAdminUsers(ctx, w, adminUserList.params(map[string]string{"role": strings.ToUpper(adminRole)}))
	}),
}

var adminSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runAdminSetRole(ctx, w, args[0], models.Role(strings.ToUpper(args[1])))
	}),
}

var adminOrgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List organizations",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runAdminOrgs(ctx, w, adminOrgList.params(nil))
	}),
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runAdminStats(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd, adminSetRoleCmd, adminOrgsCmd, adminStatsCmd)

	adminUserList.register(adminUsersCmd)
	adminUsersCmd.Flags().StringVar(&adminRole, "role", "", "Filter by role")
	adminOrgList.register(adminOrgsCmd)
}

func runAdminUsers(ctx context.Context, w io.Writer, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		page, err := a.svc.Admin.ListUsers(ctx, params)
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string {
			return formatPage(page, "users",
				[]string{"ID", "Name", "Email", "Role", "Organization"},
				func(u models.User) []string {
					return []string{u.ID, u.FullName(), u.Email, string(u.Role), u.OrganizationID}
				})
		})
	})
}

func runAdminSetRole(ctx context.Context, w io.Writer, userID string, role models.Role) int {
	if !role.Valid() {
		fmt.Fprintf(w, "Error: unknown role %q\n", role)
		return exitError
	}
	return withSession(w, func(a *app) int {
		user, err := a.svc.Admin.UpdateUserRole(ctx, userID, role)
		if err != nil {
			return fail(w, err)
		}
		return output(w, user, func() string {
			return fmt.Sprintf("%s is now %s.", user.Email, user.Role)
		})
	})
}

func runAdminOrgs(ctx context.Context, w io.Writer, params models.ListParams) int {
	return withSession(w, func(a *app) int {
		page, err := a.svc.Admin.ListOrganizations(ctx, params)
		if err != nil {
			return fail(w, err)
		}
		return output(w, page, func() string {
			return formatPage(page, "organizations",
				[]string{"ID", "Name", "Country", "Currency", "Created"},
				func(o models.Organization) []string {
					return []string{o.ID, o.Name, o.Country, o.Currency, formatTime(o.CreatedAt)}
				})
		})
	})
}

func runAdminStats(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		stats, err := a.svc.Admin.Stats(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, stats, func() string {
			return formatFields(
				"Users", fmt.Sprint(stats.Users),
				"Organizations", fmt.Sprint(stats.Organizations),
				"Customers", fmt.Sprint(stats.Customers),
				"Invoices", fmt.Sprint(stats.Invoices),
				"Payments", fmt.Sprint(stats.Payments),
			)
		})
	})
}
