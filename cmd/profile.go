// ABOUTME: Profile commands for the signed-in user
// ABOUTME: Show, update and change password through /users/profile

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
)

var (
	profileUpdate  models.ProfileUpdate
	passwordChange models.PasswordChange
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your profile",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runProfileShow(ctx, w)
	}),
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update name or email",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runProfileUpdate(ctx, w, profileUpdate)
	}),
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runChangePassword(ctx, w, passwordChange)
	}),
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileUpdateCmd, profilePasswordCmd)

	profileUpdateCmd.Flags().StringVar(&profileUpdate.FirstName, "first-name", "", "First name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.LastName, "last-name", "", "Last name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Email, "email", "", "Email")

	profilePasswordCmd.Flags().StringVar(&passwordChange.CurrentPassword, "current", "", "Current password")
	profilePasswordCmd.Flags().StringVar(&passwordChange.NewPassword, "new", "", "New password (at least 8 characters)")
}

func runProfileShow(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		user, err := a.svc.Users.GetProfile(ctx)
		if err != nil {
			return fail(w, err)
		}
		return output(w, user, func() string { return formatUserHuman(user) })
	})
}

// runProfileUpdate saves the profile and reloads it into the session
func runProfileUpdate(ctx context.Context, w io.Writer, update models.ProfileUpdate) int {
	if update == (models.ProfileUpdate{}) {
		fmt.Fprintln(w, "Error: nothing to update; pass --first-name, --last-name or --email")
		return exitError
	}
	return withSession(w, func(a *app) int {
		user, err := a.svc.Users.UpdateProfile(ctx, update)
		if err != nil {
			return fail(w, err)
		}
		if _, err := a.session.LoadProfile(ctx); err != nil {
			a.session.SetUser(user)
		}
		return output(w, user, func() string { return "Profile updated.\n" + formatUserHuman(user) })
	})
}

func runChangePassword(ctx context.Context, w io.Writer, change models.PasswordChange) int {
	if change.CurrentPassword == "" || change.NewPassword == "" {
		fmt.Fprintln(w, "Error: --current and --new are required")
		return exitError
	}
	return withSession(w, func(a *app) int {
		if err := a.svc.Users.ChangePassword(ctx, change); err != nil {
			return fail(w, err)
		}
		fmt.Fprintln(w, "Password changed.")
		return exitOK
	})
}

func formatUserHuman(u *models.User) string {
	return formatFields(
		"Name", u.FullName(),
		"Email", u.Email,
		"Role", string(u.Role),
		"ID", u.ID,
		"Organization", u.OrganizationID,
	)
}
