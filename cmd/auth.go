// ABOUTME: Authentication commands: login, logout, register, whoami, refresh
// ABOUTME: Sessions persist in the config directory between invocations

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/session"
	"github.com/markalston/einvoice/internal/tui/forms"
)

var (
	loginCreds    models.Credentials
	registerInput models.RegisterInput
	whoamiRemote  bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Long: `Sign in with email and password. Missing values are prompted for
when running in a terminal.`,
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		creds := loginCreds
		if isTerminal() {
			if err := forms.Run(forms.LoginForm(&creds)); err != nil {
				return fail(w, err)
			}
		}
		return runLogin(ctx, w, creds)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runLogout(ctx, w)
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account. Registration does not sign you in; run
'einvoice login' afterwards.`,
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		input := registerInput
		if isTerminal() {
			if err := forms.Run(forms.RegisterForm(&input)); err != nil {
				return fail(w, err)
			}
		}
		return runRegister(ctx, w, input)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show the signed-in user from the saved session.

Exit codes:
  0 - Signed in
  1 - Not signed in
  2 - Error`,
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runWhoami(ctx, w, whoamiRemote)
	}),
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new token pair",
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runRefresh(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, refreshCmd)

	loginCmd.Flags().StringVar(&loginCreds.Email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginCreds.Password, "password", "", "Account password")

	registerCmd.Flags().StringVar(&registerInput.Email, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerInput.Password, "password", "", "Password (at least 8 characters)")
	registerCmd.Flags().StringVar(&registerInput.FirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerInput.LastName, "last-name", "", "Last name")
	registerCmd.Flags().StringVar(&registerInput.OrganizationName, "organization", "", "Organization name")

	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Reload the profile from the server")
}

// runLogin signs in and returns the exit code
func runLogin(ctx context.Context, w io.Writer, creds models.Credentials) int {
	if creds.Email == "" || creds.Password == "" {
		fmt.Fprintln(w, "Error: --email and --password are required")
		return exitError
	}
	return withApp(w, func(a *app) int {
		if err := a.session.Login(ctx, creds); err != nil {
			if msg := a.session.State().Error; msg != "" {
				fmt.Fprintf(w, "Error: %s\n", msg)
				return exitError
			}
			return fail(w, err)
		}
		st := a.session.State()
		return output(w, st.User, func() string {
			return fmt.Sprintf("Logged in as %s", formatUserLine(st.User))
		})
	})
}

// runLogout clears the session; logging out twice is not an error
func runLogout(ctx context.Context, w io.Writer) int {
	return withApp(w, func(a *app) int {
		wasSignedIn := a.session.State().IsAuthenticated
		if err := a.session.Logout(ctx); err != nil {
			return fail(w, err)
		}
		if !wasSignedIn {
			fmt.Fprintln(w, "Not logged in.")
			return exitOK
		}
		fmt.Fprintln(w, "Logged out.")
		return exitOK
	})
}

// runRegister creates an account without signing in
func runRegister(ctx context.Context, w io.Writer, input models.RegisterInput) int {
	if input.Email == "" || input.Password == "" {
		fmt.Fprintln(w, "Error: --email and --password are required")
		return exitError
	}
	return withApp(w, func(a *app) int {
		user, err := a.session.Register(ctx, input)
		if err != nil {
			if msg := a.session.State().Error; msg != "" {
				fmt.Fprintf(w, "Error: %s\n", msg)
				return exitError
			}
			return fail(w, err)
		}
		return output(w, user, func() string {
			return fmt.Sprintf("Registered %s\nRun 'einvoice login' to sign in.", formatUserLine(user))
		})
	})
}

// whoamiResult is the JSON shape of whoami
type whoamiResult struct {
	User          *models.User `json:"user"`
	AccessExpires *time.Time   `json:"accessTokenExpiresAt,omitempty"`
}

// runWhoami reports the signed-in user; exit 1 when there is none
func runWhoami(ctx context.Context, w io.Writer, remote bool) int {
	return withSession(w, func(a *app) int {
		if remote {
			if _, err := a.session.LoadProfile(ctx); err != nil {
				return fail(w, err)
			}
		}
		st := a.session.State()
		res := whoamiResult{User: st.User}
		if exp, ok := st.AccessTokenExpiry(); ok {
			res.AccessExpires = &exp
		}
		return output(w, res, func() string { return formatWhoamiHuman(res) })
	})
}

// runRefresh rotates the saved token pair
func runRefresh(ctx context.Context, w io.Writer) int {
	return withSession(w, func(a *app) int {
		if err := a.session.Refresh(ctx); err != nil {
			if errors.Is(err, session.ErrNotAuthenticated) {
				fmt.Fprintln(w, "Not logged in. Run 'einvoice login' first.")
				return exitNegative
			}
			return fail(w, err)
		}
		exp, ok := a.session.State().AccessTokenExpiry()
		if !ok {
			fmt.Fprintln(w, "Session refreshed.")
			return exitOK
		}
		return output(w, map[string]any{"accessTokenExpiresAt": exp}, func() string {
			return fmt.Sprintf("Session refreshed. Access token valid until %s.", exp.Local().Format(time.RFC1123))
		})
	})
}

func formatUserLine(u *models.User) string {
	if u == nil {
		return "unknown user"
	}
	if name := u.FullName(); name != "" {
		return fmt.Sprintf("%s <%s> (%s)", name, u.Email, u.Role)
	}
	return fmt.Sprintf("%s (%s)", u.Email, u.Role)
}

func formatWhoamiHuman(res whoamiResult) string {
	u := res.User
	expires := ""
	if res.AccessExpires != nil {
		expires = res.AccessExpires.Local().Format(time.RFC1123)
		if time.Now().After(*res.AccessExpires) {
			expires += " (expired, run 'einvoice refresh')"
		}
	}
	return formatFields(
		"User", formatUserLine(u),
		"ID", u.ID,
		"Organization", u.OrganizationID,
		"Token expires", expires,
	)
}
