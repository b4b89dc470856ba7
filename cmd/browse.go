// ABOUTME: Interactive invoice browser command
// ABOUTME: Runs the bubbletea table UI with diagnostics redirected to a debug log

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/logger"
	"github.com/markalston/einvoice/internal/tui/browser"
)

var (
	browseList   listFlags
	browseStatus string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse invoices interactively",
	Long: `Browse invoices page by page in a full-screen table.

Keys: up/down select, n/p next and previous page, r reload, q quit.
Diagnostic logs are written to debug.log in the config directory.`,
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runBrowse(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseList.register(browseCmd)
	browseCmd.Flags().StringVar(&browseStatus, "status", "", "Filter by status")
}

func runBrowse(ctx context.Context, w io.Writer) int {
	if !isTerminal() {
		fmt.Fprintln(w, "Error: browse needs an interactive terminal; use 'einvoice invoices list' instead")
		return exitError
	}
	return withSession(w, func(a *app) int {
		// stderr output would corrupt the alternate screen
		restore, err := logger.OpenDebugLog(a.cfg.ConfigDir, a.cfg.LogLevel)
		defer restore()
		if err != nil {
			return fail(w, fmt.Errorf("opening debug log: %w", err))
		}

		params := browseList.params(map[string]string{"status": strings.ToUpper(browseStatus)})
		if err := browser.Run(ctx, a.svc.Invoices.List, params); err != nil {
			return fail(w, err)
		}
		return exitOK
	})
}
