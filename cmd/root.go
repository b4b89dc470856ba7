// ABOUTME: Root command for the einvoice CLI
// ABOUTME: Handles global flags, configuration and logger setup

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/config"
	"github.com/markalston/einvoice/internal/logger"
)

var (
	apiURL     string
	configDir  string
	jsonOutput bool
	ephemeral  bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "einvoice",
	Short: "CLI for the multi-tenant e-invoicing platform",
	Long: `einvoice is a command-line client for the e-invoicing REST API.

It signs you in, keeps the session between runs, and manages invoices,
customers, payments, compliance submissions and notifications.

Environment Variables:
  EINVOICE_API_URL       Backend API URL (default: http://localhost:4000/api)
  EINVOICE_CONFIG_DIR    Session storage directory (default: ~/.config/einvoice)
  EINVOICE_HTTP_TIMEOUT  Request timeout in seconds (default: 30)
  LOG_LEVEL, LOG_FORMAT  Diagnostic logging on stderr (default: info, text)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Init(os.Stderr, "info", "text")
			return
		}
		logger.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides EINVOICE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Session storage directory (overrides EINVOICE_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory only for this invocation")
}

// loadConfig returns the configuration with flag overrides applied.
// Priority is flag, then environment (including .env), then default.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	return cfg, nil
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
