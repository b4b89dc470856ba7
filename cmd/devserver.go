// ABOUTME: Runs the in-memory reference backend for local development
// ABOUTME: Serves the REST API under /api and Prometheus metrics under /metrics

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/config"
	"github.com/markalston/einvoice/internal/devserver"
)

var devServerPort string

var devServerCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run the in-memory API server for local development",
	Long: `Run an in-memory implementation of the e-invoicing REST API.
State is lost on exit. The first registered user becomes SUPER_ADMIN.

Environment Variables:
  EINVOICE_DEVSERVER_PORT          Listen port (default: 4000)
  EINVOICE_DEVSERVER_SECRET        Token signing secret
  EINVOICE_DEVSERVER_RATE_LIMIT    Auth requests per second per client (default: 5)
  EINVOICE_DEVSERVER_CORS_ORIGINS  Comma-separated allowed browser origins`,
	Run: runE(func(ctx context.Context, w io.Writer, args []string) int {
		return runDevServer(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(devServerCmd)
	devServerCmd.Flags().StringVar(&devServerPort, "port", "", "Listen port (overrides EINVOICE_DEVSERVER_PORT)")
}

// runDevServer serves until ctx is cancelled, then shuts down gracefully
func runDevServer(ctx context.Context, w io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(w, err)
	}
	if devServerPort != "" {
		cfg.DevServerPort = devServerPort
	}
	if cfg.DevServerSecret == config.DefaultDevServerSecret {
		slog.Warn("Using the built-in development secret; set EINVOICE_DEVSERVER_SECRET for shared environments")
	}

	srv := devserver.New(devserver.Config{
		Secret:      cfg.DevServerSecret,
		RateLimit:   cfg.DevServerRateLimit,
		CORSOrigins: cfg.DevServerCORSOrigins,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.DevServerPort,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Dev server listening", "addr", httpServer.Addr, "api", "http://localhost:"+cfg.DevServerPort+"/api")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fail(w, fmt.Errorf("dev server: %w", err))
		}
		return exitOK
	case <-ctx.Done():
	}

	slog.Info("Shutting down dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fail(w, fmt.Errorf("shutdown: %w", err))
	}
	return exitOK
}
