// ABOUTME: Shared wiring for CLI commands: client, services and session store
// ABOUTME: Also holds output helpers and exit-code conventions

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/config"
	"github.com/markalston/einvoice/internal/services"
	"github.com/markalston/einvoice/internal/session"
	"github.com/markalston/einvoice/internal/storage"
)

// Exit codes
const (
	exitOK       = 0
	exitNegative = 1 // not logged in, check failed
	exitError    = 2 // connectivity, API rejection, invalid input
)

// app is the per-invocation object graph
type app struct {
	cfg     *config.Config
	api     *apiclient.Client
	svc     *services.Services
	session *session.Store
	storage storage.Storage
}

// newApp builds the client, services and session store, then rehydrates the
// session from durable storage
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var store storage.Storage = storage.NewFileStorage(cfg.ConfigDir)
	if ephemeral {
		store = storage.NewMemoryStorage()
	}

	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.HTTPTimeout,
	})
	svc := services.New(api)
	sess := session.New(svc.Auth, session.NewPersister(store))
	api.SetTokenSource(sess)

	if err := sess.Rehydrate(); err != nil {
		slog.Warn("Could not read saved session", "error", err)
	}

	return &app{cfg: cfg, api: api, svc: svc, session: sess, storage: store}, nil
}

// withApp builds the app and runs fn, reporting setup failures as errors
func withApp(w io.Writer, fn func(a *app) int) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	defer a.session.Wait()
	return fn(a)
}

// withSession is withApp for commands that need a signed-in user
func withSession(w io.Writer, fn func(a *app) int) int {
	return withApp(w, func(a *app) int {
		if !a.session.State().IsAuthenticated {
			fmt.Fprintln(w, "Not logged in. Run 'einvoice login' first.")
			return exitNegative
		}
		return fn(a)
	})
}

// runE adapts a command body to cobra, handling signals and exit codes
func runE(fn func(ctx context.Context, w io.Writer, args []string) int) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		code := fn(ctx, os.Stdout, args)
		cancel()
		if code != exitOK {
			os.Exit(code)
		}
	}
}

// describe returns the user-facing text of err
func describe(err error) string {
	var dlErr *services.DownloadError
	if errors.As(err, &dlErr) {
		return dlErr.Message() + ": " + describe(dlErr.Err)
	}
	if apiErr, ok := apiclient.AsError(err); ok && apiErr.Kind == apiclient.KindHTTP {
		return apiclient.Message(err, apiErr.Message)
	}
	return err.Error()
}

// fail prints err and returns the error exit code
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", describe(err))
	return exitError
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fail(w, err)
	}
	fmt.Fprintln(w, string(data))
	return exitOK
}

// output prints v as JSON when requested, otherwise calls human
func output(w io.Writer, v any, human func() string) int {
	if IsJSONOutput() {
		return printJSON(w, v)
	}
	fmt.Fprintln(w, human())
	return exitOK
}

// readInput decodes a JSON payload file into v; "-" reads stdin
func readInput(path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
