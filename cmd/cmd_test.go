// ABOUTME: End-to-end tests for CLI commands against the in-memory dev server
// ABOUTME: Covers session persistence, resource commands, JSON output and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/einvoice/internal/devserver"
	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/tui/dashboard"
)

const testPassword = "password123"

// setupCLI points the CLI at a fresh dev server and an empty config dir
func setupCLI(t *testing.T) {
	t.Helper()
	srv := devserver.New(devserver.Config{Secret: "test-secret", RateLimit: 1000, BcryptCost: bcrypt.MinCost})
	ts := httptest.NewServer(srv.Handler())

	oldURL, oldDir, oldJSON, oldEphemeral := apiURL, configDir, jsonOutput, ephemeral
	apiURL = ts.URL + "/api"
	configDir = t.TempDir()
	jsonOutput = false
	ephemeral = false

	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		apiURL, configDir, jsonOutput, ephemeral = oldURL, oldDir, oldJSON, oldEphemeral
	})
}

func run(fn func(ctx context.Context, w io.Writer) int) (int, string) {
	var buf bytes.Buffer
	code := fn(context.Background(), &buf)
	return code, buf.String()
}

// runJSON runs fn with --json and decodes its output into v
func runJSON(t *testing.T, v any, fn func(ctx context.Context, w io.Writer) int) {
	t.Helper()
	jsonOutput = true
	defer func() { jsonOutput = false }()

	code, out := run(fn)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
}

// signIn registers email with an organization and logs in
func signIn(t *testing.T, email, org string) {
	t.Helper()
	code, out := run(func(ctx context.Context, w io.Writer) int {
		return runRegister(ctx, w, models.RegisterInput{
			Email: email, Password: testPassword, FirstName: "Ada", LastName: "Lovelace", OrganizationName: org,
		})
	})
	if code != exitOK {
		t.Fatalf("register: exit %d: %s", code, out)
	}
	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runLogin(ctx, w, models.Credentials{Email: email, Password: testPassword})
	})
	if code != exitOK {
		t.Fatalf("login: exit %d: %s", code, out)
	}
}

func TestWhoami_NotLoggedIn(t *testing.T) {
	setupCLI(t)

	code, out := run(func(ctx context.Context, w io.Writer) int { return runWhoami(ctx, w, false) })
	if code != exitNegative {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "Not logged in") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestSessionLifecycle(t *testing.T) {
	setupCLI(t)

	code, out := run(func(ctx context.Context, w io.Writer) int {
		return runRegister(ctx, w, models.RegisterInput{Email: "ada@example.com", Password: testPassword, FirstName: "Ada"})
	})
	if code != exitOK || !strings.Contains(out, "einvoice login") {
		t.Fatalf("register: exit %d: %s", code, out)
	}

	// registration does not sign in
	if code, _ := run(func(ctx context.Context, w io.Writer) int { return runWhoami(ctx, w, false) }); code != exitNegative {
		t.Errorf("expected whoami exit 1 after register, got %d", code)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runLogin(ctx, w, models.Credentials{Email: "ada@example.com", Password: "wrong-password"})
	})
	if code != exitError || !strings.Contains(out, "Error: Invalid credentials") {
		t.Errorf("bad login: exit %d: %s", code, out)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runLogin(ctx, w, models.Credentials{Email: "ada@example.com", Password: testPassword})
	})
	if code != exitOK || !strings.Contains(out, "Logged in as Ada <ada@example.com> (SUPER_ADMIN)") {
		t.Fatalf("login: exit %d: %s", code, out)
	}

	// the session survives into the next invocation
	code, out = run(func(ctx context.Context, w io.Writer) int { return runWhoami(ctx, w, true) })
	if code != exitOK {
		t.Fatalf("whoami: exit %d: %s", code, out)
	}
	for _, want := range []string{"ada@example.com", "Token expires"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected whoami output to contain %q:\n%s", want, out)
		}
	}

	code, out = run(runRefresh)
	if code != exitOK || !strings.Contains(out, "Session refreshed") {
		t.Errorf("refresh: exit %d: %s", code, out)
	}

	code, out = run(runLogout)
	if code != exitOK || !strings.Contains(out, "Logged out.") {
		t.Errorf("logout: exit %d: %s", code, out)
	}
	if code, _ := run(func(ctx context.Context, w io.Writer) int { return runWhoami(ctx, w, false) }); code != exitNegative {
		t.Errorf("expected whoami exit 1 after logout, got %d", code)
	}

	code, out = run(runLogout)
	if code != exitOK || !strings.Contains(out, "Not logged in.") {
		t.Errorf("second logout: exit %d: %s", code, out)
	}
}

func TestEphemeralSessionIsNotSaved(t *testing.T) {
	setupCLI(t)
	run(func(ctx context.Context, w io.Writer) int {
		return runRegister(ctx, w, models.RegisterInput{Email: "eve@example.com", Password: testPassword})
	})

	ephemeral = true
	code, out := run(func(ctx context.Context, w io.Writer) int {
		return runLogin(ctx, w, models.Credentials{Email: "eve@example.com", Password: testPassword})
	})
	if code != exitOK {
		t.Fatalf("login: exit %d: %s", code, out)
	}
	ephemeral = false

	if code, _ := run(func(ctx context.Context, w io.Writer) int { return runWhoami(ctx, w, false) }); code != exitNegative {
		t.Errorf("expected no saved session, whoami exit %d", code)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	setupCLI(t)
	code, out := run(func(ctx context.Context, w io.Writer) int {
		return runLogin(ctx, w, models.Credentials{Email: "ada@example.com"})
	})
	if code != exitError || !strings.Contains(out, "--password") {
		t.Errorf("expected usage error, got %d: %s", code, out)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	setupCLI(t)

	for name, fn := range map[string]func(ctx context.Context, w io.Writer) int{
		"customers": func(ctx context.Context, w io.Writer) int { return runCustomersList(ctx, w, models.ListParams{}) },
		"invoices":  func(ctx context.Context, w io.Writer) int { return runInvoicesList(ctx, w, models.ListParams{}) },
		"dashboard": runDashboard,
		"org":       runOrgShow,
	} {
		code, out := run(fn)
		if code != exitNegative || !strings.Contains(out, "einvoice login") {
			t.Errorf("%s: expected exit 1 with login hint, got %d: %s", name, code, out)
		}
	}
}

func TestOrganizationCommands(t *testing.T) {
	setupCLI(t)
	signIn(t, "root@example.com", "")

	code, out := run(runOrgShow)
	if code != exitNegative || !strings.Contains(out, "org create") {
		t.Errorf("expected no organization, got %d: %s", code, out)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runOrgCreate(ctx, w, models.OrganizationInput{Name: "Acme GmbH", Country: "DE", Currency: "EUR"})
	})
	if code != exitOK || !strings.Contains(out, "Acme GmbH") {
		t.Fatalf("org create: exit %d: %s", code, out)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runOrgUpdate(ctx, w, models.OrganizationInput{Email: "billing@acme.example"})
	})
	if code != exitOK || !strings.Contains(out, "billing@acme.example") {
		t.Errorf("org update: exit %d: %s", code, out)
	}

	// the session's user picked up the organization id
	var who whoamiResult
	runJSON(t, &who, func(ctx context.Context, w io.Writer) int { return runWhoami(ctx, w, false) })
	if who.User == nil || who.User.OrganizationID == "" {
		t.Errorf("expected organization id in saved session, got %+v", who.User)
	}
}

func TestInvoiceWorkflow(t *testing.T) {
	setupCLI(t)
	signIn(t, "ada@example.com", "Acme")

	var customer models.Customer
	runJSON(t, &customer, func(ctx context.Context, w io.Writer) int {
		return runCustomerCreate(ctx, w, models.CustomerInput{Name: "Buyer Ltd", Email: "ap@buyer.example"})
	})
	if customer.ID == "" {
		t.Fatal("expected customer id")
	}

	lines, err := parseLines([]string{"Consulting:2:100:20", "Travel:1:50"})
	if err != nil {
		t.Fatalf("parseLines: %v", err)
	}
	var inv models.Invoice
	runJSON(t, &inv, func(ctx context.Context, w io.Writer) int {
		return runInvoiceCreate(ctx, w, models.InvoiceInput{CustomerID: customer.ID, Currency: "EUR", Lines: lines})
	})
	if inv.Subtotal != 250 || inv.TaxTotal != 40 || inv.Total != 290 {
		t.Errorf("unexpected totals: %+v", inv)
	}

	code, out := run(func(ctx context.Context, w io.Writer) int { return runInvoiceGet(ctx, w, inv.ID) })
	if code != exitOK || !strings.Contains(out, "Consulting") || !strings.Contains(out, "290.00 EUR") {
		t.Errorf("invoice get: exit %d: %s", code, out)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runPaymentCreate(ctx, w, models.PaymentInput{InvoiceID: inv.ID, Amount: 100})
	})
	if code != exitError || !strings.Contains(out, "must be submitted") {
		t.Errorf("payment on draft: exit %d: %s", code, out)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int { return runInvoiceSubmit(ctx, w, inv.ID) })
	if code != exitOK || !strings.Contains(out, "submitted") {
		t.Fatalf("submit: exit %d: %s", code, out)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int { return runComplianceStatus(ctx, w, inv.ID) })
	if code != exitNegative {
		t.Errorf("expected unsubmitted compliance exit 1, got %d: %s", code, out)
	}
	var sub models.ComplianceSubmission
	runJSON(t, &sub, func(ctx context.Context, w io.Writer) int { return runComplianceSubmit(ctx, w, inv.ID) })
	if sub.InvoiceID != inv.ID {
		t.Errorf("unexpected submission %+v", sub)
	}

	for _, amount := range []float64{90, 200} {
		code, out = run(func(ctx context.Context, w io.Writer) int {
			return runPaymentCreate(ctx, w, models.PaymentInput{InvoiceID: inv.ID, Amount: amount, Method: models.PaymentCard})
		})
		if code != exitOK {
			t.Fatalf("payment %v: exit %d: %s", amount, code, out)
		}
	}

	var payments models.Page[models.Payment]
	runJSON(t, &payments, func(ctx context.Context, w io.Writer) int {
		return runPaymentsList(ctx, w, inv.ID, models.ListParams{})
	})
	if payments.Pagination.Total != 2 {
		t.Errorf("expected 2 payments, got %+v", payments.Pagination)
	}

	var paid models.Page[models.Invoice]
	runJSON(t, &paid, func(ctx context.Context, w io.Writer) int {
		return runInvoicesList(ctx, w, models.ListParams{Filters: map[string]string{"status": "PAID"}})
	})
	if len(paid.Items) != 1 || paid.Items[0].Outstanding() != 0 {
		t.Errorf("expected the invoice to be paid, got %+v", paid.Items)
	}

	dir := t.TempDir()
	code, out = run(func(ctx context.Context, w io.Writer) int { return runInvoiceDownload(ctx, w, inv.ID, "xml", dir) })
	if code != exitOK {
		t.Fatalf("xml download: exit %d: %s", code, out)
	}
	data, err := os.ReadFile(filepath.Join(dir, inv.Number+".xml"))
	if err != nil {
		t.Fatalf("reading saved XML: %v", err)
	}
	if !strings.Contains(string(data), "<PayableAmount>290</PayableAmount>") {
		t.Errorf("unexpected XML:\n%s", data)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int { return runCustomerDelete(ctx, w, customer.ID) })
	if code != exitError {
		t.Errorf("expected deleting an invoiced customer to fail, got %d: %s", code, out)
	}
}

func TestListOutput(t *testing.T) {
	setupCLI(t)
	signIn(t, "ada@example.com", "Acme")

	code, out := run(func(ctx context.Context, w io.Writer) int { return runCustomersList(ctx, w, models.ListParams{}) })
	if code != exitOK || !strings.Contains(out, "No customers found.") {
		t.Errorf("empty list: exit %d: %s", code, out)
	}

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		run(func(ctx context.Context, w io.Writer) int {
			return runCustomerCreate(ctx, w, models.CustomerInput{Name: name})
		})
	}
	code, out = run(func(ctx context.Context, w io.Writer) int {
		return runCustomersList(ctx, w, models.ListParams{Page: 2, Limit: 2})
	})
	if code != exitOK || !strings.Contains(out, "Page 2 of 2 (3 customers)") {
		t.Errorf("paged list: exit %d: %s", code, out)
	}
}

func TestNotificationCommands(t *testing.T) {
	setupCLI(t)
	signIn(t, "ada@example.com", "Acme")

	var count map[string]int
	runJSON(t, &count, runUnreadCount)
	if count["count"] < 1 {
		t.Fatalf("expected a welcome notification, got %v", count)
	}

	var page models.Page[models.Notification]
	runJSON(t, &page, func(ctx context.Context, w io.Writer) int {
		return runNotificationsList(ctx, w, models.ListParams{Filters: map[string]string{"unread": "true"}})
	})
	if len(page.Items) == 0 {
		t.Fatal("expected unread notifications")
	}

	code, out := run(func(ctx context.Context, w io.Writer) int { return runMarkRead(ctx, w, page.Items[0].ID) })
	if code != exitOK || !strings.Contains(out, "as read") {
		t.Errorf("mark read: exit %d: %s", code, out)
	}

	code, out = run(runMarkAllRead)
	if code != exitOK {
		t.Errorf("mark all read: exit %d: %s", code, out)
	}
	runJSON(t, &count, runUnreadCount)
	if count["count"] != 0 {
		t.Errorf("expected no unread notifications, got %v", count)
	}
}

func TestDashboardJSON(t *testing.T) {
	setupCLI(t)
	signIn(t, "ada@example.com", "Acme")

	var summary dashboard.Summary
	runJSON(t, &summary, runDashboard)
	if summary.Organization == nil || summary.Organization.Name != "Acme" {
		t.Errorf("expected organization in summary, got %+v", summary.Organization)
	}
	if summary.Invoices == nil || summary.Customers == nil || summary.Payments == nil {
		t.Errorf("expected all stat sections, got %+v", summary)
	}
	if summary.UnreadNotices < 1 {
		t.Errorf("expected unread notifications, got %d", summary.UnreadNotices)
	}
}

func TestAdminCommands(t *testing.T) {
	setupCLI(t)
	signIn(t, "root@example.com", "")

	code, out := run(func(ctx context.Context, w io.Writer) int {
		return runAdminSetRole(ctx, w, "someone", models.Role("OWNER"))
	})
	if code != exitError || !strings.Contains(out, "unknown role") {
		t.Errorf("invalid role: exit %d: %s", code, out)
	}

	var stats models.SystemStats
	runJSON(t, &stats, runAdminStats)
	if stats.Users != 1 {
		t.Errorf("expected 1 user, got %+v", stats)
	}

	code, out = run(func(ctx context.Context, w io.Writer) int { return runAdminUsers(ctx, w, models.ListParams{}) })
	if code != exitOK || !strings.Contains(out, "root@example.com") {
		t.Errorf("admin users: exit %d: %s", code, out)
	}
}

func TestConnectionError(t *testing.T) {
	setupCLI(t)
	signIn(t, "ada@example.com", "Acme")
	apiURL = "http://127.0.0.1:1/api"

	code, out := run(runInvoiceStats)
	if code != exitError || !strings.HasPrefix(out, "Error: ") {
		t.Errorf("expected connection error, got %d: %s", code, out)
	}
}

func TestInvoiceDownloadFailureMessage(t *testing.T) {
	setupCLI(t)
	signIn(t, "ada@example.com", "Acme")

	dir := t.TempDir()
	code, out := run(func(ctx context.Context, w io.Writer) int {
		return runInvoiceDownload(ctx, w, "does-not-exist", "pdf", dir)
	})
	if code != exitError {
		t.Errorf("expected exit %d, got %d", exitError, code)
	}
	if want := "Error: Failed to download PDF: Invoice not found"; !strings.Contains(out, want) {
		t.Errorf("expected %q, got %q", want, out)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("expected nothing saved, got %d entries", len(entries))
	}
}

func TestParseLines(t *testing.T) {
	tests := []struct {
		input   string
		want    models.InvoiceLine
		wantErr bool
	}{
		{input: "Widget:3:9.5", want: models.InvoiceLine{Description: "Widget", Quantity: 3, UnitPrice: 9.5}},
		{input: "Hours:2:80:19", want: models.InvoiceLine{Description: "Hours", Quantity: 2, UnitPrice: 80, TaxRate: 19}},
		{input: "Ref: A:1:10", want: models.InvoiceLine{Description: "Ref: A", Quantity: 1, UnitPrice: 10}},
		{input: "Widget:3", wantErr: true},
		{input: "Widget:x:3", wantErr: true},
	}
	for _, tt := range tests {
		lines, err := parseLines([]string{tt.input})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if lines[0] != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.input, lines[0], tt.want)
		}
	}
}

func TestCustomerPayloadMergesFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customer.json")
	if err := os.WriteFile(path, []byte(`{"name":"From File","email":"file@example.com"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	oldFile, oldInput := customerFile, customerInput
	defer func() { customerFile, customerInput = oldFile, oldInput }()
	customerFile = path
	customerInput = models.CustomerInput{Email: "flag@example.com"}

	got, err := customerPayload()
	if err != nil {
		t.Fatalf("customerPayload: %v", err)
	}
	if got.Name != "From File" || got.Email != "flag@example.com" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestFormatFieldsSkipsEmpty(t *testing.T) {
	out := formatFields("Name", "Acme", "Phone", "", "Country", "DE")
	if strings.Contains(out, "Phone") {
		t.Errorf("expected empty field to be skipped:\n%s", out)
	}
	if !strings.Contains(out, "Country:  DE") {
		t.Errorf("expected aligned fields:\n%s", out)
	}
}
