// ABOUTME: Tests for the dev server HTTP surface
// ABOUTME: Exercises auth, tenancy gates, invoice lifecycle, downloads, admin and middleware

package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/einvoice/internal/models"
)

type testServer struct {
	t   *testing.T
	srv *Server
	url string
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
	}
	s := New(cfg)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hs.Close()
		s.Close()
	})
	return &testServer{t: t, srv: s, url: hs.URL}
}

type result struct {
	status int
	header http.Header
	body   []byte
}

func (r result) data(t *testing.T, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.body, &env), string(r.body))
	require.NoError(t, json.Unmarshal(env.Data, v), string(r.body))
}

func (r result) message(t *testing.T) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(r.body, &body), string(r.body))
	return body.Message
}

func (ts *testServer) do(method, path, token string, body any) result {
	ts.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.url+path, rdr)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return result{status: resp.StatusCode, header: resp.Header, body: b}
}

// signup registers and logs in a user, returning the login payload
func (ts *testServer) signup(email, org string) models.AuthResult {
	ts.t.Helper()
	res := ts.do(http.MethodPost, "/api/auth/register", "", models.RegisterInput{
		Email: email, Password: "password123", FirstName: "Test", OrganizationName: org,
	})
	require.Equal(ts.t, http.StatusCreated, res.status, string(res.body))

	res = ts.do(http.MethodPost, "/api/auth/login", "", models.Credentials{Email: email, Password: "password123"})
	require.Equal(ts.t, http.StatusOK, res.status, string(res.body))
	var auth models.AuthResult
	res.data(ts.t, &auth)
	return auth
}

func TestRoutes_AllRoutesHaveRequiredFields(t *testing.T) {
	s := New(Config{Secret: "x"})
	defer s.Close()

	seen := map[string]bool{}
	for i, rt := range s.Routes() {
		assert.NotEmpty(t, rt.Method, "route %d", i)
		assert.True(t, strings.HasPrefix(rt.Path, "/"), "route %d path %q", i, rt.Path)
		assert.NotNil(t, rt.Handler, "route %d", i)

		key := rt.Method + " " + rt.Path
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, Config{})
	auth := ts.signup("Ada@Example.com", "")

	assert.Equal(t, "ada@example.com", auth.User.Email)
	assert.Equal(t, models.RoleSuperAdmin, auth.User.Role, "first user administers the platform")
	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)

	res := ts.do(http.MethodGet, "/api/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	var me struct {
		User models.User `json:"user"`
	}
	res.data(t, &me)
	assert.Equal(t, auth.User.ID, me.User.ID)
	assert.NotEmpty(t, res.header.Get("X-Request-ID"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.signup("a@example.com", "")

	res := ts.do(http.MethodPost, "/api/auth/register", "", models.RegisterInput{Email: "a@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "Email already registered", res.message(t))
}

func TestRegister_ShortPassword(t *testing.T) {
	ts := newTestServer(t, Config{})
	res := ts.do(http.MethodPost, "/api/auth/register", "", models.RegisterInput{Email: "a@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.message(t), "at least 8")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.signup("a@example.com", "")

	res := ts.do(http.MethodPost, "/api/auth/login", "", models.Credentials{Email: "a@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "Invalid credentials", res.message(t))
}

func TestRequireAuth(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"missing header", "", "Authentication required"},
		{"garbage token", "not-a-jwt", "Invalid or expired token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := ts.do(http.MethodGet, "/api/auth/me", tc.token, nil)
			assert.Equal(t, http.StatusUnauthorized, res.status)
			assert.Equal(t, tc.want, res.message(t))
		})
	}
}

func TestRequireAuth_TokenFromOtherSecret(t *testing.T) {
	other := newTestServer(t, Config{Secret: "other"})
	auth := other.signup("a@example.com", "")

	ts := newTestServer(t, Config{})
	ts.signup("a@example.com", "")

	res := ts.do(http.MethodGet, "/api/auth/me", auth.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestRefresh_RotatesToken(t *testing.T) {
	ts := newTestServer(t, Config{})
	auth := ts.signup("a@example.com", "")

	res := ts.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": auth.RefreshToken})
	require.Equal(t, http.StatusOK, res.status)
	var pair models.TokenPair
	res.data(t, &pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, auth.RefreshToken, pair.RefreshToken)

	res = ts.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": auth.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, res.status, "refresh tokens are single use")
	assert.Equal(t, "Invalid refresh token", res.message(t))
}

func TestLogout_RevokesRefreshTokenWithoutBearer(t *testing.T) {
	ts := newTestServer(t, Config{})
	auth := ts.signup("a@example.com", "")

	res := ts.do(http.MethodPost, "/api/auth/logout", "", map[string]string{"refreshToken": auth.RefreshToken})
	require.Equal(t, http.StatusOK, res.status)

	res = ts.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": auth.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestOrganizations(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.signup("root@example.com", "")
	auth := ts.signup("a@example.com", "")
	assert.Equal(t, models.RoleUser, auth.User.Role)

	res := ts.do(http.MethodGet, "/api/organizations/me", auth.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Organization not found", res.message(t))

	res = ts.do(http.MethodGet, "/api/customers", auth.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Create an organization first", res.message(t))

	res = ts.do(http.MethodPost, "/api/organizations", auth.AccessToken, models.OrganizationInput{Name: "Acme", Country: "fr"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var created struct {
		Organization models.Organization `json:"organization"`
	}
	res.data(t, &created)
	assert.Equal(t, "FR", created.Organization.Country)
	assert.Equal(t, "EUR", created.Organization.Currency)

	// membership and role apply to the existing token at once
	res = ts.do(http.MethodGet, "/api/organizations/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	res = ts.do(http.MethodGet, "/api/auth/me", auth.AccessToken, nil)
	var me struct {
		User models.User `json:"user"`
	}
	res.data(t, &me)
	assert.Equal(t, models.RoleAdmin, me.User.Role)
	assert.Equal(t, created.Organization.ID, me.User.OrganizationID)

	res = ts.do(http.MethodPost, "/api/organizations", auth.AccessToken, models.OrganizationInput{Name: "Second"})
	assert.Equal(t, http.StatusConflict, res.status)
}

func TestTenantIsolation(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := ts.signup("a@example.com", "Alpha")
	b := ts.signup("b@example.com", "Beta")

	res := ts.do(http.MethodPost, "/api/customers", a.AccessToken, models.CustomerInput{Name: "Alpha Customer"})
	require.Equal(t, http.StatusCreated, res.status)
	var created struct {
		Customer models.Customer `json:"customer"`
	}
	res.data(t, &created)

	res = ts.do(http.MethodGet, "/api/customers/"+created.Customer.ID, b.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Customer not found", res.message(t))

	res = ts.do(http.MethodGet, "/api/customers", b.AccessToken, nil)
	var page models.Page[models.Customer]
	res.data(t, &page)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pagination.Total)
}

func TestCustomerListPaging(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := ts.signup("a@example.com", "Alpha")
	for _, name := range []string{"Acme", "Beta", "Acme Two", "Gamma"} {
		res := ts.do(http.MethodPost, "/api/customers", a.AccessToken, models.CustomerInput{Name: name})
		require.Equal(t, http.StatusCreated, res.status)
	}

	res := ts.do(http.MethodGet, "/api/customers?search=acme&limit=1&page=2", a.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	var page models.Page[models.Customer]
	res.data(t, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Acme Two", page.Items[0].Name)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 1, Total: 2, TotalPages: 2}, page.Pagination)
}

func TestInvoiceLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := ts.signup("a@example.com", "Alpha")
	tok := a.AccessToken

	res := ts.do(http.MethodPost, "/api/customers", tok, models.CustomerInput{Name: "Buyer"})
	var cust struct {
		Customer models.Customer `json:"customer"`
	}
	res.data(t, &cust)

	res = ts.do(http.MethodPost, "/api/invoices", tok, models.InvoiceInput{
		CustomerID: cust.Customer.ID,
		DueDate:    "2099-01-01",
		Lines: []models.InvoiceLine{
			{Description: "Consulting", Quantity: 2, UnitPrice: 100, TaxRate: 19},
			{Description: "Travel", Quantity: 1, UnitPrice: 50.5, TaxRate: 0},
		},
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var created struct {
		Invoice models.Invoice `json:"invoice"`
	}
	res.data(t, &created)
	inv := created.Invoice
	assert.Equal(t, "INV-000001", inv.Number)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
	assert.Equal(t, "Buyer", inv.CustomerName)
	assert.InDelta(t, 250.5, inv.Subtotal, 0.001)
	assert.InDelta(t, 38, inv.TaxTotal, 0.001)
	assert.InDelta(t, 288.5, inv.Total, 0.001)

	// payments need a submitted invoice
	res = ts.do(http.MethodPost, "/api/payments", tok, models.PaymentInput{InvoiceID: inv.ID, Amount: 10})
	assert.Equal(t, http.StatusConflict, res.status)

	res = ts.do(http.MethodPost, "/api/invoices/"+inv.ID+"/submit", tok, nil)
	require.Equal(t, http.StatusOK, res.status)

	res = ts.do(http.MethodPut, "/api/invoices/"+inv.ID, tok, models.InvoiceInput{Notes: "late edit"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "Only draft invoices can be edited", res.message(t))

	res = ts.do(http.MethodPost, "/api/compliance/submit/"+inv.ID, tok, nil)
	require.Equal(t, http.StatusCreated, res.status)
	var sub struct {
		Submission models.ComplianceSubmission `json:"submission"`
	}
	res.data(t, &sub)
	assert.Equal(t, defaultCountry, sub.Submission.Country)
	assert.Equal(t, models.SubmissionAccepted, sub.Submission.Status)

	res = ts.do(http.MethodGet, "/api/compliance/status/"+inv.ID, tok, nil)
	require.Equal(t, http.StatusOK, res.status)

	res = ts.do(http.MethodPost, "/api/payments", tok, models.PaymentInput{InvoiceID: inv.ID, Amount: 100, Method: models.PaymentCard})
	require.Equal(t, http.StatusCreated, res.status)
	res = ts.do(http.MethodPost, "/api/payments", tok, models.PaymentInput{InvoiceID: inv.ID, Amount: 188.5})
	require.Equal(t, http.StatusCreated, res.status)

	res = ts.do(http.MethodGet, "/api/invoices/"+inv.ID, tok, nil)
	res.data(t, &created)
	assert.Equal(t, models.InvoicePaid, created.Invoice.Status)
	assert.InDelta(t, 288.5, created.Invoice.AmountPaid, 0.001)

	res = ts.do(http.MethodGet, "/api/payments?invoiceId="+inv.ID+"&method=CARD", tok, nil)
	var payments models.Page[models.Payment]
	res.data(t, &payments)
	require.Len(t, payments.Items, 1)
	assert.Equal(t, models.PaymentCard, payments.Items[0].Method)

	res = ts.do(http.MethodGet, "/api/invoices/stats", tok, nil)
	var stats models.InvoiceStats
	res.data(t, &stats)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Paid)
	assert.InDelta(t, 0, stats.OutstandingAmount, 0.001)

	res = ts.do(http.MethodGet, "/api/notifications/unread-count", tok, nil)
	var count struct {
		Count int `json:"count"`
	}
	res.data(t, &count)
	assert.Equal(t, 4, count.Count, "welcome, submitted, compliance, paid")

	res = ts.do(http.MethodDelete, "/api/customers/"+cust.Customer.ID, tok, nil)
	assert.Equal(t, http.StatusConflict, res.status)
}

func TestInvoiceDownloads(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := ts.signup("a@example.com", "Alpha")

	res := ts.do(http.MethodPost, "/api/customers", a.AccessToken, models.CustomerInput{Name: "Buyer (EU)"})
	var cust struct {
		Customer models.Customer `json:"customer"`
	}
	res.data(t, &cust)
	res = ts.do(http.MethodPost, "/api/invoices", a.AccessToken, models.InvoiceInput{
		CustomerID: cust.Customer.ID,
		Lines:      []models.InvoiceLine{{Description: "Widget", Quantity: 3, UnitPrice: 10, TaxRate: 20}},
	})
	var created struct {
		Invoice models.Invoice `json:"invoice"`
	}
	res.data(t, &created)
	id := created.Invoice.ID

	res = ts.do(http.MethodGet, "/api/invoices/"+id+"/pdf", a.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "application/pdf", res.header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="INV-000001.pdf"`, res.header.Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(res.body, []byte("%PDF-1.4")))
	assert.Contains(t, string(res.body), `Buyer \(EU\)`)

	res = ts.do(http.MethodGet, "/api/invoices/"+id+"/xml", a.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "application/xml", res.header.Get("Content-Type"))
	body := string(res.body)
	assert.Contains(t, body, "<ID>INV-000001</ID>")
	assert.Contains(t, body, "<PayableAmount>36</PayableAmount>")
	assert.Equal(t, 1, strings.Count(body, "<LegalMonetaryTotal>"))
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := ts.signup("a@example.com", "")

	res := ts.do(http.MethodGet, "/api/notifications", a.AccessToken, nil)
	var page models.Page[models.Notification]
	res.data(t, &page)
	require.Len(t, page.Items, 1)
	note := page.Items[0]
	assert.False(t, note.Read)

	res = ts.do(http.MethodPatch, "/api/notifications/"+note.ID+"/read", a.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)

	res = ts.do(http.MethodPatch, "/api/notifications/read-all", a.AccessToken, nil)
	var updated struct {
		Updated int `json:"updated"`
	}
	res.data(t, &updated)
	assert.Equal(t, 0, updated.Updated)

	res = ts.do(http.MethodDelete, "/api/notifications/"+note.ID, a.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	res = ts.do(http.MethodDelete, "/api/notifications/"+note.ID, a.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestCountries(t *testing.T) {
	ts := newTestServer(t, Config{})
	a := ts.signup("a@example.com", "")

	res := ts.do(http.MethodGet, "/api/compliance/countries/fr", a.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	var body struct {
		Country models.CountryConfig `json:"country"`
	}
	res.data(t, &body)
	assert.Equal(t, "France", body.Country.Name)

	res = ts.do(http.MethodGet, "/api/compliance/countries/XX", a.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestAdmin(t *testing.T) {
	ts := newTestServer(t, Config{})
	root := ts.signup("root@example.com", "")
	admin := ts.signup("admin@example.com", "Alpha")
	member := ts.signup("member@example.com", "")

	res := ts.do(http.MethodGet, "/api/admin/users", member.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Insufficient permissions", res.message(t))

	// org admins cannot grant platform administration
	res = ts.do(http.MethodPatch, "/api/admin/users/"+admin.User.ID+"/role", admin.AccessToken, map[string]string{"role": "SUPER_ADMIN"})
	assert.Equal(t, http.StatusForbidden, res.status)

	// nor manage users outside their organization
	res = ts.do(http.MethodPatch, "/api/admin/users/"+member.User.ID+"/role", admin.AccessToken, map[string]string{"role": "VIEWER"})
	assert.Equal(t, http.StatusNotFound, res.status)

	res = ts.do(http.MethodPatch, "/api/admin/users/"+member.User.ID+"/role", root.AccessToken, map[string]string{"role": "MANAGER"})
	require.Equal(t, http.StatusOK, res.status)
	var body struct {
		User models.User `json:"user"`
	}
	res.data(t, &body)
	assert.Equal(t, models.RoleManager, body.User.Role)

	res = ts.do(http.MethodPatch, "/api/admin/users/"+member.User.ID+"/role", root.AccessToken, map[string]string{"role": "OWNER"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = ts.do(http.MethodGet, "/api/admin/users", admin.AccessToken, nil)
	var users models.Page[models.User]
	res.data(t, &users)
	require.Len(t, users.Items, 1, "org admins only see their organization")

	res = ts.do(http.MethodGet, "/api/admin/stats", root.AccessToken, nil)
	var stats models.SystemStats
	res.data(t, &stats)
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 1, stats.Organizations)
}

func TestRateLimit_AuthEndpoints(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 1})
	creds := models.Credentials{Email: "nobody@example.com", Password: "password123"}

	res := ts.do(http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = ts.do(http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, res.status)
	assert.Equal(t, "Too many requests, please try again later", res.message(t))

	res = ts.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, res.status, "only auth endpoints are limited")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Config{CORSOrigins: []string{"http://localhost:3000"}})

	req, err := http.NewRequest(http.MethodOptions, ts.url+"/api/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsAndNotFound(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.do(http.MethodPost, "/api/auth/login", "", models.Credentials{Email: "x@example.com", Password: "password123"})

	res := ts.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Route not found", res.message(t))

	res = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	body := string(res.body)
	assert.Contains(t, body, `einvoice_auth_logins_total{outcome="failure"} 1`)
	assert.Contains(t, body, `route="/api/auth/login"`)
}

func TestApplyLines(t *testing.T) {
	inv := &models.Invoice{}
	require.NoError(t, applyLines(inv, []models.InvoiceLine{
		{Description: "a", Quantity: 3, UnitPrice: 0.1, TaxRate: 10},
	}))
	assert.InDelta(t, 0.3, inv.Subtotal, 1e-9)
	assert.InDelta(t, 0.03, inv.TaxTotal, 1e-9)
	assert.InDelta(t, 0.33, inv.Lines[0].Total, 1e-9)

	err := applyLines(inv, nil)
	assert.ErrorIs(t, err, errInvalidInput)

	err = applyLines(inv, []models.InvoiceLine{{Quantity: 0, UnitPrice: 1}})
	assert.ErrorIs(t, err, errInvalidInput)
}

func TestWriteStoreError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{notFound("Thing"), http.StatusNotFound},
		{conflict("busy"), http.StatusConflict},
		{invalid("bad"), http.StatusBadRequest},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		writeStoreError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}
