// ABOUTME: Reference in-memory backend implementing the e-invoicing REST contract
// ABOUTME: Declarative route table wired onto a gorilla/mux router under /api

package devserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/einvoice/internal/models"
)

// Config holds dev server settings
type Config struct {
	Secret      string
	RateLimit   int      // auth requests per second per client IP
	CORSOrigins []string // allowed CORS origins (empty = block all cross-origin)
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	BcryptCost  int
}

// access levels for routes
type access int

const (
	public access = iota
	authenticated
	tenant // authenticated and member of an organization
	admin
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	access  access
	limited bool
}

// Server is the dev backend
type Server struct {
	cfg     Config
	store   *memStore
	tokens  *tokenIssuer
	limiter *rateLimiter
	metrics *metrics
	router  *mux.Router
}

// New creates a dev server with empty state
func New(cfg Config) *Server {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	s := &Server{
		cfg:     cfg,
		store:   newMemStore(cfg.BcryptCost),
		tokens:  newTokenIssuer(cfg.Secret, cfg.AccessTTL, cfg.RefreshTTL),
		limiter: newRateLimiter(cfg.RateLimit),
		metrics: newMetrics(),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background resources
func (s *Server) Close() {
	s.tokens.close()
}

// Routes returns all API routes for registration, relative to /api.
// Literal paths are listed before parameterised ones that could shadow them.
func (s *Server) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/health", Handler: s.health, access: public},

		// Auth
		{Method: http.MethodPost, Path: "/auth/register", Handler: s.register, access: public, limited: true},
		{Method: http.MethodPost, Path: "/auth/login", Handler: s.login, access: public, limited: true},
		{Method: http.MethodPost, Path: "/auth/refresh", Handler: s.refresh, access: public, limited: true},
		{Method: http.MethodPost, Path: "/auth/logout", Handler: s.logout, access: public},
		{Method: http.MethodGet, Path: "/auth/me", Handler: s.me, access: authenticated},

		// Users
		{Method: http.MethodGet, Path: "/users/profile", Handler: s.getProfile, access: authenticated},
		{Method: http.MethodPut, Path: "/users/profile", Handler: s.updateProfile, access: authenticated},
		{Method: http.MethodPost, Path: "/users/change-password", Handler: s.changePassword, access: authenticated},

		// Organizations
		{Method: http.MethodGet, Path: "/organizations/me", Handler: s.myOrganization, access: authenticated},
		{Method: http.MethodPost, Path: "/organizations", Handler: s.createOrganization, access: authenticated},
		{Method: http.MethodGet, Path: "/organizations/{id}", Handler: s.getOrganization, access: authenticated},
		{Method: http.MethodPut, Path: "/organizations/{id}", Handler: s.updateOrganization, access: authenticated},

		// Customers
		{Method: http.MethodGet, Path: "/customers", Handler: s.listCustomers, access: tenant},
		{Method: http.MethodPost, Path: "/customers", Handler: s.createCustomer, access: tenant},
		{Method: http.MethodGet, Path: "/customers/stats", Handler: s.customerStats, access: tenant},
		{Method: http.MethodGet, Path: "/customers/{id}", Handler: s.getCustomer, access: tenant},
		{Method: http.MethodPut, Path: "/customers/{id}", Handler: s.updateCustomer, access: tenant},
		{Method: http.MethodDelete, Path: "/customers/{id}", Handler: s.deleteCustomer, access: tenant},

		// Invoices
		{Method: http.MethodGet, Path: "/invoices", Handler: s.listInvoices, access: tenant},
		{Method: http.MethodPost, Path: "/invoices", Handler: s.createInvoice, access: tenant},
		{Method: http.MethodGet, Path: "/invoices/stats", Handler: s.invoiceStats, access: tenant},
		{Method: http.MethodGet, Path: "/invoices/{id}", Handler: s.getInvoice, access: tenant},
		{Method: http.MethodPut, Path: "/invoices/{id}", Handler: s.updateInvoice, access: tenant},
		{Method: http.MethodDelete, Path: "/invoices/{id}", Handler: s.deleteInvoice, access: tenant},
		{Method: http.MethodPost, Path: "/invoices/{id}/submit", Handler: s.submitInvoice, access: tenant},
		{Method: http.MethodGet, Path: "/invoices/{id}/pdf", Handler: s.invoicePDF, access: tenant},
		{Method: http.MethodGet, Path: "/invoices/{id}/xml", Handler: s.invoiceXML, access: tenant},
		{Method: http.MethodPost, Path: "/invoices/{id}/email", Handler: s.emailInvoice, access: tenant},

		// Payments
		{Method: http.MethodGet, Path: "/payments", Handler: s.listPayments, access: tenant},
		{Method: http.MethodPost, Path: "/payments", Handler: s.createPayment, access: tenant},
		{Method: http.MethodGet, Path: "/payments/stats", Handler: s.paymentStats, access: tenant},
		{Method: http.MethodGet, Path: "/payments/{id}", Handler: s.getPayment, access: tenant},
		{Method: http.MethodDelete, Path: "/payments/{id}", Handler: s.deletePayment, access: tenant},

		// Compliance
		{Method: http.MethodPost, Path: "/compliance/submit/{invoiceId}", Handler: s.submitCompliance, access: tenant},
		{Method: http.MethodGet, Path: "/compliance/status/{invoiceId}", Handler: s.complianceStatus, access: tenant},
		{Method: http.MethodGet, Path: "/compliance/submissions", Handler: s.listSubmissions, access: tenant},
		{Method: http.MethodGet, Path: "/compliance/countries", Handler: s.listCountries, access: authenticated},
		{Method: http.MethodGet, Path: "/compliance/countries/{code}", Handler: s.getCountry, access: authenticated},

		// Notifications
		{Method: http.MethodGet, Path: "/notifications", Handler: s.listNotifications, access: authenticated},
		{Method: http.MethodGet, Path: "/notifications/unread-count", Handler: s.unreadCount, access: authenticated},
		{Method: http.MethodPatch, Path: "/notifications/read-all", Handler: s.markAllRead, access: authenticated},
		{Method: http.MethodPatch, Path: "/notifications/{id}/read", Handler: s.markRead, access: authenticated},
		{Method: http.MethodDelete, Path: "/notifications/{id}", Handler: s.deleteNotification, access: authenticated},

		// Admin
		{Method: http.MethodGet, Path: "/admin/users", Handler: s.adminListUsers, access: admin},
		{Method: http.MethodPatch, Path: "/admin/users/{id}/role", Handler: s.adminSetRole, access: admin},
		{Method: http.MethodGet, Path: "/admin/organizations", Handler: s.adminListOrganizations, access: admin},
		{Method: http.MethodGet, Path: "/admin/stats", Handler: s.adminStats, access: admin},
	}
}

func (s *Server) buildRouter() *mux.Router {
	root := mux.NewRouter()
	root.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	api := root.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	for _, rt := range s.Routes() {
		template := "/api" + rt.Path
		mws := []middleware{
			logRequest(template),
			s.metrics.instrument(template),
			cors(s.cfg.CORSOrigins),
		}
		if rt.limited {
			mws = append(mws, s.limiter.middleware)
		}
		switch rt.access {
		case authenticated:
			mws = append(mws, s.requireAuth)
		case tenant:
			mws = append(mws, s.requireAuth, requireOrganization)
		case admin:
			mws = append(mws, s.requireAuth, requireRole(models.RoleAdmin))
		}
		api.HandleFunc(rt.Path, chain(rt.Handler, mws...)).Methods(rt.Method, http.MethodOptions)
	}
	return root
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
