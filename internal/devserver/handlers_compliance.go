// ABOUTME: Dev-server handlers for compliance, notifications and administration
// ABOUTME: Includes the static country configuration table

package devserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/markalston/einvoice/internal/models"
)

// defaultCountry is used for compliance submissions of organizations without a country
const defaultCountry = "DE"

var countries = []models.CountryConfig{
	{Code: "DE", Name: "Germany", Currency: "EUR", TaxIDLabel: "USt-IdNr.", Format: "XRechnung", ComplianceRequired: true, VATRates: []float64{19, 7, 0}},
	{Code: "ES", Name: "Spain", Currency: "EUR", TaxIDLabel: "NIF", Format: "Facturae", ComplianceRequired: true, VATRates: []float64{21, 10, 4, 0}},
	{Code: "FR", Name: "France", Currency: "EUR", TaxIDLabel: "SIRET", Format: "Factur-X", ComplianceRequired: true, VATRates: []float64{20, 10, 5.5, 2.1, 0}},
	{Code: "IT", Name: "Italy", Currency: "EUR", TaxIDLabel: "Partita IVA", Format: "FatturaPA", ComplianceRequired: true, VATRates: []float64{22, 10, 5, 4, 0}},
	{Code: "NL", Name: "Netherlands", Currency: "EUR", TaxIDLabel: "BTW-id", Format: "UBL", ComplianceRequired: false, VATRates: []float64{21, 9, 0}},
	{Code: "PL", Name: "Poland", Currency: "PLN", TaxIDLabel: "NIP", Format: "FA(2)", ComplianceRequired: true, VATRates: []float64{23, 8, 5, 0}},
}

// Compliance

func (s *Server) submitCompliance(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	sub, err := s.store.submitCompliance(user.OrganizationID, user.ID, mux.Vars(r)["invoiceId"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"submission": sub})
}

func (s *Server) complianceStatus(w http.ResponseWriter, r *http.Request) {
	sub, err := s.store.latestSubmission(currentUser(r).OrganizationID, mux.Vars(r)["invoiceId"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	items := s.store.listSubmissions(currentUser(r).OrganizationID)
	items = filterBy(r, items, "status", func(c models.ComplianceSubmission) string { return string(c.Status) })
	writeJSON(w, http.StatusOK, paginate(r, items, func(c models.ComplianceSubmission, q string) bool {
		return contains(c.Reference, q) || contains(c.Country, q)
	}))
}

func (s *Server) listCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"countries": countries})
}

func (s *Server) getCountry(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	for _, c := range countries {
		if c.Code == code {
			writeJSON(w, http.StatusOK, map[string]any{"country": c})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Country not found")
}

// Notifications

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	items := s.store.listNotifications(currentUser(r).ID)
	if r.URL.Query().Get("unread") == "true" {
		unread := make([]models.Notification, 0, len(items))
		for _, n := range items {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		items = unread
	}
	writeJSON(w, http.StatusOK, paginate(r, items, func(n models.Notification, q string) bool {
		return contains(n.Title, q) || contains(n.Message, q)
	}))
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.store.unreadCount(currentUser(r).ID)})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.markRead(currentUser(r).ID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notification": n})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"updated": s.store.markAllRead(currentUser(r).ID)})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteNotification(currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// Admin

func (s *Server) adminListUsers(w http.ResponseWriter, r *http.Request) {
	items := s.store.listUsers()
	caller := currentUser(r)
	if !caller.Role.AtLeast(models.RoleSuperAdmin) {
		scoped := make([]models.User, 0, len(items))
		for _, u := range items {
			if u.OrganizationID != "" && u.OrganizationID == caller.OrganizationID {
				scoped = append(scoped, u)
			}
		}
		items = scoped
	}
	items = filterBy(r, items, "role", func(u models.User) string { return string(u.Role) })
	writeJSON(w, http.StatusOK, paginate(r, items, func(u models.User, q string) bool {
		return contains(u.Email, q) || contains(u.FullName(), q)
	}))
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

// adminSetRole changes a user's role. Callers cannot grant a role above their own
// and organization admins can only manage members of their organization.
func (s *Server) adminSetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller := currentUser(r)
	if req.Role.Valid() && !caller.Role.AtLeast(req.Role) {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	id := mux.Vars(r)["id"]
	target, err := s.store.user(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !caller.Role.AtLeast(models.RoleSuperAdmin) {
		if target.OrganizationID == "" || target.OrganizationID != caller.OrganizationID {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if target.Role.AtLeast(models.RoleSuperAdmin) {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
	}

	user, err := s.store.setRole(id, req.Role)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) adminListOrganizations(w http.ResponseWriter, r *http.Request) {
	items := s.store.listOrganizations()
	caller := currentUser(r)
	if !caller.Role.AtLeast(models.RoleSuperAdmin) {
		scoped := make([]models.Organization, 0, 1)
		for _, o := range items {
			if o.ID == caller.OrganizationID {
				scoped = append(scoped, o)
			}
		}
		items = scoped
	}
	writeJSON(w, http.StatusOK, paginate(r, items, func(o models.Organization, q string) bool {
		return contains(o.Name, q) || contains(o.TaxID, q)
	}))
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	if !currentUser(r).Role.AtLeast(models.RoleSuperAdmin) {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}
	writeJSON(w, http.StatusOK, s.store.systemStats())
}
