// ABOUTME: Dev-server handlers for authentication, user profiles and organizations
// ABOUTME: Implements /auth/*, /users/* and /organizations/*

package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/markalston/einvoice/internal/models"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	user, err := s.store.register(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	slog.Info("User registered", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	if creds.Email == "" || creds.Password == "" {
		s.metrics.logins.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, ok := s.store.authenticate(creds.Email, creds.Password)
	if !ok {
		s.metrics.logins.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	pair, err := s.tokens.issue(user)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.metrics.logins.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, models.AuthResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := s.tokens.rotate(req.RefreshToken)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	user, err := s.store.user(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	pair, err := s.tokens.issue(user)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// logout revokes the refresh token in the body. It needs no bearer token:
// clients clear their local session before notifying the server.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	s.tokens.revoke(req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": currentUser(r)})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": currentUser(r)})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	user, err := s.store.updateProfile(currentUser(r).ID, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var in models.PasswordChange
	if !decodeBody(w, r, &in) {
		return
	}
	if err := s.store.changePassword(currentUser(r).ID, in); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (s *Server) myOrganization(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.OrganizationID == "" {
		writeError(w, http.StatusNotFound, "Organization not found")
		return
	}
	org, err := s.store.organization(user.OrganizationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organization": org})
}

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	var in models.OrganizationInput
	if !decodeBody(w, r, &in) {
		return
	}
	org, err := s.store.createOrganization(currentUser(r).ID, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"organization": org})
}

// orgAccess reports whether user may read or modify organization id
func orgAccess(user *models.User, id string) bool {
	return user.OrganizationID == id || user.Role.AtLeast(models.RoleSuperAdmin)
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !orgAccess(currentUser(r), id) {
		writeError(w, http.StatusNotFound, "Organization not found")
		return
	}
	org, err := s.store.organization(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organization": org})
}

func (s *Server) updateOrganization(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user := currentUser(r)
	if !orgAccess(user, id) {
		writeError(w, http.StatusNotFound, "Organization not found")
		return
	}
	if !user.Role.AtLeast(models.RoleAdmin) {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}
	var in models.OrganizationInput
	if !decodeBody(w, r, &in) {
		return
	}
	org, err := s.store.updateOrganization(id, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organization": org})
}
