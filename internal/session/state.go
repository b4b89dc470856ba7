// ABOUTME: Session state held by the auth store
// ABOUTME: Phase derivation and unverified access-token expiry

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/einvoice/internal/models"
)

// Phase is the coarse lifecycle position of a session
type Phase int

const (
	// PhaseNotLoaded is the initial phase before rehydration completes
	PhaseNotLoaded Phase = iota
	// PhaseReady means no user is signed in
	PhaseReady
	// PhaseAuthenticated means a user and both tokens are present
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseNotLoaded:
		return "not-loaded"
	case PhaseReady:
		return "ready"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the client's view of the current session.
// IsAuthenticated is true exactly when User and both tokens are present.
type State struct {
	User            *models.User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	Hydrated        bool
}

// Phase returns the lifecycle phase of the state
func (s State) Phase() Phase {
	switch {
	case s.IsAuthenticated:
		return PhaseAuthenticated
	case !s.Hydrated:
		return PhaseNotLoaded
	default:
		return PhaseReady
	}
}

// AccessTokenExpiry reads the exp claim of the access token without verifying it.
// The second result is false when there is no token or it carries no expiry.
func (s State) AccessTokenExpiry() (time.Time, bool) {
	if s.AccessToken == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// clone returns a copy that shares nothing mutable with s
func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// normalize re-derives IsAuthenticated from the fields it depends on
func (s *State) normalize() {
	s.IsAuthenticated = s.User != nil && s.AccessToken != "" && s.RefreshToken != ""
}
