// ABOUTME: Access and refresh token issuance for the dev server
// ABOUTME: HS256 JWT access tokens; opaque single-use refresh tokens kept in a TTL cache

package devserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/markalston/einvoice/internal/cache"
	"github.com/markalston/einvoice/internal/models"
)

var errInvalidToken = errors.New("invalid token")

// accessClaims are carried by access tokens
type accessClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Org   string      `json:"org,omitempty"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	refresh    *cache.Cache[string]
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		refresh:    cache.New[string](refreshTTL),
	}
}

// issue creates a new access/refresh pair for user
func (t *tokenIssuer) issue(user *models.User) (models.TokenPair, error) {
	now := time.Now()
	claims := accessClaims{
		Email: user.Email,
		Role:  user.Role,
		Org:   user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("signing access token: %w", err)
	}

	refresh := uuid.NewString()
	t.refresh.Set(refresh, user.ID)
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// verify parses and validates an access token and returns the user id it was issued to
func (t *tokenIssuer) verify(token string) (string, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// rotate consumes a refresh token and returns the user id it belonged to
func (t *tokenIssuer) rotate(refreshToken string) (string, bool) {
	if refreshToken == "" {
		return "", false
	}
	return t.refresh.Take(refreshToken)
}

// revoke invalidates a refresh token
func (t *tokenIssuer) revoke(refreshToken string) {
	if refreshToken != "" {
		t.refresh.Clear(refreshToken)
	}
}

func (t *tokenIssuer) close() {
	t.refresh.Stop()
}
