// ABOUTME: Auth and user-profile service modules
// ABOUTME: Maps /auth/* and /users/* endpoints to typed calls

package services

import (
	"context"

	"github.com/markalston/einvoice/internal/models"
)

// AuthService calls the authentication endpoints
type AuthService struct {
	api API
}

// NewAuthService creates an auth service
func NewAuthService(api API) *AuthService {
	return &AuthService{api: api}
}

// Register creates an account; it does not sign the user in
func (s *AuthService) Register(ctx context.Context, input models.RegisterInput) (*models.User, error) {
	resp, err := s.api.Post(ctx, "/auth/register", input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.User](resp, "data.user")
}

// Login exchanges credentials for a user and token pair
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	resp, err := s.api.Post(ctx, "/auth/login", creds, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.AuthResult](resp, "data")
}

// Me returns the user owning the current access token
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	return getOne[models.User](ctx, s.api, "/auth/me", "data.user")
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	resp, err := s.api.Post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.TokenPair](resp, "data")
}

// Logout revokes the given refresh token on the server
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.api.Post(ctx, "/auth/logout", map[string]string{"refreshToken": refreshToken}, nil)
	return err
}

// UserService manages the current user's profile
type UserService struct {
	api API
}

// NewUserService creates a user service
func NewUserService(api API) *UserService {
	return &UserService{api: api}
}

// GetProfile returns the current user's profile
func (s *UserService) GetProfile(ctx context.Context) (*models.User, error) {
	return getOne[models.User](ctx, s.api, "/users/profile", "data.user")
}

// UpdateProfile changes editable profile fields
func (s *UserService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	resp, err := s.api.Put(ctx, "/users/profile", update, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.User](resp, "data.user")
}

// ChangePassword replaces the current user's password
func (s *UserService) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	_, err := s.api.Post(ctx, "/users/change-password", change, nil)
	return err
}
