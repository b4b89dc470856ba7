// ABOUTME: Compliance, notification and admin service modules
// ABOUTME: Thin adapters over /compliance, /notifications and /admin

package services

import (
	"context"

	"github.com/markalston/einvoice/internal/models"
)

// ComplianceService submits invoices to tax authorities via the backend
type ComplianceService struct {
	api API
}

// NewComplianceService creates a compliance service
func NewComplianceService(api API) *ComplianceService {
	return &ComplianceService{api: api}
}

// Submit sends an invoice for compliance processing
func (s *ComplianceService) Submit(ctx context.Context, invoiceID string) (*models.ComplianceSubmission, error) {
	resp, err := s.api.Post(ctx, resourcePath("/compliance/submit", invoiceID), nil, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.ComplianceSubmission](resp, "data.submission")
}

// Status returns the latest submission for an invoice
func (s *ComplianceService) Status(ctx context.Context, invoiceID string) (*models.ComplianceSubmission, error) {
	return getOne[models.ComplianceSubmission](ctx, s.api, resourcePath("/compliance/status", invoiceID), "data.submission")
}

// ListSubmissions returns a page of submissions
func (s *ComplianceService) ListSubmissions(ctx context.Context, params models.ListParams) (*models.Page[models.ComplianceSubmission], error) {
	return list[models.ComplianceSubmission](ctx, s.api, "/compliance/submissions", params)
}

// ListCountries returns the supported country configurations
func (s *ComplianceService) ListCountries(ctx context.Context) ([]models.CountryConfig, error) {
	countries, err := getOne[[]models.CountryConfig](ctx, s.api, "/compliance/countries", "data.countries")
	if err != nil {
		return nil, err
	}
	return *countries, nil
}

// GetCountryConfig returns one country's configuration
func (s *ComplianceService) GetCountryConfig(ctx context.Context, code string) (*models.CountryConfig, error) {
	return getOne[models.CountryConfig](ctx, s.api, resourcePath("/compliance/countries", code), "data.country")
}

// NotificationService reads and acknowledges the current user's notifications
type NotificationService struct {
	api API
}

// NewNotificationService creates a notification service
func NewNotificationService(api API) *NotificationService {
	return &NotificationService{api: api}
}

// List returns a page of notifications
func (s *NotificationService) List(ctx context.Context, params models.ListParams) (*models.Page[models.Notification], error) {
	return list[models.Notification](ctx, s.api, "/notifications", params)
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	count, err := getOne[int](ctx, s.api, "/notifications/unread-count", "data.count")
	if err != nil {
		return 0, err
	}
	return *count, nil
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	resp, err := s.api.Patch(ctx, resourcePath("/notifications", id, "read"), nil, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Notification](resp, "data.notification")
}

// MarkAllRead marks every notification as read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context) (int, error) {
	resp, err := s.api.Patch(ctx, "/notifications/read-all", nil, nil)
	if err != nil {
		return 0, err
	}
	updated, err := unwrap[int](resp, "data.updated")
	if err != nil {
		return 0, err
	}
	return *updated, nil
}

// Delete removes a notification
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, resourcePath("/notifications", id), nil)
	return err
}

// AdminService exposes platform administration endpoints
type AdminService struct {
	api API
}

// NewAdminService creates an admin service
func NewAdminService(api API) *AdminService {
	return &AdminService{api: api}
}

// ListUsers returns a page of all users
func (s *AdminService) ListUsers(ctx context.Context, params models.ListParams) (*models.Page[models.User], error) {
	return list[models.User](ctx, s.api, "/admin/users", params)
}

// UpdateUserRole changes a user's role
func (s *AdminService) UpdateUserRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	resp, err := s.api.Patch(ctx, resourcePath("/admin/users", userID, "role"), map[string]models.Role{"role": role}, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.User](resp, "data.user")
}

// ListOrganizations returns a page of all organizations
func (s *AdminService) ListOrganizations(ctx context.Context, params models.ListParams) (*models.Page[models.Organization], error) {
	return list[models.Organization](ctx, s.api, "/admin/organizations", params)
}

// Stats returns platform-wide statistics
func (s *AdminService) Stats(ctx context.Context) (*models.SystemStats, error) {
	return getOne[models.SystemStats](ctx, s.api, "/admin/stats", "data")
}
