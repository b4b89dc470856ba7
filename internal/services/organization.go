// ABOUTME: Organization service module
// ABOUTME: Treats a 404 from /organizations/me as "no organization yet"

package services

import (
	"context"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/models"
)

// OrganizationService manages the caller's tenant
type OrganizationService struct {
	api API
}

// NewOrganizationService creates an organization service
func NewOrganizationService(api API) *OrganizationService {
	return &OrganizationService{api: api}
}

// GetMyOrganization returns the caller's organization.
// It returns (nil, nil) when the backend answers 404; every other error is returned as is.
func (s *OrganizationService) GetMyOrganization(ctx context.Context) (*models.Organization, error) {
	org, err := getOne[models.Organization](ctx, s.api, "/organizations/me", "data.organization")
	if err != nil {
		if apiclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

// Get returns an organization by id
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	return getOne[models.Organization](ctx, s.api, resourcePath("/organizations", id), "data.organization")
}

// Create creates an organization and attaches the caller to it
func (s *OrganizationService) Create(ctx context.Context, input models.OrganizationInput) (*models.Organization, error) {
	resp, err := s.api.Post(ctx, "/organizations", input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Organization](resp, "data.organization")
}

// Update changes an organization's details
func (s *OrganizationService) Update(ctx context.Context, id string, input models.OrganizationInput) (*models.Organization, error) {
	resp, err := s.api.Put(ctx, resourcePath("/organizations", id), input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Organization](resp, "data.organization")
}
