// ABOUTME: Customer service module
// ABOUTME: CRUD and statistics over /customers

package services

import (
	"context"

	"github.com/markalston/einvoice/internal/models"
)

// CustomerService manages customers of the caller's organization
type CustomerService struct {
	api API
}

// NewCustomerService creates a customer service
func NewCustomerService(api API) *CustomerService {
	return &CustomerService{api: api}
}

// List returns a page of customers
func (s *CustomerService) List(ctx context.Context, params models.ListParams) (*models.Page[models.Customer], error) {
	return list[models.Customer](ctx, s.api, "/customers", params)
}

// Get returns a customer by id
func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	return getOne[models.Customer](ctx, s.api, resourcePath("/customers", id), "data.customer")
}

// Create adds a customer
func (s *CustomerService) Create(ctx context.Context, input models.CustomerInput) (*models.Customer, error) {
	resp, err := s.api.Post(ctx, "/customers", input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Customer](resp, "data.customer")
}

// Update changes a customer
func (s *CustomerService) Update(ctx context.Context, id string, input models.CustomerInput) (*models.Customer, error) {
	resp, err := s.api.Put(ctx, resourcePath("/customers", id), input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Customer](resp, "data.customer")
}

// Delete removes a customer
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, resourcePath("/customers", id), nil)
	return err
}

// Stats returns customer statistics
func (s *CustomerService) Stats(ctx context.Context) (*models.CustomerStats, error) {
	return getOne[models.CustomerStats](ctx, s.api, "/customers/stats", "data")
}
