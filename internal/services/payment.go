// ABOUTME: Payment service module
// ABOUTME: Records and lists payments over /payments

package services

import (
	"context"

	"github.com/markalston/einvoice/internal/models"
)

// PaymentService manages payments received against invoices
type PaymentService struct {
	api API
}

// NewPaymentService creates a payment service
func NewPaymentService(api API) *PaymentService {
	return &PaymentService{api: api}
}

// List returns a page of payments
func (s *PaymentService) List(ctx context.Context, params models.ListParams) (*models.Page[models.Payment], error) {
	return list[models.Payment](ctx, s.api, "/payments", params)
}

// ListForInvoice returns the payments recorded against one invoice
func (s *PaymentService) ListForInvoice(ctx context.Context, invoiceID string, params models.ListParams) (*models.Page[models.Payment], error) {
	filters := make(map[string]string, len(params.Filters)+1)
	for k, v := range params.Filters {
		filters[k] = v
	}
	filters["invoiceId"] = invoiceID
	params.Filters = filters
	return list[models.Payment](ctx, s.api, "/payments", params)
}

// Get returns a payment by id
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return getOne[models.Payment](ctx, s.api, resourcePath("/payments", id), "data.payment")
}

// Create records a payment
func (s *PaymentService) Create(ctx context.Context, input models.PaymentInput) (*models.Payment, error) {
	resp, err := s.api.Post(ctx, "/payments", input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Payment](resp, "data.payment")
}

// Delete removes a payment
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, resourcePath("/payments", id), nil)
	return err
}

// Stats returns payment statistics
func (s *PaymentService) Stats(ctx context.Context) (*models.PaymentStats, error) {
	return getOne[models.PaymentStats](ctx, s.api, "/payments/stats", "data")
}
