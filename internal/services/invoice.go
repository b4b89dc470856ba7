// ABOUTME: Invoice service module
// ABOUTME: CRUD, submission, e-mail and PDF/XML downloads over /invoices

package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/models"
)

// File is a downloaded binary document
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// InvoiceService manages invoices of the caller's organization
type InvoiceService struct {
	api API
}

// NewInvoiceService creates an invoice service
func NewInvoiceService(api API) *InvoiceService {
	return &InvoiceService{api: api}
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, params models.ListParams) (*models.Page[models.Invoice], error) {
	return list[models.Invoice](ctx, s.api, "/invoices", params)
}

// Get returns an invoice by id
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return getOne[models.Invoice](ctx, s.api, resourcePath("/invoices", id), "data.invoice")
}

// Create drafts a new invoice
func (s *InvoiceService) Create(ctx context.Context, input models.InvoiceInput) (*models.Invoice, error) {
	resp, err := s.api.Post(ctx, "/invoices", input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Invoice](resp, "data.invoice")
}

// Update changes a draft invoice
func (s *InvoiceService) Update(ctx context.Context, id string, input models.InvoiceInput) (*models.Invoice, error) {
	resp, err := s.api.Put(ctx, resourcePath("/invoices", id), input, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Invoice](resp, "data.invoice")
}

// Delete removes an invoice
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, resourcePath("/invoices", id), nil)
	return err
}

// Submit finalises an invoice and hands it to the backend's submission pipeline
func (s *InvoiceService) Submit(ctx context.Context, id string) (*models.Invoice, error) {
	resp, err := s.api.Post(ctx, resourcePath("/invoices", id, "submit"), nil, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[models.Invoice](resp, "data.invoice")
}

// SendEmail asks the backend to e-mail the invoice
func (s *InvoiceService) SendEmail(ctx context.Context, id string, req models.EmailRequest) error {
	_, err := s.api.Post(ctx, resourcePath("/invoices", id, "email"), req, nil)
	return err
}

// Stats returns invoice statistics
func (s *InvoiceService) Stats(ctx context.Context) (*models.InvoiceStats, error) {
	return getOne[models.InvoiceStats](ctx, s.api, "/invoices/stats", "data")
}

// DownloadPDF fetches the rendered PDF of an invoice
func (s *InvoiceService) DownloadPDF(ctx context.Context, id string) (*File, error) {
	return s.download(ctx, id, "pdf", "application/pdf")
}

// DownloadXML fetches the structured XML of an invoice
func (s *InvoiceService) DownloadXML(ctx context.Context, id string) (*File, error) {
	return s.download(ctx, id, "xml", "application/xml")
}

// download fetches a binary document; failures carry a fixed user-facing message
func (s *InvoiceService) download(ctx context.Context, id, format, defaultType string) (*File, error) {
	label := map[string]string{"pdf": "PDF", "xml": "XML"}[format]

	resp, err := s.api.Get(ctx, resourcePath("/invoices", id, format), &apiclient.RequestOptions{
		ResponseType: apiclient.ResponseBlob,
	})
	if err != nil {
		return nil, &DownloadError{Format: label, Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &DownloadError{Format: label, Err: errors.New("empty document")}
	}

	name := safeFileName(resp.Filename())
	if name == "" {
		name = fmt.Sprintf("invoice-%s.%s", id, format)
	}
	contentType := resp.ContentType()
	if contentType == "" {
		contentType = defaultType
	}

	return &File{Name: name, ContentType: contentType, Data: resp.Data}, nil
}

// safeFileName reduces a server-supplied name to a plain file name, or "" when
// nothing usable remains
func safeFileName(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(filepath.ToSlash(name))
	switch base {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return base
}
