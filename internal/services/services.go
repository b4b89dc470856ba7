// ABOUTME: Shared plumbing for the per-resource service modules
// ABOUTME: Defines the API surface services depend on and envelope unwrapping helpers

package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/markalston/einvoice/internal/apiclient"
	"github.com/markalston/einvoice/internal/models"
)

// API is the subset of the API client used by services
type API interface {
	Get(ctx context.Context, path string, opts *apiclient.RequestOptions) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any, opts *apiclient.RequestOptions) (*apiclient.Response, error)
	Put(ctx context.Context, path string, body any, opts *apiclient.RequestOptions) (*apiclient.Response, error)
	Patch(ctx context.Context, path string, body any, opts *apiclient.RequestOptions) (*apiclient.Response, error)
	Delete(ctx context.Context, path string, opts *apiclient.RequestOptions) (*apiclient.Response, error)
}

var _ API = (*apiclient.Client)(nil)

// ErrDownload is wrapped around every failed file download
var ErrDownload = errors.New("download failed")

// DownloadError reports a failed PDF or XML download. Message is the fixed
// text shown to users; Err carries the underlying cause.
type DownloadError struct {
	Format string
	Err    error
}

// Message returns "Failed to download <FORMAT>"
func (e *DownloadError) Message() string {
	return "Failed to download " + e.Format
}

func (e *DownloadError) Error() string {
	return e.Message() + ": " + e.Err.Error()
}

func (e *DownloadError) Unwrap() []error {
	return []error{ErrDownload, e.Err}
}

// Services bundles one instance of every service module over the same API
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Organizations *OrganizationService
	Customers     *CustomerService
	Invoices      *InvoiceService
	Payments      *PaymentService
	Compliance    *ComplianceService
	Notifications *NotificationService
	Admin         *AdminService
}

// New creates all service modules
func New(api API) *Services {
	return &Services{
		Auth:          NewAuthService(api),
		Users:         NewUserService(api),
		Organizations: NewOrganizationService(api),
		Customers:     NewCustomerService(api),
		Invoices:      NewInvoiceService(api),
		Payments:      NewPaymentService(api),
		Compliance:    NewComplianceService(api),
		Notifications: NewNotificationService(api),
		Admin:         NewAdminService(api),
	}
}

// unwrap decodes the value at path of a response into a new T
func unwrap[T any](resp *apiclient.Response, path string) (*T, error) {
	var v T
	if err := resp.Decode(path, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// getOne issues a GET and unwraps path
func getOne[T any](ctx context.Context, api API, p, path string) (*T, error) {
	resp, err := api.Get(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	return unwrap[T](resp, path)
}

// list issues a GET with list parameters and unwraps a paginated envelope
func list[T any](ctx context.Context, api API, p string, params models.ListParams) (*models.Page[T], error) {
	resp, err := api.Get(ctx, p, &apiclient.RequestOptions{Query: params.Values()})
	if err != nil {
		return nil, err
	}
	page, err := unwrap[models.Page[T]](resp, "data")
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

// resourcePath joins a collection path and an escaped identifier
func resourcePath(collection, id string, suffix ...string) string {
	p := collection + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
