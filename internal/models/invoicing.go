// ABOUTME: Server-owned business records of the e-invoicing API
// ABOUTME: Invoices, customers, organizations, payments and their create/update payloads

package models

import "time"

// Address is a postal address attached to customers and organizations
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Organization is a tenant of the platform
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"taxId,omitempty"`
	Country   string    `json:"country,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrganizationInput is the create/update payload for an organization
type OrganizationInput struct {
	Name     string  `json:"name,omitempty"`
	TaxID    string  `json:"taxId,omitempty"`
	Country  string  `json:"country,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Email    string  `json:"email,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	Address  Address `json:"address"`
}

// Customer is a buyer invoiced by an organization
type Customer struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	TaxID          string    `json:"taxId,omitempty"`
	Address        Address   `json:"address"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CustomerInput is the create/update payload for a customer
type CustomerInput struct {
	Name    string  `json:"name,omitempty"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	TaxID   string  `json:"taxId,omitempty"`
	Address Address `json:"address"`
}

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSubmitted InvoiceStatus = "SUBMITTED"
	InvoiceAccepted  InvoiceStatus = "ACCEPTED"
	InvoiceRejected  InvoiceStatus = "REJECTED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// InvoiceLine is a single billed item
type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TaxRate     float64 `json:"taxRate"`
	Total       float64 `json:"total,omitempty"`
}

// Invoice is an invoice record; totals are computed by the server
type Invoice struct {
	ID             string        `json:"id"`
	Number         string        `json:"number"`
	OrganizationID string        `json:"organizationId"`
	CustomerID     string        `json:"customerId"`
	CustomerName   string        `json:"customerName,omitempty"`
	Status         InvoiceStatus `json:"status"`
	Currency       string        `json:"currency"`
	IssueDate      string        `json:"issueDate"`
	DueDate        string        `json:"dueDate,omitempty"`
	Lines          []InvoiceLine `json:"lines"`
	Subtotal       float64       `json:"subtotal"`
	TaxTotal       float64       `json:"taxTotal"`
	Total          float64       `json:"total"`
	AmountPaid     float64       `json:"amountPaid"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Outstanding returns the unpaid remainder of the invoice
func (i *Invoice) Outstanding() float64 {
	if i.AmountPaid >= i.Total {
		return 0
	}
	return i.Total - i.AmountPaid
}

// InvoiceInput is the create/update payload for an invoice
type InvoiceInput struct {
	CustomerID string        `json:"customerId,omitempty"`
	Currency   string        `json:"currency,omitempty"`
	IssueDate  string        `json:"issueDate,omitempty"`
	DueDate    string        `json:"dueDate,omitempty"`
	Lines      []InvoiceLine `json:"lines,omitempty"`
	Notes      string        `json:"notes,omitempty"`
}

// EmailRequest asks the backend to email an invoice
type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message,omitempty"`
}

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentCash         PaymentMethod = "CASH"
	PaymentOther        PaymentMethod = "OTHER"
)

// Payment records money received against an invoice
type Payment struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	InvoiceID      string        `json:"invoiceId"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency"`
	Method         PaymentMethod `json:"method"`
	Reference      string        `json:"reference,omitempty"`
	PaidAt         string        `json:"paidAt"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// PaymentInput is the create payload for a payment
type PaymentInput struct {
	InvoiceID string        `json:"invoiceId"`
	Amount    float64       `json:"amount"`
	Method    PaymentMethod `json:"method,omitempty"`
	Reference string        `json:"reference,omitempty"`
	PaidAt    string        `json:"paidAt,omitempty"`
}
