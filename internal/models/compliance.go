// ABOUTME: Compliance, notification and statistics records
// ABOUTME: Payloads of the /compliance, /notifications, /admin and */stats endpoints

package models

import "time"

// SubmissionStatus is the state of a compliance submission
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionAccepted SubmissionStatus = "ACCEPTED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// ComplianceSubmission tracks an invoice sent to a tax authority
type ComplianceSubmission struct {
	ID          string           `json:"id"`
	InvoiceID   string           `json:"invoiceId"`
	Country     string           `json:"country"`
	Status      SubmissionStatus `json:"status"`
	Reference   string           `json:"reference,omitempty"`
	Message     string           `json:"message,omitempty"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

// CountryConfig describes the e-invoicing rules of a country
type CountryConfig struct {
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	Currency           string    `json:"currency"`
	TaxIDLabel         string    `json:"taxIdLabel,omitempty"`
	Format             string    `json:"format,omitempty"`
	ComplianceRequired bool      `json:"complianceRequired"`
	VATRates           []float64 `json:"vatRates,omitempty"`
}

// Notification is a message addressed to the current user
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvoiceStats summarises an organization's invoices
type InvoiceStats struct {
	Total             int     `json:"total"`
	Draft             int     `json:"draft"`
	Submitted         int     `json:"submitted"`
	Paid              int     `json:"paid"`
	Overdue           int     `json:"overdue"`
	TotalAmount       float64 `json:"totalAmount"`
	PaidAmount        float64 `json:"paidAmount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
}

// CustomerStats summarises an organization's customers
type CustomerStats struct {
	Total        int `json:"total"`
	NewThisMonth int `json:"newThisMonth"`
	WithInvoices int `json:"withInvoices"`
}

// PaymentStats summarises an organization's payments
type PaymentStats struct {
	Count       int                `json:"count"`
	TotalAmount float64            `json:"totalAmount"`
	ByMethod    map[string]float64 `json:"byMethod,omitempty"`
}

// SystemStats summarises the whole platform for administrators
type SystemStats struct {
	Users         int `json:"users"`
	Organizations int `json:"organizations"`
	Invoices      int `json:"invoices"`
	Customers     int `json:"customers"`
	Payments      int `json:"payments"`
}
