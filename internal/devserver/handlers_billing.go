// ABOUTME: Dev-server handlers for customers, invoices and payments
// ABOUTME: All resources are scoped to the caller's organization

package devserver

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/markalston/einvoice/internal/models"
)

// Customers

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	items := s.store.listCustomers(currentUser(r).OrganizationID)
	items = filterBy(r, items, "country", func(c models.Customer) string { return c.Address.Country })
	writeJSON(w, http.StatusOK, paginate(r, items, func(c models.Customer, q string) bool {
		return contains(c.Name, q) || contains(c.Email, q) || contains(c.TaxID, q)
	}))
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.customer(currentUser(r).OrganizationID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": c})
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in models.CustomerInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.store.createCustomer(currentUser(r).OrganizationID, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": c})
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var in models.CustomerInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.store.updateCustomer(currentUser(r).OrganizationID, mux.Vars(r)["id"], in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": c})
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteCustomer(currentUser(r).OrganizationID, mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Customer deleted"})
}

func (s *Server) customerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.customerStats(currentUser(r).OrganizationID))
}

// Invoices

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	items := s.store.listInvoices(currentUser(r).OrganizationID)
	items = filterBy(r, items, "status", func(i models.Invoice) string { return string(i.Status) })
	items = filterBy(r, items, "customerId", func(i models.Invoice) string { return i.CustomerID })
	writeJSON(w, http.StatusOK, paginate(r, items, func(i models.Invoice, q string) bool {
		return contains(i.Number, q) || contains(i.CustomerName, q) || contains(i.Notes, q)
	}))
}

func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.invoice(currentUser(r).OrganizationID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var in models.InvoiceInput
	if !decodeBody(w, r, &in) {
		return
	}
	inv, err := s.store.createInvoice(currentUser(r).OrganizationID, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"invoice": inv})
}

func (s *Server) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var in models.InvoiceInput
	if !decodeBody(w, r, &in) {
		return
	}
	inv, err := s.store.updateInvoice(currentUser(r).OrganizationID, mux.Vars(r)["id"], in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

func (s *Server) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteInvoice(currentUser(r).OrganizationID, mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted"})
}

func (s *Server) submitInvoice(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	inv, err := s.store.submitInvoice(user.OrganizationID, user.ID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

func (s *Server) emailInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user := currentUser(r)
	if err := s.store.emailInvoice(user.OrganizationID, user.ID, mux.Vars(r)["id"], req); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invoice sent"})
}

func (s *Server) invoiceStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.invoiceStats(currentUser(r).OrganizationID))
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// invoicePDF renders a single-page text PDF summarising the invoice
func (s *Server) invoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.invoice(currentUser(r).OrganizationID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	text := fmt.Sprintf("Invoice %s  %s  Total %.2f %s", inv.Number, inv.CustomerName, inv.Total, inv.Currency)
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", pdfEscape(text))
	body := fmt.Sprintf("%%PDF-1.4\n"+
		"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n"+
		"2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n"+
		"3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >> endobj\n"+
		"4 0 obj << /Length %d >> stream\n%s\nendstream endobj\n"+
		"5 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj\n"+
		"trailer << /Root 1 0 R >>\n%%%%EOF\n", len(stream), stream)

	attachment(w, "application/pdf", inv.Number+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func pdfEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')', '\\':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

type xmlInvoice struct {
	XMLName   xml.Name  `xml:"Invoice"`
	ID        string    `xml:"ID"`
	IssueDate string    `xml:"IssueDate"`
	DueDate   string    `xml:"DueDate,omitempty"`
	Currency  string    `xml:"DocumentCurrencyCode"`
	Supplier  string    `xml:"AccountingSupplierParty>Party>PartyName>Name"`
	SupplierT string    `xml:"AccountingSupplierParty>Party>PartyTaxScheme>CompanyID,omitempty"`
	Customer  string    `xml:"AccountingCustomerParty>Party>PartyName>Name"`
	Lines     []xmlLine `xml:"InvoiceLine"`
	Tax       float64   `xml:"TaxTotal>TaxAmount"`
	Net       float64   `xml:"LegalMonetaryTotal>TaxExclusiveAmount"`
	Total     float64   `xml:"LegalMonetaryTotal>PayableAmount"`
}

type xmlLine struct {
	ID          int     `xml:"ID"`
	Quantity    float64 `xml:"InvoicedQuantity"`
	Amount      float64 `xml:"LineExtensionAmount"`
	Description string  `xml:"Item>Description"`
	TaxPercent  float64 `xml:"Item>ClassifiedTaxCategory>Percent"`
	UnitPrice   float64 `xml:"Price>PriceAmount"`
}

// invoiceXML renders the invoice as a UBL-shaped XML document
func (s *Server) invoiceXML(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	inv, err := s.store.invoice(user.OrganizationID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	org, err := s.store.organization(user.OrganizationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	doc := xmlInvoice{
		ID:        inv.Number,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Currency:  inv.Currency,
		Supplier:  org.Name,
		SupplierT: org.TaxID,
		Customer:  inv.CustomerName,
		Net:       inv.Subtotal,
		Tax:       inv.TaxTotal,
		Total:     inv.Total,
	}
	for i, l := range inv.Lines {
		doc.Lines = append(doc.Lines, xmlLine{
			ID:          i + 1,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxPercent:  l.TaxRate,
			Amount:      roundCents(l.Quantity * l.UnitPrice),
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeStoreError(w, err)
		return
	}
	attachment(w, "application/xml", inv.Number+".xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}

// Payments

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	items := s.store.listPayments(currentUser(r).OrganizationID)
	items = filterBy(r, items, "invoiceId", func(p models.Payment) string { return p.InvoiceID })
	items = filterBy(r, items, "method", func(p models.Payment) string { return string(p.Method) })
	writeJSON(w, http.StatusOK, paginate(r, items, func(p models.Payment, q string) bool {
		return contains(p.Reference, q)
	}))
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.payment(currentUser(r).OrganizationID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment": p})
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var in models.PaymentInput
	if !decodeBody(w, r, &in) {
		return
	}
	user := currentUser(r)
	p, err := s.store.createPayment(user.OrganizationID, user.ID, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment": p})
}

func (s *Server) deletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deletePayment(currentUser(r).OrganizationID, mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment deleted"})
}

func (s *Server) paymentStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.paymentStats(currentUser(r).OrganizationID))
}
