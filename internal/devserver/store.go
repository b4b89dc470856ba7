// ABOUTME: In-memory multi-tenant data store for the dev server
// ABOUTME: Every resource is scoped by organization id and guarded by one mutex

package devserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/einvoice/internal/models"
)

var (
	errNotFound     = errors.New("not found")
	errConflict     = errors.New("conflict")
	errInvalidInput = errors.New("invalid input")
)

// storeError carries the message returned to the client
type storeError struct {
	kind error
	msg  string
}

func (e *storeError) Error() string { return e.msg }
func (e *storeError) Unwrap() error { return e.kind }

func notFound(what string) error { return &storeError{errNotFound, what + " not found"} }
func conflict(msg string) error  { return &storeError{errConflict, msg} }
func invalid(msg string) error   { return &storeError{errInvalidInput, msg} }

type userRecord struct {
	models.User
	passwordHash []byte
}

// memStore holds all dev-server data
type memStore struct {
	mu            sync.RWMutex
	bcryptCost    int
	users         map[string]*userRecord
	usersByEmail  map[string]string
	orgs          map[string]*models.Organization
	customers     map[string]*models.Customer
	invoices      map[string]*models.Invoice
	invoiceSeq    map[string]int
	payments      map[string]*models.Payment
	notifications map[string][]*models.Notification
	submissions   map[string]*models.ComplianceSubmission
	now           func() time.Time
}

func newMemStore(bcryptCost int) *memStore {
	return &memStore{
		bcryptCost:    bcryptCost,
		users:         map[string]*userRecord{},
		usersByEmail:  map[string]string{},
		orgs:          map[string]*models.Organization{},
		customers:     map[string]*models.Customer{},
		invoices:      map[string]*models.Invoice{},
		invoiceSeq:    map[string]int{},
		payments:      map[string]*models.Payment{},
		notifications: map[string][]*models.Notification{},
		submissions:   map[string]*models.ComplianceSubmission{},
		now:           time.Now,
	}
}

// Users

func (s *memStore) register(in models.RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("A valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, invalid("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, conflict("Email already registered")
	}

	role := models.RoleUser
	if len(s.users) == 0 {
		role = models.RoleSuperAdmin
	}
	u := &userRecord{
		User: models.User{
			ID:        uuid.NewString(),
			Email:     email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      role,
		},
		passwordHash: hash,
	}
	if name := strings.TrimSpace(in.OrganizationName); name != "" {
		org := s.createOrgLocked(models.OrganizationInput{Name: name})
		u.OrganizationID = org.ID
		if !role.AtLeast(models.RoleAdmin) {
			u.Role = models.RoleAdmin
		}
	}

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	s.notifyLocked(u.ID, "welcome", "Welcome", "Your account has been created.")
	user := u.User
	return &user, nil
}

func (s *memStore) authenticate(email, password string) (*models.User, bool) {
	s.mu.RLock()
	id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	var user models.User
	var hash []byte
	if rec != nil {
		user, hash = rec.User, rec.passwordHash
	}
	s.mu.RUnlock()

	if rec == nil || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, false
	}
	return &user, true
}

func (s *memStore) user(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, notFound("User")
	}
	user := rec.User
	return &user, nil
}

func (s *memStore) updateProfile(id string, in models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, notFound("User")
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if other, exists := s.usersByEmail[email]; exists && other != id {
			return nil, conflict("Email already registered")
		}
		delete(s.usersByEmail, rec.Email)
		rec.Email = email
		s.usersByEmail[email] = id
	}
	if in.FirstName != "" {
		rec.FirstName = in.FirstName
	}
	if in.LastName != "" {
		rec.LastName = in.LastName
	}
	user := rec.User
	return &user, nil
}

func (s *memStore) changePassword(id string, in models.PasswordChange) error {
	if len(in.NewPassword) < 8 {
		return invalid("Password must be at least 8 characters")
	}
	s.mu.RLock()
	rec, ok := s.users[id]
	var current []byte
	if ok {
		current = rec.passwordHash
	}
	s.mu.RUnlock()
	if !ok {
		return notFound("User")
	}
	if bcrypt.CompareHashAndPassword(current, []byte(in.CurrentPassword)) != nil {
		return invalid("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	s.mu.Lock()
	rec.passwordHash = hash
	s.mu.Unlock()
	return nil
}

func (s *memStore) listUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (s *memStore) setRole(id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, invalid("Invalid role")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, notFound("User")
	}
	rec.Role = role
	user := rec.User
	return &user, nil
}

// Organizations

func (s *memStore) createOrgLocked(in models.OrganizationInput) *models.Organization {
	org := &models.Organization{
		ID:        uuid.NewString(),
		Name:      in.Name,
		TaxID:     in.TaxID,
		Country:   strings.ToUpper(in.Country),
		Currency:  strings.ToUpper(in.Currency),
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: s.now(),
	}
	if org.Currency == "" {
		org.Currency = "EUR"
	}
	s.orgs[org.ID] = org
	return org
}

func (s *memStore) createOrganization(userID string, in models.OrganizationInput) (*models.Organization, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("Organization name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil, notFound("User")
	}
	if rec.OrganizationID != "" {
		return nil, conflict("User already belongs to an organization")
	}
	org := s.createOrgLocked(in)
	rec.OrganizationID = org.ID
	if !rec.Role.AtLeast(models.RoleAdmin) {
		rec.Role = models.RoleAdmin
	}
	out := *org
	return &out, nil
}

func (s *memStore) organization(id string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, notFound("Organization")
	}
	out := *org
	return &out, nil
}

func (s *memStore) updateOrganization(id string, in models.OrganizationInput) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, notFound("Organization")
	}
	if in.Name != "" {
		org.Name = in.Name
	}
	if in.TaxID != "" {
		org.TaxID = in.TaxID
	}
	if in.Country != "" {
		org.Country = strings.ToUpper(in.Country)
	}
	if in.Currency != "" {
		org.Currency = strings.ToUpper(in.Currency)
	}
	if in.Email != "" {
		org.Email = in.Email
	}
	if in.Phone != "" {
		org.Phone = in.Phone
	}
	if in.Address != (models.Address{}) {
		org.Address = in.Address
	}
	out := *org
	return &out, nil
}

func (s *memStore) listOrganizations() []models.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		out = append(out, *org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Customers

func (s *memStore) listCustomers(orgID string) []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Customer{}
	for _, c := range s.customers {
		if c.OrganizationID == orgID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *memStore) customerLocked(orgID, id string) (*models.Customer, error) {
	c, ok := s.customers[id]
	if !ok || c.OrganizationID != orgID {
		return nil, notFound("Customer")
	}
	return c, nil
}

func (s *memStore) customer(orgID, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.customerLocked(orgID, id)
	if err != nil {
		return nil, err
	}
	out := *c
	return &out, nil
}

func (s *memStore) createCustomer(orgID string, in models.CustomerInput) (*models.Customer, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("Customer name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Customer{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		TaxID:          in.TaxID,
		Address:        in.Address,
		CreatedAt:      s.now(),
	}
	s.customers[c.ID] = c
	out := *c
	return &out, nil
}

func (s *memStore) updateCustomer(orgID, id string, in models.CustomerInput) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.customerLocked(orgID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Email != "" {
		c.Email = in.Email
	}
	if in.Phone != "" {
		c.Phone = in.Phone
	}
	if in.TaxID != "" {
		c.TaxID = in.TaxID
	}
	if in.Address != (models.Address{}) {
		c.Address = in.Address
	}
	for _, inv := range s.invoices {
		if inv.CustomerID == id {
			inv.CustomerName = c.Name
		}
	}
	out := *c
	return &out, nil
}

func (s *memStore) deleteCustomer(orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.customerLocked(orgID, id); err != nil {
		return err
	}
	for _, inv := range s.invoices {
		if inv.CustomerID == id {
			return conflict("Customer has invoices and cannot be deleted")
		}
	}
	delete(s.customers, id)
	return nil
}

func (s *memStore) customerStats(orgID string) models.CustomerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	withInvoices := map[string]bool{}
	for _, inv := range s.invoices {
		if inv.OrganizationID == orgID {
			withInvoices[inv.CustomerID] = true
		}
	}
	var stats models.CustomerStats
	for _, c := range s.customers {
		if c.OrganizationID != orgID {
			continue
		}
		stats.Total++
		if !c.CreatedAt.Before(monthStart) {
			stats.NewThisMonth++
		}
		if withInvoices[c.ID] {
			stats.WithInvoices++
		}
	}
	return stats
}

// Invoices

func (s *memStore) listInvoices(orgID string) []models.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Invoice{}
	for _, inv := range s.invoices {
		if inv.OrganizationID == orgID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

func (s *memStore) invoiceLocked(orgID, id string) (*models.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok || inv.OrganizationID != orgID {
		return nil, notFound("Invoice")
	}
	return inv, nil
}

func (s *memStore) invoice(orgID, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, err := s.invoiceLocked(orgID, id)
	if err != nil {
		return nil, err
	}
	return cloneInvoice(inv), nil
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	out := *inv
	out.Lines = append([]models.InvoiceLine(nil), inv.Lines...)
	return &out
}

// applyLines sets lines and recomputes the plain arithmetic totals
func applyLines(inv *models.Invoice, lines []models.InvoiceLine) error {
	if len(lines) == 0 {
		return invalid("At least one invoice line is required")
	}
	inv.Lines = make([]models.InvoiceLine, len(lines))
	inv.Subtotal, inv.TaxTotal = 0, 0
	for i, l := range lines {
		if l.Quantity <= 0 || l.UnitPrice < 0 || l.TaxRate < 0 {
			return invalid(fmt.Sprintf("Line %d has an invalid quantity, price or tax rate", i+1))
		}
		net := roundCents(l.Quantity * l.UnitPrice)
		tax := roundCents(net * l.TaxRate / 100)
		l.Total = roundCents(net + tax)
		inv.Lines[i] = l
		inv.Subtotal += net
		inv.TaxTotal += tax
	}
	inv.Subtotal = roundCents(inv.Subtotal)
	inv.TaxTotal = roundCents(inv.TaxTotal)
	inv.Total = roundCents(inv.Subtotal + inv.TaxTotal)
	return nil
}

func roundCents(v float64) float64 {
	if v < 0 {
		return -roundCents(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

func (s *memStore) createInvoice(orgID string, in models.InvoiceInput) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.customerLocked(orgID, in.CustomerID)
	if err != nil {
		return nil, invalid("Customer not found")
	}

	now := s.now()
	s.invoiceSeq[orgID]++
	inv := &models.Invoice{
		ID:             uuid.NewString(),
		Number:         fmt.Sprintf("INV-%06d", s.invoiceSeq[orgID]),
		OrganizationID: orgID,
		CustomerID:     c.ID,
		CustomerName:   c.Name,
		Status:         models.InvoiceDraft,
		Currency:       strings.ToUpper(in.Currency),
		IssueDate:      in.IssueDate,
		DueDate:        in.DueDate,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if inv.Currency == "" {
		inv.Currency = s.orgs[orgID].Currency
	}
	if inv.IssueDate == "" {
		inv.IssueDate = now.Format("2006-01-02")
	}
	if err := applyLines(inv, in.Lines); err != nil {
		s.invoiceSeq[orgID]--
		return nil, err
	}
	s.invoices[inv.ID] = inv
	return cloneInvoice(inv), nil
}

func (s *memStore) updateInvoice(orgID, id string, in models.InvoiceInput) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.invoiceLocked(orgID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceDraft {
		return nil, conflict("Only draft invoices can be edited")
	}
	updated := cloneInvoice(inv)
	if in.CustomerID != "" {
		c, err := s.customerLocked(orgID, in.CustomerID)
		if err != nil {
			return nil, invalid("Customer not found")
		}
		updated.CustomerID, updated.CustomerName = c.ID, c.Name
	}
	if in.Currency != "" {
		updated.Currency = strings.ToUpper(in.Currency)
	}
	if in.IssueDate != "" {
		updated.IssueDate = in.IssueDate
	}
	if in.DueDate != "" {
		updated.DueDate = in.DueDate
	}
	if in.Notes != "" {
		updated.Notes = in.Notes
	}
	if in.Lines != nil {
		if err := applyLines(updated, in.Lines); err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = s.now()
	s.invoices[id] = updated
	return cloneInvoice(updated), nil
}

func (s *memStore) deleteInvoice(orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.invoiceLocked(orgID, id)
	if err != nil {
		return err
	}
	if inv.Status != models.InvoiceDraft {
		return conflict("Only draft invoices can be deleted")
	}
	delete(s.invoices, id)
	return nil
}

func (s *memStore) submitInvoice(orgID, userID, id string) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.invoiceLocked(orgID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceDraft {
		return nil, conflict("Only draft invoices can be submitted")
	}
	inv.Status = models.InvoiceSubmitted
	inv.UpdatedAt = s.now()
	s.notifyLocked(userID, "invoice.submitted", "Invoice submitted", fmt.Sprintf("Invoice %s was submitted.", inv.Number))
	return cloneInvoice(inv), nil
}

func (s *memStore) emailInvoice(orgID, userID, id string, req models.EmailRequest) error {
	if !strings.Contains(req.To, "@") {
		return invalid("A recipient email is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.invoiceLocked(orgID, id)
	if err != nil {
		return err
	}
	s.notifyLocked(userID, "invoice.emailed", "Invoice sent", fmt.Sprintf("Invoice %s was sent to %s.", inv.Number, req.To))
	return nil
}

func (s *memStore) invoiceStats(orgID string) models.InvoiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := s.now().Format("2006-01-02")
	var stats models.InvoiceStats
	for _, inv := range s.invoices {
		if inv.OrganizationID != orgID {
			continue
		}
		stats.Total++
		switch inv.Status {
		case models.InvoiceDraft:
			stats.Draft++
		case models.InvoicePaid:
			stats.Paid++
		case models.InvoiceSubmitted, models.InvoiceAccepted:
			stats.Submitted++
		}
		if inv.Status == models.InvoiceCancelled {
			continue
		}
		stats.TotalAmount += inv.Total
		stats.PaidAmount += inv.AmountPaid
		if inv.Status != models.InvoicePaid && inv.Status != models.InvoiceDraft && inv.DueDate != "" && inv.DueDate < today {
			stats.Overdue++
		}
	}
	stats.TotalAmount = roundCents(stats.TotalAmount)
	stats.PaidAmount = roundCents(stats.PaidAmount)
	stats.OutstandingAmount = roundCents(stats.TotalAmount - stats.PaidAmount)
	return stats
}

// Payments

func (s *memStore) listPayments(orgID string) []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range s.payments {
		if p.OrganizationID == orgID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) payment(orgID, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok || p.OrganizationID != orgID {
		return nil, notFound("Payment")
	}
	out := *p
	return &out, nil
}

func (s *memStore) createPayment(orgID, userID string, in models.PaymentInput) (*models.Payment, error) {
	if in.Amount <= 0 {
		return nil, invalid("Payment amount must be positive")
	}
	method := in.Method
	if method == "" {
		method = models.PaymentBankTransfer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.invoiceLocked(orgID, in.InvoiceID)
	if err != nil {
		return nil, invalid("Invoice not found")
	}
	switch inv.Status {
	case models.InvoiceDraft:
		return nil, conflict("Invoice must be submitted before recording payments")
	case models.InvoiceCancelled, models.InvoiceRejected:
		return nil, conflict("Payments cannot be recorded for this invoice")
	}

	now := s.now()
	p := &models.Payment{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		InvoiceID:      inv.ID,
		Amount:         roundCents(in.Amount),
		Currency:       inv.Currency,
		Method:         method,
		Reference:      in.Reference,
		PaidAt:         in.PaidAt,
		CreatedAt:      now,
	}
	if p.PaidAt == "" {
		p.PaidAt = now.Format("2006-01-02")
	}
	s.payments[p.ID] = p

	inv.AmountPaid = roundCents(inv.AmountPaid + p.Amount)
	if inv.AmountPaid >= inv.Total {
		inv.Status = models.InvoicePaid
		s.notifyLocked(userID, "invoice.paid", "Invoice paid", fmt.Sprintf("Invoice %s is fully paid.", inv.Number))
	}
	inv.UpdatedAt = now
	out := *p
	return &out, nil
}

func (s *memStore) deletePayment(orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.OrganizationID != orgID {
		return notFound("Payment")
	}
	delete(s.payments, id)
	if inv, ok := s.invoices[p.InvoiceID]; ok {
		inv.AmountPaid = roundCents(inv.AmountPaid - p.Amount)
		if inv.Status == models.InvoicePaid && inv.AmountPaid < inv.Total {
			inv.Status = models.InvoiceAccepted
		}
		inv.UpdatedAt = s.now()
	}
	return nil
}

func (s *memStore) paymentStats(orgID string) models.PaymentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.PaymentStats{ByMethod: map[string]float64{}}
	for _, p := range s.payments {
		if p.OrganizationID != orgID {
			continue
		}
		stats.Count++
		stats.TotalAmount += p.Amount
		stats.ByMethod[string(p.Method)] = roundCents(stats.ByMethod[string(p.Method)] + p.Amount)
	}
	stats.TotalAmount = roundCents(stats.TotalAmount)
	return stats
}

// Compliance

func (s *memStore) submitCompliance(orgID, userID, invoiceID string) (*models.ComplianceSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.invoiceLocked(orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceDraft {
		return nil, conflict("Submit the invoice before sending it for compliance")
	}
	country := s.orgs[orgID].Country
	if country == "" {
		country = defaultCountry
	}
	sub := &models.ComplianceSubmission{
		ID:          uuid.NewString(),
		InvoiceID:   inv.ID,
		Country:     country,
		Status:      models.SubmissionAccepted,
		Reference:   strings.ToUpper(uuid.NewString()[:8]),
		Message:     "Accepted",
		SubmittedAt: s.now(),
	}
	s.submissions[sub.ID] = sub
	if inv.Status == models.InvoiceSubmitted {
		inv.Status = models.InvoiceAccepted
		inv.UpdatedAt = sub.SubmittedAt
	}
	s.notifyLocked(userID, "compliance.accepted", "Compliance accepted", fmt.Sprintf("Invoice %s was accepted (%s).", inv.Number, sub.Reference))
	out := *sub
	return &out, nil
}

func (s *memStore) latestSubmission(orgID, invoiceID string) (*models.ComplianceSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.invoiceLocked(orgID, invoiceID); err != nil {
		return nil, err
	}
	var latest *models.ComplianceSubmission
	for _, sub := range s.submissions {
		if sub.InvoiceID == invoiceID && (latest == nil || sub.SubmittedAt.After(latest.SubmittedAt)) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, notFound("Submission")
	}
	out := *latest
	return &out, nil
}

func (s *memStore) listSubmissions(orgID string) []models.ComplianceSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ComplianceSubmission{}
	for _, sub := range s.submissions {
		if inv, ok := s.invoices[sub.InvoiceID]; ok && inv.OrganizationID == orgID {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

// Notifications

func (s *memStore) notifyLocked(userID, typ, title, msg string) {
	s.notifications[userID] = append(s.notifications[userID], &models.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   msg,
		CreatedAt: s.now(),
	})
}

func (s *memStore) listNotifications(userID string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.notifications[userID]
	out := make([]models.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, *list[i])
	}
	return out
}

func (s *memStore) unreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, note := range s.notifications[userID] {
		if !note.Read {
			n++
		}
	}
	return n
}

func (s *memStore) markRead(userID, id string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, note := range s.notifications[userID] {
		if note.ID == id {
			note.Read = true
			out := *note
			return &out, nil
		}
	}
	return nil, notFound("Notification")
}

func (s *memStore) markAllRead(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, note := range s.notifications[userID] {
		if !note.Read {
			note.Read = true
			n++
		}
	}
	return n
}

func (s *memStore) deleteNotification(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[userID]
	for i, note := range list {
		if note.ID == id {
			s.notifications[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return notFound("Notification")
}

func (s *memStore) systemStats() models.SystemStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SystemStats{
		Users:         len(s.users),
		Organizations: len(s.orgs),
		Invoices:      len(s.invoices),
		Customers:     len(s.customers),
		Payments:      len(s.payments),
	}
}
