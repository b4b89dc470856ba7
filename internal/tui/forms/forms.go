// ABOUTME: Interactive huh forms for login and registration prompts
// ABOUTME: Only fields the caller left empty are asked for

package forms

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/markalston/einvoice/internal/models"
)

const minPasswordLength = 8

func theme() *huh.Theme {
	return huh.ThemeBase()
}

// LoginForm builds a form that fills the missing fields of creds
func LoginForm(creds *models.Credentials) *huh.Form {
	var fields []huh.Field
	if creds.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&creds.Email).
			Validate(validateEmail))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password).
			Validate(validateRequired("Password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(theme())
}

// RegisterForm builds a form that fills the missing fields of in
func RegisterForm(in *models.RegisterInput) *huh.Form {
	var fields []huh.Field
	if in.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&in.Email).Validate(validateEmail))
	}
	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			Description("At least 8 characters").
			EchoMode(huh.EchoModePassword).
			Value(&in.Password).
			Validate(validatePassword))
	}
	if in.FirstName == "" {
		fields = append(fields, huh.NewInput().Title("First name").Value(&in.FirstName))
	}
	if in.LastName == "" {
		fields = append(fields, huh.NewInput().Title("Last name").Value(&in.LastName))
	}
	if in.OrganizationName == "" {
		fields = append(fields, huh.NewInput().
			Title("Organization").
			Description("Leave empty to join one later").
			Value(&in.OrganizationName))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(theme())
}

// Run runs form when it is non-nil
func Run(form *huh.Form) error {
	if form == nil {
		return nil
	}
	return form.Run()
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok),
	)).WithTheme(theme()).Run()
	return ok, err
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("Email is required")
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return errors.New("Enter a valid email address")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < minPasswordLength {
		return errors.New("Password must be at least 8 characters")
	}
	return nil
}

func validateRequired(label string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New(label + " is required")
		}
		return nil
	}
}
