// Package validation checks credential and profile input before anything
// is sent to the identity provider. Every function is pure and reports
// only the first rule that fails.
package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength     = 2
	MaxNameLength     = 100
	MinPasswordLength = 6
)

// Field names reported in FieldError.
const (
	FieldFullName = "full_name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Rule identifiers reported in FieldError.
const (
	RuleRequired  = "required"
	RuleNameShort = "name_too_short"
	RuleNameLong  = "name_too_long"
	RuleEmail     = "email_format"
	RulePassword  = "password_too_short"
)

// ErrInvalidInput is matched by every *FieldError.
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes the first violated rule.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Is(target error) bool { return target == ErrInvalidInput }

// Credentials is the normalised form of accepted input.
type Credentials struct {
	FullName string
	Email    string
	Password string
}

// ValidateSignup checks name, then email, then password.
func ValidateSignup(fullName, email, password string) (Credentials, error) {
	name, err := validateName(fullName)
	if err != nil {
		return Credentials{}, err
	}
	creds, err := ValidateLogin(email, password)
	if err != nil {
		return Credentials{}, err
	}
	creds.FullName = name
	return creds, nil
}

// ValidateLogin checks email, then password.
func ValidateLogin(email, password string) (Credentials, error) {
	addr, err := ValidateEmail(email)
	if err != nil {
		return Credentials{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: addr, Password: password}, nil
}

// ValidateEmail trims and lower-cases a single bare address. Display-name
// forms such as "Bob <bob@x.io>" are rejected.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &FieldError{Field: FieldEmail, Rule: RuleRequired, Message: "Email is required"}
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email || parsed.Name != "" {
		return "", invalidEmail()
	}
	_, domain, ok := strings.Cut(parsed.Address, "@")
	if !ok || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", invalidEmail()
	}
	return strings.ToLower(parsed.Address), nil
}

// ValidatePassword enforces the minimum length. Passwords are not trimmed.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &FieldError{
			Field:   FieldPassword,
			Rule:    RulePassword,
			Message: "Password must be at least 6 characters",
		}
	}
	return nil
}

func validateName(fullName string) (string, error) {
	name := strings.TrimSpace(fullName)
	n := utf8.RuneCountInString(name)
	switch {
	case n < MinNameLength:
		return "", &FieldError{Field: FieldFullName, Rule: RuleNameShort, Message: "Name must be at least 2 characters"}
	case n > MaxNameLength:
		return "", &FieldError{Field: FieldFullName, Rule: RuleNameLong, Message: "Name must be less than 100 characters"}
	}
	return name, nil
}

func invalidEmail() *FieldError {
	return &FieldError{Field: FieldEmail, Rule: RuleEmail, Message: "Invalid email address"}
}
