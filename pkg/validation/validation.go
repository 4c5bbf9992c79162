// Package validation holds the pure input checks shared across the API:
// email/password/user shape plus the phone and postal code formats used by
// shipping addresses.
package validation

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "dermacare/pkg/errors"
)

var (
	validate = validator.New()

	phoneRegexp      = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	postalCodeRegexp = regexp.MustCompile(`^[0-9]{5}(?:-[0-9]{4})?$`)
)

func init() {
	// validator/v10 has no single tag for "upper+lower+digit+special", so
	// the password class check is registered as a custom rule.
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordClassesOK(fl.Field().String())
	})
}

func passwordClassesOK(password string) bool {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

// ValidateEmail checks the address shape.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return apperrors.Validation("Please provide a valid email address", err)
	}
	return nil
}

// ValidatePassword requires at least 8 characters spanning upper, lower,
// digit and special classes.
func ValidatePassword(password string) error {
	if err := validate.Var(password, "required,min=8,password"); err != nil {
		return apperrors.Validation("Password must be at least 8 characters and contain uppercase, lowercase, number and special characters", err)
	}
	return nil
}

// UserInput is the shape accepted for user records.
type UserInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,password"`
	Name     string `validate:"required,min=2,max=50"`
	Role     string `validate:"omitempty,oneof=user support doctor admin"`
}

// ValidateUser checks the combined user shape.
func ValidateUser(input UserInput) error {
	if err := validate.Struct(input); err != nil {
		return apperrors.Validation("Invalid user data", err)
	}
	return nil
}

// ValidatePhoneNumber checks the shipping address phone format.
func ValidatePhoneNumber(phone string) error {
	if !phoneRegexp.MatchString(phone) {
		return apperrors.Validation("Invalid phone number format", nil)
	}
	return nil
}

// ValidatePostalCode checks the shipping address postal code format.
func ValidatePostalCode(code string) error {
	if !postalCodeRegexp.MatchString(code) {
		return apperrors.Validation("Invalid postal code format", nil)
	}
	return nil
}
