package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinNameLength and MinPasswordLength mirror the limits enforced by the sign-up form.
const (
	MinNameLength     = 2
	MinPasswordLength = 6
)

var (
	// Validate is a shared validator instance.
	Validate *validator.Validate

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func init() {
	Validate = validator.New()

	Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	if err := Validate.RegisterValidation("campus_email", validateEmail); err != nil {
		panic(fmt.Sprintf("failed to register campus_email validator: %v", err))
	}
}

func validateEmail(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// FieldErrors maps a request field to a message suitable for the form layer.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(f))
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,campus_email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,campus_email"`
	Password string `json:"password" validate:"required,min=6"`
}

var messages = map[string]map[string]string{
	"name": {
		"required": "Full name is required",
		"min":      "Name must be at least 2 characters",
	},
	"email": {
		"required":     "Email is required",
		"campus_email": "Enter a valid email address",
	},
	"password": {
		"required": "Password is required",
		"min":      "Password must be at least 6 characters",
	},
	"confirmPassword": {
		"required": "Confirm password is required",
		"eqfield":  "Passwords do not match",
	},
}

// Normalize trims the free-text fields and lower-cases the email.
func (in *RegisterInput) Normalize() {
	in.Name = SanitizeText(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// Normalize lower-cases the email.
func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// Check normalizes and validates a registration request.
func (in *RegisterInput) Check() FieldErrors {
	in.Normalize()
	return Struct(in)
}

// Check normalizes and validates a login request.
func (in *LoginInput) Check() FieldErrors {
	in.Normalize()
	return Struct(in)
}

// Struct validates v and returns one message per failing field, or nil.
func Struct(v any) FieldErrors {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := messages[field][fe.Tag()]; ok {
			out[field] = msg
			continue
		}
		out[field] = fmt.Sprintf("%s is invalid", field)
	}
	return out
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
