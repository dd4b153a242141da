package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by DomainError. They appear in logs and metrics, never in
// response bodies.
const (
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInsufficientRole   = "INSUFFICIENT_ROLE"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeValidation         = "VALIDATION_FAILED"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeNotFound           = "NOT_FOUND"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Fields     map[string]string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

func NewMissingToken() error {
	return NewDomainError(CodeMissingToken, "No token provided. Please login.", http.StatusUnauthorized)
}

// NewInvalidToken covers both bad and expired tokens so callers cannot tell them apart.
func NewInvalidToken() error {
	return NewDomainError(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func NewForbidden() error {
	return NewDomainError(CodeInsufficientRole, "Access denied. Insufficient permissions.", http.StatusForbidden)
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
}

func NewValidationError(fields map[string]string) error {
	return &DomainError{
		Code:       CodeValidation,
		Message:    "Validation failed",
		HTTPStatus: http.StatusBadRequest,
		Fields:     fields,
	}
}

func NewBadRequest(message string) error {
	return NewDomainError(CodeBadRequest, message, http.StatusBadRequest)
}

func NewDuplicateEmail() error {
	return NewDomainError(CodeDuplicateEmail, "User already exists with this email", http.StatusConflict)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewTooManyRequests() error {
	return NewDomainError(CodeTooManyRequests, "Too many requests. Please try again later.", http.StatusTooManyRequests)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Internal Server Error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch {
		case fiberErr.Code == http.StatusNotFound:
			return NewDomainError(CodeNotFound, "Route not found", http.StatusNotFound)
		case fiberErr.Code >= 500:
			return NewInternalError(err).(*DomainError)
		default:
			return NewDomainError(CodeBadRequest, fiberErr.Message, fiberErr.Code)
		}
	}
	return NewInternalError(err).(*DomainError)
}

