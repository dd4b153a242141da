package dto

import "github.com/spec-kit/bus-tracking/internal/domain"

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool           `json:"success"`
	Token   string         `json:"token"`
	User    domain.Profile `json:"user"`
}

// UserResponse is returned by the current-user endpoint.
type UserResponse struct {
	Success bool           `json:"success"`
	User    domain.Profile `json:"user"`
}

// RoleHomeResponse is returned by the role-gated home endpoints.
type RoleHomeResponse struct {
	Success bool           `json:"success"`
	User    domain.Profile `json:"user"`
	View    domain.Role    `json:"view"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// HealthResponse is returned by the liveness check.
type HealthResponse struct {
	Status string `json:"status"`
}
