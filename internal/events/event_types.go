package events

import (
	"time"

	"github.com/spec-kit/bus-tracking/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventLoginFailed     EventType = "login_failed"
	EventUserProvisioned EventType = "user_provisioned"
)

// Event represents an authentication event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}
