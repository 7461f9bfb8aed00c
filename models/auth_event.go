package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthOutcome represents the outcome of an authentication attempt
type AuthOutcome string

const (
	AuthOutcomeAllowed  AuthOutcome = "allowed"
	AuthOutcomeRejected AuthOutcome = "rejected"
)

// AuthEvent represents one recorded authentication decision. Raw tokens and
// key material are never part of an event.
type AuthEvent struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Route     string      `json:"route" db:"route"`
	RequestID string      `json:"request_id" db:"request_id"`
	Outcome   AuthOutcome `json:"outcome" db:"outcome"`
	Reason    string      `json:"reason,omitempty" db:"reason"`
	SubjectID *int64      `json:"subject_id,omitempty" db:"subject_id"`
	Timestamp time.Time   `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuthEvent model
func (AuthEvent) TableName() string {
	return "auth_events"
}

// NewAuthEvent creates a new AuthEvent instance
func NewAuthEvent(route, requestID string) *AuthEvent {
	return &AuthEvent{
		ID:        uuid.New(),
		Route:     route,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}
