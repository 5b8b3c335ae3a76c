package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateSessionRequest books a session. Kind selects between a trial first
// session and a regular package session. SessionDate is RFC3339 or a naive
// wall-clock timestamp whose digits are UTC.
type CreateSessionRequest struct {
	ContactID   uuid.UUID  `json:"contactId" validate:"required"`
	Kind        string     `json:"kind" validate:"required,oneof=first_session session"`
	PackageID   *uuid.UUID `json:"packageId,omitempty"`
	SessionDate string     `json:"sessionDate" validate:"required"`
	Location    string     `json:"location" validate:"omitempty,max=200"`
}

// UpdateSessionRequest patches a session.
type UpdateSessionRequest struct {
	PackageID   *uuid.UUID `json:"packageId,omitempty"`
	SessionDate *string    `json:"sessionDate,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled accepted completed cancelled rescheduled no_show"`
	Cancelled   *bool      `json:"cancelled,omitempty"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=200"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID          uuid.UUID  `json:"id"`
	ContactID   uuid.UUID  `json:"contactId"`
	Kind        string     `json:"kind"`
	PackageID   *uuid.UUID `json:"packageId,omitempty"`
	SessionDate time.Time  `json:"sessionDate"`
	Status      *string    `json:"status,omitempty"`
	Cancelled   bool       `json:"cancelled"`
	Location    string     `json:"location"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SessionListResponse wraps a list of sessions.
type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
	Total int               `json:"total"`
}
