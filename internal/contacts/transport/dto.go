package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateContactRequest contains data for creating a new contact.
type CreateContactRequest struct {
	FirstName       string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName        string  `json:"lastName" validate:"omitempty,max=100"`
	Phone           string  `json:"phone" validate:"omitempty,max=32"`
	Email           string  `json:"email" validate:"omitempty,email"`
	InstagramHandle string  `json:"instagramHandle" validate:"omitempty,max=100"`
	DMStatus        *string `json:"dmStatus,omitempty" validate:"omitempty,oneof=none first_message started_talking request_phone_call went_cold"`
	Notes           string  `json:"notes" validate:"omitempty,max=10000"`
}

// UpdateContactRequest patches a contact. Lifecycle fields here drive the
// follow-up engine, so the service compares old and new values on every write.
type UpdateContactRequest struct {
	FirstName       *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	InstagramHandle *string `json:"instagramHandle,omitempty" validate:"omitempty,max=100"`
	DMStatus        *string `json:"dmStatus,omitempty" validate:"omitempty,oneof=none first_message started_talking request_phone_call went_cold"`
	PhoneCallBooked *bool   `json:"phoneCallBooked,omitempty"`
	CallDateTime    *string `json:"callDateTime,omitempty"`
	CallOutcome     *string `json:"callOutcome,omitempty" validate:"omitempty,oneof=none session_booked thinking_about_it uninterested went_cold"`
	IsCustomer      *bool   `json:"isCustomer,omitempty"`
	IsDead          *bool   `json:"isDead,omitempty"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=10000"`
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
	InstagramHandle string     `json:"instagramHandle"`
	DMStatus        string     `json:"dmStatus"`
	PhoneCallBooked bool       `json:"phoneCallBooked"`
	CallDateTime    *time.Time `json:"callDateTime,omitempty"`
	CallOutcome     string     `json:"callOutcome"`
	IsCustomer      bool       `json:"isCustomer"`
	IsDead          bool       `json:"isDead"`
	LastActivityAt  time.Time  `json:"lastActivityAt"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ContactListResponse wraps a list of contacts.
type ContactListResponse struct {
	Items []ContactResponse `json:"items"`
	Total int               `json:"total"`
}
