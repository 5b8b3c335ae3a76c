package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DMStatus tracks how far an Instagram/DM conversation has progressed.
type DMStatus string

const (
	DMStatusNone             DMStatus = "none"
	DMStatusFirstMessage     DMStatus = "first_message"
	DMStatusStartedTalking   DMStatus = "started_talking"
	DMStatusRequestPhoneCall DMStatus = "request_phone_call"
	DMStatusWentCold         DMStatus = "went_cold"
)

// CallOutcome records the result of a booked discovery call.
type CallOutcome string

const (
	CallOutcomeNone            CallOutcome = "none"
	CallOutcomeSessionBooked   CallOutcome = "session_booked"
	CallOutcomeThinkingAboutIt CallOutcome = "thinking_about_it"
	CallOutcomeUninterested    CallOutcome = "uninterested"
	CallOutcomeWentCold        CallOutcome = "went_cold"
)

// Contact represents the contact database model.
type Contact struct {
	ID              uuid.UUID   `db:"id"`
	FirstName       string      `db:"first_name"`
	LastName        string      `db:"last_name"`
	Phone           string      `db:"phone"`
	Email           string      `db:"email"`
	InstagramHandle string      `db:"instagram_handle"`
	DMStatus        DMStatus    `db:"dm_status"`
	PhoneCallBooked bool        `db:"phone_call_booked"`
	CallDateTime    *time.Time  `db:"call_date_time"`
	CallOutcome     CallOutcome `db:"call_outcome"`
	IsCustomer      bool        `db:"is_customer"`
	IsDead          bool        `db:"is_dead"`
	LastActivityAt  time.Time   `db:"last_activity_at"`
	Notes           string      `db:"notes"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

const contactColumns = `id, first_name, last_name, phone, email, instagram_handle, dm_status,
	phone_call_booked, call_date_time, call_outcome, is_customer, is_dead,
	last_activity_at, notes, created_at, updated_at`

const contactNotFoundMsg = "contact not found"

// Repository provides database operations for contacts.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new contacts repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanContact(row pgx.Row) (*Contact, error) {
	var ct Contact
	err := row.Scan(
		&ct.ID, &ct.FirstName, &ct.LastName, &ct.Phone, &ct.Email, &ct.InstagramHandle,
		&ct.DMStatus, &ct.PhoneCallBooked, &ct.CallDateTime, &ct.CallOutcome,
		&ct.IsCustomer, &ct.IsDead, &ct.LastActivityAt, &ct.Notes, &ct.CreatedAt, &ct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// Create inserts a new contact.
func (r *Repository) Create(ctx context.Context, ct *Contact) error {
	query := `
		INSERT INTO contacts (
			id, first_name, last_name, phone, email, instagram_handle, dm_status,
			phone_call_booked, call_date_time, call_outcome, is_customer, is_dead,
			last_activity_at, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`

	_, err := r.pool.Exec(ctx, query,
		ct.ID, ct.FirstName, ct.LastName, ct.Phone, ct.Email, ct.InstagramHandle, ct.DMStatus,
		ct.PhoneCallBooked, ct.CallDateTime, ct.CallOutcome, ct.IsCustomer, ct.IsDead,
		ct.LastActivityAt, ct.Notes, ct.CreatedAt, ct.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	ct, err := scanContact(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contactNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return ct, nil
}

// List returns all contacts ordered by most recent activity.
func (r *Repository) List(ctx context.Context, includeDead bool) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	if !includeDead {
		query += ` WHERE NOT is_dead`
	}
	query += ` ORDER BY last_activity_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		ct, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *ct)
	}

	return contacts, rows.Err()
}

// ListInactiveSince returns non-dead contacts whose last activity is at or
// before the cutoff. Used by the reconciliation sweep.
func (r *Repository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE NOT is_dead AND last_activity_at <= $1
		ORDER BY last_activity_at ASC`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		ct, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *ct)
	}

	return contacts, rows.Err()
}

// Update persists all mutable contact fields.
func (r *Repository) Update(ctx context.Context, ct *Contact) error {
	query := `
		UPDATE contacts SET
			first_name = $2, last_name = $3, phone = $4, email = $5, instagram_handle = $6,
			dm_status = $7, phone_call_booked = $8, call_date_time = $9, call_outcome = $10,
			is_customer = $11, is_dead = $12, last_activity_at = $13, notes = $14, updated_at = $15
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		ct.ID, ct.FirstName, ct.LastName, ct.Phone, ct.Email, ct.InstagramHandle,
		ct.DMStatus, ct.PhoneCallBooked, ct.CallDateTime, ct.CallOutcome,
		ct.IsCustomer, ct.IsDead, ct.LastActivityAt, ct.Notes, ct.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}

	return nil
}

// TouchActivity bumps last_activity_at to the given instant.
func (r *Repository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contacts SET last_activity_at = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch contact activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}
	return nil
}

// Delete removes a contact and, via cascade, everything attached to it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}
	return nil
}
