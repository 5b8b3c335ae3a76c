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

// Package is a prepaid block of training sessions sold to a contact.
type Package struct {
	ID            uuid.UUID `db:"id"`
	ContactID     uuid.UUID `db:"contact_id"`
	Name          string    `db:"name"`
	TotalSessions int       `db:"total_sessions"`
	PriceCents    int64     `db:"price_cents"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

const packageNotFoundMsg = "package not found"

// Repository provides database operations for session packages.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new packages repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new package.
func (r *Repository) Create(ctx context.Context, p *Package) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO packages (id, contact_id, name, total_sessions, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.ContactID, p.Name, p.TotalSessions, p.PriceCents, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

// GetByID retrieves a package by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Package, error) {
	var p Package
	err := r.pool.QueryRow(ctx, `
		SELECT id, contact_id, name, total_sessions, price_cents, created_at, updated_at
		FROM packages WHERE id = $1`, id).
		Scan(&p.ID, &p.ContactID, &p.Name, &p.TotalSessions, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(packageNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &p, nil
}

// ListByContact returns a contact's packages, newest first.
func (r *Repository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]Package, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contact_id, name, total_sessions, price_cents, created_at, updated_at
		FROM packages WHERE contact_id = $1 ORDER BY created_at DESC`, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.ContactID, &p.Name, &p.TotalSessions, &p.PriceCents,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// Update persists the mutable fields of a package.
func (r *Repository) Update(ctx context.Context, p *Package) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE packages SET name = $2, total_sessions = $3, price_cents = $4, updated_at = $5
		WHERE id = $1`,
		p.ID, p.Name, p.TotalSessions, p.PriceCents, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(packageNotFoundMsg)
	}
	return nil
}

// Delete removes a package. Sessions keep their rows via ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(packageNotFoundMsg)
	}
	return nil
}
