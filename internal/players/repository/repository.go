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

// Player is a child/athlete attached to a contact. Reminder message templates
// reference player first names; profile_ref links to the external training app.
type Player struct {
	ID         uuid.UUID `db:"id"`
	ContactID  uuid.UUID `db:"contact_id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	BirthYear  *int      `db:"birth_year"`
	ProfileRef string    `db:"profile_ref"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

const playerNotFoundMsg = "player not found"

// Repository provides database operations for players.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new players repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new player.
func (r *Repository) Create(ctx context.Context, p *Player) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (id, contact_id, first_name, last_name, birth_year, profile_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ContactID, p.FirstName, p.LastName, p.BirthYear, p.ProfileRef, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetByID retrieves a player by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Player, error) {
	var p Player
	err := r.pool.QueryRow(ctx, `
		SELECT id, contact_id, first_name, last_name, birth_year, profile_ref, created_at, updated_at
		FROM players WHERE id = $1`, id).
		Scan(&p.ID, &p.ContactID, &p.FirstName, &p.LastName, &p.BirthYear, &p.ProfileRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(playerNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// ListByContact returns a contact's players ordered by creation.
func (r *Repository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contact_id, first_name, last_name, birth_year, profile_ref, created_at, updated_at
		FROM players WHERE contact_id = $1 ORDER BY created_at ASC`, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.ContactID, &p.FirstName, &p.LastName, &p.BirthYear,
			&p.ProfileRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// FirstNamesByContact returns player first names for message templating.
func (r *Repository) FirstNamesByContact(ctx context.Context, contactID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT first_name FROM players WHERE contact_id = $1 ORDER BY created_at ASC`, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list player names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan player name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PrimaryProfileRef returns the oldest player's training-app profile reference
// for a contact. Deep links address one profile per household.
func (r *Repository) PrimaryProfileRef(ctx context.Context, contactID uuid.UUID) (string, error) {
	var ref string
	err := r.pool.QueryRow(ctx, `
		SELECT profile_ref FROM players
		WHERE contact_id = $1 AND profile_ref <> ''
		ORDER BY created_at ASC LIMIT 1`, contactID).Scan(&ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("no player profile for contact")
		}
		return "", fmt.Errorf("failed to get profile ref: %w", err)
	}
	return ref, nil
}

// Update persists the mutable fields of a player.
func (r *Repository) Update(ctx context.Context, p *Player) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE players SET first_name = $2, last_name = $3, birth_year = $4, profile_ref = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.BirthYear, p.ProfileRef, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(playerNotFoundMsg)
	}
	return nil
}

// Delete removes a player.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(playerNotFoundMsg)
	}
	return nil
}
