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

// Expense is a business expense line item.
type Expense struct {
	ID          uuid.UUID `db:"id"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	AmountCents int64     `db:"amount_cents"`
	IncurredOn  time.Time `db:"incurred_on"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const expenseNotFoundMsg = "expense not found"

// Repository provides database operations for expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new expenses repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new expense.
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO expenses (id, description, category, amount_cents, incurred_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Description, e.Category, e.AmountCents, e.IncurredOn, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `
		SELECT id, description, category, amount_cents, incurred_on, created_at, updated_at
		FROM expenses WHERE id = $1`, id).
		Scan(&e.ID, &e.Description, &e.Category, &e.AmountCents, &e.IncurredOn, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(expenseNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &e, nil
}

// List returns expenses newest first.
func (r *Repository) List(ctx context.Context) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, category, amount_cents, incurred_on, created_at, updated_at
		FROM expenses ORDER BY incurred_on DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.AmountCents, &e.IncurredOn,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Update persists the mutable fields of an expense.
func (r *Repository) Update(ctx context.Context, e *Expense) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses SET description = $2, category = $3, amount_cents = $4, incurred_on = $5, updated_at = $6
		WHERE id = $1`,
		e.ID, e.Description, e.Category, e.AmountCents, e.IncurredOn, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(expenseNotFoundMsg)
	}
	return nil
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(expenseNotFoundMsg)
	}
	return nil
}
