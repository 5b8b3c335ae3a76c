package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session statuses. A nil status means the session was booked but never
// acted on, which still counts as active.
const (
	StatusScheduled   = "scheduled"
	StatusAccepted    = "accepted"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
	StatusRescheduled = "rescheduled"
	StatusNoShow      = "no_show"
)

// activeFilter matches sessions that are not cancelled and whose status has
// not terminally ended them. Shared by first and regular session queries.
const activeFilter = `NOT cancelled AND (status IS NULL OR status NOT IN ('cancelled', 'no_show'))`

// Session is a booked training session, either a trial first session or a
// regular package session. Both tables share this shape.
type Session struct {
	ID          uuid.UUID  `db:"id"`
	ContactID   uuid.UUID  `db:"contact_id"`
	PackageID   *uuid.UUID `db:"package_id"` // always nil for first sessions
	SessionDate time.Time  `db:"session_date"`
	Status      *string    `db:"status"`
	Cancelled   bool       `db:"cancelled"`
	Location    string     `db:"location"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Kind distinguishes the two session tables.
type Kind string

const (
	KindFirst   Kind = "first_session"
	KindRegular Kind = "session"
)

func (k Kind) table() string {
	if k == KindFirst {
		return "first_sessions"
	}
	return "sessions"
}

const sessionNotFoundMsg = "session not found"

// Repository provides database operations for first and regular sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new sessions repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a session of the given kind.
func (r *Repository) Create(ctx context.Context, kind Kind, s *Session) error {
	var err error
	if kind == KindFirst {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO first_sessions (id, contact_id, session_date, status, cancelled, location, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.ID, s.ContactID, s.SessionDate, s.Status, s.Cancelled, s.Location, s.CreatedAt, s.UpdatedAt)
	} else {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO sessions (id, contact_id, package_id, session_date, status, cancelled, location, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			s.ID, s.ContactID, s.PackageID, s.SessionDate, s.Status, s.Cancelled, s.Location, s.CreatedAt, s.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return nil
}

// GetByID retrieves a session of the given kind.
func (r *Repository) GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Session, error) {
	var (
		s      Session
		err    error
		status *string
	)
	if kind == KindFirst {
		err = r.pool.QueryRow(ctx, `
			SELECT id, contact_id, session_date, status, cancelled, location, created_at, updated_at
			FROM first_sessions WHERE id = $1`, id).
			Scan(&s.ID, &s.ContactID, &s.SessionDate, &status, &s.Cancelled, &s.Location, &s.CreatedAt, &s.UpdatedAt)
	} else {
		err = r.pool.QueryRow(ctx, `
			SELECT id, contact_id, package_id, session_date, status, cancelled, location, created_at, updated_at
			FROM sessions WHERE id = $1`, id).
			Scan(&s.ID, &s.ContactID, &s.PackageID, &s.SessionDate, &status, &s.Cancelled, &s.Location, &s.CreatedAt, &s.UpdatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(sessionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	s.Status = status
	return &s, nil
}

// Update persists the mutable fields of a session.
func (r *Repository) Update(ctx context.Context, kind Kind, s *Session) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if kind == KindFirst {
		tag, err = r.pool.Exec(ctx, `
			UPDATE first_sessions SET session_date = $2, status = $3, cancelled = $4, location = $5, updated_at = $6
			WHERE id = $1`,
			s.ID, s.SessionDate, s.Status, s.Cancelled, s.Location, s.UpdatedAt)
	} else {
		tag, err = r.pool.Exec(ctx, `
			UPDATE sessions SET package_id = $2, session_date = $3, status = $4, cancelled = $5, location = $6, updated_at = $7
			WHERE id = $1`,
			s.ID, s.PackageID, s.SessionDate, s.Status, s.Cancelled, s.Location, s.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(sessionNotFoundMsg)
	}
	return nil
}

// ListByContact returns all sessions of the given kind for a contact.
func (r *Repository) ListByContact(ctx context.Context, kind Kind, contactID uuid.UUID) ([]Session, error) {
	query := fmt.Sprintf(`
		SELECT id, contact_id, %s session_date, status, cancelled, location, created_at, updated_at
		FROM %s WHERE contact_id = $1 ORDER BY session_date ASC`,
		packageColumn(kind), kind.table())

	rows, err := r.pool.Query(ctx, query, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	defer rows.Close()

	return collectSessions(rows, kind)
}

// ListActiveFuture returns active sessions of the given kind dated after now.
// The reconciliation sweep uses this to ensure each has its reminder set.
func (r *Repository) ListActiveFuture(ctx context.Context, kind Kind, now time.Time) ([]Session, error) {
	query := fmt.Sprintf(`
		SELECT id, contact_id, %s session_date, status, cancelled, location, created_at, updated_at
		FROM %s WHERE %s AND session_date > $1 ORDER BY session_date ASC`,
		packageColumn(kind), kind.table(), activeFilter)

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active future %ss: %w", kind, err)
	}
	defer rows.Close()

	return collectSessions(rows, kind)
}

// ActiveFirstSessionDates returns the dates of a contact's active first
// sessions, earliest first.
func (r *Repository) ActiveFirstSessionDates(ctx context.Context, contactID uuid.UUID) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_date FROM first_sessions
		 WHERE contact_id = $1 AND `+activeFilter+`
		 ORDER BY session_date ASC`, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active first session dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan first session date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// CountActiveRegularSessions counts a contact's active regular sessions.
func (r *Repository) CountActiveRegularSessions(ctx context.Context, contactID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE contact_id = $1 AND `+activeFilter, contactID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return count, nil
}

// LatestCompletedSessionAt returns the date of the contact's most recent
// completed (attended) regular session, or nil if none exists.
func (r *Repository) LatestCompletedSessionAt(ctx context.Context, contactID uuid.UUID) (*time.Time, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT session_date FROM sessions
		 WHERE contact_id = $1 AND NOT cancelled AND status = 'completed'
		 ORDER BY session_date DESC LIMIT 1`, contactID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest completed session: %w", err)
	}
	return &at, nil
}

// OrdinalInPackage returns a session's 1-based position among its package's
// sessions (ordered by date) and the package size. Both are zero when the
// session is not attached to a package.
func (r *Repository) OrdinalInPackage(ctx context.Context, sessionID uuid.UUID) (ordinal int, total int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT ranked.ordinal, COALESCE(p.total_sessions, 0)
		FROM (
			SELECT id, package_id,
				ROW_NUMBER() OVER (PARTITION BY package_id ORDER BY session_date ASC) AS ordinal
			FROM sessions
			WHERE package_id IS NOT NULL AND NOT cancelled
		) ranked
		JOIN packages p ON p.id = ranked.package_id
		WHERE ranked.id = $1`, sessionID).Scan(&ordinal, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to get session ordinal: %w", err)
	}
	return ordinal, total, nil
}

func packageColumn(kind Kind) string {
	if kind == KindFirst {
		return "NULL::uuid AS package_id,"
	}
	return "package_id,"
}

func collectSessions(rows pgx.Rows, kind Kind) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ContactID, &s.PackageID, &s.SessionDate, &s.Status,
			&s.Cancelled, &s.Location, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
