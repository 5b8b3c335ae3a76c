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

// ReminderType is the specific offset/variant within a category.
type ReminderType string

const (
	TypeSession48h             ReminderType = "session_48h"
	TypeSession24h             ReminderType = "session_24h"
	TypeSession6h              ReminderType = "session_6h"
	TypeSessionStart           ReminderType = "session_start"
	TypeCoachSessionStart      ReminderType = "coach_session_start"
	TypeCoachSessionPlus60m    ReminderType = "coach_session_plus_60m"
	TypeParentSessionPlus120m  ReminderType = "parent_session_plus_120m"
	TypeFollowUp1d             ReminderType = "follow_up_1d"
	TypeFollowUp3d             ReminderType = "follow_up_3d"
	TypeFollowUp7d             ReminderType = "follow_up_7d"
	TypeFollowUp14d            ReminderType = "follow_up_14d"
)

// ReminderCategory is the broad purpose of a reminder.
type ReminderCategory string

const (
	CategorySessionReminder            ReminderCategory = "session_reminder"
	CategoryDMFollowUp                 ReminderCategory = "dm_follow_up"
	CategoryPostCallFollowUp           ReminderCategory = "post_call_follow_up"
	CategoryPostFirstSessionFollowUp   ReminderCategory = "post_first_session_follow_up"
	CategoryPostSessionFollowUp        ReminderCategory = "post_session_follow_up"
)

// IsFollowUp reports whether the category is one of the follow-up flavors.
func (c ReminderCategory) IsFollowUp() bool {
	return c != CategorySessionReminder && c != ""
}

// Reminder is the scheduling unit. A session reminder links exactly one of
// SessionID/FirstSessionID; a follow-up reminder links neither.
type Reminder struct {
	ID             uuid.UUID        `db:"id"`
	ContactID      uuid.UUID        `db:"contact_id"`
	SessionID      *uuid.UUID       `db:"session_id"`
	FirstSessionID *uuid.UUID       `db:"first_session_id"`
	Type           ReminderType     `db:"reminder_type"`
	Category       ReminderCategory `db:"reminder_category"`
	DueAt          time.Time        `db:"due_at"`
	Sent           bool             `db:"sent"`
	SentAt         *time.Time       `db:"sent_at"`
	Notes          string           `db:"notes"`
	DeletedAt      *time.Time       `db:"deleted_at"`
	CreatedAt      time.Time        `db:"created_at"`
}

const reminderColumns = `id, contact_id, session_id, first_session_id, reminder_type,
	reminder_category, due_at, sent, sent_at, notes, deleted_at, created_at`

const reminderNotFoundMsg = "reminder not found"

// liveFilter excludes soft-deleted rows.
const liveFilter = `deleted_at IS NULL`

// Repository provides idempotent database operations for reminders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reminders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertIfAbsent inserts the reminder unless an unsent reminder with the same
// (contact, type, category, due_at) already exists. The guard and the insert
// execute as one statement, and the partial unique index turns any remaining
// race into a no-op conflict, so overlapping scheduler runs cannot duplicate.
// Returns whether a row was actually created.
func (r *Repository) InsertIfAbsent(ctx context.Context, rem *Reminder) (bool, error) {
	if rem.ID == uuid.Nil {
		rem.ID = uuid.New()
	}
	if rem.CreatedAt.IsZero() {
		rem.CreatedAt = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO reminders (id, contact_id, session_id, first_session_id, reminder_type,
			reminder_category, due_at, sent, sent_at, notes, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, FALSE, NULL, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM reminders
			WHERE contact_id = $2 AND reminder_type = $5 AND reminder_category = $6
				AND due_at = $7 AND NOT sent AND `+liveFilter+`
		)
		ON CONFLICT (contact_id, reminder_type, reminder_category, due_at)
			WHERE NOT sent AND deleted_at IS NULL
			DO NOTHING`,
		rem.ID, rem.ContactID, rem.SessionID, rem.FirstSessionID, rem.Type,
		rem.Category, rem.DueAt, rem.Notes, rem.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert reminder: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Exists reports whether a reminder with the exact key exists.
func (r *Repository) Exists(ctx context.Context, contactID uuid.UUID, typ ReminderType, category ReminderCategory, dueAt time.Time, unsentOnly bool) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM reminders
		WHERE contact_id = $1 AND reminder_type = $2 AND reminder_category = $3
			AND due_at = $4 AND ` + liveFilter
	if unsentOnly {
		query += ` AND NOT sent`
	}
	query += `)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, contactID, typ, category, dueAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reminder existence: %w", err)
	}
	return exists, nil
}

// HasUnsentFollowUp reports whether a contact has any pending follow-up
// reminder of any flavor. Used for stage suppression.
func (r *Repository) HasUnsentFollowUp(ctx context.Context, contactID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE contact_id = $1 AND NOT sent AND `+liveFilter+`
				AND reminder_category LIKE '%follow_up%'
		)`, contactID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending follow-ups: %w", err)
	}
	return exists, nil
}

// HasUnsentSessionReminders reports whether the linked session already has
// pending session reminders.
func (r *Repository) HasUnsentSessionReminders(ctx context.Context, sessionID uuid.UUID, firstSession bool) (bool, error) {
	column := "session_id"
	if firstSession {
		column = "first_session_id"
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE `+column+` = $1 AND NOT sent AND `+liveFilter+`
				AND reminder_category = 'session_reminder'
		)`, sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session reminders: %w", err)
	}
	return exists, nil
}

// DeleteUnsent soft-deletes all unsent reminders of a category for a contact.
// Used when a stage change supersedes pending follow-ups.
func (r *Repository) DeleteUnsent(ctx context.Context, contactID uuid.UUID, category ReminderCategory) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET deleted_at = now()
		WHERE contact_id = $1 AND reminder_category = $2 AND NOT sent AND `+liveFilter,
		contactID, category)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unsent reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteUnsentForSession soft-deletes a session's pending reminders. Used when
// a session is rescheduled or cancelled so the countdown set can be rebuilt.
func (r *Repository) DeleteUnsentForSession(ctx context.Context, sessionID uuid.UUID, firstSession bool) (int64, error) {
	column := "session_id"
	if firstSession {
		column = "first_session_id"
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET deleted_at = now()
		WHERE `+column+` = $1 AND NOT sent AND `+liveFilter, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DueSessionRemindersInWindow returns unsent session reminders due inside
// [from, to] for non-dead contacts, oldest first, up to limit.
func (r *Repository) DueSessionRemindersInWindow(ctx context.Context, from, to time.Time, limit int) ([]Reminder, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.contact_id, r.session_id, r.first_session_id, r.reminder_type,
			r.reminder_category, r.due_at, r.sent, r.sent_at, r.notes, r.deleted_at, r.created_at
		FROM reminders r
		JOIN contacts c ON c.id = r.contact_id
		WHERE r.reminder_category = 'session_reminder'
			AND NOT r.sent AND r.deleted_at IS NULL
			AND NOT c.is_dead
			AND r.due_at >= $1 AND r.due_at <= $2
		ORDER BY r.due_at ASC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// ListUnsent returns pending reminders, optionally restricted to one contact.
// This is the read surface consumed by the dashboard.
func (r *Repository) ListUnsent(ctx context.Context, contactID *uuid.UUID) ([]Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE NOT sent AND ` + liveFilter
	args := []any{}
	if contactID != nil {
		query += ` AND contact_id = $1`
		args = append(args, *contactID)
	}
	query += ` ORDER BY due_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsent reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// MarkSent flags a reminder as sent at the given instant.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reminders SET sent = TRUE, sent_at = $2 WHERE id = $1 AND `+liveFilter, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(reminderNotFoundMsg)
	}
	return nil
}

// AppendNote appends a line to the reminder's delivery audit trail.
func (r *Repository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END
		WHERE id = $1`, id, note)
	if err != nil {
		return fmt.Errorf("failed to append reminder note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(reminderNotFoundMsg)
	}
	return nil
}

// GetByID retrieves a reminder by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)

	var rem Reminder
	err := row.Scan(&rem.ID, &rem.ContactID, &rem.SessionID, &rem.FirstSessionID, &rem.Type,
		&rem.Category, &rem.DueAt, &rem.Sent, &rem.SentAt, &rem.Notes, &rem.DeletedAt, &rem.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(reminderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &rem, nil
}

func collectReminders(rows pgx.Rows) ([]Reminder, error) {
	var reminders []Reminder
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.ID, &rem.ContactID, &rem.SessionID, &rem.FirstSessionID, &rem.Type,
			&rem.Category, &rem.DueAt, &rem.Sent, &rem.SentAt, &rem.Notes, &rem.DeletedAt, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
