package repository

import (
	"context"
	"fmt"
	"time"
)

// Stale-reminder pruning. Every rule soft-deletes unsent rows only; a sent
// reminder is the audit trail and is never touched. All rules are idempotent
// and safe to re-run on overlapping sweeps.

// PruneSessionRemindersForEndedSessions removes unsent session reminders whose
// linked session has since been cancelled, completed, or marked no-show.
func (r *Repository) PruneSessionRemindersForEndedSessions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders rem SET deleted_at = now()
		WHERE rem.reminder_category = 'session_reminder'
			AND NOT rem.sent AND rem.deleted_at IS NULL
			AND (
				EXISTS (
					SELECT 1 FROM sessions s
					WHERE s.id = rem.session_id
						AND (s.cancelled OR s.status IN ('cancelled', 'completed', 'no_show'))
				)
				OR EXISTS (
					SELECT 1 FROM first_sessions fs
					WHERE fs.id = rem.first_session_id
						AND (fs.cancelled OR fs.status IN ('cancelled', 'completed', 'no_show'))
				)
			)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reminders for ended sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneSessionRemindersPastDue removes unsent session reminders whose due time
// is before the cutoff (normally now minus one day).
func (r *Repository) PruneSessionRemindersPastDue(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET deleted_at = now()
		WHERE reminder_category = 'session_reminder'
			AND NOT sent AND deleted_at IS NULL
			AND due_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune past-due session reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneDMFollowUpsForBookedCalls removes unsent DM follow-ups for contacts who
// have since booked a phone call.
func (r *Repository) PruneDMFollowUpsForBookedCalls(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders rem SET deleted_at = now()
		WHERE rem.reminder_category = 'dm_follow_up'
			AND NOT rem.sent AND rem.deleted_at IS NULL
			AND EXISTS (
				SELECT 1 FROM contacts c WHERE c.id = rem.contact_id AND c.phone_call_booked
			)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune dm follow-ups: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PrunePostCallFollowUpsForBookedSessions removes unsent post-call follow-ups
// for contacts whose call outcome became session_booked.
func (r *Repository) PrunePostCallFollowUpsForBookedSessions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders rem SET deleted_at = now()
		WHERE rem.reminder_category = 'post_call_follow_up'
			AND NOT rem.sent AND rem.deleted_at IS NULL
			AND EXISTS (
				SELECT 1 FROM contacts c WHERE c.id = rem.contact_id AND c.call_outcome = 'session_booked'
			)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune post-call follow-ups: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PrunePostFirstSessionFollowUpsWithRegular removes unsent post-first-session
// follow-ups for contacts who now have any non-cancelled regular session.
func (r *Repository) PrunePostFirstSessionFollowUpsWithRegular(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders rem SET deleted_at = now()
		WHERE rem.reminder_category = 'post_first_session_follow_up'
			AND NOT rem.sent AND rem.deleted_at IS NULL
			AND EXISTS (
				SELECT 1 FROM sessions s
				WHERE s.contact_id = rem.contact_id AND NOT s.cancelled
					AND (s.status IS NULL OR s.status != 'cancelled')
			)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune post-first-session follow-ups: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PrunePostSessionFollowUpsWithFutureSession removes unsent post-session
// follow-ups for contacts with a new future non-cancelled session.
func (r *Repository) PrunePostSessionFollowUpsWithFutureSession(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders rem SET deleted_at = now()
		WHERE rem.reminder_category = 'post_session_follow_up'
			AND NOT rem.sent AND rem.deleted_at IS NULL
			AND EXISTS (
				SELECT 1 FROM sessions s
				WHERE s.contact_id = rem.contact_id AND NOT s.cancelled
					AND (s.status IS NULL OR s.status != 'cancelled')
					AND s.session_date > $1
			)`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune post-session follow-ups: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneStaleFollowUps removes any unsent follow-up reminder due before the
// cutoff (normally now minus thirty days), regardless of category.
func (r *Repository) PruneStaleFollowUps(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET deleted_at = now()
		WHERE reminder_category LIKE '%follow_up%'
			AND NOT sent AND deleted_at IS NULL
			AND due_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale follow-ups: %w", err)
	}
	return tag.RowsAffected(), nil
}
