package service

import (
	"context"
	"fmt"
	"time"

	"coachportal_backend/internal/reminders/repository"
	"coachportal_backend/platform/apperr"
	"coachportal_backend/platform/timeutil"

	"github.com/google/uuid"
)

// SessionLink identifies the session a reminder set belongs to. Exactly one
// of the two IDs must be set.
type SessionLink struct {
	SessionID      *uuid.UUID
	FirstSessionID *uuid.UUID
}

func (l SessionLink) validate() error {
	if (l.SessionID == nil) == (l.FirstSessionID == nil) {
		return apperr.BadRequest("exactly one of sessionId/firstSessionId must be set")
	}
	return nil
}

type sessionOffset struct {
	typ    repository.ReminderType
	offset time.Duration
}

// Parent-facing countdown reminders, created for every session.
var countdownOffsets = []sessionOffset{
	{repository.TypeSession48h, -48 * time.Hour},
	{repository.TypeSession24h, -24 * time.Hour},
	{repository.TypeSession6h, -6 * time.Hour},
}

// Operational prompts around a trial first session: greet the parent at the
// start, nudge the coach at the start and an hour in, and prompt the parent
// for feedback two hours after.
var firstSessionOffsets = []sessionOffset{
	{repository.TypeSessionStart, 0},
	{repository.TypeCoachSessionStart, 0},
	{repository.TypeCoachSessionPlus60m, 60 * time.Minute},
	{repository.TypeParentSessionPlus120m, 120 * time.Minute},
}

// ScheduleSessionReminders idempotently inserts the reminder set for one
// session. Reminders whose due time is already in the past are still created;
// whether a past-due reminder is worth sending is the dispatcher's decision.
// Returns the number of reminders actually created.
func (s *Service) ScheduleSessionReminders(ctx context.Context, contactID uuid.UUID, sessionInstant time.Time, link SessionLink) (int, error) {
	if err := link.validate(); err != nil {
		return 0, err
	}

	instant := timeutil.AsAbsoluteInstant(sessionInstant)

	offsets := countdownOffsets
	if link.FirstSessionID != nil {
		offsets = append(append([]sessionOffset{}, countdownOffsets...), firstSessionOffsets...)
	}

	created := 0
	for _, off := range offsets {
		rem := &repository.Reminder{
			ContactID:      contactID,
			SessionID:      link.SessionID,
			FirstSessionID: link.FirstSessionID,
			Type:           off.typ,
			Category:       repository.CategorySessionReminder,
			DueAt:          instant.Add(off.offset),
		}

		inserted, err := s.store.InsertIfAbsent(ctx, rem)
		if err != nil {
			return created, fmt.Errorf("schedule %s: %w", off.typ, err)
		}
		if inserted {
			created++
		}
	}

	return created, nil
}

// ClearSessionReminders soft-deletes a session's pending reminders so a
// reschedule can rebuild the countdown set at the new times.
func (s *Service) ClearSessionReminders(ctx context.Context, link SessionLink) (int64, error) {
	if err := link.validate(); err != nil {
		return 0, err
	}

	if link.FirstSessionID != nil {
		return s.store.DeleteUnsentForSession(ctx, *link.FirstSessionID, true)
	}
	return s.store.DeleteUnsentForSession(ctx, *link.SessionID, false)
}
