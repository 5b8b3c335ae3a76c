package service

import (
	"context"
	"fmt"
	"time"

	"coachportal_backend/internal/reminders/repository"
	"coachportal_backend/platform/timeutil"

	"github.com/google/uuid"
)

type followUpOffset struct {
	typ  repository.ReminderType
	days int
}

// The follow-up cadence: nudges at +1, +3, +7 and +14 days from the anchor.
var followUpOffsets = []followUpOffset{
	{repository.TypeFollowUp1d, 1},
	{repository.TypeFollowUp3d, 3},
	{repository.TypeFollowUp7d, 7},
	{repository.TypeFollowUp14d, 14},
}

// ScheduleFollowUps idempotently inserts the follow-up cadence for a contact.
// The anchor resolves per zone regime (nil anchor means "now"), each offset
// lands at 12:00 business-local time on its civil date, and offsets whose
// date is strictly before today are skipped unless backfill is enabled.
// Returns the number of reminders actually created, which callers use to
// decide whether a stage fired.
func (s *Service) ScheduleFollowUps(ctx context.Context, contactID uuid.UUID, category repository.ReminderCategory, opts FollowUpOptions) (int, error) {
	if !category.IsFollowUp() {
		return 0, fmt.Errorf("category %q is not a follow-up category", category)
	}

	anchor := s.now().UTC()
	if opts.Anchor != nil {
		anchor = timeutil.AsAbsoluteInstant(*opts.Anchor)
		if opts.Zone == AnchorLocal {
			// The CRUD layer stores local wall-clock digits; re-anchor them.
			anchor = timeutil.AsZonedInstant(anchor.UTC(), s.zone)
		}
	}

	anchorCivil := timeutil.CivilDate(anchor.In(s.zone))
	today := timeutil.CivilDate(s.now().In(s.zone))

	created := 0
	for _, off := range followUpOffsets {
		dueDate := anchorCivil.AddDate(0, 0, off.days)
		if dueDate.Before(today) && !s.backfillFollowUps {
			continue
		}

		rem := &repository.Reminder{
			ContactID: contactID,
			Type:      off.typ,
			Category:  category,
			DueAt:     timeutil.NoonOn(dueDate, s.zone),
		}

		inserted, err := s.store.InsertIfAbsent(ctx, rem)
		if err != nil {
			return created, fmt.Errorf("schedule %s %s: %w", category, off.typ, err)
		}
		if inserted {
			created++
		}
	}

	return created, nil
}

// FollowUpOptions carries the anchor regime for a follow-up cadence.
type FollowUpOptions struct {
	// Anchor is the reference instant the cadence counts forward from.
	// Nil anchors at "now".
	Anchor *time.Time
	// Zone selects how the anchor's wall-clock digits are interpreted.
	Zone AnchorZone
}
