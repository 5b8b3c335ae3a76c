package service

import (
	"context"
	"fmt"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/reminders/repository"
)

// OnContactLifecycleChange runs the targeted clear-then-recreate rules when
// the CRUD layer mutates a contact's dm_status, phone_call_booked,
// call_outcome, or call_date_time. Invoked synchronously from the contacts
// write path with the pre- and post-write rows.
func (s *Service) OnContactLifecycleChange(ctx context.Context, old, updated *contactrepo.Contact) error {
	if old == nil || updated == nil {
		return nil
	}

	dmChanged := old.DMStatus != updated.DMStatus
	callBooked := !old.PhoneCallBooked && updated.PhoneCallBooked
	outcomeChanged := old.CallOutcome != updated.CallOutcome || !equalTimes(old.CallDateTime, updated.CallDateTime)

	if dmChanged {
		if _, err := s.store.DeleteUnsent(ctx, updated.ID, repository.CategoryDMFollowUp); err != nil {
			return fmt.Errorf("clear dm follow-ups: %w", err)
		}
		// A fresh DM exchange restarts the cadence anchored at the change itself.
		if _, err := s.ScheduleFollowUps(ctx, updated.ID, repository.CategoryDMFollowUp, FollowUpOptions{}); err != nil {
			return fmt.Errorf("recreate dm follow-ups: %w", err)
		}
	}

	if callBooked {
		// A booked call supersedes the DM cadence outright.
		if _, err := s.store.DeleteUnsent(ctx, updated.ID, repository.CategoryDMFollowUp); err != nil {
			return fmt.Errorf("clear dm follow-ups on booking: %w", err)
		}
	}

	if outcomeChanged {
		switch updated.CallOutcome {
		case contactrepo.CallOutcomeSessionBooked:
			if _, err := s.store.DeleteUnsent(ctx, updated.ID, repository.CategoryPostCallFollowUp); err != nil {
				return fmt.Errorf("clear post-call follow-ups: %w", err)
			}
		case contactrepo.CallOutcomeNone, contactrepo.CallOutcomeThinkingAboutIt, contactrepo.CallOutcomeWentCold:
			if !updated.PhoneCallBooked {
				break
			}
			if _, err := s.store.DeleteUnsent(ctx, updated.ID, repository.CategoryPostCallFollowUp); err != nil {
				return fmt.Errorf("clear post-call follow-ups: %w", err)
			}
			if _, err := s.ScheduleFollowUps(ctx, updated.ID, repository.CategoryPostCallFollowUp, FollowUpOptions{
				Anchor: updated.CallDateTime,
				Zone:   AnchorLocal,
			}); err != nil {
				return fmt.Errorf("recreate post-call follow-ups: %w", err)
			}
		}
	}

	return nil
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
