package service

import (
	"context"
	"fmt"
	"time"

	"coachportal_backend/internal/reminders/repository"
	sessionrepo "coachportal_backend/internal/sessions/repository"
	"coachportal_backend/platform/phone"
)

// DispatchSummary is the outcome of one dispatch pass.
type DispatchSummary struct {
	RanAt    time.Time `json:"ranAt"`
	Selected int       `json:"selected"`
	Sent     int       `json:"sent"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	DryRun   bool      `json:"dryRun"`
}

// Dispatch selects due, unsent session reminders inside the catch-up window
// and sends each through the gateway, best-effort and in due order. One
// reminder's failure never aborts the batch; only configuration errors do.
func (s *Service) Dispatch(ctx context.Context) (*DispatchSummary, error) {
	if s.gateway == nil && !s.dryRun {
		// Without a gateway the dispatcher cannot function at all; abort the
		// run rather than silently skipping every reminder.
		return nil, fmt.Errorf("messaging gateway is not configured")
	}

	now := s.now().UTC()
	summary := &DispatchSummary{RanAt: now, DryRun: s.dryRun}

	due, err := s.store.DueSessionRemindersInWindow(ctx, now.Add(-s.dispatchWindow), now, s.dispatchBatch)
	if err != nil {
		return summary, err
	}
	summary.Selected = len(due)

	for _, rem := range due {
		if err := s.dispatchOne(ctx, rem, summary); err != nil {
			// Only context cancellation escapes the per-reminder boundary.
			return summary, err
		}
	}

	return summary, nil
}

func (s *Service) dispatchOne(ctx context.Context, rem repository.Reminder, summary *DispatchSummary) error {
	mc, skipReason, err := s.messageContext(ctx, rem)
	if err != nil {
		summary.Failed++
		s.log.Warn("dispatch: context load failed", "reminder_id", rem.ID, "error", err)
		return nil
	}
	if skipReason != "" {
		summary.Skipped++
		return s.skip(ctx, rem, skipReason)
	}

	builder, ok := s.templates[rem.Type]
	if !ok {
		summary.Skipped++
		return s.skip(ctx, rem, fmt.Sprintf("skipped: unsupported type %s", rem.Type))
	}
	body := builder.Build(mc)

	destination := phone.NormalizeE164(mc.Contact.Phone)
	if !phone.Deliverable(destination) {
		summary.Skipped++
		return s.skip(ctx, rem, "skipped: no recipient")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	if s.dryRun {
		summary.Skipped++
		s.noteOnly(ctx, rem, fmt.Sprintf("dry-run: suppressed send to %s", destination))
		return nil
	}

	result, err := s.gateway.Send(ctx, destination, body)
	if err != nil {
		summary.Failed++
		s.noteOnly(ctx, rem, "failed: "+err.Error())
		s.log.Warn("dispatch: send failed", "reminder_id", rem.ID, "error", err)
		return nil
	}

	s.noteOnly(ctx, rem, "sent:"+result.ProviderRef)
	if err := s.store.MarkSent(ctx, rem.ID, s.now().UTC()); err != nil {
		s.log.Error("dispatch: mark sent failed", "reminder_id", rem.ID, "error", err)
	} else {
		summary.Sent++
	}

	s.confirmToOperator(ctx, rem, destination)
	return nil
}

// messageContext assembles the template inputs. A non-empty skipReason means
// the reminder is undeliverable for data reasons rather than send failure.
func (s *Service) messageContext(ctx context.Context, rem repository.Reminder) (MessageContext, string, error) {
	contact, err := s.contacts.GetByID(ctx, rem.ContactID)
	if err != nil {
		return MessageContext{}, "skipped: contact missing", nil
	}
	if contact.IsDead {
		return MessageContext{}, "skipped: contact marked dead", nil
	}

	mc := MessageContext{
		Contact: *contact,
		Zone:    s.zone,
	}

	switch {
	case rem.FirstSessionID != nil:
		sess, err := s.sessions.GetByID(ctx, sessionrepo.KindFirst, *rem.FirstSessionID)
		if err != nil {
			return MessageContext{}, "skipped: linked session missing", nil
		}
		mc.SessionDate = sess.SessionDate
		mc.FirstSession = true
	case rem.SessionID != nil:
		sess, err := s.sessions.GetByID(ctx, sessionrepo.KindRegular, *rem.SessionID)
		if err != nil {
			return MessageContext{}, "skipped: linked session missing", nil
		}
		mc.SessionDate = sess.SessionDate
		if ordinal, total, err := s.sessions.OrdinalInPackage(ctx, sess.ID); err == nil {
			mc.Ordinal = ordinal
			mc.PackageTotal = total
		}
	default:
		return MessageContext{}, "skipped: reminder has no session linkage", nil
	}

	if names, err := s.players.FirstNamesByContact(ctx, rem.ContactID); err == nil {
		mc.PlayerNames = names
	}

	if s.links != nil {
		if link, err := s.links.BuildFor(ctx, rem.ContactID, rem.ID); err == nil {
			mc.DeepLink = link
		} else {
			s.log.Warn("dispatch: deep link build failed", "reminder_id", rem.ID, "error", err)
		}
	}

	return mc, "", nil
}

// skip annotates an undeliverable reminder and applies the terminal policy:
// either mark it sent so it never retries, or leave it unsent to retry until
// a prune rule removes it.
func (s *Service) skip(ctx context.Context, rem repository.Reminder, reason string) error {
	s.noteOnly(ctx, rem, reason)

	if s.markUndeliverableSent && !s.dryRun {
		if err := s.store.MarkSent(ctx, rem.ID, s.now().UTC()); err != nil {
			s.log.Error("dispatch: mark undeliverable failed", "reminder_id", rem.ID, "error", err)
		}
	}
	return nil
}

func (s *Service) noteOnly(ctx context.Context, rem repository.Reminder, note string) {
	if err := s.store.AppendNote(ctx, rem.ID, note); err != nil {
		s.log.Error("dispatch: note append failed", "reminder_id", rem.ID, "error", err)
	}
}

// confirmToOperator texts the internal operator number a one-line summary of
// what was just sent. Best-effort; failures are only logged.
func (s *Service) confirmToOperator(ctx context.Context, rem repository.Reminder, destination string) {
	if s.operatorPhone == "" {
		return
	}

	body := fmt.Sprintf("Sent %s to %s (due %s)", rem.Type, destination,
		rem.DueAt.In(s.zone).Format("Jan 2 3:04 PM"))
	if _, err := s.gateway.Send(ctx, s.operatorPhone, body); err != nil {
		s.log.Warn("dispatch: operator confirmation failed", "reminder_id", rem.ID, "error", err)
	}
}
