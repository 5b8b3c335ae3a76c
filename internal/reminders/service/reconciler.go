package service

import (
	"context"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	sessionrepo "coachportal_backend/internal/sessions/repository"
)

const (
	sessionPastDueGrace = 24 * time.Hour
	followUpStaleAge    = 30 * 24 * time.Hour
)

// PrunedCounts breaks down how many reminders each prune rule removed.
type PrunedCounts struct {
	EndedSessions        int64 `json:"endedSessions"`
	PastDueSessions      int64 `json:"pastDueSessions"`
	DMCallBooked         int64 `json:"dmCallBooked"`
	PostCallBooked       int64 `json:"postCallBooked"`
	FirstSessionUpgraded int64 `json:"firstSessionUpgraded"`
	FutureSessionBooked  int64 `json:"futureSessionBooked"`
	Stale                int64 `json:"stale"`
}

// Total returns the number of reminders removed across all rules.
func (p PrunedCounts) Total() int64 {
	return p.EndedSessions + p.PastDueSessions + p.DMCallBooked + p.PostCallBooked +
		p.FirstSessionUpgraded + p.FutureSessionBooked + p.Stale
}

// ReconcileSummary is the outcome of one reconciliation pass.
type ReconcileSummary struct {
	RanAt                   time.Time    `json:"ranAt"`
	SessionsChecked         int          `json:"sessionsChecked"`
	SessionRemindersCreated int          `json:"sessionRemindersCreated"`
	ContactsScanned         int          `json:"contactsScanned"`
	ColdContactsDetected    int          `json:"coldContactsDetected"`
	FollowUpsCreated        int          `json:"followUpsCreated"`
	Pruned                  PrunedCounts `json:"pruned"`
	Errors                  int          `json:"errors"`
}

// Reconcile runs one full reconciliation pass: ensure every open session has
// its reminder set, detect cold contacts and start their follow-up cadences,
// then prune reminders that are no longer relevant. Per-record failures are
// logged and skipped; the pass itself only fails on storage-level errors that
// make the whole sweep pointless.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileSummary, error) {
	now := s.now().UTC()
	summary := &ReconcileSummary{RanAt: now}

	if err := s.ensureSessionReminderSets(ctx, now, summary); err != nil {
		return summary, err
	}
	if err := s.detectColdContacts(ctx, now, summary); err != nil {
		return summary, err
	}

	// Pruning runs after creation so a just-superseded reminder does not
	// linger until the next cycle.
	s.prune(ctx, now, summary)

	return summary, nil
}

func (s *Service) ensureSessionReminderSets(ctx context.Context, now time.Time, summary *ReconcileSummary) error {
	for _, kind := range []sessionrepo.Kind{sessionrepo.KindFirst, sessionrepo.KindRegular} {
		sessions, err := s.sessions.ListActiveFuture(ctx, kind, now)
		if err != nil {
			return err
		}

		for _, sess := range sessions {
			summary.SessionsChecked++

			link := SessionLink{}
			id := sess.ID
			if kind == sessionrepo.KindFirst {
				link.FirstSessionID = &id
			} else {
				link.SessionID = &id
			}

			has, err := s.store.HasUnsentSessionReminders(ctx, sess.ID, kind == sessionrepo.KindFirst)
			if err != nil {
				summary.Errors++
				s.log.Warn("reconcile: reminder check failed", "session_id", sess.ID, "error", err)
				continue
			}
			if has {
				continue
			}

			created, err := s.ScheduleSessionReminders(ctx, sess.ContactID, sess.SessionDate, link)
			if err != nil {
				summary.Errors++
				s.log.Warn("reconcile: session scheduling failed", "session_id", sess.ID, "error", err)
				continue
			}
			summary.SessionRemindersCreated += created
		}
	}

	return nil
}

func (s *Service) detectColdContacts(ctx context.Context, now time.Time, summary *ReconcileSummary) error {
	cutoff := now.Add(-24 * time.Hour)
	contacts, err := s.contacts.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, ct := range contacts {
		summary.ContactsScanned++

		snap, err := s.snapshotFor(ctx, ct)
		if err != nil {
			summary.Errors++
			s.log.Warn("reconcile: snapshot failed", "contact_id", ct.ID, "error", err)
			continue
		}

		match, ok := s.stages.Classify(snap, now)
		if !ok {
			continue
		}

		// Conversation-anchored stages stay quiet while any follow-up cadence
		// is pending; session-anchored stages re-trigger regardless.
		if !match.Rule.SessionBased {
			suppressed, err := s.store.HasUnsentFollowUp(ctx, ct.ID)
			if err != nil {
				summary.Errors++
				s.log.Warn("reconcile: suppression check failed", "contact_id", ct.ID, "error", err)
				continue
			}
			if suppressed {
				continue
			}
		}

		created, err := s.ScheduleFollowUps(ctx, ct.ID, match.Rule.Category, FollowUpOptions{
			Anchor: match.Anchor,
			Zone:   match.Zone,
		})
		if err != nil {
			summary.Errors++
			s.log.Warn("reconcile: follow-up scheduling failed", "contact_id", ct.ID, "stage", string(match.Stage), "error", err)
			continue
		}
		if created > 0 {
			summary.ColdContactsDetected++
			summary.FollowUpsCreated += created
			s.log.Info("cold contact detected",
				"contact_id", ct.ID, "stage", string(match.Stage), "created", created)
		}
	}

	return nil
}

func (s *Service) snapshotFor(ctx context.Context, ct contactrepo.Contact) (ContactSnapshot, error) {
	firstDates, err := s.sessions.ActiveFirstSessionDates(ctx, ct.ID)
	if err != nil {
		return ContactSnapshot{}, err
	}
	regularCount, err := s.sessions.CountActiveRegularSessions(ctx, ct.ID)
	if err != nil {
		return ContactSnapshot{}, err
	}
	latestCompleted, err := s.sessions.LatestCompletedSessionAt(ctx, ct.ID)
	if err != nil {
		return ContactSnapshot{}, err
	}

	return ContactSnapshot{
		Contact:                  ct,
		ActiveFirstSessionDates:  firstDates,
		ActiveRegularSessions:    regularCount,
		LatestCompletedSessionAt: latestCompleted,
	}, nil
}

func (s *Service) prune(ctx context.Context, now time.Time, summary *ReconcileSummary) {
	record := func(name string, count int64, err error, dest *int64) {
		if err != nil {
			summary.Errors++
			s.log.Warn("reconcile: prune failed", "rule", name, "error", err)
			return
		}
		*dest = count
	}

	count, err := s.store.PruneSessionRemindersForEndedSessions(ctx)
	record("ended_sessions", count, err, &summary.Pruned.EndedSessions)

	count, err = s.store.PruneSessionRemindersPastDue(ctx, now.Add(-sessionPastDueGrace))
	record("past_due_sessions", count, err, &summary.Pruned.PastDueSessions)

	count, err = s.store.PruneDMFollowUpsForBookedCalls(ctx)
	record("dm_call_booked", count, err, &summary.Pruned.DMCallBooked)

	count, err = s.store.PrunePostCallFollowUpsForBookedSessions(ctx)
	record("post_call_booked", count, err, &summary.Pruned.PostCallBooked)

	count, err = s.store.PrunePostFirstSessionFollowUpsWithRegular(ctx)
	record("first_session_upgraded", count, err, &summary.Pruned.FirstSessionUpgraded)

	count, err = s.store.PrunePostSessionFollowUpsWithFutureSession(ctx, now)
	record("future_session_booked", count, err, &summary.Pruned.FutureSessionBooked)

	count, err = s.store.PruneStaleFollowUps(ctx, now.Add(-followUpStaleAge))
	record("stale", count, err, &summary.Pruned.Stale)
}
