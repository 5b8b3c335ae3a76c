package service

import (
	"testing"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/reminders/repository"
)

func daysAgo(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

func TestClassifySkipsDeadContacts(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			IsDead:         true,
			DMStatus:       contactrepo.DMStatusFirstMessage,
			LastActivityAt: daysAgo(now, 5),
		},
	}

	if _, ok := DefaultStageTable().Classify(snap, now); ok {
		t.Fatalf("expected dead contact to classify to no stage")
	}
}

func TestClassifyRequiresAtLeastOneDayInactive(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			DMStatus:       contactrepo.DMStatusFirstMessage,
			LastActivityAt: now.Add(-23 * time.Hour),
		},
	}

	if _, ok := DefaultStageTable().Classify(snap, now); ok {
		t.Fatalf("expected contact active within 24h to classify to no stage")
	}
}

func TestClassifyCustomerWithCompletedSessionDominates(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	completed := daysAgo(now, 3)
	trialDate := daysAgo(now, 5)

	// The contact satisfies several rules at once; the most progressed wins.
	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			IsCustomer:     true,
			DMStatus:       contactrepo.DMStatusStartedTalking,
			CallOutcome:    contactrepo.CallOutcomeThinkingAboutIt,
			LastActivityAt: daysAgo(now, 2),
		},
		ActiveFirstSessionDates:  []time.Time{trialDate},
		LatestCompletedSessionAt: &completed,
	}

	match, ok := DefaultStageTable().Classify(snap, now)
	if !ok {
		t.Fatalf("expected a stage match")
	}
	if match.Stage != StageActiveCustomerDropped {
		t.Fatalf("expected stage %q, got %q", StageActiveCustomerDropped, match.Stage)
	}
	if match.Rule.Category != repository.CategoryPostSessionFollowUp {
		t.Fatalf("expected category %q, got %q", repository.CategoryPostSessionFollowUp, match.Rule.Category)
	}
	if !match.Rule.SessionBased {
		t.Fatalf("expected a session-based rule")
	}
	if match.Anchor == nil || !match.Anchor.Equal(completed) {
		t.Fatalf("expected anchor at the completed session, got %v", match.Anchor)
	}
	if match.Zone != AnchorUTC {
		t.Fatalf("expected AnchorUTC for session anchors")
	}
}

func TestClassifyTrialWithoutPackageAnchorsEarliestFirstSession(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	earliest := daysAgo(now, 6)
	later := daysAgo(now, 2)

	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			DMStatus:       contactrepo.DMStatusStartedTalking,
			LastActivityAt: daysAgo(now, 2),
		},
		ActiveFirstSessionDates: []time.Time{earliest, later},
	}

	match, ok := DefaultStageTable().Classify(snap, now)
	if !ok {
		t.Fatalf("expected a stage match")
	}
	if match.Stage != StagePostFirstSession {
		t.Fatalf("expected stage %q, got %q", StagePostFirstSession, match.Stage)
	}
	if match.Anchor == nil || !match.Anchor.Equal(earliest) {
		t.Fatalf("expected anchor at the earliest first session, got %v", match.Anchor)
	}
}

func TestClassifyTrialWithPackageDoesNotMatchPostFirstSession(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	trialDate := daysAgo(now, 6)

	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			LastActivityAt: daysAgo(now, 2),
		},
		ActiveFirstSessionDates: []time.Time{trialDate},
		ActiveRegularSessions:   4,
	}

	if _, ok := DefaultStageTable().Classify(snap, now); ok {
		t.Fatalf("expected no stage once the contact has package sessions")
	}
}

func TestClassifyCallOutcomeStallAnchorsLocal(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	callAt := daysAgo(now, 4)

	for _, outcome := range []contactrepo.CallOutcome{
		contactrepo.CallOutcomeThinkingAboutIt,
		contactrepo.CallOutcomeWentCold,
	} {
		snap := ContactSnapshot{
			Contact: contactrepo.Contact{
				CallOutcome:    outcome,
				CallDateTime:   &callAt,
				DMStatus:       contactrepo.DMStatusFirstMessage,
				LastActivityAt: daysAgo(now, 2),
			},
		}

		match, ok := DefaultStageTable().Classify(snap, now)
		if !ok {
			t.Fatalf("outcome %q: expected a stage match", outcome)
		}
		if match.Stage != StagePostCall {
			t.Fatalf("outcome %q: expected stage %q, got %q", outcome, StagePostCall, match.Stage)
		}
		if match.Zone != AnchorLocal {
			t.Fatalf("outcome %q: expected AnchorLocal for call anchors", outcome)
		}
	}
}

func TestClassifyBookedCallSlotPassedWithoutOutcome(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	callAt := daysAgo(now, 3)

	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			PhoneCallBooked: true,
			CallDateTime:    &callAt,
			CallOutcome:     contactrepo.CallOutcomeNone,
			DMStatus:        contactrepo.DMStatusRequestPhoneCall,
			LastActivityAt:  daysAgo(now, 2),
		},
	}

	match, ok := DefaultStageTable().Classify(snap, now)
	if !ok {
		t.Fatalf("expected a stage match")
	}
	if match.Stage != StagePostCall {
		t.Fatalf("expected stage %q, got %q", StagePostCall, match.Stage)
	}
}

func TestClassifyBookedCallStillInFutureFallsThroughToDMStatus(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	callAt := now.Add(48 * time.Hour)

	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			PhoneCallBooked: true,
			CallDateTime:    &callAt,
			DMStatus:        contactrepo.DMStatusRequestPhoneCall,
			LastActivityAt:  daysAgo(now, 2),
		},
	}

	match, ok := DefaultStageTable().Classify(snap, now)
	if !ok {
		t.Fatalf("expected a stage match")
	}
	if match.Stage != StageRequestPhoneCall {
		t.Fatalf("expected stage %q, got %q", StageRequestPhoneCall, match.Stage)
	}
}

func TestClassifyDMStatuses(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")

	cases := []struct {
		status contactrepo.DMStatus
		stage  Stage
	}{
		{contactrepo.DMStatusRequestPhoneCall, StageRequestPhoneCall},
		{contactrepo.DMStatusStartedTalking, StageStartedTalking},
		{contactrepo.DMStatusFirstMessage, StageFirstMessage},
	}

	for _, tc := range cases {
		snap := ContactSnapshot{
			Contact: contactrepo.Contact{
				DMStatus:       tc.status,
				LastActivityAt: daysAgo(now, 2),
			},
		}

		match, ok := DefaultStageTable().Classify(snap, now)
		if !ok {
			t.Fatalf("status %q: expected a stage match", tc.status)
		}
		if match.Stage != tc.stage {
			t.Fatalf("status %q: expected stage %q, got %q", tc.status, tc.stage, match.Stage)
		}
		if match.Rule.Category != repository.CategoryDMFollowUp {
			t.Fatalf("status %q: expected category %q, got %q", tc.status, repository.CategoryDMFollowUp, match.Rule.Category)
		}
		if match.Anchor != nil {
			t.Fatalf("status %q: expected nil anchor (fire at now)", tc.status)
		}
	}
}

func TestClassifyDMStatusNoneMatchesNothing(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			DMStatus:       contactrepo.DMStatusNone,
			LastActivityAt: daysAgo(now, 10),
		},
	}

	if _, ok := DefaultStageTable().Classify(snap, now); ok {
		t.Fatalf("expected no stage for a contact with no funnel signals")
	}
}

func TestClassifyHonorsThresholdOverrides(t *testing.T) {
	now := mustParseTime("2026-01-10T12:00:00Z")
	table := DefaultStageTable().WithOverrides(map[string]int{
		string(StageFirstMessage): 3,
	})

	snap := ContactSnapshot{
		Contact: contactrepo.Contact{
			DMStatus:       contactrepo.DMStatusFirstMessage,
			LastActivityAt: daysAgo(now, 2),
		},
	}
	if _, ok := table.Classify(snap, now); ok {
		t.Fatalf("expected 2 days inactive to fall under the raised threshold")
	}

	snap.Contact.LastActivityAt = daysAgo(now, 3)
	match, ok := table.Classify(snap, now)
	if !ok {
		t.Fatalf("expected a stage match at the raised threshold")
	}
	if match.DaysInactive != 3 {
		t.Fatalf("expected DaysInactive=3, got %d", match.DaysInactive)
	}
}
