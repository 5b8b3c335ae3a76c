package service

import (
	"context"
	"testing"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/reminders/repository"

	"github.com/google/uuid"
)

func seedFollowUp(t *testing.T, eng *testEngine, contactID uuid.UUID, category repository.ReminderCategory, typ repository.ReminderType) *repository.Reminder {
	t.Helper()

	rem := &repository.Reminder{
		ContactID: contactID,
		Type:      typ,
		Category:  category,
		DueAt:     eng.now.Add(24 * time.Hour),
	}
	if _, err := eng.store.InsertIfAbsent(context.Background(), rem); err != nil {
		t.Fatalf("seed follow-up: %v", err)
	}
	return eng.store.byType(typ)
}

func TestLifecycleNilRowsAreNoOp(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))

	if err := eng.svc.OnContactLifecycleChange(context.Background(), nil, &contactrepo.Contact{}); err != nil {
		t.Fatalf("expected nil rows to be a no-op, got %v", err)
	}
	if err := eng.svc.OnContactLifecycleChange(context.Background(), &contactrepo.Contact{}, nil); err != nil {
		t.Fatalf("expected nil rows to be a no-op, got %v", err)
	}
}

func TestLifecycleDMChangeRestartsCadence(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))
	contactID := uuid.New()

	stale := seedFollowUp(t, eng, contactID, repository.CategoryDMFollowUp, repository.TypeFollowUp14d)

	old := &contactrepo.Contact{ID: contactID, DMStatus: contactrepo.DMStatusFirstMessage}
	updated := &contactrepo.Contact{ID: contactID, DMStatus: contactrepo.DMStatusStartedTalking}

	if err := eng.svc.OnContactLifecycleChange(context.Background(), old, updated); err != nil {
		t.Fatalf("OnContactLifecycleChange: %v", err)
	}

	if stale.DeletedAt == nil {
		t.Fatalf("expected the stale cadence to be cleared")
	}

	live := eng.store.live()
	if len(live) != 4 {
		t.Fatalf("expected a fresh 4-step cadence, got %d pending", len(live))
	}
	for _, rem := range live {
		if rem.Category != repository.CategoryDMFollowUp {
			t.Fatalf("expected category %q, got %q", repository.CategoryDMFollowUp, rem.Category)
		}
	}

	// The new cadence anchors at the change: +1d lands tomorrow at noon local.
	rem := eng.store.byType(repository.TypeFollowUp1d)
	if want := mustParseTime("2026-01-06T19:00:00Z"); rem == nil || !rem.DueAt.Equal(want) {
		t.Fatalf("expected follow_up_1d due at %v", want)
	}
}

func TestLifecycleCallBookedClearsDMCadence(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))
	contactID := uuid.New()

	stale := seedFollowUp(t, eng, contactID, repository.CategoryDMFollowUp, repository.TypeFollowUp7d)

	old := &contactrepo.Contact{ID: contactID, DMStatus: contactrepo.DMStatusRequestPhoneCall}
	updated := &contactrepo.Contact{ID: contactID, DMStatus: contactrepo.DMStatusRequestPhoneCall, PhoneCallBooked: true}

	if err := eng.svc.OnContactLifecycleChange(context.Background(), old, updated); err != nil {
		t.Fatalf("OnContactLifecycleChange: %v", err)
	}

	if stale.DeletedAt == nil {
		t.Fatalf("expected the DM cadence to be cleared once a call is booked")
	}
	if got := len(eng.store.live()); got != 0 {
		t.Fatalf("expected no replacement cadence, got %d pending", got)
	}
}

func TestLifecycleSessionBookedOutcomeClearsPostCallCadence(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))
	contactID := uuid.New()

	stale := seedFollowUp(t, eng, contactID, repository.CategoryPostCallFollowUp, repository.TypeFollowUp3d)

	old := &contactrepo.Contact{ID: contactID, PhoneCallBooked: true, CallOutcome: contactrepo.CallOutcomeNone}
	updated := &contactrepo.Contact{ID: contactID, PhoneCallBooked: true, CallOutcome: contactrepo.CallOutcomeSessionBooked}

	if err := eng.svc.OnContactLifecycleChange(context.Background(), old, updated); err != nil {
		t.Fatalf("OnContactLifecycleChange: %v", err)
	}

	if stale.DeletedAt == nil {
		t.Fatalf("expected the post-call cadence to be cleared on conversion")
	}
	if got := len(eng.store.live()); got != 0 {
		t.Fatalf("expected no replacement cadence, got %d pending", got)
	}
}

func TestLifecycleStallOutcomeRebuildsPostCallCadence(t *testing.T) {
	now := mustParseTime("2026-01-05T20:00:00Z")
	eng := newTestEngine(nil, now)
	contactID := uuid.New()

	stale := seedFollowUp(t, eng, contactID, repository.CategoryPostCallFollowUp, repository.TypeFollowUp14d)

	// The call row stores local wall-clock digits.
	callAt := mustParseTime("2026-01-05T10:00:00Z")
	old := &contactrepo.Contact{ID: contactID, PhoneCallBooked: true, CallOutcome: contactrepo.CallOutcomeNone, CallDateTime: &callAt}
	updated := &contactrepo.Contact{ID: contactID, PhoneCallBooked: true, CallOutcome: contactrepo.CallOutcomeThinkingAboutIt, CallDateTime: &callAt}

	if err := eng.svc.OnContactLifecycleChange(context.Background(), old, updated); err != nil {
		t.Fatalf("OnContactLifecycleChange: %v", err)
	}

	if stale.DeletedAt == nil {
		t.Fatalf("expected the old post-call cadence to be cleared")
	}

	live := eng.store.live()
	if len(live) != 4 {
		t.Fatalf("expected a rebuilt 4-step cadence, got %d pending", len(live))
	}

	rem := eng.store.byType(repository.TypeFollowUp3d)
	if want := mustParseTime("2026-01-08T19:00:00Z"); rem == nil || !rem.DueAt.Equal(want) {
		t.Fatalf("expected follow_up_3d anchored at the local call time, due %v", want)
	}
}

func TestLifecycleStallOutcomeWithoutBookedCallDoesNothing(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))
	contactID := uuid.New()

	kept := seedFollowUp(t, eng, contactID, repository.CategoryPostCallFollowUp, repository.TypeFollowUp7d)

	old := &contactrepo.Contact{ID: contactID, CallOutcome: contactrepo.CallOutcomeNone}
	updated := &contactrepo.Contact{ID: contactID, CallOutcome: contactrepo.CallOutcomeWentCold}

	if err := eng.svc.OnContactLifecycleChange(context.Background(), old, updated); err != nil {
		t.Fatalf("OnContactLifecycleChange: %v", err)
	}
	if kept.DeletedAt != nil {
		t.Fatalf("expected the cadence to survive when no call was booked")
	}
}

func TestLifecycleUnrelatedUpdateIsNoOp(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))
	contactID := uuid.New()

	kept := seedFollowUp(t, eng, contactID, repository.CategoryDMFollowUp, repository.TypeFollowUp1d)

	old := &contactrepo.Contact{ID: contactID, DMStatus: contactrepo.DMStatusFirstMessage, Notes: "a"}
	updated := &contactrepo.Contact{ID: contactID, DMStatus: contactrepo.DMStatusFirstMessage, Notes: "b"}

	if err := eng.svc.OnContactLifecycleChange(context.Background(), old, updated); err != nil {
		t.Fatalf("OnContactLifecycleChange: %v", err)
	}
	if kept.DeletedAt != nil {
		t.Fatalf("expected an unrelated field change to leave reminders alone")
	}
	if got := len(eng.store.live()); got != 1 {
		t.Fatalf("expected the seeded reminder only, got %d pending", got)
	}
}
