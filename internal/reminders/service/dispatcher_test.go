package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/reminders/repository"
	sessionrepo "coachportal_backend/internal/sessions/repository"

	"github.com/google/uuid"
)

const testPhone = "+14155552671"

// seedDueReminder places a due session reminder with its contact and linked
// regular session, returning the reminder.
func seedDueReminder(t *testing.T, eng *testEngine) *repository.Reminder {
	t.Helper()

	contactID := uuid.New()
	sessionID := uuid.New()

	eng.contacts.byID[contactID] = contactrepo.Contact{
		ID:             contactID,
		FirstName:      "Jess",
		Phone:          testPhone,
		LastActivityAt: eng.now,
	}
	eng.sessions.sessions[sessionrepo.KindRegular] = append(eng.sessions.sessions[sessionrepo.KindRegular], sessionrepo.Session{
		ID:          sessionID,
		ContactID:   contactID,
		SessionDate: eng.now.Add(24 * time.Hour),
	})

	rem := &repository.Reminder{
		ContactID: contactID,
		SessionID: &sessionID,
		Type:      repository.TypeSession24h,
		Category:  repository.CategorySessionReminder,
		DueAt:     eng.now.Add(-time.Hour),
	}
	if _, err := eng.store.InsertIfAbsent(context.Background(), rem); err != nil {
		t.Fatalf("seed reminder: %v", err)
	}
	return eng.store.byType(rem.Type)
}

func TestDispatchRequiresGatewayUnlessDryRun(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-03-09T21:00:00Z"))

	if _, err := eng.svc.Dispatch(context.Background()); err == nil {
		t.Fatalf("expected an error when no gateway is configured")
	}
}

func TestDispatchSendsDueReminderAndMarksSent(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-03-09T21:00:00Z"))
	gw := &fakeGateway{}
	eng.svc.SetGateway(gw)
	rem := seedDueReminder(t, eng)

	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if summary.Selected != 1 || summary.Sent != 1 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("expected 1 outbound message, got %d", len(gw.sent))
	}
	if gw.sent[0].to != testPhone {
		t.Fatalf("expected send to %s, got %s", testPhone, gw.sent[0].to)
	}
	if !strings.Contains(gw.sent[0].body, "Jess") {
		t.Fatalf("expected rendered body to mention the contact, got %q", gw.sent[0].body)
	}
	if !rem.Sent || rem.SentAt == nil {
		t.Fatalf("expected the reminder to be marked sent")
	}
	if !strings.Contains(rem.Notes, "sent:msg-1") {
		t.Fatalf("expected a provider-ref note, got %q", rem.Notes)
	}
}

func TestDispatchConfirmsToOperator(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.operatorPhone = "+14155552672"
	eng := newTestEngine(cfg, mustParseTime("2026-03-09T21:00:00Z"))
	gw := &fakeGateway{}
	eng.svc.SetGateway(gw)
	seedDueReminder(t, eng)

	if _, err := eng.svc.Dispatch(context.Background()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(gw.sent) != 2 {
		t.Fatalf("expected parent message plus operator confirmation, got %d sends", len(gw.sent))
	}
	if gw.sent[1].to != cfg.operatorPhone {
		t.Fatalf("expected confirmation to %s, got %s", cfg.operatorPhone, gw.sent[1].to)
	}
}

func TestDispatchLeavesFailedSendUnsent(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-03-09T21:00:00Z"))
	gw := &fakeGateway{err: errors.New("gateway timeout")}
	eng.svc.SetGateway(gw)
	rem := seedDueReminder(t, eng)

	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if summary.Failed != 1 || summary.Sent != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if rem.Sent {
		t.Fatalf("expected a failed reminder to stay unsent for the next pass")
	}
	if !strings.Contains(rem.Notes, "failed: gateway timeout") {
		t.Fatalf("expected a failure note, got %q", rem.Notes)
	}
}

func TestDispatchSkipsDeadContactAndMarksSent(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-03-09T21:00:00Z"))
	gw := &fakeGateway{}
	eng.svc.SetGateway(gw)
	rem := seedDueReminder(t, eng)

	ct := eng.contacts.byID[rem.ContactID]
	ct.IsDead = true
	eng.contacts.byID[rem.ContactID] = ct

	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", summary)
	}
	if len(gw.sent) != 0 {
		t.Fatalf("expected no outbound messages, got %d", len(gw.sent))
	}
	if !rem.Sent {
		t.Fatalf("expected undeliverable reminder marked sent under the terminal policy")
	}
	if !strings.Contains(rem.Notes, "skipped: contact marked dead") {
		t.Fatalf("expected a skip note, got %q", rem.Notes)
	}
}

func TestDispatchSkipPolicyLeaveUnsent(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.markUndeliverableSent = false
	eng := newTestEngine(cfg, mustParseTime("2026-03-09T21:00:00Z"))
	eng.svc.SetGateway(&fakeGateway{})
	rem := seedDueReminder(t, eng)

	ct := eng.contacts.byID[rem.ContactID]
	ct.Phone = ""
	eng.contacts.byID[rem.ContactID] = ct

	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", summary)
	}
	if rem.Sent {
		t.Fatalf("expected the reminder to stay unsent when the policy is disabled")
	}
	if !strings.Contains(rem.Notes, "skipped: no recipient") {
		t.Fatalf("expected a skip note, got %q", rem.Notes)
	}
}

func TestDispatchSkipsReminderWithoutSessionLinkage(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-03-09T21:00:00Z"))
	eng.svc.SetGateway(&fakeGateway{})

	contactID := uuid.New()
	eng.contacts.byID[contactID] = contactrepo.Contact{ID: contactID, Phone: testPhone}
	rem := &repository.Reminder{
		ContactID: contactID,
		Type:      repository.TypeSession24h,
		Category:  repository.CategorySessionReminder,
		DueAt:     eng.now.Add(-time.Hour),
	}
	if _, err := eng.store.InsertIfAbsent(context.Background(), rem); err != nil {
		t.Fatalf("seed reminder: %v", err)
	}

	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", summary)
	}
	if got := eng.store.byType(repository.TypeSession24h); !strings.Contains(got.Notes, "no session linkage") {
		t.Fatalf("expected a linkage note, got %q", got.Notes)
	}
}

func TestDispatchIgnoresRemindersOutsideWindow(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-03-09T21:00:00Z"))
	eng.svc.SetGateway(&fakeGateway{})
	rem := seedDueReminder(t, eng)

	// Push the reminder beyond the 6h catch-up window.
	rem.DueAt = eng.now.Add(-8 * time.Hour)

	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if summary.Selected != 0 {
		t.Fatalf("expected no reminders selected outside the window, got %d", summary.Selected)
	}
}

func TestDispatchDryRunSuppressesSends(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.dryRun = true
	eng := newTestEngine(cfg, mustParseTime("2026-03-09T21:00:00Z"))
	rem := seedDueReminder(t, eng)

	// No gateway at all: dry-run must still work.
	summary, err := eng.svc.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !summary.DryRun {
		t.Fatalf("expected the summary to flag dry-run")
	}
	if summary.Skipped != 1 || summary.Sent != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if rem.Sent {
		t.Fatalf("expected dry-run to leave the reminder unsent")
	}
	if !strings.Contains(rem.Notes, "dry-run: suppressed send to "+testPhone) {
		t.Fatalf("expected a dry-run note, got %q", rem.Notes)
	}
}
