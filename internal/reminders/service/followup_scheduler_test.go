package service

import (
	"context"
	"testing"
	"time"

	"coachportal_backend/internal/reminders/repository"

	"github.com/google/uuid"
)

func TestScheduleFollowUpsRejectsSessionReminderCategory(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))

	_, err := eng.svc.ScheduleFollowUps(context.Background(), uuid.New(), repository.CategorySessionReminder, FollowUpOptions{})
	if err == nil {
		t.Fatalf("expected an error for a non-follow-up category")
	}
}

func TestScheduleFollowUpsLocalAnchorLandsAtBusinessNoon(t *testing.T) {
	// 20:00 UTC on Jan 5 is 13:00 business-local, so "today" is still Jan 5.
	now := mustParseTime("2026-01-05T20:00:00Z")
	eng := newTestEngine(nil, now)
	contactID := uuid.New()

	// The CRUD layer stored 10:00 local digits as if they were UTC.
	anchor := mustParseTime("2026-01-05T10:00:00Z")
	created, err := eng.svc.ScheduleFollowUps(context.Background(), contactID, repository.CategoryPostCallFollowUp, FollowUpOptions{
		Anchor: &anchor,
		Zone:   AnchorLocal,
	})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 follow-ups created, got %d", created)
	}

	// +3 days from Jan 5 is Jan 8; noon UTC-7 is 19:00 UTC.
	rem := eng.store.byType(repository.TypeFollowUp3d)
	if rem == nil {
		t.Fatalf("expected a follow_up_3d reminder")
	}
	want := mustParseTime("2026-01-08T19:00:00Z")
	if !rem.DueAt.Equal(want) {
		t.Fatalf("expected follow_up_3d due at %v, got %v", want, rem.DueAt)
	}
	if rem.Category != repository.CategoryPostCallFollowUp {
		t.Fatalf("expected category %q, got %q", repository.CategoryPostCallFollowUp, rem.Category)
	}
}

func TestScheduleFollowUpsUTCAnchorUsesAbsoluteInstant(t *testing.T) {
	now := mustParseTime("2026-01-05T20:00:00Z")
	eng := newTestEngine(nil, now)

	// 03:00 UTC on Jan 5 is still Jan 4 business-local, so the cadence counts
	// from Jan 4: the +1d offset lands on Jan 5 at noon local.
	anchor := mustParseTime("2026-01-05T03:00:00Z")
	created, err := eng.svc.ScheduleFollowUps(context.Background(), uuid.New(), repository.CategoryDMFollowUp, FollowUpOptions{
		Anchor: &anchor,
		Zone:   AnchorUTC,
	})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 follow-ups created, got %d", created)
	}

	rem := eng.store.byType(repository.TypeFollowUp1d)
	want := mustParseTime("2026-01-05T19:00:00Z")
	if !rem.DueAt.Equal(want) {
		t.Fatalf("expected follow_up_1d due at %v, got %v", want, rem.DueAt)
	}
}

func TestScheduleFollowUpsNilAnchorCountsFromNow(t *testing.T) {
	now := mustParseTime("2026-01-05T20:00:00Z")
	eng := newTestEngine(nil, now)

	created, err := eng.svc.ScheduleFollowUps(context.Background(), uuid.New(), repository.CategoryDMFollowUp, FollowUpOptions{})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 follow-ups created, got %d", created)
	}

	rem := eng.store.byType(repository.TypeFollowUp14d)
	want := mustParseTime("2026-01-19T19:00:00Z")
	if !rem.DueAt.Equal(want) {
		t.Fatalf("expected follow_up_14d due at %v, got %v", want, rem.DueAt)
	}
}

func TestScheduleFollowUpsSkipsPastOffsets(t *testing.T) {
	now := mustParseTime("2026-01-25T20:00:00Z")
	eng := newTestEngine(nil, now)

	// Anchor 20 days back: +1/+3/+7/+14 all land before today.
	anchor := mustParseTime("2026-01-05T10:00:00Z")
	created, err := eng.svc.ScheduleFollowUps(context.Background(), uuid.New(), repository.CategoryDMFollowUp, FollowUpOptions{
		Anchor: &anchor,
	})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected all past offsets skipped, got %d created", created)
	}
}

func TestScheduleFollowUpsPartialCadenceWhenAnchorMidway(t *testing.T) {
	now := mustParseTime("2026-01-10T20:00:00Z")
	eng := newTestEngine(nil, now)

	// Anchor 5 days back: +1/+3 are past, +7/+14 still ahead.
	anchor := mustParseTime("2026-01-05T15:00:00Z")
	created, err := eng.svc.ScheduleFollowUps(context.Background(), uuid.New(), repository.CategoryDMFollowUp, FollowUpOptions{
		Anchor: &anchor,
	})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 follow-ups created, got %d", created)
	}
	if eng.store.byType(repository.TypeFollowUp1d) != nil {
		t.Fatalf("expected follow_up_1d to be skipped")
	}
	if eng.store.byType(repository.TypeFollowUp7d) == nil {
		t.Fatalf("expected follow_up_7d to be created")
	}
}

func TestScheduleFollowUpsBackfillCreatesPastOffsets(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.backfillFollowUps = true
	eng := newTestEngine(cfg, mustParseTime("2026-01-25T20:00:00Z"))

	anchor := mustParseTime("2026-01-05T10:00:00Z")
	created, err := eng.svc.ScheduleFollowUps(context.Background(), uuid.New(), repository.CategoryDMFollowUp, FollowUpOptions{
		Anchor: &anchor,
	})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected backfill to create all 4 offsets, got %d", created)
	}
}

func TestScheduleFollowUpsIsIdempotent(t *testing.T) {
	eng := newTestEngine(nil, mustParseTime("2026-01-05T20:00:00Z"))
	contactID := uuid.New()

	first, err := eng.svc.ScheduleFollowUps(context.Background(), contactID, repository.CategoryDMFollowUp, FollowUpOptions{})
	if err != nil {
		t.Fatalf("first ScheduleFollowUps: %v", err)
	}
	if first != 4 {
		t.Fatalf("expected 4 created on first run, got %d", first)
	}

	second, err := eng.svc.ScheduleFollowUps(context.Background(), contactID, repository.CategoryDMFollowUp, FollowUpOptions{})
	if err != nil {
		t.Fatalf("second ScheduleFollowUps: %v", err)
	}
	if second != 0 {
		t.Fatalf("expected 0 created on repeat run, got %d", second)
	}
	if got := len(eng.store.live()); got != 4 {
		t.Fatalf("expected 4 pending reminders, got %d", got)
	}
}

func TestScheduleFollowUpsDuplicateCheckScopedToDueDate(t *testing.T) {
	now := mustParseTime("2026-01-05T20:00:00Z")
	eng := newTestEngine(nil, now)
	contactID := uuid.New()

	if _, err := eng.svc.ScheduleFollowUps(context.Background(), contactID, repository.CategoryDMFollowUp, FollowUpOptions{}); err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}

	// A fresh anchor two days later produces distinct due dates, so the full
	// cadence is created alongside the first.
	later := now.Add(48 * time.Hour)
	eng.svc.SetNowFunc(func() time.Time { return later })
	created, err := eng.svc.ScheduleFollowUps(context.Background(), contactID, repository.CategoryDMFollowUp, FollowUpOptions{})
	if err != nil {
		t.Fatalf("ScheduleFollowUps: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 created for the shifted anchor, got %d", created)
	}
}
