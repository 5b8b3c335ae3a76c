package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/messaging"
	"coachportal_backend/internal/reminders/repository"
	sessionrepo "coachportal_backend/internal/sessions/repository"
	"coachportal_backend/platform/apperr"
	"coachportal_backend/platform/logger"
	"coachportal_backend/platform/timeutil"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store that mirrors the repository's conditional
// insert semantics.
type fakeStore struct {
	mu        sync.Mutex
	reminders []*repository.Reminder

	insertErr error

	pruneEnded     int64
	prunePastDue   int64
	pruneDMBooked  int64
	prunePostCall  int64
	pruneFirstUp   int64
	pruneFutureSes int64
	pruneStale     int64
}

func (f *fakeStore) InsertIfAbsent(_ context.Context, rem *repository.Reminder) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.reminders {
		if existing.ContactID == rem.ContactID && existing.Type == rem.Type &&
			existing.Category == rem.Category && existing.DueAt.Equal(rem.DueAt) &&
			!existing.Sent && existing.DeletedAt == nil {
			return false, nil
		}
	}

	cp := *rem
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	f.reminders = append(f.reminders, &cp)
	return true, nil
}

func (f *fakeStore) Exists(_ context.Context, contactID uuid.UUID, typ repository.ReminderType, category repository.ReminderCategory, dueAt time.Time, unsentOnly bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reminders {
		if r.ContactID == contactID && r.Type == typ && r.Category == category &&
			r.DueAt.Equal(dueAt) && r.DeletedAt == nil && (!unsentOnly || !r.Sent) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) HasUnsentFollowUp(_ context.Context, contactID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reminders {
		if r.ContactID == contactID && !r.Sent && r.DeletedAt == nil && r.Category.IsFollowUp() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) HasUnsentSessionReminders(_ context.Context, sessionID uuid.UUID, firstSession bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reminders {
		if r.Category != repository.CategorySessionReminder || r.Sent || r.DeletedAt != nil {
			continue
		}
		if matchesSessionLink(r, sessionID, firstSession) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteUnsent(_ context.Context, contactID uuid.UUID, category repository.ReminderCategory) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	var deleted int64
	for _, r := range f.reminders {
		if r.ContactID == contactID && r.Category == category && !r.Sent && r.DeletedAt == nil {
			at := now
			r.DeletedAt = &at
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) DeleteUnsentForSession(_ context.Context, sessionID uuid.UUID, firstSession bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	var deleted int64
	for _, r := range f.reminders {
		if !r.Sent && r.DeletedAt == nil && matchesSessionLink(r, sessionID, firstSession) {
			at := now
			r.DeletedAt = &at
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) DueSessionRemindersInWindow(_ context.Context, from, to time.Time, limit int) ([]repository.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due []repository.Reminder
	for _, r := range f.reminders {
		if r.Category != repository.CategorySessionReminder || r.Sent || r.DeletedAt != nil {
			continue
		}
		if r.DueAt.Before(from) || r.DueAt.After(to) {
			continue
		}
		due = append(due, *r)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeStore) ListUnsent(_ context.Context, contactID *uuid.UUID) ([]repository.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []repository.Reminder
	for _, r := range f.reminders {
		if r.Sent || r.DeletedAt != nil {
			continue
		}
		if contactID != nil && r.ContactID != *contactID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reminders {
		if r.ID == id && r.DeletedAt == nil {
			r.Sent = true
			sentAt := at
			r.SentAt = &sentAt
			return nil
		}
	}
	return apperr.NotFound("reminder not found")
}

func (f *fakeStore) AppendNote(_ context.Context, id uuid.UUID, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reminders {
		if r.ID == id {
			if r.Notes == "" {
				r.Notes = note
			} else {
				r.Notes += "\n" + note
			}
			return nil
		}
	}
	return apperr.NotFound("reminder not found")
}

func (f *fakeStore) PruneSessionRemindersForEndedSessions(context.Context) (int64, error) {
	return f.pruneEnded, nil
}

func (f *fakeStore) PruneSessionRemindersPastDue(context.Context, time.Time) (int64, error) {
	return f.prunePastDue, nil
}

func (f *fakeStore) PruneDMFollowUpsForBookedCalls(context.Context) (int64, error) {
	return f.pruneDMBooked, nil
}

func (f *fakeStore) PrunePostCallFollowUpsForBookedSessions(context.Context) (int64, error) {
	return f.prunePostCall, nil
}

func (f *fakeStore) PrunePostFirstSessionFollowUpsWithRegular(context.Context) (int64, error) {
	return f.pruneFirstUp, nil
}

func (f *fakeStore) PrunePostSessionFollowUpsWithFutureSession(context.Context, time.Time) (int64, error) {
	return f.pruneFutureSes, nil
}

func (f *fakeStore) PruneStaleFollowUps(context.Context, time.Time) (int64, error) {
	return f.pruneStale, nil
}

// live returns the reminders that are neither sent nor soft-deleted.
func (f *fakeStore) live() []*repository.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*repository.Reminder
	for _, r := range f.reminders {
		if !r.Sent && r.DeletedAt == nil {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) byType(typ repository.ReminderType) *repository.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.reminders {
		if r.Type == typ && r.DeletedAt == nil {
			return r
		}
	}
	return nil
}

func matchesSessionLink(r *repository.Reminder, sessionID uuid.UUID, firstSession bool) bool {
	if firstSession {
		return r.FirstSessionID != nil && *r.FirstSessionID == sessionID
	}
	return r.SessionID != nil && *r.SessionID == sessionID
}

type fakeContacts struct {
	byID map[uuid.UUID]contactrepo.Contact
}

func (f *fakeContacts) GetByID(_ context.Context, id uuid.UUID) (*contactrepo.Contact, error) {
	ct, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("contact not found")
	}
	return &ct, nil
}

func (f *fakeContacts) ListInactiveSince(_ context.Context, cutoff time.Time) ([]contactrepo.Contact, error) {
	var out []contactrepo.Contact
	for _, ct := range f.byID {
		if ct.LastActivityAt.Before(cutoff) {
			out = append(out, ct)
		}
	}
	return out, nil
}

type fakeSessions struct {
	sessions        map[sessionrepo.Kind][]sessionrepo.Session
	firstDates      map[uuid.UUID][]time.Time
	regularCounts   map[uuid.UUID]int
	latestCompleted map[uuid.UUID]*time.Time
	ordinals        map[uuid.UUID][2]int
}

func (f *fakeSessions) GetByID(_ context.Context, kind sessionrepo.Kind, id uuid.UUID) (*sessionrepo.Session, error) {
	for _, sess := range f.sessions[kind] {
		if sess.ID == id {
			cp := sess
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("session not found")
}

func (f *fakeSessions) ListActiveFuture(_ context.Context, kind sessionrepo.Kind, now time.Time) ([]sessionrepo.Session, error) {
	var out []sessionrepo.Session
	for _, sess := range f.sessions[kind] {
		if !sess.Cancelled && sess.SessionDate.After(now) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (f *fakeSessions) ActiveFirstSessionDates(_ context.Context, contactID uuid.UUID) ([]time.Time, error) {
	return f.firstDates[contactID], nil
}

func (f *fakeSessions) CountActiveRegularSessions(_ context.Context, contactID uuid.UUID) (int, error) {
	return f.regularCounts[contactID], nil
}

func (f *fakeSessions) LatestCompletedSessionAt(_ context.Context, contactID uuid.UUID) (*time.Time, error) {
	return f.latestCompleted[contactID], nil
}

func (f *fakeSessions) OrdinalInPackage(_ context.Context, sessionID uuid.UUID) (int, int, error) {
	pair, ok := f.ordinals[sessionID]
	if !ok {
		return 0, 0, nil
	}
	return pair[0], pair[1], nil
}

type fakePlayers struct {
	names map[uuid.UUID][]string
}

func (f *fakePlayers) FirstNamesByContact(_ context.Context, contactID uuid.UUID) ([]string, error) {
	return f.names[contactID], nil
}

type sentMessage struct {
	to   string
	body string
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeGateway) Send(_ context.Context, phoneNumber, body string) (messaging.SendResult, error) {
	if f.err != nil {
		return messaging.SendResult{}, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: phoneNumber, body: body})
	return messaging.SendResult{ProviderRef: fmt.Sprintf("msg-%d", len(f.sent))}, nil
}

// testConfig satisfies config.RemindersConfig and config.MessagingConfig.
type testConfig struct {
	zone                  *time.Location
	dispatchWindow        time.Duration
	dispatchBatch         int
	ratePerSecond         float64
	markUndeliverableSent bool
	backfillFollowUps     bool
	overrides             map[string]int

	operatorPhone string
	dryRun        bool
}

func (c *testConfig) GetBusinessZone() *time.Location           { return c.zone }
func (c *testConfig) GetDispatchWindow() time.Duration          { return c.dispatchWindow }
func (c *testConfig) GetDispatchBatchSize() int                 { return c.dispatchBatch }
func (c *testConfig) GetDispatchRatePerSecond() float64         { return c.ratePerSecond }
func (c *testConfig) GetMarkUndeliverableSent() bool            { return c.markUndeliverableSent }
func (c *testConfig) GetBackfillFollowUps() bool                { return c.backfillFollowUps }
func (c *testConfig) GetDeepLinkTemplate() string               { return "" }
func (c *testConfig) GetDeepLinkSecret() string                 { return "" }
func (c *testConfig) GetStageThresholdOverrides() map[string]int { return c.overrides }

func (c *testConfig) GetGatewayURL() string      { return "" }
func (c *testConfig) GetGatewayKey() string      { return "" }
func (c *testConfig) GetGatewayDeviceID() string { return "" }
func (c *testConfig) GetOperatorPhone() string   { return c.operatorPhone }
func (c *testConfig) GetMessagingDryRun() bool   { return c.dryRun }

// businessZone is UTC-7, matching the default deployment offset.
var businessZone = timeutil.FixedZone(-420)

func defaultTestConfig() *testConfig {
	return &testConfig{
		zone:                  businessZone,
		dispatchWindow:        6 * time.Hour,
		dispatchBatch:         50,
		ratePerSecond:         1000,
		markUndeliverableSent: true,
	}
}

type testEngine struct {
	svc      *Service
	store    *fakeStore
	contacts *fakeContacts
	sessions *fakeSessions
	players  *fakePlayers
	now      time.Time
}

func newTestEngine(cfg *testConfig, now time.Time) *testEngine {
	if cfg == nil {
		cfg = defaultTestConfig()
	}

	store := &fakeStore{}
	contacts := &fakeContacts{byID: map[uuid.UUID]contactrepo.Contact{}}
	sessions := &fakeSessions{
		sessions:        map[sessionrepo.Kind][]sessionrepo.Session{},
		firstDates:      map[uuid.UUID][]time.Time{},
		regularCounts:   map[uuid.UUID]int{},
		latestCompleted: map[uuid.UUID]*time.Time{},
		ordinals:        map[uuid.UUID][2]int{},
	}
	players := &fakePlayers{names: map[uuid.UUID][]string{}}

	svc := New(store, contacts, sessions, players, cfg, cfg, logger.New("development"))
	svc.SetNowFunc(func() time.Time { return now })

	return &testEngine{
		svc:      svc,
		store:    store,
		contacts: contacts,
		sessions: sessions,
		players:  players,
		now:      now,
	}
}

func mustParseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
