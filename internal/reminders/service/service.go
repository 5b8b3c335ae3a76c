// Package service implements the reminder and follow-up scheduling engine:
// stage classification, idempotent reminder creation, reconciliation sweeps,
// and dispatch of due reminders through the text-message gateway.
package service

import (
	"context"
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/messaging"
	"coachportal_backend/internal/reminders/repository"
	sessionrepo "coachportal_backend/internal/sessions/repository"
	"coachportal_backend/platform/config"
	"coachportal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Store is the reminder persistence surface the engine drives. Implemented by
// the reminders repository; tests substitute an in-memory fake.
type Store interface {
	InsertIfAbsent(ctx context.Context, rem *repository.Reminder) (bool, error)
	Exists(ctx context.Context, contactID uuid.UUID, typ repository.ReminderType, category repository.ReminderCategory, dueAt time.Time, unsentOnly bool) (bool, error)
	HasUnsentFollowUp(ctx context.Context, contactID uuid.UUID) (bool, error)
	HasUnsentSessionReminders(ctx context.Context, sessionID uuid.UUID, firstSession bool) (bool, error)
	DeleteUnsent(ctx context.Context, contactID uuid.UUID, category repository.ReminderCategory) (int64, error)
	DeleteUnsentForSession(ctx context.Context, sessionID uuid.UUID, firstSession bool) (int64, error)
	DueSessionRemindersInWindow(ctx context.Context, from, to time.Time, limit int) ([]repository.Reminder, error)
	ListUnsent(ctx context.Context, contactID *uuid.UUID) ([]repository.Reminder, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	AppendNote(ctx context.Context, id uuid.UUID, note string) error

	PruneSessionRemindersForEndedSessions(ctx context.Context) (int64, error)
	PruneSessionRemindersPastDue(ctx context.Context, cutoff time.Time) (int64, error)
	PruneDMFollowUpsForBookedCalls(ctx context.Context) (int64, error)
	PrunePostCallFollowUpsForBookedSessions(ctx context.Context) (int64, error)
	PrunePostFirstSessionFollowUpsWithRegular(ctx context.Context) (int64, error)
	PrunePostSessionFollowUpsWithFutureSession(ctx context.Context, now time.Time) (int64, error)
	PruneStaleFollowUps(ctx context.Context, cutoff time.Time) (int64, error)
}

// ContactReader provides the contact attributes the engine classifies from.
type ContactReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*contactrepo.Contact, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]contactrepo.Contact, error)
}

// SessionReader provides session state for classification, reconciliation,
// and message templating.
type SessionReader interface {
	GetByID(ctx context.Context, kind sessionrepo.Kind, id uuid.UUID) (*sessionrepo.Session, error)
	ListActiveFuture(ctx context.Context, kind sessionrepo.Kind, now time.Time) ([]sessionrepo.Session, error)
	ActiveFirstSessionDates(ctx context.Context, contactID uuid.UUID) ([]time.Time, error)
	CountActiveRegularSessions(ctx context.Context, contactID uuid.UUID) (int, error)
	LatestCompletedSessionAt(ctx context.Context, contactID uuid.UUID) (*time.Time, error)
	OrdinalInPackage(ctx context.Context, sessionID uuid.UUID) (int, int, error)
}

// PlayerReader provides player names for message templating.
type PlayerReader interface {
	FirstNamesByContact(ctx context.Context, contactID uuid.UUID) ([]string, error)
}

// Gateway sends an outbound text message and returns the provider reference.
type Gateway interface {
	Send(ctx context.Context, phoneNumber, body string) (messaging.SendResult, error)
}

// Service is the scheduling engine. All sweeps are stateless and tolerate
// overlapping invocations; correctness lives in the store's conditional writes.
type Service struct {
	store    Store
	contacts ContactReader
	sessions SessionReader
	players  PlayerReader
	gateway  Gateway
	links    *DeepLinkBuilder
	log      *logger.Logger

	zone                  *time.Location
	stages                StageTable
	templates             map[repository.ReminderType]MessageBuilder
	dispatchWindow        time.Duration
	dispatchBatch         int
	markUndeliverableSent bool
	backfillFollowUps     bool
	dryRun                bool
	operatorPhone         string
	limiter               *rate.Limiter

	now func() time.Time
}

// New creates the scheduling engine.
func New(store Store, contacts ContactReader, sessions SessionReader, players PlayerReader,
	cfg config.RemindersConfig, msgCfg config.MessagingConfig, log *logger.Logger) *Service {

	ratePerSecond := cfg.GetDispatchRatePerSecond()
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}

	return &Service{
		store:                 store,
		contacts:              contacts,
		sessions:              sessions,
		players:               players,
		log:                   log,
		zone:                  cfg.GetBusinessZone(),
		stages:                DefaultStageTable().WithOverrides(cfg.GetStageThresholdOverrides()),
		templates:             defaultTemplates(),
		dispatchWindow:        cfg.GetDispatchWindow(),
		dispatchBatch:         cfg.GetDispatchBatchSize(),
		markUndeliverableSent: cfg.GetMarkUndeliverableSent(),
		backfillFollowUps:     cfg.GetBackfillFollowUps(),
		dryRun:                msgCfg.GetMessagingDryRun(),
		operatorPhone:         msgCfg.GetOperatorPhone(),
		limiter:               rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		now:                   time.Now,
	}
}

// SetGateway sets the outbound messaging gateway. A nil gateway is only valid
// in dry-run mode.
func (s *Service) SetGateway(gw Gateway) {
	s.gateway = gw
}

// SetDeepLinkBuilder sets the optional deep-link builder for parent-facing
// message templates.
func (s *Service) SetDeepLinkBuilder(links *DeepLinkBuilder) {
	s.links = links
}

// SetNowFunc overrides the engine's clock.
func (s *Service) SetNowFunc(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Zone returns the business zone follow-up cadences anchor in.
func (s *Service) Zone() *time.Location {
	return s.zone
}

// ListUnsent exposes pending reminders for the dashboard.
func (s *Service) ListUnsent(ctx context.Context, contactID *uuid.UUID) ([]repository.Reminder, error) {
	return s.store.ListUnsent(ctx, contactID)
}
