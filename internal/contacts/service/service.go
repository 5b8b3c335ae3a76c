// Package service implements contact CRUD and feeds lifecycle changes into
// the follow-up engine.
package service

import (
	"context"
	"fmt"
	"time"

	"coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/contacts/transport"
	"coachportal_backend/platform/apperr"
	"coachportal_backend/platform/logger"
	"coachportal_backend/platform/phone"
	"coachportal_backend/platform/sanitize"
	"coachportal_backend/platform/timeutil"

	"github.com/google/uuid"
)

// LifecycleNotifier receives the before/after contact rows on every write so
// follow-up reminders track stage transitions.
type LifecycleNotifier interface {
	OnContactLifecycleChange(ctx context.Context, old, updated *repository.Contact) error
}

// Service coordinates contact persistence and lifecycle notifications.
type Service struct {
	repo     *repository.Repository
	notifier LifecycleNotifier
	log      *logger.Logger
}

// New creates the contacts service. The notifier may be set later, before the
// first write.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetLifecycleNotifier wires the follow-up engine's lifecycle hook.
func (s *Service) SetLifecycleNotifier(n LifecycleNotifier) {
	s.notifier = n
}

// Create inserts a new contact. DM status defaults to none; activity starts now.
func (s *Service) Create(ctx context.Context, req transport.CreateContactRequest) (*transport.ContactResponse, error) {
	now := time.Now().UTC()

	ct := &repository.Contact{
		ID:              uuid.New(),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           phone.NormalizeE164(req.Phone),
		Email:           req.Email,
		InstagramHandle: req.InstagramHandle,
		DMStatus:        repository.DMStatusNone,
		CallOutcome:     repository.CallOutcomeNone,
		LastActivityAt:  now,
		Notes:           sanitize.Text(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.DMStatus != nil {
		ct.DMStatus = repository.DMStatus(*req.DMStatus)
	}

	if err := s.repo.Create(ctx, ct); err != nil {
		return nil, err
	}

	// A freshly created contact with a DM stage already set should start its
	// cadence immediately, same as a later transition would.
	if s.notifier != nil && ct.DMStatus != repository.DMStatusNone {
		blank := *ct
		blank.DMStatus = repository.DMStatusNone
		if err := s.notifier.OnContactLifecycleChange(ctx, &blank, ct); err != nil {
			return nil, fmt.Errorf("lifecycle change on create: %w", err)
		}
	}

	return toResponse(ct), nil
}

// GetByID retrieves a contact.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.ContactResponse, error) {
	ct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(ct), nil
}

// List returns all contacts, optionally including dead ones.
func (s *Service) List(ctx context.Context, includeDead bool) (*transport.ContactListResponse, error) {
	contacts, err := s.repo.List(ctx, includeDead)
	if err != nil {
		return nil, err
	}

	resp := &transport.ContactListResponse{
		Items: make([]transport.ContactResponse, 0, len(contacts)),
		Total: len(contacts),
	}
	for i := range contacts {
		resp.Items = append(resp.Items, *toResponse(&contacts[i]))
	}
	return resp, nil
}

// Update patches a contact and synchronously notifies the follow-up engine
// with the before and after rows. Every update counts as activity.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateContactRequest) (*transport.ContactResponse, error) {
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *old
	applyPatch(&updated, req)
	if req.CallDateTime != nil {
		if *req.CallDateTime == "" {
			updated.CallDateTime = nil
		} else {
			at, err := timeutil.ParseInstant(*req.CallDateTime)
			if err != nil {
				return nil, apperr.BadRequest("invalid callDateTime").WithDetails(err.Error())
			}
			updated.CallDateTime = &at
		}
	}

	now := time.Now().UTC()
	updated.LastActivityAt = now
	updated.UpdatedAt = now

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.OnContactLifecycleChange(ctx, old, &updated); err != nil {
			return nil, fmt.Errorf("lifecycle change on update: %w", err)
		}
	}

	return toResponse(&updated), nil
}

// TouchActivity records contact activity without any field change, resetting
// the inactivity clock the classifier reads.
func (s *Service) TouchActivity(ctx context.Context, id uuid.UUID) error {
	return s.repo.TouchActivity(ctx, id, time.Now().UTC())
}

// Delete removes a contact and its dependents.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func applyPatch(ct *repository.Contact, req transport.UpdateContactRequest) {
	if req.FirstName != nil {
		ct.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		ct.LastName = *req.LastName
	}
	if req.Phone != nil {
		ct.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Email != nil {
		ct.Email = *req.Email
	}
	if req.InstagramHandle != nil {
		ct.InstagramHandle = *req.InstagramHandle
	}
	if req.DMStatus != nil {
		ct.DMStatus = repository.DMStatus(*req.DMStatus)
	}
	if req.PhoneCallBooked != nil {
		ct.PhoneCallBooked = *req.PhoneCallBooked
	}
	if req.CallOutcome != nil {
		ct.CallOutcome = repository.CallOutcome(*req.CallOutcome)
	}
	if req.IsCustomer != nil {
		ct.IsCustomer = *req.IsCustomer
	}
	if req.IsDead != nil {
		ct.IsDead = *req.IsDead
	}
	if req.Notes != nil {
		ct.Notes = sanitize.Text(*req.Notes)
	}
}

func toResponse(ct *repository.Contact) *transport.ContactResponse {
	return &transport.ContactResponse{
		ID:              ct.ID,
		FirstName:       ct.FirstName,
		LastName:        ct.LastName,
		Phone:           ct.Phone,
		Email:           ct.Email,
		InstagramHandle: ct.InstagramHandle,
		DMStatus:        string(ct.DMStatus),
		PhoneCallBooked: ct.PhoneCallBooked,
		CallDateTime:    ct.CallDateTime,
		CallOutcome:     string(ct.CallOutcome),
		IsCustomer:      ct.IsCustomer,
		IsDead:          ct.IsDead,
		LastActivityAt:  ct.LastActivityAt,
		Notes:           ct.Notes,
		CreatedAt:       ct.CreatedAt,
		UpdatedAt:       ct.UpdatedAt,
	}
}
