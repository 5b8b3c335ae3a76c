// Package service implements session booking and keeps each session's
// reminder countdown set in step with its schedule.
package service

import (
	"context"
	"fmt"
	"time"

	"coachportal_backend/internal/sessions/repository"
	"coachportal_backend/internal/sessions/transport"
	"coachportal_backend/platform/apperr"
	"coachportal_backend/platform/logger"
	"coachportal_backend/platform/timeutil"

	remsvc "coachportal_backend/internal/reminders/service"

	"github.com/google/uuid"
)

// ReminderScheduler maintains the reminder set attached to a session.
type ReminderScheduler interface {
	ScheduleSessionReminders(ctx context.Context, contactID uuid.UUID, sessionInstant time.Time, link remsvc.SessionLink) (int, error)
	ClearSessionReminders(ctx context.Context, link remsvc.SessionLink) (int64, error)
}

// Service coordinates session persistence and reminder scheduling.
type Service struct {
	repo      *repository.Repository
	reminders ReminderScheduler
	log       *logger.Logger
}

// New creates the sessions service.
func New(repo *repository.Repository, reminders ReminderScheduler, log *logger.Logger) *Service {
	return &Service{repo: repo, reminders: reminders, log: log}
}

// Create books a session and schedules its reminder countdown set.
func (s *Service) Create(ctx context.Context, req transport.CreateSessionRequest) (*transport.SessionResponse, error) {
	kind := repository.Kind(req.Kind)

	at, err := timeutil.ParseInstant(req.SessionDate)
	if err != nil {
		return nil, apperr.BadRequest("invalid sessionDate").WithDetails(err.Error())
	}
	if kind == repository.KindFirst && req.PackageID != nil {
		return nil, apperr.BadRequest("first sessions cannot belong to a package")
	}

	now := time.Now().UTC()
	sess := &repository.Session{
		ID:          uuid.New(),
		ContactID:   req.ContactID,
		PackageID:   req.PackageID,
		SessionDate: at,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, kind, sess); err != nil {
		return nil, err
	}

	if _, err := s.reminders.ScheduleSessionReminders(ctx, sess.ContactID, sess.SessionDate, linkFor(kind, sess.ID)); err != nil {
		return nil, fmt.Errorf("schedule session reminders: %w", err)
	}

	return toResponse(kind, sess), nil
}

// GetByID retrieves a session.
func (s *Service) GetByID(ctx context.Context, kind repository.Kind, id uuid.UUID) (*transport.SessionResponse, error) {
	sess, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return toResponse(kind, sess), nil
}

// ListByContact returns a contact's sessions of one kind.
func (s *Service) ListByContact(ctx context.Context, kind repository.Kind, contactID uuid.UUID) (*transport.SessionListResponse, error) {
	sessions, err := s.repo.ListByContact(ctx, kind, contactID)
	if err != nil {
		return nil, err
	}

	resp := &transport.SessionListResponse{
		Items: make([]transport.SessionResponse, 0, len(sessions)),
		Total: len(sessions),
	}
	for i := range sessions {
		resp.Items = append(resp.Items, *toResponse(kind, &sessions[i]))
	}
	return resp, nil
}

// Update patches a session. A date change rebuilds the pending reminder set at
// the new times; cancellation clears it.
func (s *Service) Update(ctx context.Context, kind repository.Kind, id uuid.UUID, req transport.UpdateSessionRequest) (*transport.SessionResponse, error) {
	sess, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	oldDate := sess.SessionDate
	wasActive := isActive(sess)

	if req.PackageID != nil {
		if kind == repository.KindFirst {
			return nil, apperr.BadRequest("first sessions cannot belong to a package")
		}
		sess.PackageID = req.PackageID
	}
	if req.SessionDate != nil {
		at, err := timeutil.ParseInstant(*req.SessionDate)
		if err != nil {
			return nil, apperr.BadRequest("invalid sessionDate").WithDetails(err.Error())
		}
		sess.SessionDate = at
	}
	if req.Status != nil {
		sess.Status = req.Status
	}
	if req.Cancelled != nil {
		sess.Cancelled = *req.Cancelled
	}
	if req.Location != nil {
		sess.Location = *req.Location
	}
	sess.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, kind, sess); err != nil {
		return nil, err
	}

	link := linkFor(kind, sess.ID)
	switch {
	case wasActive && !isActive(sess):
		if _, err := s.reminders.ClearSessionReminders(ctx, link); err != nil {
			return nil, fmt.Errorf("clear session reminders: %w", err)
		}
	case isActive(sess) && !sess.SessionDate.Equal(oldDate):
		if _, err := s.reminders.ClearSessionReminders(ctx, link); err != nil {
			return nil, fmt.Errorf("clear session reminders: %w", err)
		}
		if _, err := s.reminders.ScheduleSessionReminders(ctx, sess.ContactID, sess.SessionDate, link); err != nil {
			return nil, fmt.Errorf("reschedule session reminders: %w", err)
		}
	case isActive(sess) && !wasActive:
		if _, err := s.reminders.ScheduleSessionReminders(ctx, sess.ContactID, sess.SessionDate, link); err != nil {
			return nil, fmt.Errorf("schedule session reminders: %w", err)
		}
	}

	return toResponse(kind, sess), nil
}

func isActive(sess *repository.Session) bool {
	if sess.Cancelled {
		return false
	}
	if sess.Status == nil {
		return true
	}
	return *sess.Status != repository.StatusCancelled && *sess.Status != repository.StatusNoShow
}

func linkFor(kind repository.Kind, id uuid.UUID) remsvc.SessionLink {
	if kind == repository.KindFirst {
		return remsvc.SessionLink{FirstSessionID: &id}
	}
	return remsvc.SessionLink{SessionID: &id}
}

func toResponse(kind repository.Kind, sess *repository.Session) *transport.SessionResponse {
	return &transport.SessionResponse{
		ID:          sess.ID,
		ContactID:   sess.ContactID,
		Kind:        string(kind),
		PackageID:   sess.PackageID,
		SessionDate: sess.SessionDate,
		Status:      sess.Status,
		Cancelled:   sess.Cancelled,
		Location:    sess.Location,
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
	}
}
