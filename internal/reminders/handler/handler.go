package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coachportal_backend/internal/reminders/service"
	"coachportal_backend/internal/scheduler"
	"coachportal_backend/platform/httpkit"
)

// Handler exposes the reminder dashboard reads and on-demand job triggers.
type Handler struct {
	svc  *service.Service
	jobs scheduler.JobEnqueuer
}

// New creates a new reminders handler. jobs may be nil when no queue is
// configured; triggers then run the sweep inline.
func New(svc *service.Service, jobs scheduler.JobEnqueuer) *Handler {
	return &Handler{svc: svc, jobs: jobs}
}

// ListUnsent returns pending reminders, optionally for one contact.
// GET /api/v1/reminders?contactId=...
func (h *Handler) ListUnsent(c *gin.Context) {
	var contactID *uuid.UUID
	if raw := c.Query("contactId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid contact ID", nil)
			return
		}
		contactID = &id
	}

	reminders, err := h.svc.ListUnsent(c.Request.Context(), contactID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": reminders, "total": len(reminders)})
}

// TriggerReconcile runs a reconciliation pass. With a queue configured the
// run is enqueued for the worker; otherwise it executes inline and returns
// the summary.
// POST /api/v1/reminders/reconcile
func (h *Handler) TriggerReconcile(c *gin.Context) {
	if h.jobs != nil {
		if err := h.jobs.EnqueueReconcile(c.Request.Context(), "api"); httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "enqueued"})
		return
	}

	summary, err := h.svc.Reconcile(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// TriggerDispatch runs a dispatch pass, enqueued or inline like reconcile.
// POST /api/v1/reminders/dispatch
func (h *Handler) TriggerDispatch(c *gin.Context) {
	if h.jobs != nil {
		if err := h.jobs.EnqueueDispatch(c.Request.Context(), "api"); httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "enqueued"})
		return
	}

	summary, err := h.svc.Dispatch(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}
