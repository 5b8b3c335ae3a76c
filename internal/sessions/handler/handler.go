package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coachportal_backend/internal/sessions/repository"
	"coachportal_backend/internal/sessions/service"
	"coachportal_backend/internal/sessions/transport"
	"coachportal_backend/platform/httpkit"
	"coachportal_backend/platform/validator"
)

// Handler handles HTTP requests for sessions. Routes carry the kind in the
// path (:kind is first_session or session).
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid session ID"
	msgInvalidKind      = "invalid session kind"
)

// New creates a new sessions handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func parseKind(c *gin.Context) (repository.Kind, bool) {
	kind := repository.Kind(c.Param("kind"))
	if kind != repository.KindFirst && kind != repository.KindRegular {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidKind, nil)
		return "", false
	}
	return kind, true
}

// Create books a session and schedules its reminder set.
// POST /api/v1/sessions
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GetByID retrieves a session.
// GET /api/v1/sessions/:kind/:id
func (h *Handler) GetByID(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), kind, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListByContact returns a contact's sessions of one kind.
// GET /api/v1/contacts/:id/sessions/:kind
func (h *Handler) ListByContact(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid contact ID", nil)
		return
	}

	result, err := h.svc.ListByContact(c.Request.Context(), kind, contactID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update patches a session; date changes rebuild its reminder set.
// PUT /api/v1/sessions/:kind/:id
func (h *Handler) Update(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), kind, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
