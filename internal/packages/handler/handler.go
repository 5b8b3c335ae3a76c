package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coachportal_backend/internal/packages/repository"
	"coachportal_backend/platform/httpkit"
	"coachportal_backend/platform/validator"
)

// Handler handles HTTP requests for session packages.
type Handler struct {
	repo *repository.Repository
	val  *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid package ID"
)

// New creates a new packages handler.
func New(repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

// CreatePackageRequest contains data for creating a package.
type CreatePackageRequest struct {
	ContactID     uuid.UUID `json:"contactId" validate:"required"`
	Name          string    `json:"name" validate:"required,min=1,max=100"`
	TotalSessions int       `json:"totalSessions" validate:"required,min=1,max=100"`
	PriceCents    int64     `json:"priceCents" validate:"min=0"`
}

// UpdatePackageRequest patches a package.
type UpdatePackageRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	TotalSessions *int    `json:"totalSessions,omitempty" validate:"omitempty,min=1,max=100"`
	PriceCents    *int64  `json:"priceCents,omitempty" validate:"omitempty,min=0"`
}

// Create sells a package to a contact.
// POST /api/v1/packages
func (h *Handler) Create(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	now := time.Now().UTC()
	p := &repository.Package{
		ID:            uuid.New(),
		ContactID:     req.ContactID,
		Name:          req.Name,
		TotalSessions: req.TotalSessions,
		PriceCents:    req.PriceCents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if httpkit.HandleError(c, h.repo.Create(c.Request.Context(), p)) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, p)
}

// ListByContact returns a contact's packages.
// GET /api/v1/contacts/:id/packages
func (h *Handler) ListByContact(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid contact ID", nil)
		return
	}

	packages, err := h.repo.ListByContact(c.Request.Context(), contactID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": packages, "total": len(packages)})
}

// Update patches a package.
// PUT /api/v1/packages/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.TotalSessions != nil {
		p.TotalSessions = *req.TotalSessions
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	p.UpdatedAt = time.Now().UTC()

	if httpkit.HandleError(c, h.repo.Update(c.Request.Context(), p)) {
		return
	}
	httpkit.OK(c, p)
}

// Delete removes a package.
// DELETE /api/v1/packages/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.repo.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}
