package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coachportal_backend/internal/players/repository"
	"coachportal_backend/platform/httpkit"
	"coachportal_backend/platform/validator"
)

// Handler handles HTTP requests for players.
type Handler struct {
	repo *repository.Repository
	val  *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid player ID"
)

// New creates a new players handler.
func New(repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

// CreatePlayerRequest contains data for creating a player.
type CreatePlayerRequest struct {
	ContactID  uuid.UUID `json:"contactId" validate:"required"`
	FirstName  string    `json:"firstName" validate:"required,min=1,max=100"`
	LastName   string    `json:"lastName" validate:"omitempty,max=100"`
	BirthYear  *int      `json:"birthYear,omitempty" validate:"omitempty,min=1990,max=2100"`
	ProfileRef string    `json:"profileRef" validate:"omitempty,max=200"`
}

// UpdatePlayerRequest patches a player.
type UpdatePlayerRequest struct {
	FirstName  *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName   *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	BirthYear  *int    `json:"birthYear,omitempty" validate:"omitempty,min=1990,max=2100"`
	ProfileRef *string `json:"profileRef,omitempty" validate:"omitempty,max=200"`
}

// Create adds a player to a contact.
// POST /api/v1/players
func (h *Handler) Create(c *gin.Context) {
	var req CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	now := time.Now().UTC()
	p := &repository.Player{
		ID:         uuid.New(),
		ContactID:  req.ContactID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		BirthYear:  req.BirthYear,
		ProfileRef: req.ProfileRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if httpkit.HandleError(c, h.repo.Create(c.Request.Context(), p)) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, p)
}

// ListByContact returns a contact's players.
// GET /api/v1/contacts/:id/players
func (h *Handler) ListByContact(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid contact ID", nil)
		return
	}

	players, err := h.repo.ListByContact(c.Request.Context(), contactID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": players, "total": len(players)})
}

// Update patches a player.
// PUT /api/v1/players/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req UpdatePlayerRequest
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
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.BirthYear != nil {
		p.BirthYear = req.BirthYear
	}
	if req.ProfileRef != nil {
		p.ProfileRef = *req.ProfileRef
	}
	p.UpdatedAt = time.Now().UTC()

	if httpkit.HandleError(c, h.repo.Update(c.Request.Context(), p)) {
		return
	}
	httpkit.OK(c, p)
}

// Delete removes a player.
// DELETE /api/v1/players/:id
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
