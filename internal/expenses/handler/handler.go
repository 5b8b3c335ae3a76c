package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coachportal_backend/internal/expenses/repository"
	"coachportal_backend/platform/httpkit"
	"coachportal_backend/platform/sanitize"
	"coachportal_backend/platform/validator"
)

// Handler handles HTTP requests for expenses.
type Handler struct {
	repo *repository.Repository
	val  *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid expense ID"
)

// New creates a new expenses handler.
func New(repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

// CreateExpenseRequest contains data for recording an expense.
type CreateExpenseRequest struct {
	Description string `json:"description" validate:"required,min=1,max=500"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	AmountCents int64  `json:"amountCents" validate:"required,min=1"`
	IncurredOn  string `json:"incurredOn" validate:"required,datetime=2006-01-02"`
}

// UpdateExpenseRequest patches an expense.
type UpdateExpenseRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	AmountCents *int64  `json:"amountCents,omitempty" validate:"omitempty,min=1"`
	IncurredOn  *string `json:"incurredOn,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Create records an expense.
// POST /api/v1/expenses
func (h *Handler) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	incurred, _ := time.Parse("2006-01-02", req.IncurredOn)
	now := time.Now().UTC()
	e := &repository.Expense{
		ID:          uuid.New(),
		Description: sanitize.Text(req.Description),
		Category:    req.Category,
		AmountCents: req.AmountCents,
		IncurredOn:  incurred,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if httpkit.HandleError(c, h.repo.Create(c.Request.Context(), e)) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, e)
}

// List returns all expenses.
// GET /api/v1/expenses
func (h *Handler) List(c *gin.Context) {
	expenses, err := h.repo.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": expenses, "total": len(expenses)})
}

// Update patches an expense.
// PUT /api/v1/expenses/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	e, err := h.repo.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if req.Description != nil {
		e.Description = sanitize.Text(*req.Description)
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.AmountCents != nil {
		e.AmountCents = *req.AmountCents
	}
	if req.IncurredOn != nil {
		incurred, _ := time.Parse("2006-01-02", *req.IncurredOn)
		e.IncurredOn = incurred
	}
	e.UpdatedAt = time.Now().UTC()

	if httpkit.HandleError(c, h.repo.Update(c.Request.Context(), e)) {
		return
	}
	httpkit.OK(c, e)
}

// Delete removes an expense.
// DELETE /api/v1/expenses/:id
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
