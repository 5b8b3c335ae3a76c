// Package contacts provides the contact bounded context module.
// Contacts carry the lifecycle fields (DM status, call booking, customer
// flags) the follow-up engine classifies from.
package contacts

import (
	"coachportal_backend/internal/contacts/handler"
	"coachportal_backend/internal/contacts/repository"
	"coachportal_backend/internal/contacts/service"
	apphttp "coachportal_backend/internal/http"
	"coachportal_backend/platform/logger"
	"coachportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the contacts module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the service layer for composition-root wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module readers.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts contact routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/contacts")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.GetByID)
	group.PUT("/:id", m.handler.Update)
	group.POST("/:id/activity", m.handler.TouchActivity)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
