// Package sessions provides the session bounded context module covering trial
// first sessions and regular package sessions.
package sessions

import (
	apphttp "coachportal_backend/internal/http"
	"coachportal_backend/internal/sessions/handler"
	"coachportal_backend/internal/sessions/repository"
	"coachportal_backend/internal/sessions/service"
	"coachportal_backend/platform/logger"
	"coachportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the sessions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the sessions module.
func NewModule(pool *pgxpool.Pool, reminders service.ReminderScheduler, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, reminders, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "sessions"
}

// Repository returns the repository for cross-module readers.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts session routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/sessions")
	group.POST("", m.handler.Create)
	group.GET("/:kind/:id", m.handler.GetByID)
	group.PUT("/:kind/:id", m.handler.Update)

	ctx.Protected.GET("/contacts/:id/sessions/:kind", m.handler.ListByContact)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
