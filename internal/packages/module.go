// Package packages provides the session-package bounded context module.
// Package sizes feed the "session N of M" counters in reminder texts.
package packages

import (
	apphttp "coachportal_backend/internal/http"
	"coachportal_backend/internal/packages/handler"
	"coachportal_backend/internal/packages/repository"
	"coachportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the packages bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the packages module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	return &Module{
		handler: handler.New(repo, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "packages"
}

// RegisterRoutes mounts package routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/packages")
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)

	ctx.Protected.GET("/contacts/:id/packages", m.handler.ListByContact)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
