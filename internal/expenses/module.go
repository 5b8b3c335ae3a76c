// Package expenses provides the expense-tracking bounded context module.
package expenses

import (
	apphttp "coachportal_backend/internal/http"
	"coachportal_backend/internal/expenses/handler"
	"coachportal_backend/internal/expenses/repository"
	"coachportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the expenses bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the expenses module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(repository.New(pool), val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "expenses"
}

// RegisterRoutes mounts expense routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/expenses")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
