// Package players provides the player bounded context module. Players supply
// the names reminder templates interpolate and the profile references deep
// links point at.
package players

import (
	apphttp "coachportal_backend/internal/http"
	"coachportal_backend/internal/players/handler"
	"coachportal_backend/internal/players/repository"
	"coachportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the players bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the players module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	return &Module{
		handler: handler.New(repo, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "players"
}

// Repository returns the repository for cross-module readers.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts player routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/players")
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)

	ctx.Protected.GET("/contacts/:id/players", m.handler.ListByContact)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
