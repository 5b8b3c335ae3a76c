// Package reminders provides the reminder and follow-up scheduling engine
// module: the stage classifier, reminder store, schedulers, reconciliation
// sweep, and dispatcher, plus the dashboard read API.
package reminders

import (
	contactrepo "coachportal_backend/internal/contacts/repository"
	apphttp "coachportal_backend/internal/http"
	playerrepo "coachportal_backend/internal/players/repository"
	"coachportal_backend/internal/reminders/handler"
	"coachportal_backend/internal/reminders/repository"
	"coachportal_backend/internal/reminders/service"
	"coachportal_backend/internal/scheduler"
	sessionrepo "coachportal_backend/internal/sessions/repository"
	"coachportal_backend/platform/config"
	"coachportal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reminders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the scheduling engine with its own
// repository views of contacts, sessions, and players.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, jobs scheduler.JobEnqueuer, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)
	players := playerrepo.New(pool)
	svc := service.New(repo, contactrepo.New(pool), sessionrepo.New(pool), players, cfg, cfg, log)

	links, err := service.NewDeepLinkBuilder(cfg.GetDeepLinkTemplate(), cfg.GetDeepLinkSecret(), players)
	if err != nil {
		return nil, err
	}
	svc.SetDeepLinkBuilder(links)

	return &Module{
		handler: handler.New(svc, jobs),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reminders"
}

// Service returns the scheduling engine for composition-root wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts reminder routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/reminders")
	group.GET("", m.handler.ListUnsent)
	group.POST("/reconcile", m.handler.TriggerReconcile)
	group.POST("/dispatch", m.handler.TriggerDispatch)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
