package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachportal_backend/internal/contacts"
	"coachportal_backend/internal/expenses"
	apphttp "coachportal_backend/internal/http"
	"coachportal_backend/internal/http/router"
	"coachportal_backend/internal/messaging"
	"coachportal_backend/internal/packages"
	"coachportal_backend/internal/players"
	"coachportal_backend/internal/reminders"
	"coachportal_backend/internal/scheduler"
	"coachportal_backend/internal/sessions"
	"coachportal_backend/platform/config"
	"coachportal_backend/platform/db"
	"coachportal_backend/platform/logger"
	"coachportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	jobs, closeJobs := initJobClient(cfg, log)
	if closeJobs != nil {
		defer closeJobs()
	}

	val := validator.New()

	remindersModule, err := reminders.NewModule(pool, cfg, jobs, log)
	if err != nil {
		log.Error("failed to initialize reminders module", "error", err)
		panic("failed to initialize reminders module: " + err.Error())
	}
	if gateway := messaging.NewClient(cfg, log); gateway != nil {
		remindersModule.Service().SetGateway(gateway)
	}

	contactsModule := contacts.NewModule(pool, val, log)
	contactsModule.Service().SetLifecycleNotifier(remindersModule.Service())

	sessionsModule := sessions.NewModule(pool, remindersModule.Service(), val, log)
	playersModule := players.NewModule(pool, val)
	packagesModule := packages.NewModule(pool, val)
	expensesModule := expenses.NewModule(pool, val)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			contactsModule,
			sessionsModule,
			playersModule,
			packagesModule,
			expensesModule,
			remindersModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initJobClient returns a nil enqueuer when no queue is configured; the API
// then runs on-demand sweeps inline instead of enqueueing them.
func initJobClient(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.JobEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background job queue disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize job client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
