package scheduler

import (
	"context"
	"fmt"

	"coachportal_backend/platform/config"
	"coachportal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the recurring reconcile and dispatch entries and keeps
// enqueueing them on their configured cadence.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	reconcileTask, err := NewReconcileTask(ReconcilePayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register(cfg.GetReconcileSchedule(), reconcileTask, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register reconcile schedule: %w", err)
	}

	dispatchTask, err := NewDispatchTask(DispatchPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register(cfg.GetDispatchSchedule(), dispatchTask, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register dispatch schedule: %w", err)
	}

	return &Periodic{scheduler: sched, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		p.scheduler.Shutdown()
	}()

	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}
