package scheduler

import (
	"context"
	"fmt"
	"time"

	"coachportal_backend/internal/email"
	"coachportal_backend/internal/reminders/service"
	"coachportal_backend/platform/config"
	"coachportal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes reminder jobs from the queue and drives the scheduling
// engine. Both jobs are idempotent, so duplicate or overlapping runs are safe.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *service.Service
	digest *email.SMTPSender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, svc *service.Service, digest *email.SMTPSender, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		svc:    svc,
		digest: digest,
		log:    log,
	}

	mux.HandleFunc(TaskRemindersReconcile, w.handleReconcile)
	mux.HandleFunc(TaskRemindersDispatch, w.handleDispatch)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReconcilePayload(task)
	if err != nil {
		return err
	}

	started := time.Now()
	summary, err := w.svc.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile run: %w", err)
	}

	w.log.JobRun("reminders.reconcile", float64(time.Since(started).Milliseconds()),
		"requested_by", payload.RequestedBy,
		"session_reminders_created", summary.SessionRemindersCreated,
		"cold_contacts", summary.ColdContactsDetected,
		"follow_ups_created", summary.FollowUpsCreated,
		"pruned", summary.Pruned.Total(),
		"errors", summary.Errors,
	)

	if err := w.digest.SendReconcileDigest(ctx, summary); err != nil {
		w.log.Warn("reconcile digest email failed", "error", err)
	}

	return nil
}

func (w *Worker) handleDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDispatchPayload(task)
	if err != nil {
		return err
	}

	started := time.Now()
	summary, err := w.svc.Dispatch(ctx)
	if err != nil {
		return fmt.Errorf("dispatch run: %w", err)
	}

	w.log.JobRun("reminders.dispatch", float64(time.Since(started).Milliseconds()),
		"requested_by", payload.RequestedBy,
		"selected", summary.Selected,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"dry_run", summary.DryRun,
	)

	return nil
}
