package scheduler

import (
	"context"
	"fmt"

	"leadedge_backend/internal/events"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// LeadNotifier delivers the notifications for one stored lead.
type LeadNotifier interface {
	DeliverLeadNotifications(ctx context.Context, e events.LeadSubmitted) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier LeadNotifier
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, notifier LeadNotifier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		notifier: notifier,
		log:      log,
	}
	w.mux.HandleFunc(TaskLeadNotify, w.handleLeadNotify)

	return w, nil
}

func (w *Worker) handleLeadNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadNotifyPayload(task)
	if err != nil {
		return fmt.Errorf("parse lead notify payload: %w", err)
	}
	if w.notifier == nil {
		return nil
	}
	return w.notifier.DeliverLeadNotifications(ctx, payload)
}

// Run processes tasks until ctx is cancelled.
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
