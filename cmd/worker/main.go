package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadedge_backend/internal/analytics"
	"leadedge_backend/internal/email"
	"leadedge_backend/internal/notification"
	"leadedge_backend/internal/scheduler"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.NewWithFile(cfg.Env, logger.FileOptions{
		Path:       cfg.GetLogFile(),
		MaxSizeMB:  cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
	})
	log.Info("starting notification worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	notifier := notification.New(sender, analytics.NewClient(cfg), cfg, log)

	worker, err := scheduler.NewWorker(cfg, notifier, log)
	if err != nil {
		log.Error("failed to initialize notification worker", "error", err)
		panic("failed to initialize notification worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("notification worker stopped")
}
