package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadedge_backend/internal/analytics"
	"leadedge_backend/internal/assets"
	"leadedge_backend/internal/chat"
	"leadedge_backend/internal/email"
	"leadedge_backend/internal/events"
	apphttp "leadedge_backend/internal/http"
	"leadedge_backend/internal/http/router"
	"leadedge_backend/internal/leads"
	"leadedge_backend/internal/leads/repository"
	"leadedge_backend/internal/leads/service"
	"leadedge_backend/internal/notification"
	"leadedge_backend/internal/scheduler"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/db"
	"leadedge_backend/platform/logger"
	"leadedge_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.NewWithFile(cfg.Env, logger.FileOptions{
		Path:       cfg.GetLogFile(),
		MaxSizeMB:  cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
	})
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	eventBus.SetHandlerTimeout(cfg.GetNotifyTimeout())

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	beacon := analytics.NewClient(cfg)
	if !beacon.Enabled() {
		log.Warn("GA4 credentials not configured; analytics forwarding disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, beacon, cfg, log)
	notificationModule.RegisterHandlers(eventBus)
	if queue, closeQueue := initLeadQueue(cfg, log); queue != nil {
		defer closeQueue()
		notificationModule.SetLeadQueue(queue)
	}

	leadsModule := leads.NewModule(pool, eventBus, beacon, val, cfg, log)
	if sink, closeSink := initMirror(ctx, cfg, log); sink != nil {
		defer closeSink()
		leadsModule.SetEventSink(sink)
	}

	provider, err := chat.NewProvider(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize AI provider", "error", err)
		panic("failed to initialize AI provider: " + err.Error())
	}
	if provider == nil {
		log.Warn("no AI provider configured; chat replies disabled")
	}
	chatModule, err := chat.NewModule(pool, provider, cfg.GetSiteProfile(), val, log)
	if err != nil {
		log.Error("failed to initialize chat module", "error", err)
		panic("failed to initialize chat module: " + err.Error())
	}

	assetSource, err := assets.NewSource(cfg)
	if err != nil {
		log.Error("failed to initialize static assets", "error", err)
		panic("failed to initialize static assets: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			chatModule,
		},
		Assets: assets.Handler(assetSource, log),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initLeadQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Info("REDIS_URL not configured; lead notifications delivered in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize notification queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initMirror opens the optional lead_events mirror. A Postgres mirror wins
// over ClickHouse when both are configured.
func initMirror(ctx context.Context, cfg config.MirrorConfig, log *logger.Logger) (service.EventSink, func()) {
	if !cfg.IsMirrorEnabled() {
		return nil, nil
	}

	if cfg.GetMirrorDatabaseURL() != "" {
		mirrorPool, err := db.NewMirrorPool(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to mirror database", "error", err)
			return nil, nil
		}
		log.Info("lead_events mirror enabled", "store", "postgres")
		return repository.New(mirrorPool), mirrorPool.Close
	}

	conn, err := db.NewClickHouse(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to clickhouse mirror", "error", err)
		return nil, nil
	}
	mirror := repository.NewClickHouseMirror(conn)
	log.Info("lead_events mirror enabled", "store", "clickhouse")
	return mirror, func() {
		_ = mirror.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
