// Package leads provides the lead capture and lead read bounded context.
// This file defines the module that wires its repository, service and
// handler and registers the routes.
package leads

import (
	"leadedge_backend/internal/events"
	apphttp "leadedge_backend/internal/http"
	"leadedge_backend/internal/leads/handler"
	"leadedge_backend/internal/leads/repository"
	"leadedge_backend/internal/leads/service"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/logger"
	"leadedge_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the leads module. beacon may be nil when analytics is
// not configured.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, beacon service.Beacon, val *validator.Validator, cfg config.SiteConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, beacon, log)

	return &Module{
		handler: handler.New(svc, val, cfg.GetThankYouURL()),
		service: svc,
	}
}

// SetEventSink attaches the optional mirror store for lead_events rows.
func (m *Module) SetEventSink(sink service.EventSink) {
	m.service.SetEventSink(sink)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts the lead routes under /api.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.API)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
