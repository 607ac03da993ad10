package chat

import (
	apphttp "leadedge_backend/internal/http"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/logger"
	"leadedge_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the chat relay module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the chat module. provider may be nil.
func NewModule(pool *pgxpool.Pool, provider Provider, site config.SiteProfile, val *validator.Validator, log *logger.Logger) (*Module, error) {
	svc, err := NewService(provider, NewRepository(pool), site, log)
	if err != nil {
		return nil, err
	}
	return &Module{handler: NewHandler(svc, val)}, nil
}

func (m *Module) Name() string {
	return "chat"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.API)
}

var _ apphttp.Module = (*Module)(nil)
