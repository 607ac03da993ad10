// Package router assembles the gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "leadedge_backend/internal/http"
	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const readyTimeout = 2 * time.Second

// notImplementedRoutes are declared by the site but have no behavior yet.
var notImplementedRoutes = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/charge"},
	{http.MethodPost, "/lead-status"},
	{http.MethodPost, "/job"},
	{http.MethodGet, "/geo/classify"},
}

// New builds the engine: shared middleware, the /api group with every
// module's routes, the metrics endpoint and the static asset fallback.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	if app.Config.GetCORSAllowAll() {
		engine.Use(httpkit.PermissiveCORS())
	} else {
		engine.Use(httpkit.RestrictedCORS(app.Config.GetCORSOrigins()))
	}
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.Metrics())

	engine.GET("/metrics", httpkit.MetricsHandler())

	api := engine.Group("/api")
	api.GET("/health", health)
	api.GET("/ready", ready(app.Health))
	for _, route := range notImplementedRoutes {
		api.Handle(route.method, route.path, notImplemented)
	}

	routerCtx := &apphttp.RouterContext{
		Engine: engine,
		API:    api,
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Debug("registered module routes", "module", module.Name())
	}

	if app.Assets != nil {
		engine.NoRoute(app.Assets)
	} else {
		engine.NoRoute(func(c *gin.Context) {
			httpkit.Error(c, http.StatusNotFound, "not found", nil)
		})
	}

	return engine
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "ts": time.Now().UnixMilli()})
}

func ready(checker apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "database unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

var errNotImplemented = apperr.NotImplemented("Not implemented yet")

func notImplemented(c *gin.Context) {
	c.JSON(errNotImplemented.HTTPStatus(), gin.H{"success": false, "message": errNotImplemented.Message})
}
