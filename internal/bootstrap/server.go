package bootstrap

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	infractx "github.com/jonesrussell/engagement-advisor/infrastructure/context"
	infragin "github.com/jonesrussell/engagement-advisor/infrastructure/gin"
	"github.com/jonesrussell/engagement-advisor/internal/api"
	"github.com/jonesrussell/engagement-advisor/internal/model"
	"github.com/jonesrussell/engagement-advisor/internal/web"
)

const (
	httpReadTimeout  = 15 * time.Second
	httpWriteTimeout = 90 * time.Second
)

// NewServer builds the HTTP server: JSON API, dashboard, metrics and health.
func NewServer(c *Components) (*infragin.Server, error) {
	dashboard, err := web.NewHandler(c.Pipeline, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("create dashboard: %w", err)
	}
	handler := api.NewHandler(c.Pipeline, c.Logger)

	cfg := c.Config.Service
	builder := infragin.NewServerBuilder(cfg.Name, cfg.Port).
		WithLogger(c.Logger).
		WithDebug(cfg.Debug).
		WithVersion(cfg.Version).
		WithCORSOrigins(cfg.CORSOrigins).
		// Advice generation can take tens of seconds.
		WithTimeouts(httpReadTimeout, httpWriteTimeout, 0).
		WithShutdownTimeout(cfg.ShutdownTimeout).
		WithHealthCheck("model", modelHealthCheck(c.Predictor)).
		WithRoutes(func(router *gin.Engine) {
			router.Use(c.Telemetry.GinMiddleware())
			api.SetupRoutes(router, handler, c.Telemetry.Handler())
			web.SetupRoutes(router, dashboard)
		})

	if c.Redis != nil {
		client := c.Redis
		builder = builder.WithRedisHealthCheck(func() error {
			ctx, cancel := infractx.WithProbeTimeout()
			defer cancel()
			return client.Ping(ctx).Err()
		})
	}

	return builder.Build(), nil
}

// modelHealthCheck reports the model unhealthy when a remote sidecar stops
// answering. In-process models are always healthy once loaded.
func modelHealthCheck(p model.Predictor) infragin.HealthChecker {
	remote, ok := p.(*model.Remote)
	if !ok {
		return infragin.CriticalHealthChecker("model", func() error { return nil })
	}
	return infragin.CriticalHealthChecker("model", func() error {
		ctx, cancel := infractx.WithProbeTimeout()
		defer cancel()
		_, err := remote.Health(ctx)
		return err
	})
}
