package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/engagement-advisor/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	infraredis "github.com/jonesrussell/engagement-advisor/infrastructure/redis"
	"github.com/jonesrussell/engagement-advisor/infrastructure/retry"
	"github.com/jonesrussell/engagement-advisor/internal/advisor"
	"github.com/jonesrussell/engagement-advisor/internal/analysis"
	"github.com/jonesrussell/engagement-advisor/internal/config"
	"github.com/jonesrussell/engagement-advisor/internal/encoder"
	"github.com/jonesrussell/engagement-advisor/internal/model"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
	"github.com/jonesrussell/engagement-advisor/internal/telemetry"
)

// Components holds everything built from configuration. The predictor is
// loaded once here and shared by every transport.
type Components struct {
	Config    *config.Config
	Logger    infralogger.Logger
	Schema    *schema.Schema
	Predictor model.Predictor
	Pipeline  *analysis.Pipeline
	Telemetry *telemetry.Provider
	Redis     *redis.Client
}

// NewComponents loads the schema and model and builds the pipeline. Any
// model error is returned; callers treat it as fatal.
func NewComponents(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*Components, error) {
	s, err := schema.Resolve(cfg.Model.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load feature schema: %w", err)
	}

	provider := telemetry.NewProvider()

	predictor, err := model.Load(ctx, modelConfig(cfg.Model, log), s)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	info := predictor.Info()
	log.Info("Model loaded",
		infralogger.String("kind", info.Kind),
		infralogger.String("source", info.Source()),
		infralogger.String("version", info.Version),
		infralogger.String("schema_version", s.Version()),
		infralogger.Int("features", s.Len()),
	)
	provider.SetModelInfo(info.Kind, info.Version, s.Version())

	c := &Components{
		Config:    cfg,
		Logger:    log,
		Schema:    s,
		Predictor: predictor,
		Telemetry: provider,
	}

	if cfg.Redis.Enabled {
		client, redisErr := infraredis.NewClient(ctx, infraredis.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if redisErr != nil {
			log.Warn("Redis unavailable, advice caching disabled", infralogger.Error(redisErr))
		} else {
			c.Redis = client
		}
	}

	c.Pipeline = analysis.New(
		encoder.New(s),
		telemetry.InstrumentPredictor(predictor, provider),
		newAdvisor(cfg.Advisor, c.Redis, provider, log),
		analysis.WithLogger(log),
		analysis.WithTelemetry(provider),
	)
	return c, nil
}

// Close releases external connections.
func (c *Components) Close() error {
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func modelConfig(m config.ModelConfig, log infralogger.Logger) model.Config {
	retryCfg := retry.DefaultConfig()
	if m.Retry.MaxAttempts > 0 {
		retryCfg.MaxAttempts = m.Retry.MaxAttempts
	}
	if m.Retry.InitialDelay > 0 {
		retryCfg.InitialDelay = m.Retry.InitialDelay
	}
	if m.Retry.MaxDelay > 0 {
		retryCfg.MaxDelay = m.Retry.MaxDelay
	}

	breakerCfg := circuitbreaker.DefaultConfig()
	if m.Breaker.FailureThreshold > 0 {
		breakerCfg.FailureThreshold = m.Breaker.FailureThreshold
	}
	if m.Breaker.SuccessThreshold > 0 {
		breakerCfg.SuccessThreshold = m.Breaker.SuccessThreshold
	}
	if m.Breaker.Timeout > 0 {
		breakerCfg.Timeout = m.Breaker.Timeout
	}
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		log.Warn("Model circuit breaker state changed",
			infralogger.String("from", from.String()),
			infralogger.String("to", to.String()),
		)
	}

	return model.Config{
		Kind:       m.Kind,
		Path:       m.Path,
		Candidates: m.Candidates,
		URL:        m.URL,
		Timeout:    m.Timeout,
		Retry:      retryCfg,
		Breaker:    breakerCfg,
	}
}

func newAdvisor(
	a config.AdvisorConfig, client *redis.Client, provider *telemetry.Provider, log infralogger.Logger,
) *advisor.Service {
	gen := advisor.NewAnthropicGenerator(advisor.AnthropicConfig{
		Model:     a.Model,
		MaxTokens: int64(a.MaxTokens),
		BaseURL:   a.BaseURL,
		Timeout:   a.Timeout,
	})

	opts := []advisor.Option{advisor.WithLogger(log), advisor.WithTelemetry(provider)}
	if client != nil {
		opts = append(opts, advisor.WithCache(advisor.NewRedisCache(client, a.CacheTTL)))
	}

	log.Info("Advisor configured",
		infralogger.Bool("enabled", !a.Disabled),
		infralogger.String("model", gen.Model()),
		infralogger.Bool("server_key", a.APIKey != ""),
		infralogger.Bool("cache", client != nil),
	)

	return advisor.NewService(gen, advisor.Config{
		Enabled:           !a.Disabled,
		DefaultAPIKey:     a.APIKey,
		RequestsPerSecond: a.RequestsPerSecond,
		Burst:             a.Burst,
		Timeout:           a.Timeout,
	}, opts...)
}
