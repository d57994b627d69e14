// Package config defines the engagement service configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/engagement-advisor/infrastructure/config"
	"github.com/jonesrussell/engagement-advisor/internal/advisor"
	"github.com/jonesrussell/engagement-advisor/internal/model"
)

// Default configuration values.
const (
	defaultServiceName       = "engagement"
	defaultServiceVersion    = "1.0.0"
	defaultServicePort       = 8090
	defaultModelTimeout      = 5 * time.Second
	defaultRetryAttempts     = 3
	defaultBreakerThreshold  = 5
	defaultBreakerTimeout    = 30 * time.Second
	defaultAdvisorTimeout    = 60 * time.Second
	defaultAdvisorRPS        = 1.0
	defaultAdvisorBurst      = 3
	defaultAdviceCacheTTL    = 24 * time.Hour
	defaultShutdownTimeout   = 30 * time.Second
	maxAdvisorTokensAccepted = 8192
)

// Config holds all configuration for the engagement service.
type Config struct {
	Service ServiceConfig             `yaml:"service"`
	Model   ModelConfig               `yaml:"model"`
	Advisor AdvisorConfig             `yaml:"advisor"`
	Redis   infraconfig.RedisConfig   `yaml:"redis"`
	Logging infraconfig.LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"ENGAGEMENT_PORT" yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"       yaml:"debug"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"    yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ModelConfig selects the predictor and the feature schema.
type ModelConfig struct {
	// Kind is "xgboost-json" (default) or "remote".
	Kind string `env:"MODEL_KIND" yaml:"kind"`
	// Path is an explicit artifact path. When empty, Candidates are probed.
	Path       string   `env:"MODEL_PATH" yaml:"path"`
	Candidates []string `yaml:"candidates"`
	// URL is the sidecar base URL for the remote kind.
	URL        string        `env:"MODEL_URL"         yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	SchemaPath string        `env:"MODEL_SCHEMA_PATH" yaml:"schema_path"`
	Retry      RetryConfig   `yaml:"retry"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// RetryConfig configures retries against the model sidecar.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// BreakerConfig configures the circuit breaker in front of the model sidecar.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// AdvisorConfig configures strategy advice.
type AdvisorConfig struct {
	Disabled bool `env:"ADVISOR_DISABLED" yaml:"disabled"`
	// APIKey is a server-side fallback used only when a request brings none.
	APIKey            string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model             string        `env:"ADVISOR_MODEL"     yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	BaseURL           string        `env:"ADVISOR_BASE_URL"  yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a config built from defaults alone.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setModelDefaults(&cfg.Model)
	setAdvisorDefaults(&cfg.Advisor)
	cfg.Redis.SetDefaults()
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setModelDefaults(m *ModelConfig) {
	if m.Kind == "" {
		m.Kind = model.KindXGBoostJSON
	}
	if len(m.Candidates) == 0 {
		m.Candidates = append([]string(nil), model.DefaultCandidates...)
	}
	if m.Timeout == 0 {
		m.Timeout = defaultModelTimeout
	}
	if m.Retry.MaxAttempts == 0 {
		m.Retry.MaxAttempts = defaultRetryAttempts
	}
	if m.Breaker.FailureThreshold == 0 {
		m.Breaker.FailureThreshold = defaultBreakerThreshold
	}
	if m.Breaker.Timeout == 0 {
		m.Breaker.Timeout = defaultBreakerTimeout
	}
}

func setAdvisorDefaults(a *AdvisorConfig) {
	if a.Model == "" {
		a.Model = advisor.DefaultModel
	}
	if a.MaxTokens == 0 {
		a.MaxTokens = advisor.DefaultMaxTokens
	}
	if a.Timeout == 0 {
		a.Timeout = defaultAdvisorTimeout
	}
	if a.RequestsPerSecond == 0 {
		a.RequestsPerSecond = defaultAdvisorRPS
	}
	if a.Burst == 0 {
		a.Burst = defaultAdvisorBurst
	}
	if a.CacheTTL == 0 {
		a.CacheTTL = defaultAdviceCacheTTL
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error

	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		errs = append(errs, err)
	}
	switch c.Model.Kind {
	case model.KindXGBoostJSON:
	case model.KindRemote:
		if err := infraconfig.ValidateRequired("model.url", c.Model.URL); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, &infraconfig.ValidationError{
			Field:   "model.kind",
			Message: fmt.Sprintf("must be %q or %q", model.KindXGBoostJSON, model.KindRemote),
		})
	}
	if c.Advisor.MaxTokens < 1 || c.Advisor.MaxTokens > maxAdvisorTokensAccepted {
		errs = append(errs, &infraconfig.ValidationError{
			Field:   "advisor.max_tokens",
			Message: fmt.Sprintf("must be between 1 and %d", maxAdvisorTokensAccepted),
		})
	}
	if c.Redis.Enabled {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
