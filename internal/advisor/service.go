package advisor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/telemetry"
)

// Messages shown when advice is unavailable.
const (
	MessageCredentialRequired = "Enter an API key to unlock the strategy report."
	MessageDisabled           = "Strategy reports are disabled on this server."
)

// Config configures the advice service.
type Config struct {
	Enabled bool
	// DefaultAPIKey is used when a request brings no credential. Empty means
	// every request must bring its own.
	DefaultAPIKey string
	// RequestsPerSecond and Burst bound outbound calls. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Service requests advice for predictions.
type Service struct {
	gen       Generator
	cfg       Config
	cache     Cache
	limiter   *rate.Limiter
	log       logger.Logger
	telemetry *telemetry.Provider
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables response caching.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithTelemetry records advice metrics and spans.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(s *Service) { s.telemetry = p }
}

// NewService creates a Service around gen.
func NewService(gen Generator, cfg Config, opts ...Option) *Service {
	s := &Service{gen: gen, cfg: cfg, log: logger.NewNop()}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Advise returns advice for p. It never fails: problems are reported in the
// returned Advice, and no outbound call is made without a credential.
func (s *Service) Advise(ctx context.Context, credential string, p domain.Prediction) domain.Advice {
	start := time.Now()
	ctx, span := s.telemetry.StartSpan(ctx, "advisor.advise", attribute.String("prediction.id", p.ID))
	defer span.End()

	advice := s.advise(ctx, credential, p)

	span.SetAttributes(attribute.String("advice.status", string(advice.Status)), attribute.Bool("advice.cached", advice.Cached))
	s.telemetry.RecordAdvice(string(advice.Status), time.Since(start))
	return advice
}

func (s *Service) advise(ctx context.Context, credential string, p domain.Prediction) domain.Advice {
	if !s.cfg.Enabled || s.gen == nil {
		return domain.Advice{Status: domain.AdviceDisabled, Message: MessageDisabled}
	}

	key := credential
	if key == "" {
		key = s.cfg.DefaultAPIKey
	}
	if key == "" {
		return domain.Advice{Status: domain.AdviceCredentialRequired, Message: MessageCredentialRequired}
	}

	log := logger.FromContextOr(ctx, s.log)
	model := s.gen.Model()

	prompt, err := BuildPrompt(p)
	if err != nil {
		return failed(model, err)
	}

	cacheKey := CacheKey(model, key, prompt)
	if text, ok := s.cached(ctx, cacheKey); ok {
		return domain.Advice{Status: domain.AdviceOK, Text: text, Model: model, Cached: true}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			log.Warn("Advice rate limiter wait failed", logger.Error(err))
			return failed(model, err)
		}
	}

	text, err := s.gen.Generate(ctx, key, systemPrompt, prompt)
	if err != nil {
		log.Warn("Advice request failed",
			logger.String("prediction_id", p.ID),
			logger.String("model", model),
			logger.Error(err),
		)
		return failed(model, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, text); err != nil {
			log.Warn("Advice cache write failed", logger.Error(err))
		}
	}

	return domain.Advice{Status: domain.AdviceOK, Text: text, Model: model}
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	text, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.telemetry.RecordAdviceCache("error")
		logger.FromContextOr(ctx, s.log).Warn("Advice cache read failed", logger.Error(err))
		return "", false
	case ok:
		s.telemetry.RecordAdviceCache("hit")
		return text, true
	default:
		s.telemetry.RecordAdviceCache("miss")
		return "", false
	}
}

func failed(model string, err error) domain.Advice {
	return domain.Advice{
		Status:  domain.AdviceError,
		Message: "Strategy report unavailable: " + err.Error(),
		Model:   model,
	}
}
