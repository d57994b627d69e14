package model

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/engagement-advisor/infrastructure/circuitbreaker"
	"github.com/jonesrussell/engagement-advisor/infrastructure/retry"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

// Config selects and locates the model.
type Config struct {
	Kind string
	// Path is an explicit artifact path. When empty, Candidates are probed.
	Path       string
	Candidates []string
	URL        string
	Timeout    time.Duration
	Retry      retry.Config
	Breaker    circuitbreaker.Config
}

// Load builds the configured predictor once and checks that it expects the
// columns of s. Any error is fatal for the service.
func Load(ctx context.Context, cfg Config, s *schema.Schema) (Predictor, error) {
	var (
		p   Predictor
		err error
	)

	switch cfg.Kind {
	case KindXGBoostJSON, "":
		p, err = loadXGBoost(cfg)
	case KindRemote:
		p, err = NewRemote(ctx, RemoteConfig{
			URL:     cfg.URL,
			Timeout: cfg.Timeout,
			Retry:   cfg.Retry,
			Breaker: cfg.Breaker,
		}, s)
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrUnsupportedModel, cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := VerifySchema(p.Info(), s); err != nil {
		return nil, err
	}
	return p, nil
}

func loadXGBoost(cfg Config) (*XGBoost, error) {
	path := cfg.Path
	if path == "" {
		candidates := cfg.Candidates
		if len(candidates) == 0 {
			candidates = DefaultCandidates
		}
		located, err := Locate(candidates)
		if err != nil {
			return nil, err
		}
		path = located
	}
	return LoadXGBoostFile(path)
}

// VerifySchema compares a model's declared features with s. Models that
// declare names are checked by name and order, others by count. A model that
// declares nothing is accepted.
func VerifySchema(info Info, s *schema.Schema) error {
	switch {
	case len(info.FeatureNames) > 0:
		return s.Verify(info.FeatureNames)
	case info.NumFeatures > 0:
		return s.VerifyCount(info.NumFeatures)
	default:
		return nil
	}
}
