// Package analysis runs the two-step engagement pipeline: score a planned
// post, then ask for advice about the score.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/internal/advisor"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/encoder"
	"github.com/jonesrussell/engagement-advisor/internal/model"
	"github.com/jonesrussell/engagement-advisor/internal/presentation"
	"github.com/jonesrussell/engagement-advisor/internal/telemetry"
)

// ErrPredictionFailed wraps any predictor failure.
var ErrPredictionFailed = errors.New("prediction failed")

// Advisor produces advice for a prediction.
type Advisor interface {
	Advise(ctx context.Context, credential string, p domain.Prediction) domain.Advice
}

// Pipeline encodes inputs, scores them and requests advice.
type Pipeline struct {
	encoder   *encoder.Encoder
	predictor model.Predictor
	advisor   Advisor
	log       logger.Logger
	telemetry *telemetry.Provider
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithTelemetry records validation failures and spans.
func WithTelemetry(t *telemetry.Provider) Option {
	return func(p *Pipeline) { p.telemetry = t }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline. adv may be nil, in which case advice is reported as disabled.
func New(enc *encoder.Encoder, predictor model.Predictor, adv Advisor, opts ...Option) *Pipeline {
	p := &Pipeline{
		encoder:   enc,
		predictor: predictor,
		advisor:   adv,
		log:       logger.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Encoder returns the encoder the pipeline validates and encodes with.
func (p *Pipeline) Encoder() *encoder.Encoder {
	return p.encoder
}

// ModelInfo describes the loaded predictor.
func (p *Pipeline) ModelInfo() model.Info {
	return p.predictor.Info()
}

// Validate checks in against the schema and records any rejected fields.
func (p *Pipeline) Validate(in domain.PostInput) error {
	err := p.encoder.Validate(in)
	var verr *encoder.ValidationError
	if errors.As(err, &verr) {
		fields := make([]string, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = f.Field
		}
		p.telemetry.RecordValidationFailure(p.predictor.Info().Kind, fields)
	}
	return err
}

// Predict validates and encodes in, then scores it. A *encoder.ValidationError
// is returned unchanged; predictor failures wrap ErrPredictionFailed.
func (p *Pipeline) Predict(ctx context.Context, in domain.PostInput) (domain.Prediction, error) {
	ctx, span := p.telemetry.StartSpan(ctx, "analysis.predict")
	defer span.End()

	if err := p.Validate(in); err != nil {
		return domain.Prediction{}, err
	}

	vec := p.encoder.Encode(in)
	score, err := p.predictor.Predict(ctx, vec)
	if err != nil {
		logger.FromContextOr(ctx, p.log).Error("Prediction failed", logger.Error(err))
		return domain.Prediction{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	pred := domain.Prediction{
		ID:            uuid.NewString(),
		Score:         score,
		Input:         in,
		ModelVersion:  p.predictor.Info().Version,
		SchemaVersion: p.encoder.Schema().Version(),
		CreatedAt:     p.now().UTC(),
		Display:       presentation.Render(score),
	}
	span.SetAttributes(attribute.String("prediction.id", pred.ID), attribute.Float64("prediction.score", score))

	logger.FromContextOr(ctx, p.log).Debug("Prediction complete",
		logger.String("prediction_id", pred.ID),
		logger.Float64("score", score),
		logger.String("tier", pred.Display.Tier),
	)
	return pred, nil
}

// Advise requests advice for a prediction made earlier.
func (p *Pipeline) Advise(ctx context.Context, credential string, pred domain.Prediction) domain.Advice {
	if p.advisor == nil {
		return domain.Advice{Status: domain.AdviceDisabled, Message: advisor.MessageDisabled}
	}
	return p.advisor.Advise(ctx, credential, pred)
}

// Analyze runs both steps. The prediction is returned whenever it succeeds,
// whatever happens to the advice.
func (p *Pipeline) Analyze(ctx context.Context, credential string, in domain.PostInput) (domain.Analysis, error) {
	pred, err := p.Predict(ctx, in)
	if err != nil {
		return domain.Analysis{}, err
	}
	return domain.Analysis{Prediction: pred, Advice: p.Advise(ctx, credential, pred)}, nil
}
