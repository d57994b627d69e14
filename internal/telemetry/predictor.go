package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonesrussell/engagement-advisor/internal/model"
)

// InstrumentedPredictor records metrics and a span around every prediction.
type InstrumentedPredictor struct {
	next     model.Predictor
	provider *Provider
}

// InstrumentPredictor wraps next.
func InstrumentPredictor(next model.Predictor, provider *Provider) *InstrumentedPredictor {
	return &InstrumentedPredictor{next: next, provider: provider}
}

// Predict delegates to the wrapped predictor.
func (ip *InstrumentedPredictor) Predict(ctx context.Context, features []float64) (float64, error) {
	info := ip.next.Info()
	ctx, span := ip.provider.StartSpan(ctx, "model.predict",
		attribute.String("model.kind", info.Kind),
		attribute.String("model.version", info.Version),
		attribute.Int("model.features", len(features)),
	)
	defer span.End()

	start := time.Now()
	score, err := ip.next.Predict(ctx, features)
	ip.provider.RecordPrediction(info.Kind, score, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Float64("model.score", score))
	return score, nil
}

// Info delegates to the wrapped predictor.
func (ip *InstrumentedPredictor) Info() model.Info {
	return ip.next.Info()
}
