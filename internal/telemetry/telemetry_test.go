package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/engagement-advisor/internal/model"
	"github.com/jonesrussell/engagement-advisor/internal/telemetry"
)

type stubPredictor struct {
	score float64
	err   error
}

func (s stubPredictor) Predict(context.Context, []float64) (float64, error) { return s.score, s.err }
func (s stubPredictor) Info() model.Info {
	return model.Info{Kind: model.KindXGBoostJSON, Version: "test", NumFeatures: 29}
}

func TestNewProvider_IndependentRegistries(t *testing.T) {
	t.Parallel()

	a := telemetry.NewProvider()
	b := telemetry.NewProvider()

	a.RecordAdvice("ok", time.Second)

	assert.InDelta(t, 1.0, testutil.ToFloat64(a.Metrics.Advice.WithLabelValues("ok")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.Metrics.Advice.WithLabelValues("ok")), 0)
}

func TestInstrumentPredictor(t *testing.T) {
	t.Parallel()

	p := telemetry.NewProvider()
	ok := telemetry.InstrumentPredictor(stubPredictor{score: 0.07}, p)
	failing := telemetry.InstrumentPredictor(stubPredictor{err: errors.New("shape")}, p)

	score, err := ok.Predict(context.Background(), make([]float64, 29))
	require.NoError(t, err)
	assert.InDelta(t, 0.07, score, 0)

	_, err = failing.Predict(context.Background(), nil)
	require.Error(t, err)

	assert.InDelta(t, 1.0, testutil.ToFloat64(p.Metrics.Predictions.WithLabelValues(model.KindXGBoostJSON, "ok")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(p.Metrics.Predictions.WithLabelValues(model.KindXGBoostJSON, "error")), 0)
	assert.Equal(t, 29, ok.Info().NumFeatures)
}

func TestNilProviderIsSafe(t *testing.T) {
	t.Parallel()

	var p *telemetry.Provider
	assert.NotPanics(t, func() {
		p.RecordPrediction("remote", 0.1, nil, time.Millisecond)
		p.RecordValidationFailure("remote", []string{"likes"})
		p.RecordAdvice("error", time.Millisecond)
		p.RecordAdviceCache("miss")
		p.SetModelInfo("remote", "v", "v1")
		_, span := p.StartSpan(context.Background(), "noop")
		span.End()
	})
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)
	p := telemetry.NewProvider()
	p.SetModelInfo(model.KindXGBoostJSON, "xgboost-2.1.4-abc", "v1")

	router := gin.New()
	router.Use(p.GinMiddleware())
	router.GET("/api/v1/schema", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(p.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/schema", http.NoBody))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))

	assert.InDelta(t, 1.0, testutil.ToFloat64(p.Metrics.HTTPRequests.WithLabelValues("GET", "/api/v1/schema", "200")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(p.Metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")), 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `engagement_model_info{kind="xgboost-json",schema_version="v1",version="xgboost-2.1.4-abc"} 1`)
}
