package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/internal/bootstrap"
	"github.com/jonesrussell/engagement-advisor/internal/config"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/model"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

// writeModel saves a one-tree model splitting on likes < 500.
func writeModel(t *testing.T, names []string) string {
	t.Helper()

	doc := map[string]any{
		"version": []int{2, 1, 4},
		"learner": map[string]any{
			"feature_names": names,
			"learner_model_param": map[string]any{
				"base_score":  "0",
				"num_class":   "0",
				"num_feature": strconv.Itoa(len(names)),
				"num_target":  "1",
			},
			"objective": map[string]any{"name": "reg:squarederror"},
			"gradient_booster": map[string]any{
				"name": "gbtree",
				"model": map[string]any{"trees": []map[string]any{{
					"left_children":    []int{1, -1, -1},
					"right_children":   []int{2, -1, -1},
					"split_indices":    []int{0, 0, 0},
					"split_conditions": []float32{500, 0.03, 0.08},
					"default_left":     []int{1, 0, 0},
					"split_type":       []int{0, 0, 0},
				}}},
			},
		},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "XGB-Model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testConfig(modelPath string) *config.Config {
	cfg := config.Default()
	cfg.Model.Path = modelPath
	return cfg
}

func TestNewComponents_ServesEveryRoute(t *testing.T) {
	cfg := testConfig(writeModel(t, schema.Default().Columns()))

	c, err := bootstrap.NewComponents(context.Background(), cfg, infralogger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, model.KindXGBoostJSON, c.Predictor.Info().Kind)
	assert.Equal(t, cfg.Model.Path, c.Predictor.Info().Path)
	assert.Nil(t, c.Redis)

	server, err := bootstrap.NewServer(c)
	require.NoError(t, err)
	router := server.Router()

	body, err := json.Marshal(domain.DefaultPostInput())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predictions", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"percent":"8.00%"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	health := get("/health")
	require.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), "healthy")

	assert.Equal(t, http.StatusOK, get("/ready").Code)

	dashboard := get("/")
	require.Equal(t, http.StatusOK, dashboard.Code)
	assert.Contains(t, dashboard.Body.String(), "Model loaded: "+cfg.Model.Path)

	metrics := get("/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "engagement_predictions_total")
	assert.Contains(t, metrics.Body.String(), "engagement_model_info")
	assert.Contains(t, metrics.Body.String(), "engagement_http_requests_total")
}

func TestNewComponents_ModelNotFound(t *testing.T) {
	cfg := testConfig("")
	cfg.Model.Candidates = []string{filepath.Join(t.TempDir(), "missing.json")}

	_, err := bootstrap.NewComponents(context.Background(), cfg, infralogger.NewNop())
	require.ErrorIs(t, err, model.ErrModelNotFound)
}

func TestNewComponents_SchemaMismatch(t *testing.T) {
	cfg := testConfig(writeModel(t, []string{"likes", "comments"}))

	_, err := bootstrap.NewComponents(context.Background(), cfg, infralogger.NewNop())
	require.ErrorIs(t, err, schema.ErrSchemaMismatch)
}

func TestCreateLogger(t *testing.T) {
	log, err := bootstrap.CreateLogger(config.Default())
	require.NoError(t, err)
	require.NotNil(t, log)
}
