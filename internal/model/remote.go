package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jonesrussell/engagement-advisor/infrastructure/circuitbreaker"
	infraerrors "github.com/jonesrussell/engagement-advisor/infrastructure/errors"
	infrahttp "github.com/jonesrussell/engagement-advisor/infrastructure/http"
	"github.com/jonesrussell/engagement-advisor/infrastructure/retry"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

const defaultRemoteTimeout = 5 * time.Second

// RemoteConfig configures a sidecar-backed predictor.
type RemoteConfig struct {
	URL     string
	Timeout time.Duration
	Retry   retry.Config
	Breaker circuitbreaker.Config
}

// predictRequest is the body of POST /predict. Features are sent both by name
// and in column order so the sidecar can build a named frame.
type predictRequest struct {
	Columns  []string           `json:"columns"`
	Features map[string]float64 `json:"features"`
	Vector   []float64          `json:"vector"`
}

type predictResponse struct {
	Prediction   *float64 `json:"prediction"`
	ModelVersion string   `json:"model_version"`
}

// HealthStatus is the body of the sidecar's GET /health.
type HealthStatus struct {
	Status       string   `json:"status"`
	ModelVersion string   `json:"model_version"`
	FeatureNames []string `json:"feature_names"`
	NumFeatures  int      `json:"num_features"`
}

// Remote calls an ML sidecar that hosts the model.
type Remote struct {
	baseURL string
	schema  *schema.Schema
	columns []string
	client  *http.Client
	retry   retry.Config
	breaker *circuitbreaker.Breaker
	info    Info
}

// NewRemote checks the sidecar's health and returns a predictor that sends
// vectors labelled with the columns of s.
func NewRemote(ctx context.Context, cfg RemoteConfig, s *schema.Schema) (*Remote, error) {
	if cfg.URL == "" {
		return nil, errors.New("remote model url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRemoteTimeout
	}
	if cfg.Breaker.IsFailure == nil {
		cfg.Breaker.IsFailure = countsAgainstSidecar
	}

	r := &Remote{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		schema:  s,
		columns: s.Columns(),
		client:  infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Timeout}),
		retry:   cfg.Retry,
		breaker: circuitbreaker.New(cfg.Breaker),
	}

	health, err := r.Health(ctx)
	if err != nil {
		return nil, err
	}

	numFeatures := health.NumFeatures
	if numFeatures == 0 {
		numFeatures = len(health.FeatureNames)
	}
	r.info = Info{
		Kind:         KindRemote,
		URL:          r.baseURL,
		Version:      health.ModelVersion,
		FeatureNames: health.FeatureNames,
		NumFeatures:  numFeatures,
	}
	return r, nil
}

// countsAgainstSidecar ignores caller mistakes (4xx) and cancellations.
func countsAgainstSidecar(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if code, ok := infraerrors.GetHTTPStatusCode(err); ok && code < http.StatusInternalServerError {
		return false
	}
	return true
}

// Predict posts features to the sidecar.
func (r *Remote) Predict(ctx context.Context, features []float64) (float64, error) {
	if len(features) != len(r.columns) {
		return 0, fmt.Errorf("%w: got %d features, schema has %d columns", ErrShapeMismatch, len(features), len(r.columns))
	}

	body, err := json.Marshal(predictRequest{Columns: r.columns, Features: r.schema.Named(features), Vector: features})
	if err != nil {
		return 0, fmt.Errorf("marshal predict request: %w", err)
	}

	var out predictResponse
	err = r.breaker.Execute(ctx, func() error {
		return retry.Retry(ctx, r.retry, func() error {
			return r.post(ctx, "/predict", body, &out)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return 0, fmt.Errorf("remote predict: %w", err)
	}
	if out.Prediction == nil {
		return 0, errors.New("remote predict: response has no prediction")
	}
	return *out.Prediction, nil
}

// Health calls GET /health on the sidecar.
func (r *Remote) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("create health request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return HealthStatus{}, fmt.Errorf("%w: %w", ErrUnavailable, httpErr)
	}

	var health HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return HealthStatus{}, fmt.Errorf("decode health response: %w", err)
	}
	return health, nil
}

// Info describes the remote model as reported at startup.
func (r *Remote) Info() Info {
	return r.info
}

func (r *Remote) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return httpErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
