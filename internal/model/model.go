// Package model loads the engagement regressor and runs inference.
//
// Two kinds of predictor are supported: an XGBoost model saved in JSON
// format, evaluated in-process, and a remote ML sidecar reached over HTTP for
// any other artifact format.
package model

import (
	"context"
	"errors"
)

// Kinds of predictor.
const (
	KindXGBoostJSON = "xgboost-json"
	KindRemote      = "remote"
)

var (
	// ErrModelNotFound means none of the candidate artifact paths exist.
	ErrModelNotFound = errors.New("model artifact not found")
	// ErrShapeMismatch means a feature vector has the wrong length.
	ErrShapeMismatch = errors.New("feature vector shape mismatch")
	// ErrUnsupportedModel means the artifact uses a feature this evaluator lacks.
	ErrUnsupportedModel = errors.New("unsupported model")
	// ErrUnavailable means the remote model service cannot be reached.
	ErrUnavailable = errors.New("model service unavailable")
)

// Predictor scores one encoded feature vector. Implementations are read-only
// after construction and safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
	Info() Info
}

// Info describes a loaded model.
type Info struct {
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
	Version string `json:"version,omitempty"`
	// Objective is the training objective, when the artifact records one.
	Objective    string   `json:"objective,omitempty"`
	FeatureNames []string `json:"feature_names,omitempty"`
	NumFeatures  int      `json:"num_features"`
	NumTrees     int      `json:"num_trees,omitempty"`
}

// Source returns where the model was loaded from.
func (i Info) Source() string {
	if i.Path != "" {
		return i.Path
	}
	return i.URL
}
