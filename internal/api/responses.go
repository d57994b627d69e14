package api

import (
	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/encoder"
	"github.com/jonesrussell/engagement-advisor/internal/model"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodePredictionFailed = "PREDICTION_FAILED"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code"`
	Fields []encoder.FieldError `json:"fields,omitempty"`
}

// PredictionResponse is returned by POST /api/v1/predictions.
type PredictionResponse struct {
	Prediction domain.Prediction `json:"prediction"`
}

// AdviceRequest is the body of POST /api/v1/advice. The prediction is the one
// returned earlier by POST /api/v1/predictions.
type AdviceRequest struct {
	Prediction domain.Prediction `json:"prediction"`
}

// AdviceResponse is returned by POST /api/v1/advice.
type AdviceResponse struct {
	Advice domain.Advice `json:"advice"`
}

// SchemaResponse describes the feature layout.
type SchemaResponse struct {
	Version    string             `json:"version"`
	Columns    []string           `json:"columns"`
	Numeric    []string           `json:"numeric"`
	Dimensions []schema.Dimension `json:"dimensions"`
}

// ModelResponse describes the loaded model.
type ModelResponse struct {
	model.Info

	Source        string `json:"source"`
	SchemaVersion string `json:"schema_version"`
}

func newSchemaResponse(s *schema.Schema) SchemaResponse {
	return SchemaResponse{
		Version:    s.Version(),
		Columns:    s.Columns(),
		Numeric:    s.Numeric(),
		Dimensions: s.Dimensions(),
	}
}
