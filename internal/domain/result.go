package domain

import "time"

// Prediction is the typed result of the first pipeline step. The advice step
// takes it as input.
type Prediction struct {
	ID            string    `json:"id"`
	Score         float64   `json:"score"`
	Input         PostInput `json:"input"`
	ModelVersion  string    `json:"model_version,omitempty"`
	SchemaVersion string    `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	Display       Display   `json:"display"`
}

// Display is how a score is rendered: a percentage, a gauge in [0,1] and a tier label.
type Display struct {
	Percent string  `json:"percent"`
	Gauge   float64 `json:"gauge"`
	Tier    string  `json:"tier"`
}

// AdviceStatus reports how an advice request ended.
type AdviceStatus string

const (
	AdviceOK                 AdviceStatus = "ok"
	AdviceCredentialRequired AdviceStatus = "credential_required"
	AdviceError              AdviceStatus = "error"
	AdviceDisabled           AdviceStatus = "disabled"
)

// Advice is the outcome of the advisory step. Failures are reported through
// Status and Message, never as an error.
type Advice struct {
	Status  AdviceStatus `json:"status"`
	Text    string       `json:"text,omitempty"`
	Message string       `json:"message,omitempty"`
	Model   string       `json:"model,omitempty"`
	Cached  bool         `json:"cached,omitempty"`
}

// OK reports whether Text holds generated advice.
func (a Advice) OK() bool {
	return a.Status == AdviceOK
}

// Analysis combines both pipeline steps.
type Analysis struct {
	Prediction Prediction `json:"prediction"`
	Advice     Advice     `json:"advice"`
}
