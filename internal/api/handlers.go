// Package api serves the JSON API for predictions and advice.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/internal/analysis"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/encoder"
)

// CredentialHeader carries the caller's advisor API key.
const CredentialHeader = "X-API-Key"

const maxBodyBytes = 64 << 10

// Handler handles HTTP requests for the engagement API.
type Handler struct {
	pipeline *analysis.Pipeline
	log      logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(pipeline *analysis.Pipeline, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{pipeline: pipeline, log: log}
}

// Predict handles POST /api/v1/predictions.
func (h *Handler) Predict(c *gin.Context) {
	var in domain.PostInput
	if !h.bind(c, &in) {
		return
	}

	pred, err := h.pipeline.Predict(c.Request.Context(), in)
	if err != nil {
		h.predictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictionResponse{Prediction: pred})
}

// Advise handles POST /api/v1/advice. Advice failures are reported in the
// body with status 200.
func (h *Handler) Advise(c *gin.Context) {
	var req AdviceRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.pipeline.Validate(req.Prediction.Input); err != nil {
		h.predictionError(c, err)
		return
	}

	advice := h.pipeline.Advise(c.Request.Context(), credential(c), req.Prediction)
	c.JSON(http.StatusOK, AdviceResponse{Advice: advice})
}

// Analyze handles POST /api/v1/analyze: predict, then advise.
func (h *Handler) Analyze(c *gin.Context) {
	var in domain.PostInput
	if !h.bind(c, &in) {
		return
	}

	result, err := h.pipeline.Analyze(c.Request.Context(), credential(c), in)
	if err != nil {
		h.predictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Schema handles GET /api/v1/schema.
func (h *Handler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, newSchemaResponse(h.pipeline.Encoder().Schema()))
}

// Model handles GET /api/v1/model.
func (h *Handler) Model(c *gin.Context) {
	info := h.pipeline.ModelInfo()
	c.JSON(http.StatusOK, ModelResponse{
		Info:          info,
		Source:        info.Source(),
		SchemaVersion: h.pipeline.Encoder().Schema().Version(),
	})
}

// ReadyCheck handles GET /ready. The model is loaded before the server
// starts, so a running handler is ready.
func (h *Handler) ReadyCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"model":  h.pipeline.ModelInfo().Source(),
	})
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		h.requestLogger(c).Warn("Invalid request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: CodeInvalidRequest})
		return false
	}
	return true
}

func (h *Handler) predictionError(c *gin.Context, err error) {
	var verr *encoder.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "invalid post input",
			Code:   CodeValidationFailed,
			Fields: verr.Fields,
		})
		return
	}

	h.requestLogger(c).Error("Prediction request failed", logger.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodePredictionFailed})
}

func (h *Handler) requestLogger(c *gin.Context) logger.Logger {
	return logger.FromContextOr(c.Request.Context(), h.log)
}

func credential(c *gin.Context) string {
	return c.GetHeader(CredentialHeader)
}
