// Package web serves the HTML dashboard.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/jonesrussell/engagement-advisor/infrastructure/logger"
	"github.com/jonesrussell/engagement-advisor/internal/analysis"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/encoder"
)

//go:embed templates/*.html
var templateFS embed.FS

// Selector display order. Values missing from the schema are skipped and
// schema values not listed here are appended.
var (
	mediaTypeOrder     = []string{"Reel", "Carousel", "Photo", "Video"}
	trafficSourceOrder = []string{"Reels Feed", "Explore", "Home Feed", "Hashtags", "Profile", "External"}
	categoryOrder      = []string{
		"Fashion", "Lifestyle", "Fitness", "Food", "Travel",
		"Technology", "Beauty", "Comedy", "Music", "Photography",
	}
)

type numericField struct {
	Name  string
	Label string
	Type  string
	Max   int
	Value string
}

type pageData struct {
	Form           domain.PostInput
	MediaTypes     []string
	TrafficSources []string
	Categories     []string
	NumericFields  []numericField

	ModelSource   string
	ModelKind     string
	ModelVersion  string
	SchemaVersion string

	FieldErrors     map[string]string
	PredictionError string
	Prediction      *domain.Prediction
	GaugeWidth      int
	Advice          *domain.Advice
}

// Handler renders the dashboard.
type Handler struct {
	pipeline *analysis.Pipeline
	log      logger.Logger
	tmpl     *template.Template
}

// NewHandler parses the embedded templates.
func NewHandler(pipeline *analysis.Pipeline, log logger.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{pipeline: pipeline, log: log, tmpl: tmpl}, nil
}

// SetupRoutes registers GET / and POST /.
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/", h.Index)
	router.POST("/", h.Submit)
}

// Index renders the form with default values.
func (h *Handler) Index(c *gin.Context) {
	h.render(c, h.page(domain.DefaultPostInput()))
}

// Submit predicts, requests advice and renders both panels. Failures are
// shown inline in their panel.
func (h *Handler) Submit(c *gin.Context) {
	var in domain.PostInput
	if err := c.ShouldBind(&in); err != nil {
		page := h.page(domain.DefaultPostInput())
		page.PredictionError = "Could not read the form: " + err.Error()
		h.render(c, page)
		return
	}

	page := h.page(in)
	pred, err := h.pipeline.Predict(c.Request.Context(), in)
	if err != nil {
		var verr *encoder.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				page.FieldErrors[f.Field] = f.Field + " " + f.Message
			}
			page.PredictionError = "Please fix the highlighted fields."
		} else {
			logger.FromContextOr(c.Request.Context(), h.log).Error("Dashboard prediction failed", logger.Error(err))
			page.PredictionError = "Prediction failed: " + err.Error()
		}
		h.render(c, page)
		return
	}

	page.Prediction = &pred
	page.GaugeWidth = int(math.Round(pred.Display.Gauge * 100))

	credential := c.PostForm("api_key")
	if credential == "" {
		credential = c.GetHeader("X-API-Key")
	}
	advice := h.pipeline.Advise(c.Request.Context(), credential, pred)
	page.Advice = &advice

	h.render(c, page)
}

func (h *Handler) render(c *gin.Context, page pageData) {
	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "index.html", Data: page})
}

func (h *Handler) page(in domain.PostInput) pageData {
	s := h.pipeline.Encoder().Schema()
	info := h.pipeline.ModelInfo()

	values := func(dim string, order []string) []string {
		schemaValues, _ := s.Values(dim)
		return displayOrder(order, schemaValues)
	}

	return pageData{
		Form:           in,
		MediaTypes:     values(domain.DimensionMediaType, mediaTypeOrder),
		TrafficSources: values(domain.DimensionTrafficSource, trafficSourceOrder),
		Categories:     values(domain.DimensionContentCategory, categoryOrder),
		NumericFields:  numericFields(in),
		ModelSource:    info.Source(),
		ModelKind:      info.Kind,
		ModelVersion:   info.Version,
		SchemaVersion:  s.Version(),
		FieldErrors:    map[string]string{},
	}
}

func displayOrder(preferred, available []string) []string {
	out := make([]string, 0, len(available))
	for _, v := range preferred {
		if slices.Contains(available, v) {
			out = append(out, v)
		}
	}
	for _, v := range available {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func numericFields(in domain.PostInput) []numericField {
	field := func(name, label string, value float64) numericField {
		return numericField{Name: name, Label: label, Type: "number", Value: formatNumber(value)}
	}
	bounded := func(name, label string, value float64, limit int) numericField {
		return numericField{Name: name, Label: label, Type: "range", Max: limit, Value: formatNumber(value)}
	}

	return []numericField{
		field(domain.ColumnLikes, "Likes", in.Likes),
		field(domain.ColumnComments, "Comments", in.Comments),
		field(domain.ColumnShares, "Shares", in.Shares),
		field(domain.ColumnSaves, "Saves", in.Saves),
		field(domain.ColumnReach, "Reach", in.Reach),
		field(domain.ColumnImpressions, "Impressions", in.Impressions),
		field(domain.ColumnFollowersGained, "Followers gained", in.FollowersGained),
		bounded(domain.ColumnCaptionLength, "Caption length", in.CaptionLength, domain.MaxCaptionLength),
		bounded(domain.ColumnHashtagsCount, "Hashtags", in.HashtagsCount, domain.MaxHashtagsCount),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
