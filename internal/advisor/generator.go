// Package advisor turns a prediction into written strategy advice from a
// hosted language model.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	infrahttp "github.com/jonesrussell/engagement-advisor/infrastructure/http"
)

// Generator produces text for a prompt using the caller's credential.
type Generator interface {
	Generate(ctx context.Context, credential, system, prompt string) (string, error)
	Model() string
}

// ErrEmptyResponse means the provider answered without any text.
var ErrEmptyResponse = errors.New("advisor returned no text")

// Anthropic defaults.
const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1024
)

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	Model     string
	MaxTokens int64
	// BaseURL overrides the API endpoint.
	BaseURL string
	Timeout time.Duration
}

// AnthropicGenerator calls the Anthropic Messages API. A client is built per
// call because the credential belongs to the request.
type AnthropicGenerator struct {
	cfg  AnthropicConfig
	opts []option.RequestOption
}

// NewAnthropicGenerator creates a generator. Zero config fields take defaults.
func NewAnthropicGenerator(cfg AnthropicConfig) *AnthropicGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout:               cfg.Timeout,
			ResponseHeaderTimeout: cfg.Timeout,
		})),
		// A failed advice call is final for that request.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicGenerator{cfg: cfg, opts: opts}
}

// Model returns the configured model name.
func (g *AnthropicGenerator) Model() string {
	return g.cfg.Model
}

// Generate sends one user message and returns the concatenated text blocks.
func (g *AnthropicGenerator) Generate(ctx context.Context, credential, system, prompt string) (string, error) {
	opts := append([]option.RequestOption{option.WithAPIKey(credential)}, g.opts...)
	client := anthropic.NewClient(opts...)

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: g.cfg.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", describeAPIError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// describeAPIError labels the common provider failures.
func describeAPIError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("advisor request: %w", err)
	}

	switch apiErr.StatusCode {
	case 401, 403:
		return fmt.Errorf("advisor rejected the API key (%d): %w", apiErr.StatusCode, err)
	case 429:
		return fmt.Errorf("advisor quota or rate limit reached: %w", err)
	default:
		return fmt.Errorf("advisor request failed (%d): %w", apiErr.StatusCode, err)
	}
}
