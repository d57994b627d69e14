package advisor_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/engagement-advisor/internal/advisor"
)

const messageResponse = `{
  "id": "msg_test",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [
    {"type": "text", "text": "Verdict: solid. "},
    {"type": "text", "text": "Post at 7pm."}
  ],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 8}
}`

type capturedRequest struct {
	Path   string
	APIKey string
	Body   map[string]any
}

func newMessagesServer(t *testing.T, status int, body string, captured chan<- capturedRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(raw, &decoded)
		if captured != nil {
			captured <- capturedRequest{Path: r.URL.Path, APIKey: r.Header.Get("X-Api-Key"), Body: decoded}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	t.Parallel()

	captured := make(chan capturedRequest, 1)
	srv := newMessagesServer(t, http.StatusOK, messageResponse, captured)

	gen := advisor.NewAnthropicGenerator(advisor.AnthropicConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
	assert.Equal(t, advisor.DefaultModel, gen.Model())

	text, err := gen.Generate(context.Background(), "sk-user", "system text", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "Verdict: solid. Post at 7pm.", text)

	req := <-captured
	assert.Equal(t, "/v1/messages", req.Path)
	assert.Equal(t, "sk-user", req.APIKey)
	assert.Equal(t, advisor.DefaultModel, req.Body["model"])
	assert.InDelta(t, float64(advisor.DefaultMaxTokens), req.Body["max_tokens"], 0)
}

func TestAnthropicGenerator_Unauthorized(t *testing.T) {
	t.Parallel()

	body := `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`
	srv := newMessagesServer(t, http.StatusUnauthorized, body, nil)

	gen := advisor.NewAnthropicGenerator(advisor.AnthropicConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})

	_, err := gen.Generate(context.Background(), "sk-bad", "system", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected the API key")
}

func TestAnthropicGenerator_EmptyResponse(t *testing.T) {
	t.Parallel()

	body := `{"id":"msg_empty","type":"message","role":"assistant","model":"claude-sonnet-4-5",` +
		`"content":[],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":0}}`
	srv := newMessagesServer(t, http.StatusOK, body, nil)

	gen := advisor.NewAnthropicGenerator(advisor.AnthropicConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})

	_, err := gen.Generate(context.Background(), "sk-user", "system", "prompt")
	require.ErrorIs(t, err, advisor.ErrEmptyResponse)
}
