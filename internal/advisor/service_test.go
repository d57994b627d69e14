package advisor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/engagement-advisor/internal/advisor"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
)

type fakeGenerator struct {
	mu          sync.Mutex
	calls       int
	credentials []string
	prompts     []string
	text        string
	err         error
	// acceptOnly, when set, makes every other credential fail like a 401.
	acceptOnly  string
}

func (f *fakeGenerator) Generate(_ context.Context, credential, _, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.credentials = append(f.credentials, credential)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.acceptOnly != "" && credential != f.acceptOnly {
		return "", errors.New("advisor rejected the API key (401)")
	}
	return f.text, nil
}

func (f *fakeGenerator) Model() string { return "test-model" }

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func samplePrediction() domain.Prediction {
	return domain.Prediction{
		ID:            "pred-1",
		Score:         0.0723,
		Input:         domain.DefaultPostInput(),
		SchemaVersion: "v1",
	}
}

func TestAdvise_MissingCredentialMakesNoCall(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "advice"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true})

	got := svc.Advise(context.Background(), "", samplePrediction())

	assert.Equal(t, domain.AdviceCredentialRequired, got.Status)
	assert.Equal(t, advisor.MessageCredentialRequired, got.Message)
	assert.Empty(t, got.Text)
	assert.Zero(t, gen.callCount())
}

func TestAdvise_Disabled(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "advice"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: false})

	got := svc.Advise(context.Background(), "sk-test", samplePrediction())

	assert.Equal(t, domain.AdviceDisabled, got.Status)
	assert.Equal(t, advisor.MessageDisabled, got.Message)
	assert.Zero(t, gen.callCount())
}

func TestAdvise_NilGeneratorIsDisabled(t *testing.T) {
	t.Parallel()

	svc := advisor.NewService(nil, advisor.Config{Enabled: true})
	got := svc.Advise(context.Background(), "sk-test", samplePrediction())

	assert.Equal(t, domain.AdviceDisabled, got.Status)
}

func TestAdvise_Success(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "Post at 7pm."}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true})

	got := svc.Advise(context.Background(), "sk-user", samplePrediction())

	require.True(t, got.OK())
	assert.Equal(t, "Post at 7pm.", got.Text)
	assert.Equal(t, "test-model", got.Model)
	assert.False(t, got.Cached)
	require.Len(t, gen.credentials, 1)
	assert.Equal(t, "sk-user", gen.credentials[0])
	assert.Contains(t, gen.prompts[0], "7.23%")
	assert.Contains(t, gen.prompts[0], "Fashion")
}

func TestAdvise_DefaultKeyUsedWhenRequestHasNone(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "ok"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true, DefaultAPIKey: "sk-server"})

	got := svc.Advise(context.Background(), "", samplePrediction())
	require.True(t, got.OK())

	got = svc.Advise(context.Background(), "sk-user", samplePrediction())
	require.True(t, got.OK())

	assert.Equal(t, []string{"sk-server", "sk-user"}, gen.credentials)
}

func TestAdvise_ProviderFailureIsReported(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true})

	got := svc.Advise(context.Background(), "sk-user", samplePrediction())

	assert.Equal(t, domain.AdviceError, got.Status)
	assert.Contains(t, got.Message, "Strategy report unavailable")
	assert.Contains(t, got.Message, "quota exceeded")
	assert.Empty(t, got.Text)
	assert.Equal(t, 1, gen.callCount())
}

func TestAdvise_RateLimited(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "ok"}
	svc := advisor.NewService(gen, advisor.Config{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
		Timeout:           50 * time.Millisecond,
	})

	first := svc.Advise(context.Background(), "sk-user", samplePrediction())
	require.True(t, first.OK())

	second := svc.Advise(context.Background(), "sk-user", samplePrediction())
	assert.Equal(t, domain.AdviceError, second.Status)
	assert.Equal(t, 1, gen.callCount())
}

func TestAdvise_CancelledContext(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "ok"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true, RequestsPerSecond: 0.001, Burst: 1})

	require.True(t, svc.Advise(context.Background(), "sk-user", samplePrediction()).OK())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := svc.Advise(ctx, "sk-user", samplePrediction())

	assert.Equal(t, domain.AdviceError, got.Status)
	assert.Equal(t, 1, gen.callCount())
}
