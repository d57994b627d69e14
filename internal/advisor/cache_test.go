package advisor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/engagement-advisor/internal/advisor"
	"github.com/jonesrussell/engagement-advisor/internal/domain"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *advisor.RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, advisor.NewRedisCache(client, time.Hour)
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	a := advisor.CacheKey("m1", "sk-user", "prompt")
	assert.Len(t, a, 64)
	assert.Equal(t, a, advisor.CacheKey("m1", "sk-user", "prompt"))
	assert.NotEqual(t, a, advisor.CacheKey("m2", "sk-user", "prompt"))
	assert.NotEqual(t, a, advisor.CacheKey("m1", "sk-other", "prompt"))
	assert.NotEqual(t, a, advisor.CacheKey("m1", "sk-user", "other"))
	assert.NotContains(t, a, "sk-user")
}

func TestRedisCache_GetSet(t *testing.T) {
	t.Parallel()

	mr, cache := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", "advice text"))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "advice text", got)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "engagement:advice:"))
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvise_CachedResponse(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)
	gen := &fakeGenerator{text: "Use trending audio."}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true}, advisor.WithCache(cache))

	first := svc.Advise(context.Background(), "sk-user", samplePrediction())
	require.True(t, first.OK())
	assert.False(t, first.Cached)

	second := svc.Advise(context.Background(), "sk-user", samplePrediction())
	require.True(t, second.OK())
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, gen.callCount())
}

func TestAdvise_CacheScopedToCredential(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)
	gen := &fakeGenerator{text: "paid-for advice", acceptOnly: "sk-valid"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true}, advisor.WithCache(cache))

	warm := svc.Advise(context.Background(), "sk-valid", samplePrediction())
	require.True(t, warm.OK())

	other := svc.Advise(context.Background(), "sk-other", samplePrediction())
	assert.Equal(t, domain.AdviceError, other.Status)
	assert.False(t, other.Cached)
	assert.Empty(t, other.Text)
	assert.Contains(t, other.Message, "rejected the API key")
	assert.Equal(t, 2, gen.callCount())
}

func TestAdvise_CacheMissingCredentialStillRequired(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)
	gen := &fakeGenerator{text: "cached"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true}, advisor.WithCache(cache))

	require.True(t, svc.Advise(context.Background(), "sk-user", samplePrediction()).OK())

	got := svc.Advise(context.Background(), "", samplePrediction())
	assert.Equal(t, domain.AdviceCredentialRequired, got.Status)
}

func TestAdvise_CacheFailureFallsThrough(t *testing.T) {
	t.Parallel()

	mr, cache := newTestCache(t)
	mr.Close()

	gen := &fakeGenerator{text: "fresh"}
	svc := advisor.NewService(gen, advisor.Config{Enabled: true}, advisor.WithCache(cache))

	got := svc.Advise(context.Background(), "sk-user", samplePrediction())
	require.True(t, got.OK())
	assert.Equal(t, "fresh", got.Text)
	assert.Equal(t, 1, gen.callCount())
}
