package gin_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/jonesrussell/engagement-advisor/infrastructure/gin"
	"github.com/jonesrussell/engagement-advisor/infrastructure/logger"
)

func TestServerBuilder_HealthRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		redisErr   error
		modelErr   error
		wantStatus infragin.HealthStatus
		wantCode   int
	}{
		{name: "all healthy", wantStatus: infragin.HealthStatusHealthy, wantCode: http.StatusOK},
		{name: "redis down degrades", redisErr: errors.New("dial tcp: refused"), wantStatus: infragin.HealthStatusDegraded, wantCode: http.StatusOK},
		{name: "model down is unhealthy", redisErr: errors.New("refused"), modelErr: errors.New("no model"), wantStatus: infragin.HealthStatusUnhealthy, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := infragin.NewServerBuilder("engagement", 0).
				WithLogger(logger.NewNop()).
				WithVersion("1.2.3").
				WithRedisHealthCheck(func() error { return tt.redisErr }).
				WithHealthCheck("model", infragin.CriticalHealthChecker("model", func() error { return tt.modelErr })).
				Build()

			w := serve(srv.Router(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			require.Equal(t, tt.wantCode, w.Code)

			var body infragin.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "engagement", body.Service)
			assert.Equal(t, "1.2.3", body.Version)
			assert.Len(t, body.Checks, 2)
		})
	}
}

func TestServerBuilder_HeadAndMemory(t *testing.T) {
	t.Parallel()

	srv := infragin.NewServerBuilder("engagement", 0).WithLogger(logger.NewNop()).Build()

	head := serve(srv.Router(), httptest.NewRequest(http.MethodHead, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, head.Code)

	mem := serve(srv.Router(), httptest.NewRequest(http.MethodGet, "/health/memory", http.NoBody))
	require.Equal(t, http.StatusOK, mem.Code)
	assert.Contains(t, mem.Body.String(), "heap_alloc_mb")
}
