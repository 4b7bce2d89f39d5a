package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoAndHealth(t *testing.T) {
	api := newTestAPI(t, Options{Environment: "test"}, nil)

	rec := api.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "OK", "environment": "test"}, decode(t, rec))

	rec = api.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, "running", decode(t, rec)["status"])
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)

	rec := api.do(t, http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(common.RequestIDHeaderName, "abc-123")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(common.RequestIDHeaderName))
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t, Options{AllowedOrigins: []string{"http://localhost:8000"}}, nil)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/investments", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://localhost:8000")
	assert.Equal(t, "http://localhost:8000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight("https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSConfig_Wildcard(t *testing.T) {
	cfg := corsConfig([]string{"http://a", "*"})
	assert.True(t, cfg.AllowAllOrigins)
	assert.Empty(t, cfg.AllowOrigins)
	assert.False(t, cfg.AllowCredentials)
	assert.NoError(t, cfg.Validate())
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, Options{RateLimitPerMinute: 2}, nil)

	body := map[string]any{"email": "nobody@example.com", "password": "password123"}
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/auth/login", body, "").Code)

	rec := api.do(t, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, errorCode(t, rec))

	// health is outside /api
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", nil, "").Code)
}

func TestClientLimiter_PerKey(t *testing.T) {
	l := newClientLimiter(1)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
}

func TestClientLimiter_SweepsIdleClients(t *testing.T) {
	l := newClientLimiter(1)
	start := time.Now()
	l.now = func() time.Time { return start }
	l.lastSweep = start

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.False(t, l.allow("10.0.0.2"))
	assert.Equal(t, 2, l.size())

	// 10.0.0.2 stays active, 10.0.0.1 goes idle
	l.now = func() time.Time { return start.Add(limiterIdleTTL - time.Second) }
	l.allow("10.0.0.2")

	l.now = func() time.Time { return start.Add(limiterIdleTTL) }
	assert.True(t, l.allow("10.0.0.3"))
	assert.Equal(t, 2, l.size())

	l.now = func() time.Time { return start.Add(3 * limiterIdleTTL) }
	assert.True(t, l.allow("10.0.0.1"))
	assert.Equal(t, 1, l.size())
}
