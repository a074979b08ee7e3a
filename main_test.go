package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitstats/api/config"
	"visitstats/api/geo"
	"visitstats/api/handlers"
	"visitstats/api/middleware"
	"visitstats/api/stats"
	"visitstats/api/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T, cfg config.ServerConfig) *gin.Engine {
	t.Helper()
	s := store.NewMemoryVisitStore()
	h := handlers.NewVisitHandlers(s, stats.NewAggregator(s, time.UTC, 3), geo.UnknownResolver{})
	r, err := newRouter(cfg, h, middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	require.NoError(t, err)
	return r
}

func TestRouter_VisitFlow(t *testing.T) {
	r := testServer(t, config.Default().Server)

	req := httptest.NewRequest(http.MethodPost, "/api/visits", strings.NewReader(`{"page":"/"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalVisits":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimitsIngestion(t *testing.T) {
	cfg := config.Default().Server
	cfg.RateLimitPerMinute = 1
	cfg.RateLimitBurst = 2
	r := testServer(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/visits", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.50:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)

	// reads are not limited
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/visits", nil)
		req.RemoteAddr = "203.0.113.50:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRouter_InvalidTrustedProxies(t *testing.T) {
	cfg := config.Default().Server
	cfg.TrustedProxies = []string{"not-a-cidr"}
	s := store.NewMemoryVisitStore()
	h := handlers.NewVisitHandlers(s, stats.NewAggregator(s, time.UTC, 3), nil)

	_, err := newRouter(cfg, h, middleware.NewIPRateLimiter(5, 5))

	assert.Error(t, err)
}

func TestOpenStore_Memory(t *testing.T) {
	s, closeFn, err := openStore(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.NotNil(t, closeFn, "the store's connection is closed through the returned func")

	assert.IsType(t, &store.MemoryVisitStore{}, s)
	assert.NotPanics(t, closeFn)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}

func TestNewReporter(t *testing.T) {
	cfg := config.Default()
	cfg.Stats.Timezone = "UTC"

	r, err := newReporter(cfg, store.NewMemoryVisitStore(), nil)
	require.NoError(t, err)

	report, err := r.ComputeStats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, report.VisitsThisWeek, 7)
}

func TestNewReporter_InvalidTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Stats.Timezone = "Mars/Olympus_Mons"

	r, err := newReporter(cfg, store.NewMemoryVisitStore(), nil)

	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "Mars/Olympus_Mons")
}
