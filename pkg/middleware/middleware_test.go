package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/middleware"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/reqid"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_PerIP(t *testing.T) {
	h := middleware.RateLimit(cache.NewMemory(), 2, time.Minute)(okHandler)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	rec := hit(h, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	limited := hit(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)
}

// brokenStore fails every Incr, standing in for an unreachable Redis.
type brokenStore struct{ cache.Store }

func (brokenStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("dial tcp: connection refused")
}
func (brokenStore) Driver() string { return "redis" }

func TestRateLimit_FallsBackWhenStoreFails(t *testing.T) {
	h := middleware.RateLimit(brokenStore{}, 1, time.Minute)(okHandler)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.9").Code)
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSFromOrigins([]string{"https://mbuysell.app"}))(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/orders/b1", nil)
	req.Header.Set("Origin", "https://mbuysell.app")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://mbuysell.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogger_KeepsStatusAndRequestID(t *testing.T) {
	h := reqid.Middleware()(middleware.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, reqid.FromCtx(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))
}
