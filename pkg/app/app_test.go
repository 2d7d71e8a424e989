package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/config"
)

func TestBoot_MemoryStoreAndCacheFallback(t *testing.T) {
	config.Set("STORE_DRIVER", "memory")
	config.Set("REDIS_ADDR", "127.0.0.1:1")
	config.Set("STRIPE_SECRET_KEY", "")
	config.Set("KAFKA_BROKERS", "")

	a, err := Boot(context.Background())
	require.NoError(t, err)
	defer a.Close(context.Background()) //nolint:errcheck

	assert.Equal(t, "memory", a.Cache.Driver())
	assert.Equal(t, "sandbox", a.Provider.Name())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"uid":"boot-user"}`))
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouteTable_NeedsNoConnections(t *testing.T) {
	routes := RouteTable()
	require.NotEmpty(t, routes)

	seen := map[string]bool{}
	for _, r := range routes {
		seen[r.Method+" "+r.Path] = true
	}
	assert.True(t, seen["POST /payments/{buyerUid}"])
	assert.True(t, seen["GET /metrics"])
	assert.True(t, seen["DELETE /user-delete/{adminUid}"])
}
