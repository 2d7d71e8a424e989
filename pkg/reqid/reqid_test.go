package reqid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (seen string, echoed string) {
	h := Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(Header)
}

func TestMiddleware_MintsID(t *testing.T) {
	seen, echoed := serve("")
	assert.Equal(t, seen, echoed)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestMiddleware_ReusesUpstreamID(t *testing.T) {
	seen, echoed := serve("edge-42")
	assert.Equal(t, "edge-42", seen)
	assert.Equal(t, "edge-42", echoed)
}

func TestMiddleware_ReplacesOversizedID(t *testing.T) {
	long := strings.Repeat("x", maxUpstreamLen+1)
	seen, _ := serve(long)
	assert.NotEqual(t, long, seen)
}
