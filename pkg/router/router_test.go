package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/router"
)

func tag(label string, order *[]string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, label)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroup_MiddlewareOrder(t *testing.T) {
	var order []string
	r := router.New()
	g := r.Group("/", tag("auth", &order)).Group("", tag("role", &order))
	g.Patch("/seller-verify/{adminUid}", "admin.verify", func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}, tag("owner", &order))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/seller-verify/a1", nil))

	assert.Equal(t, []string{"auth", "role", "owner", "handler"}, order)
}

func TestURL(t *testing.T) {
	r := router.New()
	r.Get("/orders/{buyerUid}", "orders.index", func(http.ResponseWriter, *http.Request) {})

	u, err := r.URL("orders.index", map[string]string{"buyerUid": "b1"})
	require.NoError(t, err)
	assert.Equal(t, "/orders/b1", u)

	_, err = r.URL("orders.index", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutes_Sorted(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Post("/products/{sellerUid}", "products.store", noop)
	r.Get("/products/{sellerUid}", "products.index", noop)
	r.Delete("/products/{sellerUid}", "products.destroy", noop)
	r.Get("/", "", noop)

	routes := r.Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, router.Route{Name: "", Method: http.MethodGet, Path: "/"}, routes[0])
	assert.Equal(t, http.MethodDelete, routes[1].Method)
	assert.Equal(t, http.MethodGet, routes[2].Method)
	assert.Equal(t, http.MethodPost, routes[3].Method)
}
