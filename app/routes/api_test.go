package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/controllers"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories/memory"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/routes"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/auth"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/payment"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/router"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/testkit"
)

type app struct {
	router *router.Router
	tokens *auth.TokenService
	stores repositories.Stores
}

func newApp(t *testing.T) *app {
	t.Helper()

	stores := memory.New().Stores()
	tokens := auth.NewTokenService("route-test-secret", time.Hour)
	bus := event.New()
	t.Cleanup(bus.Wait)

	r := router.New()
	routes.RegisterAPI(r, routes.Deps{
		Users:      stores.Users,
		Tokens:     tokens,
		UserSvc:    services.NewUserService(stores.Users, tokens, bus),
		ProductSvc: services.NewProductService(stores.Products, bus),
		ModSvc:     services.NewModerationService(stores.Products, bus),
		OrderSvc: services.NewOrderService(stores, payment.NewStripe("sk_test_routes", "https://stripe.test"),
			cache.NewMemory(), bus, services.OrderConfig{Currency: "usd", IntentTTL: time.Minute}),
		Checks: map[string]controllers.Check{
			"store": func(context.Context) error { return nil },
		},
	})

	a := &app{router: r, tokens: tokens, stores: stores}
	a.seed(t)
	return a
}

func (a *app) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	for _, u := range []models.User{
		{UID: "a1", Name: "Ada", Role: models.RoleAdmin},
		{UID: "s1", Name: "Sam", Role: models.RoleSeller, Status: models.StatusVerified},
		{UID: "s2", Name: "Sue", Role: models.RoleSeller, Status: models.StatusUnverified},
		{UID: "b1", Name: "Bea", Role: models.RoleBuyer},
		{UID: "b2", Name: "Bob", Role: models.RoleBuyer},
	} {
		u.CreatedAt = now
		_, _, err := a.stores.Users.CreateIfAbsent(ctx, &u)
		require.NoError(t, err)
	}

	for i, p := range []models.Product{
		{ID: "p-phone", SellerUID: "s1", CategoryID: "phones", Name: "Pixel 6", ResellPrice: 19.99, Promote: true},
		{ID: "p-case", SellerUID: "s1", CategoryID: "accessories", Name: "Phone case", ResellPrice: 5},
	} {
		p.CreatedAt = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, a.stores.Products.Create(ctx, &p))
	}
}

func (a *app) opts(t *testing.T) testkit.Options {
	return testkit.Options{
		Token: func(uid string) string {
			tok, _, err := a.tokens.Issue(uid)
			require.NoError(t, err)
			return tok
		},
	}
}

func TestAPI_Identity(t *testing.T) {
	a := newApp(t)
	testkit.Run(t, a.router.Handler(), "testdata/identity.json", a.opts(t))
}

func TestAPI_Guards(t *testing.T) {
	a := newApp(t)
	testkit.Run(t, a.router.Handler(), "testdata/guards.json", a.opts(t))
}

func TestAPI_Products(t *testing.T) {
	a := newApp(t)
	testkit.Run(t, a.router.Handler(), "testdata/products.json", a.opts(t))
}

func TestAPI_Moderation(t *testing.T) {
	a := newApp(t)
	testkit.Run(t, a.router.Handler(), "testdata/moderation.json", a.opts(t))
}

// The checkout story spans files: order, intent, pay, then the aftermath.
func TestAPI_Checkout(t *testing.T) {
	a := newApp(t)
	testkit.RunDir(t, a.router.Handler(), "testdata/checkout", a.opts(t))

	pays, err := a.stores.Payments.ListSince(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, pays, 1)
	assert.Equal(t, int64(1999), pays[0].Amount)
	assert.Equal(t, "b1", pays[0].CustomerUID)
}

func TestAPI_BadCredentialIsForbiddenAndWritesNothing(t *testing.T) {
	a := newApp(t)
	expired := auth.NewTokenService("route-test-secret", time.Minute).
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	stale, _, err := expired.Issue("b1")
	require.NoError(t, err)
	forged, _, err := auth.NewTokenService("some-other-secret", time.Hour).Issue("b1")
	require.NoError(t, err)

	requests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/orders/b1", ""},
		{http.MethodPost, "/orders/b1", `{"product_id":"p-phone"}`},
		{http.MethodPost, "/payments/b1", `{"order_id":"o1","product_id":"p-phone","transaction_id":"pi_1","amount":1999}`},
		{http.MethodPatch, "/report-product/b1?id=p-phone", ""},
	}
	for name, tok := range map[string]string{"expired": stale, "garbage": "not.a.jwt", "wrong secret": forged} {
		for _, w := range requests {
			req := httptest.NewRequest(w.method, w.path, strings.NewReader(w.body))
			req.Header.Set("Authorization", "Bearer "+tok)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			a.router.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code, "%s token, %s %s", name, w.method, w.path)
		}
	}

	ctx := context.Background()
	orders, err := a.stores.Orders.ListByCustomer(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	pays, err := a.stores.Payments.ListSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, pays)
	p, err := a.stores.Products.FindByID(ctx, "p-phone")
	require.NoError(t, err)
	assert.Zero(t, p.ReportCount)
	assert.False(t, p.Reported)
}

func TestAPI_RootAndHealth(t *testing.T) {
	a := newApp(t)

	rec := httptest.NewRecorder()
	a.router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "m-buy-sell server is running")

	rec = httptest.NewRecorder()
	a.router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","checks":{"store":"up"}}`, rec.Body.String())
}

func TestAPI_RouteTable(t *testing.T) {
	a := newApp(t)

	names := map[string]router.Route{}
	for _, rt := range a.router.Routes() {
		names[rt.Name] = rt
	}
	for name, want := range map[string][2]string{
		"auth.token":          {http.MethodPost, "/identity-token"},
		"users.role_check":    {http.MethodGet, "/user/role-check/{uid}"},
		"products.promote":    {http.MethodPatch, "/products-promote/{sellerUid}"},
		"admin.verify_seller": {http.MethodPatch, "/seller-verify/{adminUid}"},
		"payments.intent":     {http.MethodPost, "/create-payment-intent/{buyerUid}"},
		"payments.store":      {http.MethodPost, "/payments/{buyerUid}"},
		"products.report":     {http.MethodPatch, "/report-product/{buyerUid}"},
	} {
		rt, ok := names[name]
		if assert.True(t, ok, name) {
			assert.Equal(t, want[0], rt.Method, name)
			assert.Equal(t, want[1], rt.Path, name)
		}
	}

	url, err := a.router.URL("orders.store", map[string]string{"buyerUid": "b1"})
	require.NoError(t, err)
	assert.Equal(t, "/orders/b1", url)
}
