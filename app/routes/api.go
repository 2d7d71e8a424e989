package routes

import (
	"net/http"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/controllers"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/middleware"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/rbac"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/response"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/router"
)

// Deps is everything the route table hands to controllers and guards.
type Deps struct {
	Users      repositories.UserStore
	Tokens     middleware.TokenVerifier
	UserSvc    *services.UserService
	ProductSvc *services.ProductService
	ModSvc     *services.ModerationService
	OrderSvc   *services.OrderService
	Checks     map[string]controllers.Check
}

// RegisterAPI mounts every endpoint. Guards always run in the order
// Authenticate, RequireRole, RequireOwner.
func RegisterAPI(r *router.Router, d Deps) {
	health := controllers.NewHealthController(d.Checks)
	authc := controllers.NewAuthController(d.UserSvc)
	admin := controllers.NewAdminController(d.UserSvc)
	products := controllers.NewProductController(d.ProductSvc)
	mod := controllers.NewModerationController(d.ModSvc)
	orders := controllers.NewOrderController(d.OrderSvc)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", "home", ctx.Wrap(health.Root))
	r.Get("/health", "health", ctx.Wrap(health.Health))
	r.Get("/metrics", "metrics", metrics.Handler())

	// Public identity endpoints.
	r.Post("/identity-token", "auth.token", ctx.Wrap(authc.IssueToken))
	r.Post("/users", "users.store", ctx.Wrap(authc.Register))
	r.Get("/user/role-check/{uid}", "users.role_check", ctx.Wrap(authc.RoleCheck))

	authn := middleware.Authenticate(d.Tokens)

	seller := r.Group("/", authn, rbac.RequireRole(d.Users, models.RoleSeller), rbac.RequireOwner("sellerUid"))
	seller.Get("/products/{sellerUid}", "products.index", ctx.Wrap(products.Index))
	seller.Post("/products/{sellerUid}", "products.store", ctx.Wrap(products.Store))
	seller.Delete("/products/{sellerUid}", "products.destroy", ctx.Wrap(products.Destroy))
	seller.Patch("/products-promote/{sellerUid}", "products.promote", ctx.Wrap(products.Promote))

	adm := r.Group("/", authn, rbac.RequireRole(d.Users, models.RoleAdmin), rbac.RequireOwner("adminUid"))
	adm.Patch("/seller-verify/{adminUid}", "admin.verify_seller", ctx.Wrap(admin.VerifySeller))
	adm.Delete("/user-delete/{adminUid}", "admin.delete_user", ctx.Wrap(admin.DeleteUser))
	adm.Get("/users-by-role/{adminUid}", "admin.users_by_role", ctx.Wrap(admin.UsersByRole))
	adm.Get("/reported-products/{adminUid}", "admin.reported", ctx.Wrap(mod.Reported))
	adm.Patch("/report-product-clear/{adminUid}", "admin.clear_report", ctx.Wrap(mod.Clear))

	buyer := r.Group("/", authn, rbac.RequireOwner("buyerUid"))
	buyer.Get("/orders/{buyerUid}", "orders.index", ctx.Wrap(orders.Index))
	buyer.Post("/orders/{buyerUid}", "orders.store", ctx.Wrap(orders.Store))
	buyer.Post("/create-payment-intent/{buyerUid}", "payments.intent", ctx.Wrap(orders.PaymentIntent))
	buyer.Post("/payments/{buyerUid}", "payments.store", ctx.Wrap(orders.Pay))

	// Any authenticated user may report any product; {buyerUid} is not
	// checked against the caller.
	r.Patch("/report-product/{buyerUid}", "products.report", ctx.Wrap(mod.Report), authn)
}
