package controllers

import (
	"net/http"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/rbac"
)

// ProductController serves a seller's own listings under /products/{sellerUid}.
type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (h *ProductController) Index(c *ctx.Context) {
	products, err := h.products.ListBySeller(c.Context(), c.Param("sellerUid"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(products)
}

func (h *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := h.products.Create(c.Context(), c.Param("sellerUid"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

// Promote advertises ?id=. The seller record comes from the role guard.
func (h *ProductController) Promote(c *ctx.Context) {
	seller, ok := rbac.UserFromCtx(c.Context())
	if !ok {
		c.Error(http.StatusForbidden, "forbidden access")
		return
	}
	p, err := h.products.Promote(c.Context(), seller, c.Query("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *ProductController) Destroy(c *ctx.Context) {
	id := c.Query("id")
	if err := h.products.Delete(c.Context(), c.Param("sellerUid"), id); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"deleted": id})
}
