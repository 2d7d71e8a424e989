package controllers

import (
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/middleware"
)

// ModerationController serves product reports. The product comes from ?id=.
type ModerationController struct {
	mod *services.ModerationService
}

func NewModerationController(mod *services.ModerationService) *ModerationController {
	return &ModerationController{mod: mod}
}

// Report files a report as the authenticated user. Any request body, such as
// a prior count, is ignored.
func (h *ModerationController) Report(c *ctx.Context) {
	reporter, _ := middleware.UIDFromCtx(c.Context())
	p, err := h.mod.Report(c.Context(), reporter, c.Query("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *ModerationController) Clear(c *ctx.Context) {
	p, err := h.mod.Clear(c.Context(), c.Query("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *ModerationController) Reported(c *ctx.Context) {
	products, err := h.mod.ListReported(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(products)
}
