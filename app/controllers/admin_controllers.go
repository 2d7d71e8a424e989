package controllers

import (
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
)

// AdminController serves user management. Every route is behind the admin
// role and ownership guards on {adminUid}; the target user comes from ?uid=.
type AdminController struct {
	users *services.UserService
}

func NewAdminController(users *services.UserService) *AdminController {
	return &AdminController{users: users}
}

func (h *AdminController) VerifySeller(c *ctx.Context) {
	user, err := h.users.VerifySeller(c.Context(), c.Query("uid"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (h *AdminController) DeleteUser(c *ctx.Context) {
	target := c.Query("uid")
	if err := h.users.DeleteUser(c.Context(), c.Param("adminUid"), target); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"deleted": target})
}

// UsersByRole lists users holding ?role=.
func (h *AdminController) UsersByRole(c *ctx.Context) {
	users, err := h.users.ListByRole(c.Context(), c.Query("role"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(users)
}
