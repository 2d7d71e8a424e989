package controllers

import (
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
)

// AuthController serves the public identity endpoints.
type AuthController struct {
	users *services.UserService
}

func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

type tokenInput struct {
	UID string `json:"uid" validate:"required,max=128"`
}

// IssueToken exchanges {uid} for a signed token.
func (h *AuthController) IssueToken(c *ctx.Context) {
	var in tokenInput
	if !c.BindJSON(&in) {
		return
	}
	tok, err := h.users.IssueToken(c.Context(), in.UID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(tok)
}

// Register creates the user on first sign-in. A repeat returns the stored
// record with 200 instead of 201.
func (h *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	user, created, err := h.users.Register(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	if created {
		c.Created(user)
		return
	}
	c.Success(user)
}

func (h *AuthController) RoleCheck(c *ctx.Context) {
	flags, err := h.users.RoleCheck(c.Context(), c.Param("uid"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(flags)
}
