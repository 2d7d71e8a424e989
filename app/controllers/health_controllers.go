package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthController struct {
	checks map[string]Check
}

func NewHealthController(checks map[string]Check) *HealthController {
	return &HealthController{checks: checks}
}

func (h *HealthController) Root(c *ctx.Context) {
	c.String(http.StatusOK, "m-buy-sell server is running")
}

// Health runs every check with a short timeout and answers 503 if any fails.
func (h *HealthController) Health(c *ctx.Context) {
	cctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(cctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = "down: " + err.Error()
			continue
		}
		report[name] = "up"
	}
	c.JSON(status, map[string]any{"status": http.StatusText(status), "checks": report})
}
