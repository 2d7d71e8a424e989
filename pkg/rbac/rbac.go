// Package rbac holds the role and ownership guards that run after
// middleware.Authenticate.
//
//	admin := r.Group("/", middleware.Authenticate(tokens),
//	    rbac.RequireRole(users, models.RoleAdmin), rbac.RequireOwner("adminUid"))
package rbac

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/middleware"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/response"
)

type userKey struct{}

// UserFinder is the part of the user directory the guard needs.
type UserFinder interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
}

// RequireRole lets a request through only when the authenticated uid has a
// stored user record whose role is role. The record is read on every request,
// so a role change or deletion takes effect immediately. The user is put in
// the request context for handlers (see UserFromCtx).
func RequireRole(users UserFinder, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.WithCtx(r.Context())

			uid, ok := middleware.UIDFromCtx(r.Context())
			if !ok {
				metrics.Deny("role", "unauthenticated")
				response.Unauthorized(w)
				return
			}

			user, err := users.FindByUID(r.Context(), uid)
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				metrics.Deny("role", "unknown_user")
				log.Warn("rbac: no user record", "required", role)
				response.Error(w, http.StatusForbidden, "forbidden access")
				return
			case err != nil:
				response.FromError(w, r, err)
				return
			case user.Role != role:
				metrics.Deny("role", "mismatch")
				log.Warn("rbac: role mismatch", "required", role, "actual", user.Role)
				response.Error(w, http.StatusForbidden, "forbidden access")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		})
	}
}

// RequireOwner denies the request unless the path parameter param equals the
// authenticated uid.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := middleware.UIDFromCtx(r.Context())
			if !ok {
				metrics.Deny("owner", "unauthenticated")
				response.Unauthorized(w)
				return
			}
			if chi.URLParam(r, param) != uid {
				metrics.Deny("owner", "mismatch")
				logger.WithCtx(r.Context()).Warn("rbac: ownership mismatch", "param", param)
				response.Error(w, http.StatusForbidden, "forbidden access")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromCtx returns the user loaded by RequireRole.
func UserFromCtx(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}
