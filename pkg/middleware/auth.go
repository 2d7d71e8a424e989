package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/auth"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/response"
)

type claimsKey struct{}

// TokenVerifier is satisfied by *auth.TokenService.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token. A missing credential is a 401;
// a credential that fails verification is a 403 and the reason (expired or
// invalid) is only logged.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				metrics.Deny("auth", "missing")
				response.Error(w, http.StatusUnauthorized, "unauthorized access")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrExpired) {
					reason = "expired"
				}
				metrics.Deny("auth", reason)
				logger.WithCtx(r.Context()).Warn("auth: token rejected", "reason", reason, "error", err)
				response.Error(w, http.StatusForbidden, "forbidden access")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("uid", claims.UID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UIDFromCtx returns the authenticated uid.
func UIDFromCtx(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	if !ok || c.UID == "" {
		return "", false
	}
	return c.UID, true
}

// WithClaims stores claims the way Authenticate does. Used by tests and by
// handlers composed outside the HTTP chain.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
