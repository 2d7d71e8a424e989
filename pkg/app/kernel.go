package app

import (
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/config"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/middleware"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/reqid"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/router"
)

// useGlobalMiddleware installs the stack every request passes through,
// outermost first:
//
//  1. Prometheus metrics, so latency covers everything below
//  2. Recovery
//  3. Request ID, before anything logs
//  4. Access log
//  5. CORS
//  6. Rate limiter, shared across replicas when the cache is Redis
func useGlobalMiddleware(r *router.Router, store cache.Store) {
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.CORSFromOrigins(config.CORSOrigins())))
	r.Use(middleware.RateLimit(store, config.RateLimit(), time.Minute))
}

// RouteTable lists the routes without connecting to anything.
func RouteTable() []router.Route {
	r := router.New()
	registerRoutes(r, &App{})
	return r.Routes()
}
