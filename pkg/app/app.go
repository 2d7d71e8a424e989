// Package app boots the marketplace: configuration, stores, cache, payment
// provider, event sinks and the HTTP handler. Every CLI command starts here.
//
//	a, err := app.Boot(ctx)
//	if err != nil {
//	    return err
//	}
//	defer a.Close(context.Background())
//	return server.Start(ctx, a.Handler(), server.Options{...})
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/controllers"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories/memory"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/routes"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/config"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/auth"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/database"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/payment"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/router"
)

// App holds the wired services of one process.
type App struct {
	Stores     repositories.Stores
	Cache      cache.Store
	Bus        *event.Bus
	Tokens     *auth.TokenService
	Provider   payment.Provider
	Users      *services.UserService
	Products   *services.ProductService
	Moderation *services.ModerationService
	Orders     *services.OrderService

	checks  map[string]controllers.Check
	closers []func(context.Context) error
}

// Boot loads configuration and connects every backing service. Redis is
// optional: when it cannot be reached the cache falls back to memory.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{
		Bus:    event.New(),
		Tokens: auth.NewTokenService(config.JWTSecret(), config.TokenTTL()),
		checks: map[string]controllers.Check{},
	}

	if config.LogToMongo() {
		if err := logger.AttachMongo(config.MongoURI(), config.MongoDB()); err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		} else {
			a.onClose(func(context.Context) error { logger.Close(); return nil })
		}
	}

	if err := a.openStores(ctx); err != nil {
		a.Close(context.Background()) //nolint:errcheck
		return nil, err
	}
	a.openCache(ctx)
	a.attachEventSinks()

	if config.IsProduction() && config.JWTSecret() == "change-me-in-production" {
		logger.Warn("JWT_SECRET is the default value")
	}

	a.Provider = payment.New(config.StripeSecretKey(), config.StripeAPIBase())
	logger.Info("payment provider selected", "provider", a.Provider.Name())

	a.Users = services.NewUserService(a.Stores.Users, a.Tokens, a.Bus)
	a.Products = services.NewProductService(a.Stores.Products, a.Bus)
	a.Moderation = services.NewModerationService(a.Stores.Products, a.Bus)
	a.Orders = services.NewOrderService(a.Stores, a.Provider, a.Cache, a.Bus, services.OrderConfig{
		Currency:  config.PaymentCurrency(),
		IntentTTL: config.IntentCacheTTL(),
	})
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	if config.StoreDriver() == "memory" {
		logger.Warn("using the in-memory store; data is lost on exit")
		a.Stores = memory.New().Stores()
		a.checks["store"] = func(context.Context) error { return nil }
		return nil
	}

	if err := database.Connect(ctx); err != nil {
		return err
	}
	a.onClose(database.Disconnect)
	if err := repositories.EnsureIndexes(ctx, database.DB); err != nil {
		return err
	}
	a.Stores = repositories.NewMongoStores(database.DB)
	a.checks["store"] = func(ctx context.Context) error {
		return database.DB.Client().Ping(ctx, nil)
	}
	logger.Info("connected to mongo", "db", config.MongoDB())
	return nil
}

func (a *App) openCache(ctx context.Context) {
	rdb, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
	if err != nil {
		logger.Warn("redis unavailable, using memory cache", "addr", config.RedisAddr(), "error", err)
		a.Cache = cache.NewMemory()
		return
	}
	a.Cache = cache.New(rdb)
	a.checks["cache"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	a.onClose(closeRedis(rdb))
}

func closeRedis(rdb *redis.Client) func(context.Context) error {
	return func(context.Context) error { return rdb.Close() }
}

func (a *App) attachEventSinks() {
	a.Bus.Listen(event.All, func(ctx context.Context, e event.Event) {
		logger.WithCtx(ctx).Debug("event", "name", e.Name, "key", e.Key)
	})

	brokers := config.KafkaBrokers()
	if len(brokers) == 0 {
		return
	}
	sink := event.NewKafkaSink(brokers, config.KafkaTopic())
	a.Bus.Listen(event.All, sink.Handle)
	a.onClose(func(context.Context) error {
		a.Bus.Wait()
		return sink.Close()
	})
	logger.Info("publishing events to kafka", "topic", config.KafkaTopic(), "brokers", brokers)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Routes builds the route table over a's services.
func (a *App) Routes() *router.Router {
	r := router.New()
	useGlobalMiddleware(r, a.Cache)
	registerRoutes(r, a)
	return r
}

func registerRoutes(r *router.Router, a *App) {
	routes.RegisterAPI(r, routes.Deps{
		Users:      a.Stores.Users,
		Tokens:     a.Tokens,
		UserSvc:    a.Users,
		ProductSvc: a.Products,
		ModSvc:     a.Moderation,
		OrderSvc:   a.Orders,
		Checks:     a.checks,
	})
}

func (a *App) Handler() http.Handler {
	return a.Routes().Handler()
}

// Close waits for in-flight events, then releases connections in reverse
// order of opening.
func (a *App) Close(ctx context.Context) error {
	a.Bus.Wait()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
