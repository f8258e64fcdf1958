package di

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ouija/woocommerce-gateway-payza/internal/app"
	"github.com/ouija/woocommerce-gateway-payza/internal/config"
	"github.com/ouija/woocommerce-gateway-payza/internal/database"
	"github.com/ouija/woocommerce-gateway-payza/internal/gateway"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/handler"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/middleware"
	"github.com/ouija/woocommerce-gateway-payza/internal/observability"
	"github.com/ouija/woocommerce-gateway-payza/internal/repository"
	"github.com/ouija/woocommerce-gateway-payza/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(observability.NewLogger)

var InfraSet = wire.NewSet(provideDB, provideRedis)

var RepositorySet = wire.NewSet(repository.NewOrderRepository)

var GatewaySet = wire.NewSet(
	gateway.NewClient,
	wire.Bind(new(gateway.Verifier), new(*gateway.Client)),
)

var ServiceSet = wire.NewSet(
	provideTokenStore,
	service.NewOrderService,
	service.NewAvailabilityService,
	service.NewReconcileService,
	wire.Bind(new(service.Reconciler), new(*service.ReconcileService)),
)

var HTTPSet = wire.NewSet(
	provideRateLimiter,
	handler.NewIPNHandler,
	handler.NewCheckoutHandler,
	handler.NewOrderHandler,
	handler.NewRouter,
	provideServer,
)

var AppSet = wire.NewSet(app.New)

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

// provideRedis returns nil when no redis address is configured; the token
// store and rate limiter both degrade gracefully without it.
func provideRedis(cfg *config.Config) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func provideTokenStore(client redis.UniversalClient) service.TokenStore {
	if client == nil {
		return nil
	}
	return service.NewRedisTokenStore(client, "")
}

func provideRateLimiter(cfg *config.Config, client redis.UniversalClient) *middleware.RateLimiter {
	var limiter middleware.Limiter
	if client != nil {
		limiter = middleware.NewRedisFixedWindowLimiter(client, "")
	} else {
		limiter = middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewRateLimiter(limiter, cfg.CheckoutRateLimitPerMin, time.Minute, middleware.FailOpen)
}

func provideServer(cfg *config.Config, router http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// MigrationRunner applies the schema without starting the HTTP server.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (r *MigrationRunner) Run() error {
	return database.Migrate(r.db)
}
