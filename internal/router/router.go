// Package router assembles the echo instance: global middleware, the
// catalog and order routes, health and metrics.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ticket-ledger/internal/config"
	"github.com/iliyamo/ticket-ledger/internal/handler"
	"github.com/iliyamo/ticket-ledger/internal/middleware"
)

// Deps carries everything the routes need. Redis may be nil, which turns
// rate limiting and response caching off.
type Deps struct {
	Shows       *handler.ShowHandler
	Orders      *handler.OrderHandler
	Probes      map[string]handler.Pinger
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Log         logrus.FieldLogger
}

// New returns a configured echo instance ready to Start.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes maps the API onto e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.Probes))
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1")
	v1.GET("/shows", d.Shows.ListShows)
	v1.GET("/shows/:id", d.Shows.GetShow)
	v1.GET("/shows/:id/audit", d.Shows.AuditShow)
	v1.POST("/shows/seed", d.Shows.SeedShows)

	// Order placement is the only write path, so it is the one that is rate
	// limited. Orders never change once written, so their reads are cached.
	v1.POST("/orders", d.Orders.PlaceOrder, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	v1.GET("/orders/:id", d.Orders.GetOrder, middleware.NewRedisCache(d.Cache, d.Redis))
}
