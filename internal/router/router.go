package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lodging-booking/internal/config"
	"github.com/iliyamo/lodging-booking/internal/handler"
	"github.com/iliyamo/lodging-booking/internal/maptoken"
	"github.com/iliyamo/lodging-booking/internal/metrics"
	"github.com/iliyamo/lodging-booking/internal/middleware"
	"github.com/iliyamo/lodging-booking/internal/notify"
	"github.com/iliyamo/lodging-booking/internal/payment"
	"github.com/iliyamo/lodging-booking/internal/repository"
	"github.com/iliyamo/lodging-booking/internal/service"
)

// Deps are the collaborators the routes are built from.  Redis, Maps and
// Mailer may be nil.
type Deps struct {
	Cfg      config.Config
	Store    repository.DataStore
	Redis    *redis.Client
	Ledger   *service.Ledger
	Listings *service.Listings
	Reviews  *service.Reviews
	Gateway  *payment.Client
	Maps     *maptoken.Cache
	Mailer   notify.Sender
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(metrics.Middleware())
	e.Use(middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis))

	RegisterRoutes(e, d.Store)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, d.Store.Users(), d.Store.Tokens(), d.Mailer), d.Cfg.JWTSecret)
	RegisterListings(e, d)
	RegisterBookings(e, handler.NewBookingHandler(d.Ledger), handler.NewPaymentHandler(d.Gateway, d.Ledger), d.Cfg.JWTSecret)
	RegisterAdmin(e, handler.NewAdminHandler(d.Listings, d.Reviews, d.Ledger, d.Store.Users()), d.Cfg.JWTSecret,
		middleware.InvalidateCache(d.Cfg.Cache, d.Redis))
	return e
}

// RegisterRoutes registers the probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, store repository.DataStore) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(store))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// current-user endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes either a refresh token in the body or a bearer token.
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password/:token", a.ResetPassword)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
