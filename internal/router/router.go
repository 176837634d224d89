// Package router maps the REST surface under /api/v1 onto the handlers.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cloudlab/internal/config"
	"github.com/iliyamo/cloudlab/internal/handler"
	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
)

// Handlers groups every handler the API exposes.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserAdminHandler
	Catalogue     *handler.CatalogueHandler
	Assignments   *handler.AssignmentHandler
	Instances     *handler.InstanceHandler
	Configuration *handler.ConfigurationHandler
	Sessions      *handler.SessionHandler
	Provision     *handler.ProvisionHandler
}

// Options carries the infrastructure the routes depend on. DB, Redis and
// Metrics may be nil.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	DB        *sql.DB
	Metrics   *middleware.HTTPMetrics
}

// RegisterRoutes registers the probe and metrics endpoints, which need no
// authentication.
func RegisterRoutes(e *echo.Echo, opts Options) {
	e.GET("/healthz", handler.Health)
	if opts.DB != nil {
		e.GET("/readyz", handler.Ready(opts.DB))
	}
	if opts.Metrics != nil {
		e.GET("/metrics", opts.Metrics.Handler())
	}
}

// publicLimits keys anonymous traffic by client address and route.
func publicLimits(rl config.RateLimitConfig) config.RateLimitConfig {
	rl.KeyStrategy = "ip_route"
	return rl
}

// RegisterAPI registers the /api/v1 routes. Public routes take no token,
// authenticated routes need a valid access token and admin routes also
// need the admin role.
func RegisterAPI(e *echo.Echo, h Handlers, opts Options) {
	api := e.Group("/api/v1")

	public := []echo.MiddlewareFunc{middleware.NewRateLimiter(publicLimits(opts.RateLimit), opts.Redis)}
	// the limiter follows JWTAuth so its keys carry the caller id
	authed := []echo.MiddlewareFunc{
		middleware.JWTAuth(opts.JWTSecret),
		middleware.NewRateLimiter(opts.RateLimit, opts.Redis),
	}
	admin := append(authed[:len(authed):len(authed)], middleware.RequireRole(model.RoleAdmin))

	// public
	api.POST("/signup", h.Auth.Signup, public...)
	api.POST("/login", h.Auth.Login, public...)
	api.POST("/refresh", h.Auth.Refresh, public...)

	// any signed-in user
	api.GET("/me", h.Auth.Me, authed...)
	api.POST("/logout", h.Auth.Logout, authed...)
	api.GET("/getCatalogues", h.Catalogue.GetCatalogues,
		append(authed[:len(authed):len(authed)], middleware.NewRedisCache(opts.Cache, opts.Redis))...)
	api.POST("/getlabonid", h.Assignments.GetLabOnID, authed...)
	api.POST("/getInstances", h.Instances.GetInstances, authed...)
	api.POST("/getInstanceDetails", h.Instances.GetInstanceDetails, authed...)
	api.POST("/launchlab", h.Sessions.LaunchLab, authed...)
	api.POST("/stoplab", h.Sessions.StopLab, authed...)

	// admins
	api.POST("/labconfig", h.Catalogue.CreateLab,
		append(admin[:len(admin):len(admin)], middleware.InvalidateCache(opts.Cache, opts.Redis, "/api/v1/getCatalogues"))...)
	api.POST("/getLabsConfigured", h.Catalogue.GetLabsConfigured, admin...)
	api.POST("/assignlab", h.Assignments.AssignLab, admin...)
	api.POST("/updateConfigOfLabs", h.Configuration.UpdateConfigOfLabs, admin...)
	api.POST("/python", h.Provision.Python, admin...)
	api.GET("/users", h.Users.ListUsers, admin...)
	api.POST("/updateUserRole", h.Users.UpdateUserRole, admin...)
	api.POST("/updateUserOrganization", h.Users.UpdateUserOrganization, admin...)
	api.GET("/stats", h.Users.GetStats, admin...)
}
