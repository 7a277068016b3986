package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peopledesk/directory-system/internal/api/handler"
	"github.com/peopledesk/directory-system/internal/api/middleware"
	"github.com/peopledesk/directory-system/internal/core/domain"
	"github.com/peopledesk/directory-system/internal/core/service"
	"github.com/peopledesk/directory-system/internal/infrastructure/config"
	mongodb "github.com/peopledesk/directory-system/internal/infrastructure/db/mongo"
	redisdb "github.com/peopledesk/directory-system/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *goredis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("directory"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	throttle := redisdb.NewLoginThrottle(rdb, cfg.MaxLoginFailures)
	authService := service.NewAuthService(userRepo, throttle, cfg.JWTSecret, cfg.TokenTTL)
	userService := service.NewUserService(userRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, cfg.JWTSecret)
	logHandler := handler.NewLogHandler(log)

	authed := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth ---
	e.POST("/login", authHandler.Login)

	// --- Accounts ---
	// POST /users carries no auth middleware: it serves bootstrap,
	// admin creation, and self-registration, distinguished inside.
	e.POST("/users", userHandler.Create)
	e.GET("/users", userHandler.List, authed)
	e.PUT("/users/:id/profile", userHandler.UpdateProfile, authed)
	e.DELETE("/users/:id", userHandler.Delete, authed)
	e.PUT("/users/:id/promote", userHandler.Promote, authed, adminOnly)
	e.PUT("/users/:id/demote", userHandler.Demote, authed, adminOnly)
	e.PUT("/users/:id/password", userHandler.ChangePassword, authed)

	// --- Telemetry sink ---
	e.POST("/logs", logHandler.Receive, authed)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
