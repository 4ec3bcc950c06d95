package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/config"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/security"
	"github.com/GitHubKaan/gju-jobs-api/internal/transport/http/handlers"
	"github.com/GitHubKaan/gju-jobs-api/internal/transport/http/middleware"
	"github.com/GitHubKaan/gju-jobs-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Accounts *usecase.AccountService
	Sessions *usecase.SessionService
	Faults   *usecase.FaultService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Keyring     *security.Keyring
	Stores      port.CredentialStoreSet
	Ledger      port.RevocationLedger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if deps.Config.Telemetry.MetricsEnabled {
		if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
			deps.Logger.Warn("http metrics disabled", zap.Error(err))
		} else {
			r.Use(metrics.Handler())
		}
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	guard := middleware.NewTokenGuard(deps.Keyring, deps.Stores, deps.Ledger, deps.Services.Faults)
	echoCodes := !deps.Config.App.Production()

	accountHandler := handlers.NewAccountHandler(deps.Services.Accounts, deps.Services.Faults, echoCodes)
	sessionHandler := handlers.NewSessionHandler(deps.Services.Sessions, deps.Services.Faults, echoCodes)
	faultHandler := handlers.NewFaultHandler(deps.Services.Faults)

	api := r.Group("/api/v1")
	{
		registerKind(api.Group("/student"), domain.UserTypeStudent, accountHandler.SignupStudent, sessionHandler, guard, deps)
		registerKind(api.Group("/company"), domain.UserTypeCompany, accountHandler.SignupCompany, sessionHandler, guard, deps)

		api.GET("/student/user", guard.Require(domain.TokenPurposeAccess), guard.RequireKind(domain.UserTypeStudent), accountHandler.Get)
		api.GET("/company/user", guard.Require(domain.TokenPurposeAccess), guard.RequireKind(domain.UserTypeCompany), accountHandler.Get)

		api.POST("/frontend-error", faultHandler.Report)
	}

	return r
}

// registerKind wires one account kind's auth lifecycle under its group.
func registerKind(g *gin.RouterGroup, kind domain.UserType, signup gin.HandlerFunc, sessions *handlers.SessionHandler, guard *middleware.TokenGuard, deps Dependencies) {
	kindName := string(kind)

	signupHandlers := withRateLimit(deps, kindName+"_signup_ip", deps.Config.RateLimit.SignupMaxAttempts, signup)
	g.POST("/signup", signupHandlers...)

	loginHandlers := withRateLimit(deps, kindName+"_login_ip", deps.Config.RateLimit.LoginMaxAttempts, sessions.Login(kind))
	g.POST("/login", loginHandlers...)

	g.POST("/login/code", guard.Require(domain.TokenPurposeAuth), guard.RequireKind(kind), sessions.Redeem)

	recoveryHandlers := withRateLimit(deps, kindName+"_recovery_ip", deps.Config.RateLimit.RecoveryMaxAttempts, sessions.RequestRecovery(kind))
	g.POST("/recovery", recoveryHandlers...)
	g.POST("/recovery/confirm", guard.Require(domain.TokenPurposeRecovery), guard.RequireKind(kind), sessions.Recover)

	deletionHandlers := withRateLimit(deps, kindName+"_deletion_ip", deps.Config.RateLimit.DeletionMaxAttempts,
		guard.Require(domain.TokenPurposeAccess), guard.RequireKind(kind), sessions.RequestDeletion)
	g.POST("/deletion", deletionHandlers...)
	g.DELETE("/deletion/confirm", guard.Require(domain.TokenPurposeDeletion), guard.RequireKind(kind), sessions.Delete)
}

// withRateLimit prefixes handlers with a per-IP sliding window rule when the
// limiter is configured and the limit is positive.
func withRateLimit(deps Dependencies, name string, limit int, chain ...gin.HandlerFunc) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return chain
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return append([]gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}, chain...)
}
