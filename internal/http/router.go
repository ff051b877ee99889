package http

import (
	"context"
	"log/slog"
	"time"

	auditrec "github.com/geocoder89/adminhub/internal/audit"
	"github.com/geocoder89/adminhub/internal/auth"
	"github.com/geocoder89/adminhub/internal/config"
	"github.com/geocoder89/adminhub/internal/domain/role"
	"github.com/geocoder89/adminhub/internal/http/handlers"
	"github.com/geocoder89/adminhub/internal/http/middlewares"
	"github.com/geocoder89/adminhub/internal/observability"
	"github.com/geocoder89/adminhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	rdb *redis.Client,
	cfg config.Config,
	prom *observability.Prom,
	reg *prometheus.Registry,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("adminhub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	if rdb != nil {
		limiter := middlewares.NewRateLimiter(rdb, cfg.RateLimit, time.Duration(cfg.RateWindowSeconds)*time.Second)
		r.Use(limiter.Middleware(middlewares.KeyByIP))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool)
	rolesRepo := postgres.NewRolesRepo(pool)
	auditRepo := postgres.NewAuditEventsRepo(pool, prom)

	recorder := auditrec.NewRecorder(auditRepo, log, prom)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	authenticator := auth.NewAuthenticator(usersRepo, recorder, jwtManager)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(authenticator, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo, rolesRepo, recorder)
	rolesHandler := handlers.NewRolesHandler(rolesRepo, usersRepo, recorder)
	auditHandler := handlers.NewAuditLogsHandler(auditRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(usersRepo, rolesRepo, auditRepo)

	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	api := r.Group("/api")

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(authMW.RequireAuth())

	authed.GET("/auth/me", authHandler.Me)

	// the whole back office is superadmin territory
	users := authed.Group("/users", middlewares.RequireSuperAdmin())
	users.GET("", usersHandler.ListUsers)
	users.GET("/:id", usersHandler.GetUserByID)
	users.POST("", usersHandler.CreateUser)
	users.PUT("/:id", usersHandler.UpdateUser)
	users.DELETE("/:id", usersHandler.DeleteUser)

	roles := authed.Group("/roles", middlewares.RequireSuperAdmin())
	roles.GET("", rolesHandler.GetRoles)
	roles.POST("", rolesHandler.CreateRole)
	roles.POST("/assign", rolesHandler.AssignRole)

	auditLogs := authed.Group("/audit-logs", middlewares.RequireSuperAdmin())
	auditLogs.GET("", auditHandler.GetAuditLogs)
	auditLogs.GET("/:id", auditHandler.GetAuditLogByID)

	// same outcome as RequireSuperAdmin, expressed as set membership
	analytics := authed.Group("/analytics", middlewares.RequireRole(role.SuperAdmin))
	analytics.GET("", analyticsHandler.GetAnalytics)

	return r
}
