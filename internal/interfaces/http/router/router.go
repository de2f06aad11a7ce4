// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ideaplan-api/internal/config"
	"ideaplan-api/internal/interfaces/http/handler"
	"ideaplan-api/internal/interfaces/http/middleware"
)

// RouterHandlers 路由依赖的处理器与中间件
type RouterHandlers struct {
	Health      *handler.HealthHandler
	Plan        *handler.PlanHandler
	RateLimiter middleware.RateLimiter
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *RouterHandlers
}

// NewWithDeps 创建路由器并注册全部路由
func NewWithDeps(cfg *config.Config, handlers *RouterHandlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.Audit(middleware.DefaultAuditSkipPaths...))
}

func (r *Router) setupRoutes() {
	h := r.handlers

	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	jwt := r.cfg.Security.JWT
	optionalAuth := middleware.Auth(middleware.AuthConfig{
		Secret:   jwt.Secret,
		Issuer:   jwt.Issuer,
		Audience: jwt.Audience,
	})
	requiredAuth := middleware.Auth(middleware.AuthConfig{
		Secret:   jwt.Secret,
		Issuer:   jwt.Issuer,
		Audience: jwt.Audience,
		Required: true,
	})

	rl := r.cfg.Security.RateLimit
	generateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           rl.Enabled,
		Limit:             rl.GenerateLimit,
		Window:            rl.Window,
		RequestsPerSecond: rl.RequestsPerSecond,
		Burst:             rl.Burst,
		KeyPrefix:         "ratelimit:generate",
	}, h.RateLimiter)

	RegisterV1Routes(r.engine.Group("/v1"), h.Plan, optionalAuth, requiredAuth, generateLimit)
	RegisterCompatRoutes(r.engine.Group("/api"), h.Plan, optionalAuth, requiredAuth, generateLimit)
}
