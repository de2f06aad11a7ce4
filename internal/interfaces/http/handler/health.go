// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ideaplan-api/internal/config"
	"ideaplan-api/internal/domain/repository"
	"ideaplan-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	storeName string
	store     repository.HealthChecker
	redis     *redis.Client
	version   string
}

// NewHealthHandler 创建健康检查处理器；redisClient 为 nil 表示未启用 Redis
func NewHealthHandler(store repository.HealthChecker, redisClient *redis.Client, cfg *config.Config) *HealthHandler {
	h := &HealthHandler{
		storeName: "postgres",
		store:     store,
		redis:     redisClient,
	}
	if cfg != nil {
		if cfg.Persistence.Driver != "" {
			h.storeName = cfg.Persistence.Driver
		}
		h.version = cfg.App.Version
	}
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready 就绪检查接口：计划存储必需，Redis 启用时必需
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{}
	ready := true

	if h.store == nil {
		checks[h.storeName] = &readinessCheck{Status: "missing", Error: "plan store not configured"}
		ready = false
	} else {
		checks[h.storeName] = runCheck(ctx, h.store.Ping)
		ready = ready && checks[h.storeName].Status == "ok"
	}

	if h.redis == nil {
		checks["redis"] = &readinessCheck{Status: "disabled"}
	} else {
		checks["redis"] = runCheck(ctx, h.redis.Ping)
		ready = ready && checks["redis"].Status == "ok"
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func runCheck(ctx context.Context, ping func(context.Context) error) *readinessCheck {
	start := time.Now()
	err := ping(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
	}
	return check
}
