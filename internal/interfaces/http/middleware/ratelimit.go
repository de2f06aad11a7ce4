// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ideaplan-api/pkg/logger"
	"ideaplan-api/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool
	// Limit 每个调用方在 Window 内允许的请求数
	Limit  int
	Window time.Duration
	// RequestsPerSecond / Burst 为进程内令牌桶参数，分布式限流器出错或未配置时使用
	RequestsPerSecond float64
	Burst             int
	KeyPrefix         string
}

// RateLimiter 分布式限流器接口
// Allow 返回是否放行以及窗口内剩余次数
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// 响应头
const (
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
)

// RateLimit 限流中间件
// 调用方以用户 ID 区分，匿名请求按客户端 IP
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = float64(cfg.Limit) / cfg.Window.Seconds()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}
	local := newLocalLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst, 2*cfg.Window, defaultLocalMaxKeys)
	limitHeader := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		caller := c.GetString(ContextKeyUserID)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}
		key := cfg.KeyPrefix + ":" + caller + ":" + c.FullPath()

		var (
			allowed   bool
			remaining int
		)
		if limiter != nil {
			ok, left, err := limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				logger.Warn(c.Request.Context(), "rate limiter unavailable, using local limiter",
					"key", key,
					"error", err.Error(),
				)
				allowed, remaining = local.allow(key)
			} else {
				allowed, remaining = ok, left
			}
		} else {
			allowed, remaining = local.allow(key)
		}

		c.Header(RateLimitLimitHeader, limitHeader)
		c.Header(RateLimitRemainingHeader, strconv.Itoa(max(remaining, 0)))

		if !allowed {
			metrics.RateLimitRejected.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests. Please slow down.",
			})
			return
		}

		c.Next()
	}
}

// defaultLocalMaxKeys 进程内令牌桶的 key 上限
const defaultLocalMaxKeys = 10000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter 进程内按 key 的令牌桶
// 空闲超过 idleTTL 的 key 会被清理，key 数超过 maxKeys 时淘汰最久未使用的一个
type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	maxKeys   int
	lastSweep time.Time
	now       func() time.Time
	entries   map[string]*localEntry
}

func newLocalLimiter(limit rate.Limit, burst int, idleTTL time.Duration, maxKeys int) *localLimiter {
	return &localLimiter{
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
		maxKeys: maxKeys,
		now:     time.Now,
		entries: make(map[string]*localEntry),
	}
}

func (l *localLimiter) allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= l.maxKeys {
			l.evictOldest()
		}
		e = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	allowed := e.limiter.AllowN(now, 1)
	return allowed, int(e.limiter.TokensAt(now))
}

func (l *localLimiter) sweep(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.idleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

func (l *localLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, e := range l.entries {
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey, oldest = key, e.lastSeen
		}
	}
	delete(l.entries, oldestKey)
}

