// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ideaplan-api/internal/domain/service"
	apperrors "ideaplan-api/pkg/errors"
	"ideaplan-api/pkg/logger"
	"ideaplan-api/pkg/utils"
)

// ContextKeyUserID gin.Context 中的用户 ID 键
const ContextKeyUserID = "user_id"

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret 会话令牌签名密钥（Supabase JWT secret）
	Secret   string
	Issuer   string
	Audience string
	// Required 为 false 时缺失或无效的令牌按匿名处理
	Required bool
}

// Auth 认证中间件
// 校验 Bearer 令牌并把 sub 作为用户 ID 注入 gin.Context、日志上下文与 LLM 上下文
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer, cfg.Audience)

	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if cfg.Required {
				abortUnauthorized(c, err)
				return
			}
			c.Next()
			return
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			if cfg.Required {
				abortUnauthorized(c, err)
				return
			}
			logger.Warn(c.Request.Context(), "ignoring invalid bearer token on optional auth route",
				"path", c.Request.URL.Path,
				"code", string(apperrors.AsAppError(err).Code),
				"error", err.Error(),
			)
			c.Next()
			return
		}

		userID := claims.UserID()
		c.Set(ContextKeyUserID, userID)

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, userID)
		ctx = service.WithUser(ctx, userID)
		ctx = service.WithAccessToken(ctx, token)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.ErrTokenInvalid.WithDetail("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// abortUnauthorized 终止请求并返回 401，响应体与保存接口一致
func abortUnauthorized(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	logger.Debug(c.Request.Context(), "rejecting unauthenticated request",
		"path", c.Request.URL.Path,
		"code", string(appErr.Code),
	)
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"error": "Unauthorized",
	})
}
