// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	"ideaplan-api/internal/application/usage"
	"ideaplan-api/internal/config"
	"ideaplan-api/internal/domain/repository"
	"ideaplan-api/internal/domain/service"
	"ideaplan-api/internal/infrastructure/llm"
	"ideaplan-api/internal/infrastructure/persistence/postgres"
	"ideaplan-api/internal/infrastructure/persistence/redis"
	"ideaplan-api/internal/infrastructure/persistence/supabase"
	"ideaplan-api/internal/interfaces/http/middleware"
	"ideaplan-api/internal/interfaces/http/router"
	"ideaplan-api/pkg/logger"
)

// App API 服务依赖容器
type App struct {
	Router        *router.Router
	UsageRecorder service.LLMUsageRecorder
}

// PlanStore 按 persistence.driver 选定的存储后端
// Supabase 后端不记录用量流水
type PlanStore struct {
	Plans  repository.PlanRepository
	Health repository.HealthChecker
	Usage  repository.LLMUsageEventRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvidePlanStore 提供计划存储
func ProvidePlanStore(cfg *config.Config) (*PlanStore, func(), error) {
	switch cfg.Persistence.Driver {
	case "", "postgres":
		client, cleanup, err := ProvidePostgresClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		owner := postgres.NewOwnerContext(client, postgres.NewTxManager(client))
		return &PlanStore{
			Plans:  postgres.NewPlanRepository(client, owner),
			Health: client,
			Usage:  postgres.NewLLMUsageEventRepository(client),
		}, cleanup, nil
	case "supabase":
		client, err := supabase.NewClient(&cfg.Persistence.Supabase)
		if err != nil {
			return nil, nil, err
		}
		return &PlanStore{
			Plans:  supabase.NewPlanRepository(client),
			Health: client,
		}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported persistence driver: %s", cfg.Persistence.Driver)
	}
}

func ProvidePlanRepository(store *PlanStore) repository.PlanRepository {
	return store.Plans
}

func ProvideHealthChecker(store *PlanStore) repository.HealthChecker {
	return store.Health
}

// ProvideUsageRecorder 存储后端支持时提供用量记录器
func ProvideUsageRecorder(store *PlanStore) service.LLMUsageRecorder {
	if store.Usage == nil {
		return nil
	}
	return usage.NewLLMUsageRecorder(store.Usage)
}

// ProvideRedisClientOptional Redis 未启用或不可达时返回 nil，限流回落到进程内令牌桶
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, using in-process rate limiting", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRateLimiter 提供分布式限流器
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideCompleter 按默认 provider 提供补全客户端
func ProvideCompleter(ctx context.Context, cfg *config.Config, factory *llm.EinoFactory, recorder service.LLMUsageRecorder) (service.Completer, error) {
	return llm.NewCompleter(ctx, cfg, factory, recorder)
}

// ProvideNoUsageRecorder 命令行场景不落库
func ProvideNoUsageRecorder() service.LLMUsageRecorder {
	return nil
}
