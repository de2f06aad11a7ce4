//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"ideaplan-api/internal/application/planning"
	"ideaplan-api/internal/config"
	"ideaplan-api/internal/infrastructure/llm"
	"ideaplan-api/internal/infrastructure/persistence/postgres"
	"ideaplan-api/internal/interfaces/http/handler"
	"ideaplan-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 服务
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		StoreSet,
		RedisSet,
		GenerationSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeGenerator 初始化命令行使用的生成器（不依赖存储）
func InitializeGenerator(ctx context.Context, cfg *config.Config) (*planning.Generator, error) {
	wire.Build(
		ProvideNoUsageRecorder,
		GenerationSet,
	)
	return nil, nil
}

// InitializePostgres 初始化 PostgreSQL 客户端（用于迁移）
func InitializePostgres(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	wire.Build(ProvidePostgresClient)
	return nil, nil, nil
}

// StoreSet 存储提供者集合
var StoreSet = wire.NewSet(
	ProvidePlanStore,
	ProvidePlanRepository,
	ProvideHealthChecker,
	ProvideUsageRecorder,
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideRateLimiter,
)

// GenerationSet 计划生成提供者集合
var GenerationSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideCompleter,
	planning.NewGenerator,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewPlanHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
