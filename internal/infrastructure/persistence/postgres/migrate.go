// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"ideaplan-api/internal/domain/entity"
)

// ownerPolicyStatements 为 plans 表开启按用户隔离的行级安全
var ownerPolicyStatements = []string{
	`ALTER TABLE plans ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE plans FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS plans_owner_isolation ON plans`,
	`CREATE POLICY plans_owner_isolation ON plans
		USING (user_id::text = current_setting('app.current_user_id', TRUE))
		WITH CHECK (user_id::text = current_setting('app.current_user_id', TRUE))`,
}

// Migrate 创建 plans 与 llm_usage_events 表，并安装 RLS 策略
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	db := c.db.WithContext(ctx)
	if err := db.AutoMigrate(&entity.StoredPlan{}, &entity.LLMUsageEvent{}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	for _, stmt := range ownerPolicyStatements {
		if err := db.Exec(stmt).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to apply owner policy: %w", err)
		}
	}
	return nil
}
